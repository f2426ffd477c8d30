// Package wsroom is the WebSocket transport for a Room: it upgrades an
// HTTP connection, registers a room.Socket, and translates each inbound
// frame into exactly one Room command.
package wsroom

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nkern/swarmhub/internal/room"
	"github.com/nkern/swarmhub/internal/roomerr"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

// Session wraps one live connection and implements room.Socket. Writes
// are serialized behind writeMu since a *websocket.Conn may not be used
// concurrently for writes from more than one goroutine.
type Session struct {
	conn    *websocket.Conn
	agent   string
	project string
	writeMu sync.Mutex
}

func (s *Session) Agent() string { return s.agent }

func (s *Session) Send(frame map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(frame)
}

// Serve upgrades r, registers the session with rm, and blocks until the
// connection closes (read error, client disconnect, or server shutdown).
// agent is the identity the caller asserted at upgrade time; the gateway
// checks the bearer token but does not verify the agent name.
func Serve(w http.ResponseWriter, r *http.Request, rm *room.Room, agent string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("wsroom: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := &Session{conn: conn, agent: agent, project: rm.Project()}
	rm.RegisterSocket(sess)
	defer rm.UnregisterSocket(sess)

	if frozen, err := rm.IsFrozen(agent); err == nil && frozen {
		sess.Send(room.Frame("error", time.Now().UnixMilli(), map[string]any{"error": "agent_frozen"}))
	} else {
		mcps, _ := rm.GetAuthorizedMcps()
		sess.Send(room.Frame("hello", time.Now().UnixMilli(), map[string]any{
			"project": rm.Project(), "agent": agent, "authorizedMcps": mcps,
		}))
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	go keepAlive(sess, done)
	defer close(done)

	for {
		var in inbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("wsroom: read error", "agent", agent, "error", err)
			}
			return
		}

		if in.Kind != "ping" {
			if frozen, err := rm.IsFrozen(agent); err == nil && frozen {
				sess.Send(room.Frame("error", time.Now().UnixMilli(), map[string]any{"error": "agent_frozen"}))
				continue
			}
		}

		reply, err := dispatch(rm, agent, in)
		if err != nil {
			sess.Send(errorFrame(err))
			continue
		}
		if reply != nil {
			sess.Send(reply)
		}
	}
}

func keepAlive(sess *Session, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			sess.writeMu.Lock()
			sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := sess.conn.WriteMessage(websocket.PingMessage, nil)
			sess.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func errorFrame(err error) map[string]any {
	msg := err.Error()
	if re, ok := roomerr.As(err, roomerr.KindBadRequest); ok {
		msg = re.Message
	} else if re, ok := roomerr.As(err, roomerr.KindFrozen); ok {
		msg = re.Message
	}
	return room.Frame("error", time.Now().UnixMilli(), map[string]any{"error": msg})
}

// inbound is the single wire envelope every client frame is decoded
// into; kind selects which fields dispatch reads.
type inbound struct {
	Kind                 string   `json:"kind"`
	TaskID               string   `json:"taskId,omitempty"`
	Title                string   `json:"title,omitempty"`
	Path                 string   `json:"path,omitempty"`
	Exclusive            bool     `json:"exclusive,omitempty"`
	Capabilities         []string `json:"capabilities,omitempty"`
	RequiredCapabilities []string `json:"requiredCapabilities,omitempty"`
	Reason               string   `json:"reason,omitempty"`
	AffectedFiles        []string `json:"affectedFiles,omitempty"`
	TargetAgent          string   `json:"targetAgent,omitempty"`
	Category             string   `json:"category,omitempty"`
	Description          string   `json:"description,omitempty"`
	Solution             string   `json:"solution,omitempty"`
	Query                string   `json:"query,omitempty"`
	Names                []string `json:"names,omitempty"`
	Stopped              bool     `json:"stopped,omitempty"`
	Platform             string   `json:"platform,omitempty"`
	Branch               string   `json:"branch,omitempty"`
	CurrentFile          string   `json:"currentFile,omitempty"`
	CurrentTask          string   `json:"currentTask,omitempty"`
	Status               string   `json:"status,omitempty"`
	Message              string   `json:"message,omitempty"`
	Channel              string   `json:"channel,omitempty"`
	Type                 string   `json:"type,omitempty"`
	Payload              any      `json:"payload,omitempty"`
	Actions              int      `json:"actions,omitempty"`
}

