package room

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nkern/swarmhub/internal/config"
	"github.com/nkern/swarmhub/internal/natsbus"
	"github.com/nkern/swarmhub/internal/store"
	"github.com/nats-io/nats.go"
)

// Room is the single-writer actor for one project: its storage, socket
// set, per-agent activity counters, and serialized command dispatcher.
// Every command method acquires mu for its whole duration, keeping one
// room's storage operations from interleaving; the socket-set methods
// use the socket set's own lock instead.
type Room struct {
	project string
	cfg     config.RoomConfig
	st      *store.Store
	nats    *natsbus.Client
	clock   clock

	mu       sync.Mutex
	sockets  *socketSet
	activity map[string]*activityRecord
}

// activityRecord is the in-memory rate-window counter driving anomaly
// detection. It is never persisted — a restart resets it.
type activityRecord struct {
	lastPing        time.Time
	actionsLast5Min int
}

// New creates a Room for one project. nc may be nil in tests that don't
// need broadcast fan-out.
func New(project string, st *store.Store, nc *natsbus.Client, cfg config.RoomConfig) *Room {
	r := &Room{
		project:  project,
		cfg:      cfg,
		st:       st,
		nats:     nc,
		sockets:  newSocketSet(),
		activity: make(map[string]*activityRecord),
	}
	r.subscribeBroadcast()
	return r
}

// subscribeBroadcast wires the room's own socket fan-out to the NATS
// subjects its commands publish on, so delivery to sockets always goes
// through the same pub/sub path a second process would use. The room is
// the only subscriber today, but the architecture doesn't assume that.
func (r *Room) subscribeBroadcast() {
	if r.nats == nil {
		return
	}
	if _, err := r.nats.Subscribe(natsbus.TopicRoomBroadcast(r.project), func(msg *nats.Msg) {
		var frame map[string]any
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			slog.Warn("room: invalid broadcast payload", "project", r.project, "error", err)
			return
		}
		r.sockets.broadcast(frame)
	}); err != nil {
		slog.Error("room: broadcast subscribe failed", "project", r.project, "error", err)
	}

	directSubject := fmt.Sprintf("room.%s.direct.*", r.project)
	if _, err := r.nats.Subscribe(directSubject, func(msg *nats.Msg) {
		idx := strings.LastIndex(msg.Subject, ".")
		if idx < 0 {
			return
		}
		agent := msg.Subject[idx+1:]
		var frame map[string]any
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			slog.Warn("room: invalid direct payload", "project", r.project, "error", err)
			return
		}
		r.sockets.sendToAgent(agent, frame)
	}); err != nil {
		slog.Error("room: direct subscribe failed", "project", r.project, "error", err)
	}
}

// broadcast publishes frame for fan-out to every subscriber of this
// room. Delivery is best-effort: the caller's response does not wait
// for delivery, only for this publish call to be accepted locally.
func (r *Room) broadcast(frame map[string]any) {
	if r.nats == nil {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("room: marshal broadcast frame failed", "project", r.project, "error", err)
		return
	}
	if err := r.nats.Publish(natsbus.TopicRoomBroadcast(r.project), data); err != nil {
		slog.Warn("room: broadcast publish failed", "project", r.project, "error", err)
	}
}

// sendDirect delivers frame only to sockets tagged with agent.
func (r *Room) sendDirect(agent string, frame map[string]any) {
	if r.nats == nil {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	if err := r.nats.Publish(natsbus.TopicRoomDirect(r.project, agent), data); err != nil {
		slog.Warn("room: direct publish failed", "project", r.project, "agent", agent, "error", err)
	}
}

// RegisterSocket adds a live connection to the room's socket set. Called
// only from the WebSocket accept path.
func (r *Room) RegisterSocket(s Socket) {
	r.sockets.register(s)
}

// UnregisterSocket removes a connection. Called only from the close path.
func (r *Room) UnregisterSocket(s Socket) {
	r.sockets.unregister(s)
}

func (r *Room) Project() string { return r.project }

// UpdateConfig swaps the tunables applied to future commands, used for
// SIGHUP-triggered hot reload. In-flight leases and locks keep the TTL
// they were granted with.
func (r *Room) UpdateConfig(cfg config.RoomConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}
