package room

import (
	"log/slog"
	"sync"
)

// Socket is the room's view of one live WebSocket connection: just enough
// to tag it with the agent name asserted at upgrade time and push a frame.
// The concrete implementation (internal/wsroom) wraps a *websocket.Conn;
// the room package stays free of any transport dependency.
type Socket interface {
	Agent() string
	Send(frame map[string]any) error
}

// socketSet is the live WebSocket set for one room. It is mutated only
// by the room's accept-path and close-path, and broadcast evicts any
// socket whose send fails instead of letting one slow or dead peer
// block the others.
type socketSet struct {
	mu      sync.RWMutex
	sockets map[Socket]struct{}
}

func newSocketSet() *socketSet {
	return &socketSet{sockets: make(map[Socket]struct{})}
}

func (s *socketSet) register(sock Socket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets[sock] = struct{}{}
}

func (s *socketSet) unregister(sock Socket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, sock)
}

// broadcast sends frame to every socket in the set, evicting any socket
// whose Send fails. A failing peer must not block others.
func (s *socketSet) broadcast(frame map[string]any) {
	s.mu.RLock()
	targets := make([]Socket, 0, len(s.sockets))
	for sock := range s.sockets {
		targets = append(targets, sock)
	}
	s.mu.RUnlock()

	var dead []Socket
	for _, sock := range targets {
		if err := sock.Send(frame); err != nil {
			slog.Warn("room: dropping socket after failed send", "agent", sock.Agent(), "error", err)
			dead = append(dead, sock)
		}
	}
	if len(dead) == 0 {
		return
	}
	s.mu.Lock()
	for _, sock := range dead {
		delete(s.sockets, sock)
	}
	s.mu.Unlock()
}

// sendToAgent delivers frame only to sockets tagged with the given agent
// name (used for you_are_frozen / you_are_preempted).
func (s *socketSet) sendToAgent(agent string, frame map[string]any) {
	s.mu.RLock()
	var targets []Socket
	for sock := range s.sockets {
		if sock.Agent() == agent {
			targets = append(targets, sock)
		}
	}
	s.mu.RUnlock()

	var dead []Socket
	for _, sock := range targets {
		if err := sock.Send(frame); err != nil {
			dead = append(dead, sock)
		}
	}
	if len(dead) == 0 {
		return
	}
	s.mu.Lock()
	for _, sock := range dead {
		delete(s.sockets, sock)
	}
	s.mu.Unlock()
}
