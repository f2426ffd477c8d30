package room

import "github.com/nkern/swarmhub/internal/store"

// AuthorizeMcps replaces the room's list of MCP server names agents are
// permitted to connect to. An empty list authorizes nothing, not
// everything — callers must be explicit.
func (r *Room) AuthorizeMcps(names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	if err := store.Put(r.st, keyAuthorizedMcps(r.project), names); err != nil {
		return err
	}
	r.broadcast(Frame("policy_update", ts, map[string]any{"names": names}))
	return nil
}

// GetAuthorizedMcps returns the room's current MCP allow-list.
func (r *Room) GetAuthorizedMcps() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	names, ok, err := store.Get[[]string](r.st, keyAuthorizedMcps(r.project))
	if err != nil || !ok {
		return nil, err
	}
	return names, nil
}

// SetSwarmStopped sets or clears the room-wide stop flag. The flag is
// reported to clients (broadcast and GetSwarmStats); no room command
// refuses work while it is set. The broadcast kind
// tracks which way the flag moved: swarm_stopped on stop, swarm_resumed
// on resume.
func (r *Room) SetSwarmStopped(stopped bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	if err := store.Put(r.st, keySwarmStopped(r.project), stopped); err != nil {
		return err
	}
	kind := "swarm_resumed"
	if stopped {
		kind = "swarm_stopped"
	}
	r.broadcast(Frame(kind, ts, map[string]any{"stopped": stopped}))
	return nil
}

// IsSwarmStopped reports the room's current stop flag.
func (r *Room) IsSwarmStopped() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stopped, ok, err := store.Get[bool](r.st, keySwarmStopped(r.project))
	if err != nil || !ok {
		return false, err
	}
	return stopped, nil
}
