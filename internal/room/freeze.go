package room

import (
	"time"

	"github.com/nkern/swarmhub/internal/store"
)

// FreezeAgent marks agent frozen so the WebSocket session rejects its
// further non-ping frames until UnfreezeAgent. The REST handlers do not
// check the marker.
func (r *Room) FreezeAgent(agent, reason string) (FrozenMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freezeLocked(agent, reason)
}

func (r *Room) freezeLocked(agent, reason string) (FrozenMarker, error) {
	ts := r.clock.next()
	marker := FrozenMarker{Agent: agent, Reason: reason, TS: ts}
	if err := store.Put(r.st, keyFrozen(r.project, agent), marker); err != nil {
		return FrozenMarker{}, err
	}
	if _, err := r.appendEvent(ts, "agent_frozen", marker); err != nil {
		return FrozenMarker{}, err
	}
	r.broadcast(Frame("agent_frozen", ts, map[string]any{"agent": agent, "reason": reason}))
	r.sendDirect(agent, Frame("you_are_frozen", ts, map[string]any{"reason": reason}))
	return marker, nil
}

// UnfreezeAgent clears agent's frozen marker and resets its activity
// window so it doesn't re-trip the moment it resumes.
func (r *Room) UnfreezeAgent(agent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok, err := store.Get[FrozenMarker](r.st, keyFrozen(r.project, agent)); err != nil || !ok {
		return err
	}

	ts := r.clock.next()
	if err := r.st.Delete(keyFrozen(r.project, agent)); err != nil {
		return err
	}
	delete(r.activity, agent)
	if _, err := r.appendEvent(ts, "agent_unfrozen", map[string]any{"agent": agent}); err != nil {
		return err
	}
	r.broadcast(Frame("agent_unfrozen", ts, map[string]any{"agent": agent}))
	return nil
}

// IsFrozen reports whether agent currently carries a frozen marker.
func (r *Room) IsFrozen(agent string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok, err := store.Get[FrozenMarker](r.st, keyFrozen(r.project, agent))
	return ok, err
}

// ReportActivity adds actions to agent's rolling action count and
// applies the room's anomaly-detection rule: more than ActivityThreshold
// actions inside ActivityWindow auto-freezes the agent. Returns true if
// this call tripped the freeze.
func (r *Room) ReportActivity(agent string, actions int) (froze bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if actions <= 0 {
		actions = 1
	}

	now := time.Now()
	rec, ok := r.activity[agent]
	if !ok || now.Sub(rec.lastPing) > r.cfg.ActivityWindow {
		rec = &activityRecord{lastPing: now, actionsLast5Min: 0}
		r.activity[agent] = rec
	}
	rec.actionsLast5Min += actions
	rec.lastPing = now

	if r.cfg.ActivityThreshold > 0 && rec.actionsLast5Min > r.cfg.ActivityThreshold {
		if _, ferr := r.freezeLocked(agent, "anomaly: action rate exceeded"); ferr != nil {
			return false, ferr
		}
		return true, nil
	}
	return false, nil
}

// UpdatePulse stores agent's latest self-reported presence record.
func (r *Room) UpdatePulse(p Pulse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := store.Put(r.st, keyPulse(r.project, p.Agent), p); err != nil {
		return err
	}
	r.broadcast(Frame("pulse_update", p.LastUpdate, map[string]any{
		"agent": p.Agent, "platform": p.Platform, "branch": p.Branch,
		"currentFile": p.CurrentFile, "currentTask": p.CurrentTask, "status": p.Status,
	}))
	return nil
}

// ListPulses returns every pulse not older than PulseStaleAfter.
func (r *Room) ListPulses() ([]Pulse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := store.List[Pulse](r.st, keyPulsePrefix(r.project))
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-r.cfg.PulseStaleAfter).UnixMilli()
	out := make([]Pulse, 0, len(entries))
	for _, e := range entries {
		if e.Value.LastUpdate >= cutoff {
			out = append(out, e.Value)
		}
	}
	return out, nil
}
