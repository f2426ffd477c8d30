package room

import "github.com/nkern/swarmhub/internal/store"

// TryBecomeLeader grants or renews the room's single leadership lease.
// Grant succeeds when no lease is held, the existing lease has expired,
// or the caller already holds it (idempotent renewal). Any other agent
// holding a live lease blocks the attempt.
func (r *Room) TryBecomeLeader(agent string) (granted bool, lease LeaderLease, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	cur, ok, err := store.Get[LeaderLease](r.st, keyLeaderLease(r.project))
	if err != nil {
		return false, LeaderLease{}, err
	}

	if ok && cur.Agent != agent && cur.Exp > ts {
		return false, cur, nil
	}

	newLease := LeaderLease{Agent: agent, Exp: ts + r.cfg.LeaderLeaseTTL.Milliseconds()}
	if err := store.Put(r.st, keyLeaderLease(r.project), newLease); err != nil {
		return false, LeaderLease{}, err
	}

	if _, err := r.appendEvent(ts, "leader_changed", newLease); err != nil {
		return false, LeaderLease{}, err
	}
	r.broadcast(Frame("leader_changed", ts, map[string]any{"agent": agent, "exp": newLease.Exp}))
	return true, newLease, nil
}

// CurrentLeader reports the live lease, if any has not expired.
func (r *Room) CurrentLeader() (lease LeaderLease, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	cur, found, err := store.Get[LeaderLease](r.st, keyLeaderLease(r.project))
	if err != nil || !found || cur.Exp <= ts {
		return LeaderLease{}, false, err
	}
	return cur, true, nil
}
