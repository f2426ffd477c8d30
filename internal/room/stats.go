package room

import "github.com/nkern/swarmhub/internal/store"

// GetTaskList merges open auctions and bare claims into one dashboard
// view: an open auction shows "announced" until it has a bid and
// "in_progress" after that; a claim with no open auction shows "claimed"
// with its owner as assignee.
func (r *Room) GetTaskList() ([]TaskSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auctions, err := store.List[Auction](r.st, keyAuctionPrefix(r.project))
	if err != nil {
		return nil, err
	}
	claims, err := store.List[TaskClaim](r.st, keyTaskClaimPrefix(r.project))
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]TaskClaim, len(claims))
	for _, e := range claims {
		claimed[e.Value.TaskID] = e.Value
	}

	out := make([]TaskSummary, 0, len(auctions)+len(claims))
	seen := make(map[string]bool, len(auctions))
	for _, e := range auctions {
		a := e.Value
		seen[a.TaskID] = true
		status := "announced"
		if len(a.Bids) > 0 {
			status = "in_progress"
		}
		out = append(out, TaskSummary{TaskID: a.TaskID, Title: a.Title, Status: status})
	}
	for taskID, c := range claimed {
		if seen[taskID] {
			continue
		}
		out = append(out, TaskSummary{TaskID: taskID, Assignee: c.Agent, Status: "claimed"})
	}
	return out, nil
}

// GetSwarmStats returns the room's dashboard snapshot.
func (r *Room) GetSwarmStats() (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	lease, hasLeader, err := store.Get[LeaderLease](r.st, keyLeaderLease(r.project))
	if err != nil {
		return Stats{}, err
	}
	leader := ""
	if hasLeader && lease.Exp > ts {
		leader = lease.Agent
	}

	pulses, err := store.List[Pulse](r.st, keyPulsePrefix(r.project))
	if err != nil {
		return Stats{}, err
	}
	cutoff := ts - r.cfg.PulseStaleAfter.Milliseconds()
	activeAgents := 0
	for _, e := range pulses {
		if e.Value.LastUpdate >= cutoff {
			activeAgents++
		}
	}

	frozen, err := store.List[FrozenMarker](r.st, keyFrozenPrefix(r.project))
	if err != nil {
		return Stats{}, err
	}

	auctions, err := store.List[Auction](r.st, keyAuctionPrefix(r.project))
	if err != nil {
		return Stats{}, err
	}
	claims, err := store.List[TaskClaim](r.st, keyTaskClaimPrefix(r.project))
	if err != nil {
		return Stats{}, err
	}
	events, err := store.List[Event](r.st, keyEventPrefix(r.project))
	if err != nil {
		return Stats{}, err
	}
	stopped, _, err := store.Get[bool](r.st, keySwarmStopped(r.project))
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Leader:       leader,
		ActiveAgents: activeAgents,
		FrozenAgents: len(frozen),
		OpenAuctions: len(auctions),
		ClaimedTasks: len(claims),
		SwarmStopped: stopped,
		EventCount:   len(events),
	}, nil
}
