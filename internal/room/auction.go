package room

import (
	"github.com/nkern/swarmhub/internal/roomerr"
	"github.com/nkern/swarmhub/internal/store"
)

// AnnounceTask opens an auction for taskID with the capabilities a
// winning bid must cover. Announcing an already-open auction is
// rejected; the caller must resolve or let it stand.
func (r *Room) AnnounceTask(taskID, title string, requiredCapabilities []string) (Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok, err := store.Get[Auction](r.st, keyAuction(r.project, taskID)); err != nil {
		return Auction{}, err
	} else if ok {
		return Auction{}, roomerr.BadRequest("auction already open for " + taskID)
	}

	ts := r.clock.next()
	auction := Auction{TaskID: taskID, Title: title, RequiredCapabilities: requiredCapabilities}
	if err := store.Put(r.st, keyAuction(r.project, taskID), auction); err != nil {
		return Auction{}, err
	}
	if _, err := r.appendEvent(ts, "task_announced", auction); err != nil {
		return Auction{}, err
	}
	r.broadcast(Frame("task_announced", ts, map[string]any{
		"taskId": taskID, "title": title, "requiredCapabilities": requiredCapabilities,
	}))
	return auction, nil
}

// BidTask appends agent's bid to taskID's open auction, in arrival
// order.
func (r *Room) BidTask(taskID, agent string, capabilities []string) (Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok, err := store.Get[Auction](r.st, keyAuction(r.project, taskID))
	if err != nil {
		return Auction{}, err
	}
	if !ok {
		return Auction{}, roomerr.BadRequest("no open auction for " + taskID)
	}

	ts := r.clock.next()
	auction.Bids = append(auction.Bids, Bid{Agent: agent, Capabilities: capabilities, TS: ts})
	if err := store.Put(r.st, keyAuction(r.project, taskID), auction); err != nil {
		return Auction{}, err
	}
	r.broadcast(Frame("task_bid", ts, map[string]any{"taskId": taskID, "agent": agent}))
	return auction, nil
}

// ResolveAuction picks the first bidder (by bid order) whose
// capabilities cover every required capability. If no bidder qualifies,
// it falls back to the first bidder rather than leaving the task
// unclaimed — a no-winner result is reserved for an auction with no bids
// at all. The winner is granted the task claim as a subcommand and the
// auction closes.
func (r *Room) ResolveAuction(taskID string) (winner string, ok bool, err error) {
	r.mu.Lock()
	defer func() { r.mu.Unlock() }()

	auction, found, err := store.Get[Auction](r.st, keyAuction(r.project, taskID))
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, roomerr.BadRequest("no open auction for " + taskID)
	}
	if len(auction.Bids) == 0 {
		return "", false, nil
	}

	winner = auction.Bids[0].Agent
	for _, bid := range auction.Bids {
		if hasAllCapabilities(bid.Capabilities, auction.RequiredCapabilities) {
			winner = bid.Agent
			break
		}
	}

	if _, err := r.claimTaskLocked(winner, taskID); err != nil {
		return "", false, err
	}
	if err := r.st.Delete(keyAuction(r.project, taskID)); err != nil {
		return "", false, err
	}

	ts := r.clock.next()
	if _, err := r.appendEvent(ts, "auction_resolved", map[string]any{"taskId": taskID, "winner": winner}); err != nil {
		return "", false, err
	}
	r.broadcast(Frame("auction_resolved", ts, map[string]any{"taskId": taskID, "winner": winner}))
	return winner, true, nil
}

func hasAllCapabilities(have, required []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, c := range have {
		set[c] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; !ok {
			return false
		}
	}
	return true
}

// ListAuctions returns every currently open auction.
func (r *Room) ListAuctions() ([]Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := store.List[Auction](r.st, keyAuctionPrefix(r.project))
	if err != nil {
		return nil, err
	}
	out := make([]Auction, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out, nil
}
