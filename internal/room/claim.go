package room

import (
	"github.com/nkern/swarmhub/internal/store"
)

// ClaimResult is the outcome of a claim attempt. A conflict with another
// agent's claim is a business result, not a transport error: OK is false
// and ClaimedBy names the current owner.
type ClaimResult struct {
	OK        bool   `json:"ok"`
	ClaimedBy string `json:"claimedBy,omitempty"`
}

// ClaimTask gives agent exclusive ownership of taskID until released. A
// task already claimed by a different agent is a conflict, reported in
// the result rather than as an error; re-claiming by the current owner
// is idempotent and still grants.
func (r *Room) ClaimTask(agent, taskID string) (ClaimResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimTaskLocked(agent, taskID)
}

// claimTaskLocked is ClaimTask's body, callable from commands that
// already hold mu (auction resolution grants the winner this way).
func (r *Room) claimTaskLocked(agent, taskID string) (ClaimResult, error) {
	ts := r.clock.next()
	existing, ok, err := store.Get[TaskClaim](r.st, keyTaskClaim(r.project, taskID))
	if err != nil {
		return ClaimResult{}, err
	}
	if ok && existing.Agent != agent {
		return ClaimResult{OK: false, ClaimedBy: existing.Agent}, nil
	}

	claim := TaskClaim{TaskID: taskID, Agent: agent, TS: ts}
	if err := store.Put(r.st, keyTaskClaim(r.project, taskID), claim); err != nil {
		return ClaimResult{}, err
	}
	if _, err := r.appendEvent(ts, "task_claimed", claim); err != nil {
		return ClaimResult{}, err
	}
	r.broadcast(Frame("task_claimed", ts, map[string]any{"taskId": taskID, "agent": agent}))
	return ClaimResult{OK: true}, nil
}

// ReleaseTask drops agent's claim on taskID. Releasing a task you don't
// own, or one that isn't claimed, is a no-op rather than an error so
// retries after a crash are safe.
func (r *Room) ReleaseTask(agent, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok, err := store.Get[TaskClaim](r.st, keyTaskClaim(r.project, taskID))
	if err != nil || !ok || existing.Agent != agent {
		return err
	}

	ts := r.clock.next()
	if err := r.st.Delete(keyTaskClaim(r.project, taskID)); err != nil {
		return err
	}
	if _, err := r.appendEvent(ts, "task_released", TaskClaim{TaskID: taskID, Agent: agent, TS: ts}); err != nil {
		return err
	}
	r.broadcast(Frame("task_released", ts, map[string]any{"taskId": taskID, "agent": agent}))
	return nil
}

// ListClaims returns every currently claimed task.
func (r *Room) ListClaims() ([]TaskClaim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := store.List[TaskClaim](r.st, keyTaskClaimPrefix(r.project))
	if err != nil {
		return nil, err
	}
	out := make([]TaskClaim, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out, nil
}
