package room

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nkern/swarmhub/internal/roomerr"
	"github.com/nkern/swarmhub/internal/store"
)

// TriggerUrgent opens the room's single preemption event. Any agent
// whose pulse reports a current file containing one of
// in.AffectedFiles as a substring is preempted: tagged on the Urgent
// record and sent a direct you_are_preempted frame. Only one urgent can
// be active at a time.
func (r *Room) TriggerUrgent(in UrgentInput) (Urgent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok, err := store.Get[Urgent](r.st, keyUrgentActive(r.project)); err != nil {
		return Urgent{}, err
	} else if ok {
		return Urgent{}, roomerr.BadRequest("an urgent is already active")
	}

	ts := r.clock.next()
	u := Urgent{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Reason:        in.Reason,
		Initiator:     in.Initiator,
		AffectedFiles: in.AffectedFiles,
		Status:        "active",
		CreatedAt:     ts,
	}

	pulses, err := store.List[Pulse](r.st, keyPulsePrefix(r.project))
	if err != nil {
		return Urgent{}, err
	}
	for _, e := range pulses {
		if fileAffected(e.Value.CurrentFile, in.AffectedFiles) {
			u.PreemptedAgents = append(u.PreemptedAgents, e.Value.Agent)
		}
	}

	if err := store.Put(r.st, keyUrgentActive(r.project), u); err != nil {
		return Urgent{}, err
	}
	if _, err := r.appendEvent(ts, "urgent_preemption", u); err != nil {
		return Urgent{}, err
	}
	r.broadcast(Frame("urgent_preemption", ts, map[string]any{
		"id": u.ID, "title": u.Title, "reason": u.Reason, "affectedFiles": u.AffectedFiles,
	}))
	for _, agent := range u.PreemptedAgents {
		r.sendDirect(agent, Frame("you_are_preempted", ts, map[string]any{
			"urgentId": u.ID, "title": u.Title, "reason": u.Reason,
		}))
	}
	return u, nil
}

func fileAffected(currentFile string, affected []string) bool {
	if currentFile == "" {
		return false
	}
	for _, f := range affected {
		if f != "" && strings.Contains(currentFile, f) {
			return true
		}
	}
	return false
}

// GetActiveUrgent returns the room's live urgent, if any.
func (r *Room) GetActiveUrgent() (Urgent, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return store.Get[Urgent](r.st, keyUrgentActive(r.project))
}

// ResolveUrgent closes the active urgent. A no-op if none is active.
func (r *Room) ResolveUrgent() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok, err := store.Get[Urgent](r.st, keyUrgentActive(r.project))
	if err != nil || !ok {
		return err
	}

	ts := r.clock.next()
	if err := r.st.Delete(keyUrgentActive(r.project)); err != nil {
		return err
	}
	u.Status = "resolved"
	u.ResolvedAt = &ts
	if _, err := r.appendEvent(ts, "urgent_resolved", u); err != nil {
		return err
	}
	r.broadcast(Frame("urgent_resolved", ts, map[string]any{"id": u.ID}))
	return nil
}
