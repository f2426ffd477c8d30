package room

import (
	"time"

	"github.com/google/uuid"
	"github.com/nkern/swarmhub/internal/store"
)

// appendEvent persists one Event and trims the log back to EventLogMax
// entries, oldest first. Callers must already hold mu.
func (r *Room) appendEvent(ts int64, typ string, payload any) (Event, error) {
	ev := Event{ID: uuid.NewString(), TS: ts, Type: typ, Payload: payload}
	if err := store.Put(r.st, keyEvent(r.project, ts, ev.ID), ev); err != nil {
		return Event{}, err
	}
	r.trimEvents()
	return ev, nil
}

func (r *Room) trimEvents() {
	max := r.cfg.EventLogMax
	if max <= 0 {
		return
	}
	entries, err := store.List[Event](r.st, keyEventPrefix(r.project))
	if err != nil || len(entries) <= max {
		return
	}
	excess := len(entries) - max
	for _, e := range entries[:excess] {
		_ = r.st.Delete(e.Key)
	}
}

// RecordExternal appends one event of the given type — whether it
// originated from a client's raw "event" frame or from an external
// source like a GitHub webhook delivery — and re-broadcasts it verbatim
// as an event frame carrying the same type and payload, under the same
// ts/mutex discipline as the in-room commands.
func (r *Room) RecordExternal(typ string, payload any) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	ev, err := r.appendEvent(ts, typ, payload)
	if err != nil {
		return Event{}, err
	}
	r.broadcast(Frame("event", ts, map[string]any{"type": typ, "payload": payload}))
	return ev, nil
}

// GetEventsSince returns every event with ts strictly greater than
// since, in chronological order, for catch-up after a reconnect.
func (r *Room) GetEventsSince(since int64) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := store.List[Event](r.st, keyEventPrefix(r.project))
	if err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(entries))
	for _, e := range entries {
		if e.Value.TS > since {
			out = append(out, e.Value)
		}
	}
	return out, nil
}

// GetTimeline merges the event log with pulses not older than
// PulseStaleAfter into one chronologically ordered view.
func (r *Room) GetTimeline() ([]TimelineEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := store.List[Event](r.st, keyEventPrefix(r.project))
	if err != nil {
		return nil, err
	}
	pulses, err := store.List[Pulse](r.st, keyPulsePrefix(r.project))
	if err != nil {
		return nil, err
	}

	out := make([]TimelineEntry, 0, len(events)+len(pulses))
	for _, e := range events {
		out = append(out, TimelineEntry{Kind: "event", TS: e.Value.TS, Data: e.Value})
	}
	cutoff := time.Now().Add(-r.cfg.PulseStaleAfter).UnixMilli()
	for _, p := range pulses {
		if p.Value.LastUpdate < cutoff {
			continue
		}
		out = append(out, TimelineEntry{Kind: "pulse", TS: p.Value.LastUpdate, Data: p.Value})
	}

	// insertion sort: small bounded N (EventLogMax + live agent count),
	// avoids pulling in sort for one call site.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].TS < out[j-1].TS; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if max := r.cfg.TimelineMax; max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out, nil
}
