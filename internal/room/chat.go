package room

// BroadcastChat appends a free-form chat message to the event log and
// broadcasts it to every subscriber. Unlike the coordination commands,
// a chat message carries no ownership or conflict semantics — it's
// purely for agents to talk to each other over the same channel.
func (r *Room) BroadcastChat(agent, message, channel string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	payload := map[string]any{"agent": agent, "message": message, "channel": channel}
	ev, err := r.appendEvent(ts, "chat", payload)
	if err != nil {
		return Event{}, err
	}
	r.broadcast(Frame("chat", ts, payload))
	return ev, nil
}
