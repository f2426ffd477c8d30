package room

import (
	"testing"
	"time"
)

func TestBroadcastChatAppendsAndBroadcasts(t *testing.T) {
	r := newTestRoomWithBus(t)

	sock := &fakeSocket{agent: "bob", frames: make(chan map[string]any, 4)}
	r.RegisterSocket(sock)

	ev, err := r.BroadcastChat("alice", "anyone free to review PR 12?", "general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type != "chat" {
		t.Errorf("expected event type=chat, got %q", ev.Type)
	}

	select {
	case frame := <-sock.frames:
		if frame["kind"] != "chat" {
			t.Fatalf("expected a chat frame, got %+v", frame)
		}
		if frame["agent"] != "alice" || frame["message"] != "anyone free to review PR 12?" || frame["channel"] != "general" {
			t.Fatalf("unexpected chat frame payload: %+v", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a chat frame to be broadcast")
	}
}

func TestBroadcastChatIsRecordedInEventLog(t *testing.T) {
	r := newTestRoom(t)

	if _, err := r.BroadcastChat("alice", "hello", "general"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events, err := r.GetEventsSince(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Type != "chat" {
		t.Fatalf("expected 1 chat event, got %+v", events)
	}
}
