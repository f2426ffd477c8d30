package natsbus

import "fmt"

// Topic patterns for the room broadcast bus. Every project room gets its
// own subject namespace so rooms never cross-talk even though they share
// one embedded NATS server.

// TopicRoomBroadcast is where a room publishes every broadcast frame
// produced by its command dispatcher. The room's own WebSocket hub
// subscribes to this subject to fan frames out to sockets, and nothing
// outside the room process ever needs to reach it.
func TopicRoomBroadcast(project string) string {
	return fmt.Sprintf("room.%s.broadcast", project)
}

// TopicRoomDirect targets the sockets tagged with a single agent name,
// used for you_are_frozen / you_are_preempted deliveries.
func TopicRoomDirect(project, agent string) string {
	return fmt.Sprintf("room.%s.direct.%s", project, agent)
}

const TopicRoomsAll = "room.>"
