package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventPathCreated    EventType = "path_created"
	EventNodeSelected   EventType = "node_selected"
	EventRunStarted     EventType = "run_started"
	EventRunPaused      EventType = "run_paused"
	EventRunResumed     EventType = "run_resumed"
	EventRunEnded       EventType = "run_ended"
	EventRunFailed      EventType = "run_failed"
	EventPathCompleted  EventType = "path_completed"
	EventPathFailed     EventType = "path_failed"
	EventGraphInvalid   EventType = "graph_invalid"
	EventRoomUnresolved EventType = "room_unresolved"
	EventGroupDisbanded EventType = "group_disbanded"
)

// Event is a notification about group progress, emitted to the host.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	GroupID   string    `json:"group_id,omitempty"`
	PathID    string    `json:"path_id,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Node      *NodeID   `json:"node,omitempty"`
	RoomID    string    `json:"room_id,omitempty"`
	Score     int       `json:"score,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// NewEvent stamps an event of the given type with the current time.
func NewEvent(t EventType, groupID string) Event {
	return Event{Timestamp: time.Now().UTC(), Type: t, GroupID: groupID}
}
