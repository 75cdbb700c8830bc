package domain

// RunStatus is the lifecycle state of a room run.
type RunStatus string

const (
	StatusIdle    RunStatus = "idle"    // No run exists yet
	StatusPlacing RunStatus = "placing" // Waiting for the structure placement to complete
	StatusRunning RunStatus = "running" // Timer and spawning active
	StatusPaused  RunStatus = "paused"  // Timer and spawning cancelled, state frozen
	StatusStopped RunStatus = "stopped" // Cleanup in progress
	StatusEnded   RunStatus = "ended"   // Terminal
)

// Active reports whether the run still holds resources.
func (s RunStatus) Active() bool {
	return s == StatusPlacing || s == StatusRunning || s == StatusPaused
}

// EndReason explains why a run ended.
type EndReason string

const (
	ReasonCleared         EndReason = "cleared"
	ReasonTimeout         EndReason = "timeout"
	ReasonAborted         EndReason = "aborted"
	ReasonWiped           EndReason = "wiped"
	ReasonPlacementFailed EndReason = "placement_failed"
	ReasonDisbanded       EndReason = "disbanded"
)

// Outcome is the settled result of a room run.
type Outcome struct {
	RunID     string    `json:"run_id"`
	RoomID    string    `json:"room_id"`
	Reason    EndReason `json:"reason"`
	Score     int       `json:"score"`
	Elapsed   int       `json:"elapsed"`
	Remaining int       `json:"remaining"`
}

// Succeeded reports whether the outcome allows the group to progress.
func (o Outcome) Succeeded() bool {
	return o.Score > 0
}
