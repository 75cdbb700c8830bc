package domain

import (
	"errors"
	"fmt"
)

// ErrGraphNotFound is returned when no persisted graph exists for an owner.
var ErrGraphNotFound = errors.New("path graph not found")

// ErrGroupNotFound is returned when a group id is unknown.
var ErrGroupNotFound = errors.New("group not found")

// ErrPathActive is returned when a group already holds an active path.
var ErrPathActive = errors.New("group already has an active path")

// ErrRunInProgress is returned when a node is selected while a room run is still active.
var ErrRunInProgress = errors.New("room run in progress")

// ErrNoRun is returned when a run operation targets a group without a run.
var ErrNoRun = errors.New("no room run")

// ErrNotMember is returned when an actor is not part of a group.
var ErrNotMember = errors.New("not a group member")

// ErrAlreadyMember is returned when an actor is already part of a group.
var ErrAlreadyMember = errors.New("already a group member")

// GenerationConstraintError reports parameters a graph cannot be generated from.
type GenerationConstraintError struct {
	Field  string
	Reason string
}

func (e *GenerationConstraintError) Error() string {
	return fmt.Sprintf("invalid generation params: %s %s", e.Field, e.Reason)
}

// GraphIntegrityError reports a persisted document that does not describe a valid graph.
// Document holds the raw bytes so the caller can keep them for inspection.
type GraphIntegrityError struct {
	Reason   string
	Document []byte
	Err      error
}

func (e *GraphIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("graph integrity: %s: %v", e.Reason, e.Err)
	}
	return "graph integrity: " + e.Reason
}

func (e *GraphIntegrityError) Unwrap() error {
	return e.Err
}

// IllegalTransitionError reports a run operation not allowed from the current status.
type IllegalTransitionError struct {
	Op   string
	From RunStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s from %s", e.Op, e.From)
}

// TraversalViolationError reports a node selection that breaks the traversal rules.
type TraversalViolationError struct {
	GroupID string
	From    *NodeID
	To      NodeID
	Reason  string
}

func (e *TraversalViolationError) Error() string {
	if e.From == nil {
		return fmt.Sprintf("group %s cannot select node %d: %s", e.GroupID, e.To, e.Reason)
	}
	return fmt.Sprintf("group %s cannot move from node %d to %d: %s", e.GroupID, *e.From, e.To, e.Reason)
}

// UnresolvedRoomError reports a node whose room could not be resolved.
type UnresolvedRoomError struct {
	NodeID NodeID
	Level  int
	RoomID string
}

func (e *UnresolvedRoomError) Error() string {
	if e.RoomID != "" {
		return fmt.Sprintf("node %d (level %d): room %q not in catalog", e.NodeID, e.Level, e.RoomID)
	}
	return fmt.Sprintf("node %d (level %d): no room assigned", e.NodeID, e.Level)
}
