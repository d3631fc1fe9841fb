package taskstore

import "planner/internal/api"

// ActionKind tags a queued mutation.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
)

// PendingAction is a mutation queued while offline, replayed in FIFO order
// once connectivity returns.
type PendingAction struct {
	Kind ActionKind `json:"kind"`
	// TempID is the placeholder identity of a not-yet-confirmed create.
	TempID string `json:"tempId,omitempty"`
	// ID is the server identity targeted by an update or delete.
	ID      string           `json:"id,omitempty"`
	Payload *api.TaskPayload `json:"payload,omitempty"`
	Patch   *api.TaskPatch   `json:"patch,omitempty"`
}
