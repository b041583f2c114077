// Package audit records administrative and automatic state changes to
// canonical questions in the append-only moderation log.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies the kind of change recorded by an Entry.
type Action string

const (
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
	ActionPending            Action = "pending"
	ActionDelete             Action = "delete"
	ActionEdit               Action = "edit"
	ActionMerge              Action = "merge"
	ActionBestScriptOverride Action = "best_script_override"
)

// Actors used when a change is not made by a named administrator.
const (
	SystemActor = "system"
	FilterActor = "filter"
)

// Entry is a single row of the moderation log. Entries are never updated or
// deleted, and QuestionID may refer to a question that no longer exists.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Actor      string    `json:"actor"`
	Action     Action    `json:"action"`
	OldValue   *string   `json:"old_value"`
	NewValue   *string   `json:"new_value"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record carries the values of a new log entry. An empty OldValue or NewValue
// is stored as NULL and an empty Actor defaults to SystemActor.
type Record struct {
	QuestionID uuid.UUID
	Actor      string
	Action     Action
	OldValue   string
	NewValue   string
	Reason     string
}
