// Package moderation implements human review of canonical questions: status
// changes, edits, deletes, merges of duplicate questions, and the filter rules
// that assign the initial status of new questions. Every change is recorded in
// the moderation log.
package moderation

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/internal/questions"
)

// ModerateCommand changes a question's moderation status. Action is one of
// approve, reject or pending.
type ModerateCommand struct {
	Action audit.Action `json:"action"`
	Actor  string       `json:"actor"`
	Reason string       `json:"reason"`
}

// EditCommand replaces a question's canonical text.
type EditCommand struct {
	Text   string `json:"canonical_text"`
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

// DeleteCommand removes a question with its variants and scripts.
type DeleteCommand struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

// BulkCommand applies approve, reject or delete to each id independently.
type BulkCommand struct {
	IDs    []uuid.UUID  `json:"ids"`
	Action audit.Action `json:"action"`
	Actor  string       `json:"actor"`
	Reason string       `json:"reason"`
}

// BulkError reports the failure of one id in a bulk operation.
type BulkError struct {
	ID    uuid.UUID `json:"id"`
	Error string    `json:"error"`
}

// BulkResult summarizes a best-effort bulk operation.
type BulkResult struct {
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []BulkError `json:"errors"`
}

// MergeCommand folds the source question into the target.
type MergeCommand struct {
	SourceID uuid.UUID `json:"source_id"`
	TargetID uuid.UUID `json:"target_id"`
	Actor    string    `json:"actor"`
	Reason   string    `json:"reason"`
}

// MergeRecord is the immutable trail of a completed merge.
type MergeRecord struct {
	ID              uuid.UUID `json:"id"`
	SourceID        uuid.UUID `json:"source_id"`
	TargetID        uuid.UUID `json:"target_id"`
	SourceText      string    `json:"source_text"`
	VariantsMoved   int       `json:"variants_moved"`
	ScriptsMoved    int       `json:"scripts_moved"`
	TimesAskedAdded int       `json:"times_asked_added"`
	Actor           string    `json:"actor"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}

// MergeResult reports a merge. A referential failure (missing or identical
// ids) yields Success false with a Message and no changes applied.
type MergeResult struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Record  *MergeRecord        `json:"record,omitempty"`
	Target  *questions.Question `json:"target,omitempty"`
}

func statusFor(a audit.Action) (questions.ModerationStatus, bool) {
	switch a {
	case audit.ActionApprove:
		return questions.StatusApproved, true
	case audit.ActionReject:
		return questions.StatusRejected, true
	case audit.ActionPending:
		return questions.StatusPending, true
	default:
		return "", false
	}
}
