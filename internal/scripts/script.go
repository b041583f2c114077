// Package scripts tracks operator responses to canonical questions. It scores
// each script from observed call outcomes and keeps exactly one best script per
// question, deriving the question's lifecycle status from it.
package scripts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type classifies how a script answers a question.
type Type string

const (
	TypeInstruction Type = "instruction"
	TypeExplanation Type = "explanation"
	TypePromise     Type = "promise"
	TypeApology     Type = "apology"
	TypeInfo        Type = "info"
)

// ParseType normalizes s to a known Type. Unknown values become TypeInfo.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeInstruction, TypeExplanation, TypePromise, TypeApology, TypeInfo:
		return t
	default:
		return TypeInfo
	}
}

// Lifecycle is the question-level status derived from its best script.
type Lifecycle string

const (
	LifecycleNoScript  Lifecycle = "no_script"
	LifecycleNeedsWork Lifecycle = "needs_work"
	LifecycleResolved  Lifecycle = "resolved"
)

// Script is a candidate operator response bound to one canonical question.
type Script struct {
	ID               uuid.UUID  `json:"id"`
	QuestionID       uuid.UUID  `json:"question_id"`
	Text             string     `json:"text"`
	Type             Type       `json:"type"`
	HasSteps         bool       `json:"has_steps"`
	SuccessCount     int        `json:"success_count"`
	FailCount        int        `json:"fail_count"`
	Effectiveness    float64    `json:"effectiveness"`
	IsBest           bool       `json:"is_best"`
	SourceDocumentID *uuid.UUID `json:"source_document_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ObserveCommand reports one sighting of a script in a processed call.
// Succeeded is the call-level outcome signal (see Succeeded).
type ObserveCommand struct {
	QuestionID       uuid.UUID
	Text             string
	Type             Type
	HasSteps         bool
	Succeeded        bool
	SourceDocumentID *uuid.UUID
}

// Observation is the result of Observe. Skipped is set when the candidate text
// was too short to track; Script and Ranking are then nil.
type Observation struct {
	Script  *Script  `json:"script,omitempty"`
	Created bool     `json:"created"`
	Skipped bool     `json:"skipped"`
	Ranking *Ranking `json:"ranking,omitempty"`
}

// OutcomeCommand records explicit feedback for a script.
type OutcomeCommand struct {
	Resolved bool `json:"resolved"`
}

// OverrideCommand forces a script to be best until the next recompute.
type OverrideCommand struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason"`
}

// Succeeded derives the outcome signal of a call: a resolved call succeeds, and
// otherwise a positive or neutral customer satisfaction counts as success.
func Succeeded(resolution, satisfaction string) bool {
	if strings.EqualFold(resolution, "resolved") {
		return true
	}
	switch strings.ToLower(satisfaction) {
	case "positive", "neutral":
		return true
	}
	return false
}
