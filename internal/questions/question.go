// Package questions stores canonical questions, their phrasing variants and
// their embedding vectors.
package questions

import (
	"time"

	"github.com/google/uuid"
)

// ModerationStatus is the human review state of a question.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// Valid reports whether s is a known moderation status.
func (s ModerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Question is the deduplicated representative of semantically equivalent
// customer questions. Cluster and Subcategory are the joined names.
type Question struct {
	ID               uuid.UUID        `json:"id"`
	ClusterID        uuid.UUID        `json:"cluster_id"`
	SubcategoryID    *uuid.UUID       `json:"subcategory_id"`
	Text             string           `json:"canonical_text"`
	ModerationStatus ModerationStatus `json:"moderation_status"`
	LifecycleStatus  string           `json:"lifecycle_status"`
	TimesAsked       int              `json:"times_asked"`
	BestScriptID     *uuid.UUID       `json:"best_script_id"`
	SourceDocumentID *uuid.UUID       `json:"source_document_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Cluster          string           `json:"cluster"`
	Subcategory      *string          `json:"subcategory"`
}

// Variant is an alternative phrasing attached to a question.
type Variant struct {
	ID              uuid.UUID `json:"id"`
	QuestionID      uuid.UUID `json:"question_id"`
	Text            string    `json:"variant_text"`
	SourceReference string    `json:"source_reference"`
	CreatedAt       time.Time `json:"created_at"`
}

// Embedded is the projection of a question used by similarity scans.
type Embedded struct {
	ID         uuid.UUID
	ClusterID  uuid.UUID
	Text       string
	Vector     []float32
	TimesAsked int
	CreatedAt  time.Time
}

// CreateCommand carries the data for a new canonical question. A nil Embedding
// is stored as NULL and filled later by a backfill. An empty ModerationStatus
// means pending; any other initial status is written to the moderation log
// with ModerationReason.
type CreateCommand struct {
	ClusterID        uuid.UUID
	SubcategoryID    *uuid.UUID
	Text             string
	Embedding        []float32
	ModerationStatus ModerationStatus
	ModerationReason string
	SourceDocumentID *uuid.UUID
}

// VariantCommand attaches a new phrasing to an existing question.
type VariantCommand struct {
	QuestionID      uuid.UUID
	Text            string
	SourceReference string
}
