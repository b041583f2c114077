// Package classifications stores the analysis produced for each processed
// call: the cluster and question it was filed under, how it ended, and the
// model that produced it. Operators can mark an analysis as validated.
package classifications

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Classification is the stored analysis of one document. QuestionID is nil
// when the call carried no trackable question.
type Classification struct {
	ID           uuid.UUID  `json:"id"`
	DocumentID   uuid.UUID  `json:"document_id"`
	QuestionID   *uuid.UUID `json:"question_id"`
	Cluster      string     `json:"cluster"`
	Subcategory  *string    `json:"subcategory"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	Resolution   string     `json:"resolution"`
	Satisfaction string     `json:"satisfaction"`
	Summary      string     `json:"summary"`
	ScriptCount  int        `json:"script_count"`
	ClassifiedAt time.Time  `json:"classified_at"`
	ModelName    string     `json:"model_name"`
	ProviderName string     `json:"provider_name"`
	ValidatedBy  *string    `json:"validated_by"`
	ValidatedAt  *time.Time `json:"validated_at"`
}

// RecordCommand carries the analysis of a document. Recording the same
// document again replaces the previous analysis and clears validation.
type RecordCommand struct {
	DocumentID   uuid.UUID
	QuestionID   *uuid.UUID
	Cluster      string
	Subcategory  *string
	Question     string
	Answer       string
	Resolution   string
	Satisfaction string
	Summary      string
	ScriptCount  int
	ModelName    string
	ProviderName string
}

// ValidateCommand carries the data needed to validate a classification.
// ValidatedBy identifies the operator who confirmed the analysis.
type ValidateCommand struct {
	ValidatedBy string `json:"validated_by"`
}

func (c ValidateCommand) validate() error {
	if strings.TrimSpace(c.ValidatedBy) == "" {
		return ErrInvalidCommand
	}
	return nil
}

// Bucket is one cluster/resolution cell of a Breakdown.
type Bucket struct {
	Cluster    string `json:"cluster"`
	Resolution string `json:"resolution"`
	Calls      int    `json:"calls"`
}
