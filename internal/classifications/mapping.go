package classifications

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifications", "c").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("question_id", "QuestionID").
	Project("cluster", "Cluster").
	Project("subcategory", "Subcategory").
	Project("question", "Question").
	Project("answer", "Answer").
	Project("resolution", "Resolution").
	Project("satisfaction", "Satisfaction").
	Project("summary", "Summary").
	Project("script_count", "ScriptCount").
	Project("classified_at", "ClassifiedAt").
	Project("model_name", "ModelName").
	Project("provider_name", "ProviderName").
	Project("validated_by", "ValidatedBy").
	Project("validated_at", "ValidatedAt")

const returning = `id, document_id, question_id, cluster, subcategory, question, answer,
		resolution, satisfaction, summary, script_count, classified_at,
		model_name, provider_name, validated_by, validated_at`

var defaultSort = query.SortField{
	Field:      "ClassifiedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for classification queries.
// Nil fields are ignored. From and To bound classified_at as a half-open
// window; the rest match exactly.
type Filters struct {
	Cluster      *string    `json:"cluster,omitempty"`
	Resolution   *string    `json:"resolution,omitempty"`
	Satisfaction *string    `json:"satisfaction,omitempty"`
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`
	QuestionID   *uuid.UUID `json:"question_id,omitempty"`
	ValidatedBy  *string    `json:"validated_by,omitempty"`
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Cluster", f.Cluster).
		WhereEquals("Resolution", f.Resolution).
		WhereEquals("Satisfaction", f.Satisfaction).
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("QuestionID", f.QuestionID).
		WhereEquals("ValidatedBy", f.ValidatedBy).
		WhereAfter("ClassifiedAt", f.From).
		WhereBefore("ClassifiedAt", f.To)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("cluster"); c != "" {
		f.Cluster = &c
	}

	if r := values.Get("resolution"); r != "" {
		f.Resolution = &r
	}

	if s := values.Get("satisfaction"); s != "" {
		f.Satisfaction = &s
	}

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}

	if q := values.Get("question_id"); q != "" {
		if id, err := uuid.Parse(q); err == nil {
			f.QuestionID = &id
		}
	}

	if v := values.Get("validated_by"); v != "" {
		f.ValidatedBy = &v
	}

	f.From = parseTime(values.Get("from"))
	f.To = parseTime(values.Get("to"))

	return f
}

// parseTime accepts RFC 3339 timestamps or bare dates.
func parseTime(s string) *time.Time {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var c Classification
	err := s.Scan(
		&c.ID,
		&c.DocumentID,
		&c.QuestionID,
		&c.Cluster,
		&c.Subcategory,
		&c.Question,
		&c.Answer,
		&c.Resolution,
		&c.Satisfaction,
		&c.Summary,
		&c.ScriptCount,
		&c.ClassifiedAt,
		&c.ModelName,
		&c.ProviderName,
		&c.ValidatedBy,
		&c.ValidatedAt,
	)
	return c, err
}
