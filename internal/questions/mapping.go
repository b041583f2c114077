package questions

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/similarity"
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "questions", "q").
	Project("id", "ID").
	Project("cluster_id", "ClusterID").
	Project("subcategory_id", "SubcategoryID").
	Project("canonical_text", "Text").
	Project("moderation_status", "ModerationStatus").
	Project("lifecycle_status", "LifecycleStatus").
	Project("times_asked", "TimesAsked").
	Project("best_script_id", "BestScriptID").
	Project("source_document_id", "SourceDocumentID").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Join("public", "clusters", "c", "JOIN", "q.cluster_id = c.id").
	Project("name", "Cluster").
	Join("public", "subcategories", "sc", "LEFT JOIN", "q.subcategory_id = sc.id").
	Project("name", "Subcategory")

var defaultSort = []query.SortField{
	{Field: "TimesAsked", Descending: true},
	{Field: "CreatedAt"},
}

var variantProjection = query.
	NewProjectionMap("public", "question_variants", "v").
	Project("id", "ID").
	Project("question_id", "QuestionID").
	Project("variant_text", "Text").
	Project("source_reference", "SourceReference").
	Project("created_at", "CreatedAt")

// Filters contains optional filtering criteria for question queries.
// Nil fields are ignored. Cluster matches the cluster name exactly.
type Filters struct {
	ClusterID        *uuid.UUID `json:"cluster_id,omitempty"`
	Cluster          *string    `json:"cluster,omitempty"`
	SubcategoryID    *uuid.UUID `json:"subcategory_id,omitempty"`
	ModerationStatus *string    `json:"moderation_status,omitempty"`
	LifecycleStatus  *string    `json:"lifecycle_status,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ClusterID", f.ClusterID).
		WhereEquals("Cluster", f.Cluster).
		WhereEquals("SubcategoryID", f.SubcategoryID).
		WhereEquals("ModerationStatus", f.ModerationStatus).
		WhereEquals("LifecycleStatus", f.LifecycleStatus)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("cluster_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.ClusterID = &id
		}
	}

	if v := values.Get("cluster"); v != "" {
		f.Cluster = &v
	}

	if v := values.Get("subcategory_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.SubcategoryID = &id
		}
	}

	if v := values.Get("moderation_status"); v != "" {
		f.ModerationStatus = &v
	}

	if v := values.Get("lifecycle_status"); v != "" {
		f.LifecycleStatus = &v
	}

	return f
}

// Scan reads a row selected with the question projection.
func Scan(s repository.Scanner) (Question, error) {
	var q Question
	err := s.Scan(
		&q.ID,
		&q.ClusterID,
		&q.SubcategoryID,
		&q.Text,
		&q.ModerationStatus,
		&q.LifecycleStatus,
		&q.TimesAsked,
		&q.BestScriptID,
		&q.SourceDocumentID,
		&q.CreatedAt,
		&q.UpdatedAt,
		&q.Cluster,
		&q.Subcategory,
	)
	return q, err
}

func scanVariant(s repository.Scanner) (Variant, error) {
	var v Variant
	err := s.Scan(
		&v.ID,
		&v.QuestionID,
		&v.Text,
		&v.SourceReference,
		&v.CreatedAt,
	)
	return v, err
}

func scanEmbedded(s repository.Scanner) (Embedded, error) {
	var (
		e   Embedded
		raw []byte
	)

	if err := s.Scan(&e.ID, &e.ClusterID, &e.Text, &raw, &e.TimesAsked, &e.CreatedAt); err != nil {
		return e, err
	}

	vec, err := similarity.Decode(raw)
	if err != nil {
		return e, err
	}
	e.Vector = vec
	return e, nil
}
