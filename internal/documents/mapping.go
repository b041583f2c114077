package documents

import (
	"net/url"
	"time"

	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("filename", "Filename").
	Project("doc_type", "DocType").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("storage_key", "StorageKey").
	Project("status", "Status").
	Project("error_message", "ErrorMessage").
	Project("processed_at", "ProcessedAt").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt")

const returning = `RETURNING id, filename, doc_type, content_type, size_bytes, storage_key,
	status, error_message, processed_at, uploaded_at, updated_at`

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters narrows document listings. Filename is a case-insensitive
// substring; UploadedAfter and UploadedBefore bound uploaded_at.
type Filters struct {
	Status         *string    `json:"status,omitempty"`
	DocType        *string    `json:"doc_type,omitempty"`
	Filename       *string    `json:"filename,omitempty"`
	UploadedAfter  *time.Time `json:"uploaded_after,omitempty"`
	UploadedBefore *time.Time `json:"uploaded_before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("DocType", f.DocType).
		WhereContains("Filename", f.Filename).
		WhereAfter("UploadedAt", f.UploadedAfter).
		WhereBefore("UploadedAt", f.UploadedBefore)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if dt := values.Get("doc_type"); dt != "" {
		f.DocType = &dt
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if t, err := time.Parse(time.RFC3339, values.Get("uploaded_after")); err == nil {
		f.UploadedAfter = &t
	}
	if t, err := time.Parse(time.RFC3339, values.Get("uploaded_before")); err == nil {
		f.UploadedBefore = &t
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.Filename,
		&d.DocType,
		&d.ContentType,
		&d.SizeBytes,
		&d.StorageKey,
		&d.Status,
		&d.ErrorMessage,
		&d.ProcessedAt,
		&d.UploadedAt,
		&d.UpdatedAt,
	)
	return d, err
}
