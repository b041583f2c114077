package facts

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "facts", "f").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("category", "Category").
	Project("key", "Key").
	Project("value", "Value").
	Project("created_at", "CreatedAt")

var defaultSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "ID"},
}

// Filters narrows fact queries. Nil fields are ignored.
type Filters struct {
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	Category   *Category  `json:"category,omitempty"`
	Key        *string    `json:"key,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	var category *string
	if f.Category != nil {
		c := string(*f.Category)
		category = &c
	}

	return b.
		WhereEquals("DocumentID", f.DocumentID).
		WhereEquals("Category", category).
		WhereEquals("Key", f.Key)
}

// FiltersFromQuery extracts filter values from URL query parameters. Unknown
// categories and malformed ids are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("document_id"); d != "" {
		if id, err := uuid.Parse(d); err == nil {
			f.DocumentID = &id
		}
	}

	if c := values.Get("category"); c != "" {
		if cat, err := ParseCategory(c); err == nil {
			f.Category = &cat
		}
	}

	if k := values.Get("key"); k != "" {
		f.Key = &k
	}

	return f
}

func scanFact(s repository.Scanner) (Fact, error) {
	var f Fact
	err := s.Scan(
		&f.ID,
		&f.DocumentID,
		&f.Category,
		&f.Key,
		&f.Value,
		&f.CreatedAt,
	)
	return f, err
}
