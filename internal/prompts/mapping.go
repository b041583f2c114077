package prompts

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "prompts", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("stage", "Stage").
	Project("instructions", "Instructions").
	Project("description", "Description").
	Project("active", "Active")

var defaultSort = query.SortField{Field: "Name"}

// Filters narrows prompt listings. Stages matches any of the listed stages.
type Filters struct {
	Stages []Stage  `json:"stages,omitempty"`
	Name   *string  `json:"name,omitempty"`
	Active *bool    `json:"active,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	var stages []string
	for _, s := range f.Stages {
		stages = append(stages, string(s))
	}
	return b.
		WhereAny("Stage", stages).
		WhereContains("Name", f.Name).
		WhereEquals("Active", f.Active)
}

// FiltersFromQuery reads stage (comma-separated or repeated), name and
// active. Unknown stages and unparseable booleans are dropped.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	for _, raw := range values["stage"] {
		for s := range strings.SplitSeq(raw, ",") {
			if stage, err := ParseStage(strings.TrimSpace(s)); err == nil {
				f.Stages = append(f.Stages, stage)
			}
		}
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if v, err := strconv.ParseBool(values.Get("active")); err == nil {
		f.Active = &v
	}

	return f
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(&p.ID, &p.Name, &p.Stage, &p.Instructions, &p.Description, &p.Active)
	return p, err
}
