// Package summary keeps per-day processing counters and reports corpus totals.
package summary

import (
	"errors"
	"net/http"
	"time"
)

// Day holds the counters accumulated for one calendar day (UTC).
type Day struct {
	Day          time.Time `json:"day"`
	Calls        int       `json:"calls"`
	NewQuestions int       `json:"new_questions"`
	NewScripts   int       `json:"new_scripts"`
	Resolved     int       `json:"resolved"`
	Unresolved   int       `json:"unresolved"`
	NewFacts     int       `json:"new_facts"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Delta is added to a day's counters.
type Delta struct {
	Calls        int
	NewQuestions int
	NewScripts   int
	Resolved     int
	Unresolved   int
	NewFacts     int
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// Merge returns the sum of d and o.
func (d Delta) Merge(o Delta) Delta {
	return Delta{
		Calls:        d.Calls + o.Calls,
		NewQuestions: d.NewQuestions + o.NewQuestions,
		NewScripts:   d.NewScripts + o.NewScripts,
		Resolved:     d.Resolved + o.Resolved,
		Unresolved:   d.Unresolved + o.Unresolved,
		NewFacts:     d.NewFacts + o.NewFacts,
	}
}

// Totals describes the whole corpus.
type Totals struct {
	Documents         map[string]int `json:"documents"`
	Questions         int            `json:"questions"`
	Variants          int            `json:"variants"`
	Scripts           int            `json:"scripts"`
	Resolved          int            `json:"resolved"`
	NeedsWork         int            `json:"needs_work"`
	NoScript          int            `json:"no_script"`
	PendingReview     int            `json:"pending_review"`
	Approved          int            `json:"approved"`
	Rejected          int            `json:"rejected"`
	MissingEmbeddings int            `json:"missing_embeddings"`
	Calls             int            `json:"calls"`
	Facts             int            `json:"facts"`
}

// Domain errors for summary operations.
var ErrInvalidRange = errors.New("invalid date range")

// MapHTTPStatus maps summary errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidRange) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Window returns the inclusive [from, to] range covering the last days days
// ending on now's UTC date.
func Window(now time.Time, days int) (time.Time, time.Time) {
	if days < 1 {
		days = 1
	}
	to := truncate(now)
	return to.AddDate(0, 0, -(days - 1)), to
}

func truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
