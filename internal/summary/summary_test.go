package summary_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/JaimeStill/callbook/internal/summary"
)

func TestWindow(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	tests := []struct {
		name     string
		now      time.Time
		days     int
		wantFrom string
		wantTo   string
	}{
		{"single day", time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC), 1, "2026-03-10", "2026-03-10"},
		{"week", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), 7, "2026-03-04", "2026-03-10"},
		{"crosses month", time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), 3, "2026-02-28", "2026-03-02"},
		{"zero clamps to one", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), 0, "2026-03-10", "2026-03-10"},
		{"local time uses utc date", time.Date(2026, 3, 10, 1, 0, 0, 0, loc), 1, "2026-03-09", "2026-03-09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := summary.Window(tt.now, tt.days)
			if got := from.Format(time.DateOnly); got != tt.wantFrom {
				t.Errorf("from = %s, want %s", got, tt.wantFrom)
			}
			if got := to.Format(time.DateOnly); got != tt.wantTo {
				t.Errorf("to = %s, want %s", got, tt.wantTo)
			}
			if to.Location() != time.UTC || to.Hour() != 0 {
				t.Errorf("to = %v, want UTC midnight", to)
			}
		})
	}
}

func TestDelta(t *testing.T) {
	if !(summary.Delta{}).IsZero() {
		t.Error("empty delta should be zero")
	}

	a := summary.Delta{Calls: 1, NewQuestions: 1, Resolved: 1}
	b := summary.Delta{Calls: 1, NewScripts: 2, Unresolved: 1, NewFacts: 3}

	got := a.Merge(b)
	want := summary.Delta{Calls: 2, NewQuestions: 1, NewScripts: 2, Resolved: 1, Unresolved: 1, NewFacts: 3}
	if got != want {
		t.Errorf("Merge = %+v, want %+v", got, want)
	}
	if got.IsZero() {
		t.Error("merged delta should not be zero")
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{summary.ErrInvalidRange, http.StatusBadRequest},
		{fmt.Errorf("range: %w", summary.ErrInvalidRange), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := summary.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
