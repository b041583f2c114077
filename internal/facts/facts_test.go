package facts_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/facts"
)

func TestParseCategory(t *testing.T) {
	for _, c := range facts.Categories() {
		got, err := facts.ParseCategory(string(c))
		if err != nil || got != c {
			t.Errorf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}

	if _, err := facts.ParseCategory("gossip"); !errors.Is(err, facts.ErrInvalidCategory) {
		t.Errorf("ParseCategory(gossip) err = %v, want ErrInvalidCategory", err)
	}
}

func TestCategoryUnmarshal(t *testing.T) {
	var v struct {
		Category facts.Category `json:"category"`
	}
	if err := json.Unmarshal([]byte(`{"category":"agreement"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Category != facts.CategoryAgreement {
		t.Errorf("category = %q", v.Category)
	}

	if err := json.Unmarshal([]byte(`{"category":"rumor"}`), &v); !errors.Is(err, facts.ErrInvalidCategory) {
		t.Errorf("unknown category err = %v", err)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", facts.ErrNotFound, http.StatusNotFound},
		{"invalid category", facts.ErrInvalidCategory, http.StatusBadRequest},
		{"empty value", fmt.Errorf("fact 2: %w", facts.ErrEmptyValue), http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := facts.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		doc := uuid.New()
		f := facts.FiltersFromQuery(url.Values{
			"document_id": {doc.String()},
			"category":    {"contact"},
			"key":         {"email"},
		})

		if f.DocumentID == nil || *f.DocumentID != doc {
			t.Errorf("DocumentID = %v, want %s", f.DocumentID, doc)
		}
		if f.Category == nil || *f.Category != facts.CategoryContact {
			t.Errorf("Category = %v", f.Category)
		}
		if f.Key == nil || *f.Key != "email" {
			t.Errorf("Key = %v", f.Key)
		}
	})

	t.Run("invalid values are ignored", func(t *testing.T) {
		f := facts.FiltersFromQuery(url.Values{
			"document_id": {"nope"},
			"category":    {"weather"},
		})
		if f != (facts.Filters{}) {
			t.Errorf("filters = %+v, want zero", f)
		}
	})
}

func TestTruncateKey(t *testing.T) {
	short := "How do I reset my password?"
	if got := facts.TruncateKey(short); got != short {
		t.Errorf("TruncateKey(short) = %q", got)
	}

	long := strings.Repeat("ä", 150)
	got := facts.TruncateKey(long)
	if n := len([]rune(got)); n != 100 {
		t.Errorf("truncated length = %d runes, want 100", n)
	}
	if !strings.HasPrefix(long, got) {
		t.Error("truncated key is not a prefix of the input")
	}
}
