package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/internal/facts"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/search"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

type listFunc[T any, F any] func(ctx context.Context, page pagination.PageRequest, filters F) (*pagination.PageResult[T], error)

func (fn listFunc[T, F]) List(ctx context.Context, page pagination.PageRequest, filters F) (*pagination.PageResult[T], error) {
	return fn(ctx, page, filters)
}

func page[T any](items ...T) *pagination.PageResult[T] {
	r := pagination.NewPageResult(items, len(items), 1, len(items))
	return &r
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type captured struct {
	search   string
	pageSize int
}

// requests records the page request each group was listed with. The groups
// are listed concurrently.
type requests struct {
	mu   sync.Mutex
	seen map[string]captured
}

func (r *requests) record(name string, p pagination.PageRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Search != nil {
		r.seen[name] = captured{search: *p.Search, pageSize: p.PageSize}
	}
}

func newService(reqs *requests, factErr error) *search.Service {
	record := reqs.record

	docs := listFunc[documents.Document, documents.Filters](func(_ context.Context, p pagination.PageRequest, _ documents.Filters) (*pagination.PageResult[documents.Document], error) {
		record("documents", p)
		return page(documents.Document{ID: uuid.New(), Filename: "refund-call.txt"}), nil
	})
	fs := listFunc[facts.Fact, facts.Filters](func(_ context.Context, p pagination.PageRequest, _ facts.Filters) (*pagination.PageResult[facts.Fact], error) {
		record("facts", p)
		if factErr != nil {
			return nil, factErr
		}
		return page(
			facts.Fact{ID: uuid.New(), Category: facts.CategorySolution, Value: "Refund issued"},
			facts.Fact{ID: uuid.New(), Category: facts.CategoryAgreement, Value: "Refund by Friday"},
		), nil
	})
	qs := listFunc[questions.Question, questions.Filters](func(_ context.Context, p pagination.PageRequest, _ questions.Filters) (*pagination.PageResult[questions.Question], error) {
		record("questions", p)
		return page[questions.Question](), nil
	})

	return search.New(docs, fs, qs, discard())
}

func TestSearch(t *testing.T) {
	reqs := &requests{seen: make(map[string]captured)}
	svc := newService(reqs, nil)

	res, err := svc.Search(context.Background(), "  refund ", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if res.Query != "refund" {
		t.Errorf("query = %q, want trimmed", res.Query)
	}
	if len(res.Documents) != 1 || len(res.Facts) != 2 {
		t.Errorf("results = %+v", res)
	}
	if res.Questions == nil || len(res.Questions) != 0 {
		t.Errorf("questions = %v, want empty non-nil slice", res.Questions)
	}

	for _, name := range []string{"documents", "facts", "questions"} {
		c, ok := reqs.seen[name]
		if !ok {
			t.Errorf("%s was not searched", name)
			continue
		}
		if c.search != "refund" || c.pageSize != search.DefaultLimit {
			t.Errorf("%s request = %+v", name, c)
		}
	}
}

func TestSearchErrors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		svc := newService(&requests{seen: make(map[string]captured)}, nil)
		if _, err := svc.Search(context.Background(), "   ", 10); !errors.Is(err, search.ErrEmptyQuery) {
			t.Errorf("err = %v, want ErrEmptyQuery", err)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		svc := newService(&requests{seen: make(map[string]captured)}, errors.New("connection reset"))
		if _, err := svc.Search(context.Background(), "refund", 10); err == nil {
			t.Error("expected error when one group fails")
		}
	})
}

type stubSearcher struct {
	q     string
	limit int
	err   error
}

func (s *stubSearcher) Search(_ context.Context, q string, limit int) (*search.Results, error) {
	s.q, s.limit = q, limit
	if s.err != nil {
		return nil, s.err
	}
	return &search.Results{Query: q}, nil
}

func TestHandlerSearch(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		err       error
		want      int
		wantLimit int
	}{
		{"query with limit", "/search?q=refund&limit=5", nil, http.StatusOK, 5},
		{"default limit", "/search?q=refund", nil, http.StatusOK, 0},
		{"invalid limit", "/search?q=refund&limit=abc", nil, http.StatusBadRequest, 0},
		{"empty query", "/search", search.ErrEmptyQuery, http.StatusBadRequest, 0},
		{"store failure", "/search?q=refund", errors.New("boom"), http.StatusInternalServerError, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{err: tt.err}
			h := search.NewHandler(stub, discard())

			mux := http.NewServeMux()
			group := h.Routes()
			for _, route := range group.Routes {
				mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
			}

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want != http.StatusOK {
				return
			}
			if stub.limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", stub.limit, tt.wantLimit)
			}

			var res search.Results
			if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if res.Query != "refund" {
				t.Errorf("query = %q", res.Query)
			}
		})
	}
}
