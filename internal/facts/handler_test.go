package facts_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/facts"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

type mockSystem struct {
	listFn       func(ctx context.Context, page pagination.PageRequest, filters facts.Filters) (*pagination.PageResult[facts.Fact], error)
	findFn       func(ctx context.Context, id uuid.UUID) (*facts.Fact, error)
	byDocumentFn func(ctx context.Context, documentID uuid.UUID) ([]facts.Fact, error)
	countsFn     func(ctx context.Context) ([]facts.CategoryCount, error)
	replaceFn    func(ctx context.Context, documentID uuid.UUID, cmds []facts.CreateCommand) (int, error)
}

func (m *mockSystem) Handler() *facts.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters facts.Filters) (*pagination.PageResult[facts.Fact], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*facts.Fact, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) ByDocument(ctx context.Context, documentID uuid.UUID) ([]facts.Fact, error) {
	return m.byDocumentFn(ctx, documentID)
}

func (m *mockSystem) Counts(ctx context.Context) ([]facts.CategoryCount, error) {
	return m.countsFn(ctx)
}

func (m *mockSystem) Replace(ctx context.Context, documentID uuid.UUID, cmds []facts.CreateCommand) (int, error) {
	return m.replaceFn(ctx, documentID, cmds)
}

func newTestHandler(sys facts.System) *facts.Handler {
	return facts.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *facts.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleFact() facts.Fact {
	return facts.Fact{
		ID:         uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		DocumentID: uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"),
		Category:   facts.CategoryContact,
		Key:        "phone",
		Value:      "+1 555 0100",
		CreatedAt:  time.Now().Truncate(time.Second),
	}
}

func TestHandlerList(t *testing.T) {
	f := sampleFact()
	var (
		capturedFilters facts.Filters
		capturedPage    pagination.PageRequest
	)
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, filters facts.Filters) (*pagination.PageResult[facts.Fact], error) {
			capturedPage = page
			capturedFilters = filters
			result := pagination.NewPageResult([]facts.Fact{f}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/facts?category=contact&search=555", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if capturedFilters.Category == nil || *capturedFilters.Category != facts.CategoryContact {
		t.Errorf("category filter = %v", capturedFilters.Category)
	}
	if capturedPage.Search == nil || *capturedPage.Search != "555" {
		t.Errorf("search = %v", capturedPage.Search)
	}

	var result pagination.PageResult[facts.Fact]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].Value != f.Value {
		t.Errorf("result = %+v", result)
	}
}

func TestHandlerFind(t *testing.T) {
	f := sampleFact()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*facts.Fact, error) {
			if id != f.ID {
				return nil, facts.ErrNotFound
			}
			return &f, nil
		},
		byDocumentFn: func(_ context.Context, id uuid.UUID) ([]facts.Fact, error) {
			if id != f.DocumentID {
				return []facts.Fact{}, nil
			}
			return []facts.Fact{f}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"by id", "/facts/" + f.ID.String(), http.StatusOK},
		{"missing id", "/facts/" + uuid.New().String(), http.StatusNotFound},
		{"invalid id", "/facts/bad", http.StatusBadRequest},
		{"by document", "/facts/document/" + f.DocumentID.String(), http.StatusOK},
		{"invalid document", "/facts/document/bad", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerCategories(t *testing.T) {
	t.Run("counts", func(t *testing.T) {
		sys := &mockSystem{
			countsFn: func(context.Context) ([]facts.CategoryCount, error) {
				return []facts.CategoryCount{
					{Category: facts.CategoryProblem, Count: 4},
					{Category: facts.CategoryContact, Count: 2},
				}, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/facts/categories", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var counts []facts.CategoryCount
		if err := json.NewDecoder(rec.Body).Decode(&counts); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(counts) != 2 || counts[0].Category != facts.CategoryProblem || counts[0].Count != 4 {
			t.Errorf("counts = %+v", counts)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		sys := &mockSystem{
			countsFn: func(context.Context) ([]facts.CategoryCount, error) {
				return nil, errors.New("connection reset")
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", "/facts/categories", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}
