package questions_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

type mockSystem struct {
	listFn     func(ctx context.Context, page pagination.PageRequest, filters questions.Filters) (*pagination.PageResult[questions.Question], error)
	findFn     func(ctx context.Context, id uuid.UUID) (*questions.Question, error)
	variantsFn func(ctx context.Context, id uuid.UUID) ([]questions.Variant, error)
}

func (m *mockSystem) Handler() *questions.Handler {
	return questions.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters questions.Filters) (*pagination.PageResult[questions.Question], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*questions.Question, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Variants(ctx context.Context, id uuid.UUID) ([]questions.Variant, error) {
	return m.variantsFn(ctx, id)
}

func (m *mockSystem) Serialize(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (m *mockSystem) Create(context.Context, questions.CreateCommand) (*questions.Question, error) {
	return nil, questions.ErrInvalidRequest
}

func (m *mockSystem) AttachVariant(context.Context, questions.VariantCommand) (*questions.Variant, error) {
	return nil, questions.ErrInvalidRequest
}

func (m *mockSystem) Embedded(context.Context, *uuid.UUID) ([]questions.Embedded, error) {
	return nil, nil
}

func (m *mockSystem) MissingEmbeddings(context.Context, int) ([]questions.Question, error) {
	return nil, nil
}

func (m *mockSystem) SetEmbedding(context.Context, uuid.UUID, []float32) error {
	return nil
}

func setupMux(h *questions.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleQuestion() questions.Question {
	return questions.Question{
		ID:               uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		ClusterID:        uuid.MustParse("650e8400-e29b-41d4-a716-446655440000"),
		Text:             "How do I reset my password?",
		ModerationStatus: questions.StatusApproved,
		LifecycleStatus:  "resolved",
		TimesAsked:       4,
		Cluster:          "account",
		CreatedAt:        time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandlerListPassesFilters(t *testing.T) {
	var gotFilters questions.Filters
	var gotPage pagination.PageRequest

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f questions.Filters) (*pagination.PageResult[questions.Question], error) {
			gotPage, gotFilters = page, f
			result := pagination.NewPageResult([]questions.Question{sampleQuestion()}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/questions?cluster=account&moderation_status=approved&page_size=5", nil)
	setupMux(sys.Handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotFilters.Cluster == nil || *gotFilters.Cluster != "account" {
		t.Errorf("Cluster filter = %v, want account", gotFilters.Cluster)
	}
	if gotFilters.ModerationStatus == nil || *gotFilters.ModerationStatus != "approved" {
		t.Errorf("ModerationStatus filter = %v, want approved", gotFilters.ModerationStatus)
	}
	if gotPage.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5", gotPage.PageSize)
	}

	var result pagination.PageResult[questions.Question]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].Text != "How do I reset my password?" {
		t.Errorf("data = %+v", result.Data)
	}
}

func TestHandlerFind(t *testing.T) {
	q := sampleQuestion()

	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"found", "/questions/" + q.ID.String(), nil, http.StatusOK},
		{"not found", "/questions/" + q.ID.String(), questions.ErrNotFound, http.StatusNotFound},
		{"invalid id", "/questions/not-a-uuid", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				findFn: func(context.Context, uuid.UUID) (*questions.Question, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &q, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys.Handler()).ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerVariants(t *testing.T) {
	q := sampleQuestion()
	sys := &mockSystem{
		variantsFn: func(_ context.Context, id uuid.UUID) ([]questions.Variant, error) {
			return []questions.Variant{
				{ID: uuid.New(), QuestionID: id, Text: "forgot my password"},
				{ID: uuid.New(), QuestionID: id, Text: "can't log in"},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	setupMux(sys.Handler()).ServeHTTP(rec, httptest.NewRequest("GET", "/questions/"+q.ID.String()+"/variants", nil))

	var got []questions.Variant
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("variants = %d, want 2", len(got))
	}
}

func TestHandlerSearchInvalidBody(t *testing.T) {
	sys := &mockSystem{}

	rec := httptest.NewRecorder()
	setupMux(sys.Handler()).ServeHTTP(rec, httptest.NewRequest("POST", "/questions/search", strings.NewReader("{")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	id := uuid.New()
	values := url.Values{
		"cluster_id":       {id.String()},
		"subcategory_id":   {"garbage"},
		"lifecycle_status": {"needs_work"},
	}

	f := questions.FiltersFromQuery(values)

	if f.ClusterID == nil || *f.ClusterID != id {
		t.Errorf("ClusterID = %v, want %s", f.ClusterID, id)
	}
	if f.SubcategoryID != nil {
		t.Errorf("SubcategoryID = %v, want nil for invalid uuid", f.SubcategoryID)
	}
	if f.LifecycleStatus == nil || *f.LifecycleStatus != "needs_work" {
		t.Errorf("LifecycleStatus = %v, want needs_work", f.LifecycleStatus)
	}
	if f.Cluster != nil || f.ModerationStatus != nil {
		t.Error("unset filters should be nil")
	}
}

func TestModerationStatusValid(t *testing.T) {
	for _, s := range []questions.ModerationStatus{questions.StatusPending, questions.StatusApproved, questions.StatusRejected} {
		if !s.Valid() {
			t.Errorf("%s.Valid() = false", s)
		}
	}
	if questions.ModerationStatus("archived").Valid() {
		t.Error("archived.Valid() = true, want false")
	}
}
