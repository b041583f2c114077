package scripts_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/scripts"
)

type mockSystem struct {
	listFn     func(ctx context.Context, questionID uuid.UUID) ([]scripts.Script, error)
	outcomeFn  func(ctx context.Context, questionID, scriptID uuid.UUID, cmd scripts.OutcomeCommand) (*scripts.Script, error)
	overrideFn func(ctx context.Context, questionID, scriptID uuid.UUID, cmd scripts.OverrideCommand) (*scripts.Script, error)
}

func (m *mockSystem) Handler() *scripts.Handler {
	return scripts.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) Policy() scripts.Policy { return scripts.DefaultPolicy() }

func (m *mockSystem) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]scripts.Script, error) {
	return m.listFn(ctx, questionID)
}

func (m *mockSystem) Find(context.Context, uuid.UUID) (*scripts.Script, error) {
	return nil, scripts.ErrNotFound
}

func (m *mockSystem) Observe(context.Context, scripts.ObserveCommand) (*scripts.Observation, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSystem) RecordOutcome(ctx context.Context, questionID, scriptID uuid.UUID, cmd scripts.OutcomeCommand) (*scripts.Script, error) {
	return m.outcomeFn(ctx, questionID, scriptID, cmd)
}

func (m *mockSystem) OverrideBest(ctx context.Context, questionID, scriptID uuid.UUID, cmd scripts.OverrideCommand) (*scripts.Script, error) {
	return m.overrideFn(ctx, questionID, scriptID, cmd)
}

func setupMux(h *scripts.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

var (
	questionID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	scriptID   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func TestHandlerList(t *testing.T) {
	sys := &mockSystem{
		listFn: func(_ context.Context, id uuid.UUID) ([]scripts.Script, error) {
			if id != questionID {
				t.Errorf("question id = %s, want %s", id, questionID)
			}
			return []scripts.Script{{ID: scriptID, QuestionID: id, Text: "restart the router"}}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/questions/"+questionID.String()+"/scripts", nil)
	setupMux(sys.Handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got []scripts.Script
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != scriptID {
		t.Errorf("scripts = %+v, want one script %s", got, scriptID)
	}
}

func TestHandlerRecordOutcome(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
	}{
		{"resolved", "/questions/" + questionID.String() + "/scripts/" + scriptID.String() + "/outcome", `{"resolved":true}`, nil, http.StatusOK},
		{"script of other question", "/questions/" + questionID.String() + "/scripts/" + scriptID.String() + "/outcome", `{"resolved":false}`, scripts.ErrMismatch, http.StatusBadRequest},
		{"missing question", "/questions/" + questionID.String() + "/scripts/" + scriptID.String() + "/outcome", `{"resolved":true}`, scripts.ErrQuestionNotFound, http.StatusNotFound},
		{"bad script id", "/questions/" + questionID.String() + "/scripts/nope/outcome", `{"resolved":true}`, nil, http.StatusBadRequest},
		{"bad body", "/questions/" + questionID.String() + "/scripts/" + scriptID.String() + "/outcome", `{`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				outcomeFn: func(_ context.Context, qid, sid uuid.UUID, cmd scripts.OutcomeCommand) (*scripts.Script, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &scripts.Script{ID: sid, QuestionID: qid, SuccessCount: 1, Effectiveness: 100}, nil
				},
			}

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			setupMux(sys.Handler()).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerOverrideBest(t *testing.T) {
	var got scripts.OverrideCommand
	sys := &mockSystem{
		overrideFn: func(_ context.Context, qid, sid uuid.UUID, cmd scripts.OverrideCommand) (*scripts.Script, error) {
			got = cmd
			return &scripts.Script{ID: sid, QuestionID: qid, IsBest: true}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(
		"POST",
		"/questions/"+questionID.String()+"/scripts/"+scriptID.String()+"/best",
		strings.NewReader(`{"actor":"alice","reason":"clearer wording"}`),
	)
	setupMux(sys.Handler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.Actor != "alice" || got.Reason != "clearer wording" {
		t.Errorf("command = %+v, want actor alice with reason", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{scripts.ErrNotFound, http.StatusNotFound},
		{scripts.ErrQuestionNotFound, http.StatusNotFound},
		{scripts.ErrMismatch, http.StatusBadRequest},
		{scripts.ErrInvalidRequest, http.StatusBadRequest},
		{scripts.ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", scripts.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := scripts.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
