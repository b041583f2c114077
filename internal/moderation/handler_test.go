package moderation_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/internal/moderation"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/routes"
)

type mockSystem struct {
	moderateFn   func(ctx context.Context, id uuid.UUID, cmd moderation.ModerateCommand) (*questions.Question, error)
	deleteFn     func(ctx context.Context, id uuid.UUID, cmd moderation.DeleteCommand) error
	bulkFn       func(ctx context.Context, cmd moderation.BulkCommand) (*moderation.BulkResult, error)
	mergeFn      func(ctx context.Context, cmd moderation.MergeCommand) (*moderation.MergeResult, error)
	createRuleFn func(ctx context.Context, cmd moderation.RuleCommand) (*moderation.FilterRule, error)
}

func (m *mockSystem) Handler() *moderation.Handler {
	return moderation.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

func (m *mockSystem) Evaluate(_ context.Context, text string) (moderation.Verdict, error) {
	return moderation.Evaluate(nil, text), nil
}

func (m *mockSystem) Moderate(ctx context.Context, id uuid.UUID, cmd moderation.ModerateCommand) (*questions.Question, error) {
	return m.moderateFn(ctx, id, cmd)
}

func (m *mockSystem) Edit(context.Context, uuid.UUID, moderation.EditCommand) (*questions.Question, error) {
	return nil, questions.ErrEmptyText
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID, cmd moderation.DeleteCommand) error {
	return m.deleteFn(ctx, id, cmd)
}

func (m *mockSystem) Bulk(ctx context.Context, cmd moderation.BulkCommand) (*moderation.BulkResult, error) {
	return m.bulkFn(ctx, cmd)
}

func (m *mockSystem) Merge(ctx context.Context, cmd moderation.MergeCommand) (*moderation.MergeResult, error) {
	return m.mergeFn(ctx, cmd)
}

func (m *mockSystem) Merges(context.Context, pagination.PageRequest) (*pagination.PageResult[moderation.MergeRecord], error) {
	result := pagination.NewPageResult[moderation.MergeRecord](nil, 0, 1, 20)
	return &result, nil
}

func (m *mockSystem) Rules(context.Context) ([]moderation.FilterRule, error) {
	return []moderation.FilterRule{}, nil
}

func (m *mockSystem) CreateRule(ctx context.Context, cmd moderation.RuleCommand) (*moderation.FilterRule, error) {
	return m.createRuleFn(ctx, cmd)
}

func (m *mockSystem) UpdateRule(context.Context, uuid.UUID, moderation.RuleCommand) (*moderation.FilterRule, error) {
	return nil, moderation.ErrRuleNotFound
}

func (m *mockSystem) DeleteRule(context.Context, uuid.UUID) error {
	return moderation.ErrRuleNotFound
}

func serve(sys *mockSystem, method, path, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandlerModerate(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"approve", `{"action":"approve","actor":"alice"}`, nil, http.StatusOK},
		{"invalid action", `{"action":"archive"}`, moderation.ErrInvalidAction, http.StatusBadRequest},
		{"missing question", `{"action":"reject"}`, questions.ErrNotFound, http.StatusNotFound},
		{"bad json", `{`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				moderateFn: func(_ context.Context, got uuid.UUID, cmd moderation.ModerateCommand) (*questions.Question, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					if cmd.Action != audit.ActionApprove || cmd.Actor != "alice" {
						t.Errorf("command = %+v", cmd)
					}
					return &questions.Question{ID: got, ModerationStatus: questions.StatusApproved}, nil
				},
			}

			rec := serve(sys, "POST", "/questions/"+id.String()+"/moderate", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerMerge(t *testing.T) {
	source, target := uuid.New(), uuid.New()

	t.Run("success", func(t *testing.T) {
		sys := &mockSystem{
			mergeFn: func(_ context.Context, cmd moderation.MergeCommand) (*moderation.MergeResult, error) {
				if cmd.SourceID != source || cmd.TargetID != target {
					t.Errorf("command = %+v", cmd)
				}
				return &moderation.MergeResult{
					Success: true,
					Record:  &moderation.MergeRecord{SourceID: source, TargetID: target, TimesAskedAdded: 5},
				}, nil
			},
		}

		body := fmt.Sprintf(`{"source_id":%q,"target_id":%q,"actor":"bob"}`, source, target)
		rec := serve(sys, "POST", "/questions/merge", body)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var got moderation.MergeResult
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !got.Success || got.Record == nil || got.Record.TimesAskedAdded != 5 {
			t.Errorf("result = %+v", got)
		}
	})

	t.Run("referential failure", func(t *testing.T) {
		sys := &mockSystem{
			mergeFn: func(context.Context, moderation.MergeCommand) (*moderation.MergeResult, error) {
				return &moderation.MergeResult{Message: "source question not found"}, nil
			},
		}

		body := fmt.Sprintf(`{"source_id":%q,"target_id":%q}`, source, target)
		rec := serve(sys, "POST", "/questions/merge", body)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
	})
}

func TestHandlerBulk(t *testing.T) {
	ok, bad := uuid.New(), uuid.New()
	sys := &mockSystem{
		bulkFn: func(_ context.Context, cmd moderation.BulkCommand) (*moderation.BulkResult, error) {
			if len(cmd.IDs) != 2 || cmd.Action != audit.ActionDelete {
				t.Errorf("command = %+v", cmd)
			}
			return &moderation.BulkResult{
				Succeeded: 1,
				Failed:    1,
				Errors:    []moderation.BulkError{{ID: bad, Error: "question not found"}},
			}, nil
		},
	}

	body := fmt.Sprintf(`{"ids":[%q,%q],"action":"delete"}`, ok, bad)
	rec := serve(sys, "POST", "/questions/bulk", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got moderation.BulkResult
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Succeeded != 1 || got.Failed != 1 || len(got.Errors) != 1 || got.Errors[0].ID != bad {
		t.Errorf("result = %+v", got)
	}
}

func TestHandlerDeletePassesActor(t *testing.T) {
	id := uuid.New()
	var got moderation.DeleteCommand
	sys := &mockSystem{
		deleteFn: func(_ context.Context, _ uuid.UUID, cmd moderation.DeleteCommand) error {
			got = cmd
			return nil
		},
	}

	rec := serve(sys, "DELETE", "/questions/"+id.String()+"?actor=carol&reason=spam", "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got.Actor != "carol" || got.Reason != "spam" {
		t.Errorf("command = %+v", got)
	}
}

func TestHandlerCreateRuleValidation(t *testing.T) {
	sys := &mockSystem{
		createRuleFn: func(_ context.Context, cmd moderation.RuleCommand) (*moderation.FilterRule, error) {
			if err := cmd.Validate(); err != nil {
				return nil, err
			}
			return &moderation.FilterRule{ID: uuid.New(), Condition: cmd.Condition, Value: cmd.Value, Action: cmd.Action}, nil
		},
	}

	rec := serve(sys, "POST", "/moderation/rules", `{"condition":"regex","value":"(","action":"auto_reject"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid rule status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = serve(sys, "POST", "/moderation/rules", `{"condition":"contains","value":"spam","action":"auto_reject"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("valid rule status = %d, want %d", rec.Code, http.StatusCreated)
	}
}

func TestHandlerEvaluate(t *testing.T) {
	rec := serve(&mockSystem{}, "POST", "/moderation/rules/evaluate", `{"text":"hello"}`)

	var v moderation.Verdict
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Status != questions.StatusPending {
		t.Errorf("Status = %s, want pending", v.Status)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{moderation.ErrRuleNotFound, http.StatusNotFound},
		{questions.ErrNotFound, http.StatusNotFound},
		{moderation.ErrDuplicateRule, http.StatusConflict},
		{fmt.Errorf("%w: bad", moderation.ErrInvalidRule), http.StatusBadRequest},
		{moderation.ErrInvalidAction, http.StatusBadRequest},
		{questions.ErrEmptyText, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := moderation.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
