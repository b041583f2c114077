package moderation

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler provides HTTP endpoints for moderation.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler for moderation endpoints.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "moderation"),
		pagination: pagination,
	}
}

// Routes returns question moderation routes and the filter rule routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/questions",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/moderate", Handler: h.Moderate},
					{Method: "PUT", Pattern: "/{id}", Handler: h.Edit},
					{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
					{Method: "POST", Pattern: "/merge", Handler: h.Merge},
					{Method: "POST", Pattern: "/bulk", Handler: h.Bulk},
				},
			},
			{
				Prefix: "/moderation",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/merges", Handler: h.Merges},
					{Method: "GET", Pattern: "/rules", Handler: h.Rules},
					{Method: "POST", Pattern: "/rules", Handler: h.CreateRule},
					{Method: "PUT", Pattern: "/rules/{id}", Handler: h.UpdateRule},
					{Method: "DELETE", Pattern: "/rules/{id}", Handler: h.DeleteRule},
					{Method: "POST", Pattern: "/rules/evaluate", Handler: h.Evaluate},
				},
			},
		},
	}
}

// Moderate changes a question's moderation status.
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd ModerateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	q, err := h.sys.Moderate(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, q)
}

// Edit replaces a question's canonical text.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd EditCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	q, err := h.sys.Edit(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, q)
}

// Delete removes a question. Actor and reason are read from the query string.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	cmd := DeleteCommand{
		Actor:  r.URL.Query().Get("actor"),
		Reason: r.URL.Query().Get("reason"),
	}

	if err := h.sys.Delete(r.Context(), id, cmd); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Merge folds one question into another. Referential failures are reported
// in the result body with 422.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	var cmd MergeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	result, err := h.sys.Merge(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	handlers.RespondJSON(w, status, result)
}

// Bulk applies approve, reject or delete to many questions.
func (h *Handler) Bulk(w http.ResponseWriter, r *http.Request) {
	var cmd BulkCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	result, err := h.sys.Bulk(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Merges returns a page of merge records.
func (h *Handler) Merges(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.Merges(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Rules returns every filter rule in evaluation order.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.sys.Rules(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rules)
}

// CreateRule adds a filter rule.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var cmd RuleCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRule)
		return
	}

	rule, err := h.sys.CreateRule(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rule)
}

// UpdateRule replaces a filter rule.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd RuleCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRule)
		return
	}

	rule, err := h.sys.UpdateRule(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rule)
}

// DeleteRule removes a filter rule.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.DeleteRule(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Evaluate reports the status the current rules would assign to a text.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	verdict, err := h.sys.Evaluate(r.Context(), body.Text)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, verdict)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return uuid.Nil, false
	}
	return id, true
}
