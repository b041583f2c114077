package scripts

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler provides HTTP endpoints for the scripts of a question.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for script endpoints.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "scripts"),
	}
}

// Routes returns the route group for script endpoints, nested under a question.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/questions/{id}/scripts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "/{scriptId}/outcome", Handler: h.RecordOutcome},
			{Method: "POST", Pattern: "/{scriptId}/best", Handler: h.OverrideBest},
		},
	}
}

// List returns every script of the question in creation order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	list, err := h.sys.ListByQuestion(r.Context(), questionID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, list)
}

// RecordOutcome applies resolved/unresolved feedback to a script.
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	questionID, scriptID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var cmd OutcomeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	s, err := h.sys.RecordOutcome(r.Context(), questionID, scriptID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// OverrideBest forces the script to be the question's best script.
func (h *Handler) OverrideBest(w http.ResponseWriter, r *http.Request) {
	questionID, scriptID, ok := h.ids(w, r)
	if !ok {
		return
	}

	var cmd OverrideCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	s, err := h.sys.OverrideBest(r.Context(), questionID, scriptID, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

func (h *Handler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	questionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return uuid.Nil, uuid.Nil, false
	}

	scriptID, err := uuid.Parse(r.PathValue("scriptId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return questionID, scriptID, true
}
