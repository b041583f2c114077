package prompts

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler serves prompt overrides and the stage texts the classifier sends.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// StageContent is the response type for stage-scoped content endpoints.
type StageContent struct {
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}

// Effective is what the classifier sends for a stage: the instructions in
// force followed by the fixed response specification.
type Effective struct {
	Stage        Stage  `json:"stage"`
	Instructions string `json:"instructions"`
	Spec         string `json:"spec"`
	Overridden   bool   `json:"overridden"`
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "prompts"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for prompt endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/prompts",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/stages", Handler: h.Stages},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{stage}/instructions", Handler: h.Instructions},
			{Method: "GET", Pattern: "/{stage}/spec", Handler: h.Spec},
			{Method: "GET", Pattern: "/{stage}/effective", Handler: h.Effective},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/{id}/activate", Handler: h.Activate},
			{Method: "POST", Pattern: "/{id}/deactivate", Handler: h.Deactivate},
		},
	}
}

// List returns a paginated list of prompt overrides.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	h.list(w, r, page, FiltersFromQuery(r.URL.Query()))
}

// Search accepts a JSON body with pagination and filter criteria.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !handlers.DecodeJSON(w, r, h.logger, &req) {
		return
	}

	req.PageRequest.Normalize(h.pagination)
	h.list(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Stages returns every stage that accepts an instruction override.
func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Stages())
}

// Find returns a single prompt override by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}
	h.respond(w, http.StatusOK)(h.sys.Find(r.Context(), id))
}

// Instructions returns the active override for a stage, or the built-in
// default when none is active.
func (h *Handler) Instructions(w http.ResponseWriter, r *http.Request) {
	stage, ok := h.stage(w, r)
	if !ok {
		return
	}

	text, err := h.sys.Instructions(r.Context(), stage)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, StageContent{Stage: stage, Content: text})
}

// Spec returns the fixed output contract appended to a stage's instructions.
func (h *Handler) Spec(w http.ResponseWriter, r *http.Request) {
	stage, ok := h.stage(w, r)
	if !ok {
		return
	}

	text, err := Spec(stage)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, StageContent{Stage: stage, Content: text})
}

// Effective returns the instructions and spec a stage currently runs with.
func (h *Handler) Effective(w http.ResponseWriter, r *http.Request) {
	stage, ok := h.stage(w, r)
	if !ok {
		return
	}

	eff, err := EffectiveFor(r.Context(), h.sys, stage)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, eff)
}

// Create stores a new, inactive prompt override.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if !handlers.DecodeJSON(w, r, h.logger, &cmd) {
		return
	}
	h.respond(w, http.StatusCreated)(h.sys.Create(r.Context(), cmd))
}

// Update replaces the fields of a prompt override.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	var cmd Command
	if !handlers.DecodeJSON(w, r, h.logger, &cmd) {
		return
	}
	h.respond(w, http.StatusOK)(h.sys.Update(r.Context(), id, cmd))
}

// Delete removes a prompt override.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Activate makes a prompt the override for its stage, deactivating the
// previous one in the same transaction.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}
	h.respond(w, http.StatusOK)(h.sys.Activate(r.Context(), id))
}

// Deactivate returns a stage to its built-in instructions.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}
	h.respond(w, http.StatusOK)(h.sys.Deactivate(r.Context(), id))
}

func (h *Handler) stage(w http.ResponseWriter, r *http.Request) (Stage, bool) {
	stage, err := ParseStage(r.PathValue("stage"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return "", false
	}
	return stage, true
}

func (h *Handler) respond(w http.ResponseWriter, status int) func(*Prompt, error) {
	return func(p *Prompt, err error) {
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, status, p)
	}
}
