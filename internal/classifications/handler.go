package classifications

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/routes"
)

const (
	defaultBreakdownDays = 30
	maxBreakdownDays     = 365
)

// Handler serves call analyses.
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

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "classifications"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for classification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/classifications",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/breakdown", Handler: h.Breakdown},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/document/{id}", Handler: h.FindByDocument},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "POST", Pattern: "/{id}/validate", Handler: h.Validate},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of call classifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	h.list(w, r, page, FiltersFromQuery(r.URL.Query()))
}

// Search is List with the criteria in a JSON body.
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

// Breakdown counts calls per cluster and resolution over the last ?days days.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	days := defaultBreakdownDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxBreakdownDays {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRange)
			return
		}
		days = n
	}

	buckets, err := h.sys.Breakdown(r.Context(), days)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, buckets)
}

// Find returns a single classification by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}
	h.respond(w)(h.sys.Find(r.Context(), id))
}

// FindByDocument returns the classification produced for a document.
func (h *Handler) FindByDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}
	h.respond(w)(h.sys.FindByDocument(r.Context(), id))
}

// Validate marks an analysis as confirmed by an operator.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	var cmd ValidateCommand
	if !handlers.DecodeJSON(w, r, h.logger, &cmd) {
		return
	}

	h.respond(w)(h.sys.Validate(r.Context(), id, cmd))
}

// Delete removes a classification.
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

func (h *Handler) respond(w http.ResponseWriter) func(*Classification, error) {
	return func(c *Classification, err error) {
		if err != nil {
			handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
			return
		}
		handlers.RespondJSON(w, http.StatusOK, c)
	}
}
