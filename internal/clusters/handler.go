package clusters

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler provides HTTP endpoints for clusters.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler for cluster endpoints.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "clusters"),
	}
}

// Routes returns the route group for cluster endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/clusters",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}/subcategories", Handler: h.Subcategories},
		},
	}
}

// List returns every cluster in display order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.sys.List(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, list)
}

// Subcategories returns the subcategories of a cluster.
func (h *Handler) Subcategories(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	list, err := h.sys.Subcategories(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, list)
}
