package audit

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler exposes the moderation log over HTTP.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler for the moderation log.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "audit"),
		pagination: pagination,
	}
}

// Routes returns the route group for the moderation log.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/moderation/log",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
		},
	}
}

// List returns a page of log entries, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
