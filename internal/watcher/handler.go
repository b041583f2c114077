package watcher

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler exposes a manual folder scan.
type Handler struct {
	w      *Watcher
	logger *slog.Logger
}

func NewHandler(w *Watcher, logger *slog.Logger) *Handler {
	return &Handler{
		w:      w,
		logger: logger.With("handler", "watcher"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/watcher",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/scan", Handler: h.Scan},
		},
	}
}

// Scan registers new files without processing them.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	result, err := h.w.Scan(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}
