package search

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Searcher is the operation the handler serves.
type Searcher interface {
	Search(ctx context.Context, q string, limit int) (*Results, error)
}

type Handler struct {
	sys    Searcher
	logger *slog.Logger
}

func NewHandler(sys Searcher, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "search"),
	}
}

// Routes returns the route group for keyword search.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/search",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Search},
		},
	}
}

// Search runs ?q across documents, facts and questions. ?limit caps each
// result group.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	var limit int
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}

	res, err := h.sys.Search(r.Context(), q, limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrEmptyQuery) {
			status = http.StatusBadRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, res)
}
