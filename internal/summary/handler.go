package summary

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/routes"
)

const defaultDays = 30

// Handler provides HTTP endpoints for statistics.
type Handler struct {
	sys    System
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a Handler for summary endpoints.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "summary"),
		now:    time.Now,
	}
}

// Routes returns the route group for summary endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/summary",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Daily},
			{Method: "GET", Pattern: "/totals", Handler: h.Totals},
		},
	}
}

// Daily returns per-day counters. Either from and to (YYYY-MM-DD) or days
// (default 30) select the range.
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.window(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	days, err := h.sys.Range(r.Context(), from, to)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, days)
}

// Totals returns corpus-wide counts.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	t, err := h.sys.Totals(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, t)
}

func (h *Handler) window(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	if f, t := q.Get("from"), q.Get("to"); f != "" || t != "" {
		from, err := time.Parse(time.DateOnly, f)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidRange
		}
		to, err := time.Parse(time.DateOnly, t)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidRange
		}
		return from, to, nil
	}

	days := defaultDays
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return time.Time{}, time.Time{}, ErrInvalidRange
		}
		days = n
	}

	from, to := Window(h.now(), days)
	return from, to, nil
}
