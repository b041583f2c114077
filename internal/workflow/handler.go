package workflow

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler provides HTTP endpoints for processing and corpus queries.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// ResolveRequest is the body of the resolve endpoint.
type ResolveRequest struct {
	Text string `json:"text"`
}

// SearchRequest is the body of the similarity search endpoint. Zero limit
// and threshold take the configured defaults.
type SearchRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
}

func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "workflow"),
	}
}

// Routes returns the processing routes under /documents and the query routes
// under /questions.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Children: []routes.Group{
			{
				Prefix: "/documents",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/{id}/process", Handler: h.Process},
					{Method: "POST", Pattern: "/process-pending", Handler: h.ProcessPending},
				},
			},
			{
				Prefix: "/questions",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/resolve", Handler: h.Resolve},
					{Method: "POST", Pattern: "/similar", Handler: h.Similar},
					{Method: "POST", Pattern: "/backfill-embeddings", Handler: h.Backfill},
				},
			},
		},
	}
}

// Process runs one document through the pipeline. ?force=true reprocesses a
// document that was already processed.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("invalid document id"))
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	out, err := h.sys.ProcessDocument(r.Context(), id, force)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, out)
}

// ProcessPending drains the pending queue. ?limit caps the batch size.
func (h *Handler) ProcessPending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	result, err := h.sys.ProcessPending(r.Context(), limit)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	res, err := h.sys.ResolveQuestion(r.Context(), req.Text)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, res)
}

func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	hits, err := h.sys.SearchSemantic(r.Context(), req.Query, req.Limit, req.Threshold)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, hits)
}

func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.BackfillEmbeddings(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
