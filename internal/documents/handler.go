package documents

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/JaimeStill/callbook/pkg/formatting"
	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/routes"
)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

type SearchRequest struct {
	pagination.PageRequest
	Filters
}

func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "GET", Pattern: "/{id}/text", Handler: h.Text},
			{Method: "POST", Pattern: "", Handler: h.Upload},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	h.list(w, r, page, FiltersFromQuery(r.URL.Query()))
}

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

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Text writes the stored document text as text/plain.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	id, ok := handlers.PathID(w, r, h.logger, "id")
	if !ok {
		return
	}

	text, err := h.sys.Text(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

// Upload registers a transcription or manual document. It accepts either a
// multipart form with a "file" part and optional "doc_type" field, or a raw
// text body with ?filename= and optional ?doc_type= query parameters.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var (
		up  upload
		err error
	)
	if mediaType(r.Header.Get("Content-Type")) == "multipart/form-data" {
		up, err = h.readMultipart(r)
	} else {
		up, err = readRaw(r)
	}
	if err != nil {
		h.rejectUpload(w, err)
		return
	}

	docType := Type(strings.TrimSpace(up.docType))
	if docType == "" {
		docType = TypeTranscription
	}
	if !docType.Valid() {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidType)
		return
	}

	if up.filename == "" || !textual(up.contentType, up.data) {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	text, err := DecodeText(up.data)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	doc, err := h.sys.Create(r.Context(), CreateCommand{
		Text:     text,
		Filename: up.filename,
		DocType:  docType,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

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

type upload struct {
	filename    string
	contentType string
	docType     string
	data        []byte
}

func (h *Handler) readMultipart(r *http.Request) (upload, error) {
	// Parts beyond 1MB spill to temp files; the body itself is capped by
	// MaxBytesReader.
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return upload{}, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, ErrInvalidFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, err
	}

	return upload{
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
		docType:     r.FormValue("doc_type"),
		data:        data,
	}, nil
}

func readRaw(r *http.Request) (upload, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return upload{}, err
	}

	q := r.URL.Query()
	return upload{
		filename:    strings.TrimSpace(q.Get("filename")),
		contentType: r.Header.Get("Content-Type"),
		docType:     q.Get("doc_type"),
		data:        data,
	}, nil
}

func (h *Handler) rejectUpload(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		err = fmt.Errorf("%w (limit %s)", ErrFileTooLarge, formatting.FormatBytes(tooLarge.Limit, 0))
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
		return
	}
	if !errors.Is(err, ErrInvalidFile) {
		err = fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}

// textual accepts text and JSON uploads. An absent or generic header falls
// back to content sniffing.
func textual(header string, data []byte) bool {
	header = strings.TrimSpace(header)
	if header == "" || header == "application/octet-stream" {
		header = http.DetectContentType(data)
	}
	return strings.HasPrefix(header, "text/") || strings.HasPrefix(header, "application/json")
}
