package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
	"github.com/JaimeStill/callbook/pkg/storage"
)

const maxErrorMessage = 2000

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename")

	filters.Apply(qb)

	result, err := repository.Page(ctx, repository.Using(ctx, r.db), qb, page, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	if Blank(cmd.Text) {
		return nil, ErrEmptyText
	}

	if cmd.DocType == "" {
		cmd.DocType = TypeTranscription
	}
	if !cmd.DocType.Valid() {
		return nil, ErrInvalidType
	}

	if cmd.ContentType == "" {
		cmd.ContentType = "text/plain; charset=utf-8"
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, strings.NewReader(cmd.Text), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	q := `
		INSERT INTO documents(id, filename, doc_type, content_type, size_bytes, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		` + returning

	insertArgs := []any{
		id,
		cmd.Filename,
		cmd.DocType,
		cmd.ContentType,
		int64(len(cmd.Text)),
		key,
	}

	d, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Document, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanDocument)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document created", "id", d.ID, "filename", d.Filename, "doc_type", d.DocType)
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(
		ctx, repository.Using(ctx, r.db),
		"DELETE FROM documents WHERE id = $1",
		id,
	); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, doc.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", doc.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

func (r *repo) Text(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return "", err
	}

	rc, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%w: blob %s missing", ErrNotFound, doc.StorageKey)
		}
		return "", fmt.Errorf("download document blob: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read document blob: %w", err)
	}

	return DecodeText(data)
}

func (r *repo) ExistsByFilename(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := repository.Using(ctx, r.db).QueryRowContext(
		ctx,
		"SELECT EXISTS (SELECT 1 FROM documents WHERE filename = $1)",
		filename,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check document filename: %w", err)
	}
	return exists, nil
}

func (r *repo) ListPending(ctx context.Context, limit int) ([]Document, error) {
	status := StatusPending

	q, args := query.
		NewBuilder(projection, query.SortField{Field: "UploadedAt"}, query.SortField{Field: "ID"}).
		WhereEquals("Status", &status).
		BuildPage(1, limit)

	docs, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, args, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query pending documents: %w", err)
	}
	return docs, nil
}

func (r *repo) Claim(ctx context.Context, id uuid.UUID, force bool) (*Document, bool, error) {
	q := `
		UPDATE documents
		SET status = 'processing', error_message = NULL, updated_at = NOW()
		WHERE id = $1 AND (status IN ('pending', 'error') OR $2)
		` + returning

	d, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), q, []any{id, force}, scanDocument)
	if err == nil {
		return &d, true, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("claim document: %w", err)
	}

	current, err := r.Find(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *repo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.finish(ctx, id, StatusProcessed, nil)
}

func (r *repo) MarkNoExtraction(ctx context.Context, id uuid.UUID) error {
	return r.finish(ctx, id, StatusProcessedNoExtraction, nil)
}

func (r *repo) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	if len(message) > maxErrorMessage {
		message = message[:maxErrorMessage]
	}
	return r.finish(ctx, id, StatusError, &message)
}

func (r *repo) finish(ctx context.Context, id uuid.UUID, status string, message *string) error {
	err := repository.ExecExpectOne(
		ctx, repository.Using(ctx, r.db),
		`UPDATE documents
		SET status = $2,
			error_message = $3,
			processed_at = CASE WHEN $2 = 'error' THEN processed_at ELSE NOW() END,
			updated_at = NOW()
		WHERE id = $1`,
		id, status, message,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document status updated", "id", id, "status", status)
	return nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" || name == "/" {
		name = "document.txt"
	}
	return url.PathEscape(name)
}
