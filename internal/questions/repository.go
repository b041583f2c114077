package questions

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/internal/similarity"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a question repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "questions"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Question], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "Text")

	filters.Apply(qb)

	result, err := repository.Page(ctx, repository.Using(ctx, r.db), qb, page, Scan)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Question, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	question, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), q, args, Scan)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &question, nil
}

func (r *repo) Variants(ctx context.Context, id uuid.UUID) ([]Variant, error) {
	q, args := query.
		NewBuilder(variantProjection, query.SortField{Field: "CreatedAt"}).
		WhereEquals("QuestionID", id).
		Build()

	list, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, args, scanVariant)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	return list, nil
}

func (r *repo) Serialize(ctx context.Context, fn func(ctx context.Context) error) error {
	return repository.Atomic(ctx, r.db, func(ctx context.Context) error {
		if err := LockCorpus(ctx, repository.Using(ctx, r.db)); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// corpusLockKey identifies the advisory lock taken by LockCorpus.
const corpusLockKey int64 = 0x63616c6c626f6f6b

// LockCorpus takes the transaction-scoped corpus lock. It is released when
// the transaction that e belongs to ends.
func LockCorpus(ctx context.Context, e repository.Executor) error {
	if _, err := e.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", corpusLockKey); err != nil {
		return fmt.Errorf("lock question corpus: %w", err)
	}
	return nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Question, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	status := cmd.ModerationStatus
	if status == "" {
		status = StatusPending
	}

	id := uuid.New()

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO questions(id, cluster_id, subcategory_id, canonical_text, embedding, moderation_status, source_document_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id,
			cmd.ClusterID,
			cmd.SubcategoryID,
			text,
			similarity.Encode(cmd.Embedding),
			string(status),
			cmd.SourceDocumentID,
		)
		if err != nil {
			return struct{}{}, err
		}

		if status == StatusPending {
			return struct{}{}, nil
		}

		return struct{}{}, audit.Append(ctx, tx, audit.Record{
			QuestionID: id,
			Actor:      audit.FilterActor,
			Action:     statusAction(status),
			OldValue:   string(StatusPending),
			NewValue:   string(status),
			Reason:     cmd.ModerationReason,
		})
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"question created",
		"id", id,
		"cluster_id", cmd.ClusterID,
		"moderation_status", status,
		"embedded", len(cmd.Embedding) > 0,
	)
	return r.Find(ctx, id)
}

func (r *repo) AttachVariant(ctx context.Context, cmd VariantCommand) (*Variant, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	v, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Variant, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE questions SET times_asked = times_asked + 1, updated_at = NOW() WHERE id = $1",
			cmd.QuestionID,
		); err != nil {
			return Variant{}, err
		}

		return repository.QueryOne(
			ctx, tx,
			`INSERT INTO question_variants(id, question_id, variant_text, source_reference)
			VALUES ($1, $2, $3, $4)
			RETURNING id, question_id, variant_text, source_reference, created_at`,
			[]any{uuid.New(), cmd.QuestionID, text, cmd.SourceReference},
			scanVariant,
		)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("variant attached", "question_id", cmd.QuestionID, "variant_id", v.ID)
	return &v, nil
}

func (r *repo) Embedded(ctx context.Context, clusterID *uuid.UUID) ([]Embedded, error) {
	q := `
		SELECT id, cluster_id, canonical_text, embedding, times_asked, created_at
		FROM questions
		WHERE embedding IS NOT NULL`
	var args []any

	if clusterID != nil {
		q += " AND cluster_id = $1"
		args = append(args, *clusterID)
	}
	q += " ORDER BY created_at, id"

	list, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, args, scanEmbedded)
	if err != nil {
		return nil, fmt.Errorf("query embedded questions: %w", err)
	}
	return list, nil
}

func (r *repo) MissingEmbeddings(ctx context.Context, limit int) ([]Question, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "CreatedAt"}, query.SortField{Field: "ID"}).
		WhereNull("q.embedding").
		BuildPage(1, limit)

	list, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, args, Scan)
	if err != nil {
		return nil, fmt.Errorf("query questions without embedding: %w", err)
	}
	return list, nil
}

func (r *repo) SetEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("set embedding %s: empty vector", id)
	}

	err := repository.ExecExpectOne(
		ctx, repository.Using(ctx, r.db),
		"UPDATE questions SET embedding = $2 WHERE id = $1",
		id, similarity.Encode(vector),
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func statusAction(s ModerationStatus) audit.Action {
	switch s {
	case StatusApproved:
		return audit.ActionApprove
	case StatusRejected:
		return audit.ActionReject
	default:
		return audit.ActionPending
	}
}
