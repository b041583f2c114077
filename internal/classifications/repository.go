package classifications

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "classifications"),
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
) (*pagination.PageResult[Classification], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Question", "Summary")

	filters.Apply(qb)

	result, err := repository.Page(ctx, repository.Using(ctx, r.db), qb, page, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) FindByDocument(ctx context.Context, documentID uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("DocumentID", documentID)

	c, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Record(ctx context.Context, cmd RecordCommand) (*Classification, error) {
	upsertQ := `
		INSERT INTO classifications(
			document_id, question_id, cluster, subcategory, question, answer,
			resolution, satisfaction, summary, script_count, model_name, provider_name
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (document_id) DO UPDATE SET
			question_id = EXCLUDED.question_id,
			cluster = EXCLUDED.cluster,
			subcategory = EXCLUDED.subcategory,
			question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			resolution = EXCLUDED.resolution,
			satisfaction = EXCLUDED.satisfaction,
			summary = EXCLUDED.summary,
			script_count = EXCLUDED.script_count,
			classified_at = NOW(),
			model_name = EXCLUDED.model_name,
			provider_name = EXCLUDED.provider_name,
			validated_by = NULL,
			validated_at = NULL
		RETURNING ` + returning

	args := []any{
		cmd.DocumentID,
		cmd.QuestionID,
		cmd.Cluster,
		cmd.Subcategory,
		cmd.Question,
		cmd.Answer,
		cmd.Resolution,
		cmd.Satisfaction,
		cmd.Summary,
		cmd.ScriptCount,
		cmd.ModelName,
		cmd.ProviderName,
	}

	c, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), upsertQ, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("document classified",
		"id", c.ID,
		"document_id", c.DocumentID,
		"cluster", c.Cluster,
		"resolution", c.Resolution,
	)
	return &c, nil
}

func (r *repo) Validate(ctx context.Context, id uuid.UUID, cmd ValidateCommand) (*Classification, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	validateQ := `
		UPDATE classifications
		SET validated_by = $1, validated_at = NOW()
		WHERE id = $2
		RETURNING ` + returning

	c, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), validateQ, []any{cmd.ValidatedBy, id}, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification validated",
		"id", c.ID,
		"validated_by", cmd.ValidatedBy,
	)
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(
		ctx, repository.Using(ctx, r.db),
		"DELETE FROM classifications WHERE id = $1",
		id,
	); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification deleted", "id", id)
	return nil
}

func (r *repo) Breakdown(ctx context.Context, days int) ([]Bucket, error) {
	if days < 1 || days > maxBreakdownDays {
		return nil, ErrInvalidRange
	}

	q := `
		SELECT cluster, resolution, COUNT(*)
		FROM classifications
		WHERE classified_at >= NOW() - make_interval(days => $1)
		GROUP BY cluster, resolution
		ORDER BY cluster, resolution`

	buckets, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, []any{days}, func(s repository.Scanner) (Bucket, error) {
		var b Bucket
		err := s.Scan(&b.Cluster, &b.Resolution, &b.Calls)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("classification breakdown: %w", err)
	}
	return buckets, nil
}
