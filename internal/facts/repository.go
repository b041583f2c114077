package facts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

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

// New creates a fact repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "facts"),
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
) (*pagination.PageResult[Fact], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "Key", "Value")

	filters.Apply(qb)

	result, err := repository.Page(ctx, repository.Using(ctx, r.db), qb, page, scanFact)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	return result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Fact, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	f, err := repository.QueryOne(ctx, repository.Using(ctx, r.db), q, args, scanFact)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &f, nil
}

func (r *repo) ByDocument(ctx context.Context, documentID uuid.UUID) ([]Fact, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "Category"}, query.SortField{Field: "CreatedAt"}).
		WhereEquals("DocumentID", documentID).
		Build()

	list, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, args, scanFact)
	if err != nil {
		return nil, fmt.Errorf("query document facts: %w", err)
	}
	return list, nil
}

func (r *repo) Counts(ctx context.Context) ([]CategoryCount, error) {
	list, err := repository.QueryMany(
		ctx, repository.Using(ctx, r.db),
		`SELECT category, COUNT(*)
		FROM facts
		GROUP BY category
		ORDER BY COUNT(*) DESC, category`,
		nil,
		func(s repository.Scanner) (CategoryCount, error) {
			var c CategoryCount
			err := s.Scan(&c.Category, &c.Count)
			return c, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("count facts: %w", err)
	}
	return list, nil
}

func (r *repo) Replace(ctx context.Context, documentID uuid.UUID, cmds []CreateCommand) (int, error) {
	for i, cmd := range cmds {
		if _, err := ParseCategory(string(cmd.Category)); err != nil {
			return 0, fmt.Errorf("fact %d: %w", i, err)
		}
		if strings.TrimSpace(cmd.Value) == "" {
			return 0, fmt.Errorf("fact %d: %w", i, ErrEmptyValue)
		}
	}

	n, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (int, error) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM facts WHERE document_id = $1", documentID); err != nil {
			return 0, fmt.Errorf("clear facts: %w", err)
		}

		for _, cmd := range cmds {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO facts(id, document_id, category, key, value)
				VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(),
				documentID,
				string(cmd.Category),
				TruncateKey(strings.TrimSpace(cmd.Key)),
				strings.TrimSpace(cmd.Value),
			); err != nil {
				return 0, fmt.Errorf("insert fact: %w", err)
			}
		}
		return len(cmds), nil
	})

	if err != nil {
		return 0, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Debug("document facts replaced", "document_id", documentID, "count", n)
	return n, nil
}
