package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

// Append writes a log entry using e, which is normally the transaction that
// performs the change being recorded.
func Append(ctx context.Context, e repository.Executor, rec Record) error {
	actor := rec.Actor
	if actor == "" {
		actor = SystemActor
	}

	_, err := e.ExecContext(
		ctx,
		`INSERT INTO moderation_log(id, question_id, actor, action, old_value, new_value, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(),
		rec.QuestionID,
		actor,
		string(rec.Action),
		nullable(rec.OldValue),
		nullable(rec.NewValue),
		rec.Reason,
	)
	if err != nil {
		return fmt.Errorf("append moderation log: %w", err)
	}
	return nil
}

// System lists moderation log entries.
type System interface {
	Handler() *Handler
	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Entry], error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the moderation log reader.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "audit"),
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
) (*pagination.PageResult[Entry], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Reason", "NewValue", "OldValue")

	filters.Apply(qb)

	result, err := repository.Page(ctx, repository.Using(ctx, r.db), qb, page, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("list moderation log: %w", err)
	}
	return result, nil
}

var projection = query.
	NewProjectionMap("public", "moderation_log", "l").
	Project("id", "ID").
	Project("question_id", "QuestionID").
	Project("actor", "Actor").
	Project("action", "Action").
	Project("old_value", "OldValue").
	Project("new_value", "NewValue").
	Project("reason", "Reason").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows moderation log queries. Nil fields are ignored.
type Filters struct {
	QuestionID *uuid.UUID `json:"question_id,omitempty"`
	Actor      *string    `json:"actor,omitempty"`
	Action     *string    `json:"action,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("QuestionID", f.QuestionID).
		WhereEquals("Actor", f.Actor).
		WhereEquals("Action", f.Action)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if q := values.Get("question_id"); q != "" {
		if id, err := uuid.Parse(q); err == nil {
			f.QuestionID = &id
		}
	}

	if a := values.Get("actor"); a != "" {
		f.Actor = &a
	}

	if a := values.Get("action"); a != "" {
		f.Action = &a
	}

	return f
}

func scanEntry(s repository.Scanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.QuestionID,
		&e.Actor,
		&e.Action,
		&e.OldValue,
		&e.NewValue,
		&e.Reason,
		&e.CreatedAt,
	)
	return e, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
