package summary

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/callbook/pkg/repository"
)

// System defines the public contract for daily counters.
type System interface {
	Handler() *Handler

	// Add atomically adds d to the counters of day, creating the row on
	// first use.
	Add(ctx context.Context, day time.Time, d Delta) error
	Range(ctx context.Context, from, to time.Time) ([]Day, error)
	Totals(ctx context.Context) (*Totals, error)
}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates the summary repository.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "summary"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Add(ctx context.Context, day time.Time, d Delta) error {
	if d.IsZero() {
		return nil
	}

	_, err := repository.Using(ctx, r.db).ExecContext(
		ctx,
		`INSERT INTO daily_summary(day, calls, new_questions, new_scripts, resolved, unresolved, new_facts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (day) DO UPDATE SET
			calls = daily_summary.calls + EXCLUDED.calls,
			new_questions = daily_summary.new_questions + EXCLUDED.new_questions,
			new_scripts = daily_summary.new_scripts + EXCLUDED.new_scripts,
			resolved = daily_summary.resolved + EXCLUDED.resolved,
			unresolved = daily_summary.unresolved + EXCLUDED.unresolved,
			new_facts = daily_summary.new_facts + EXCLUDED.new_facts,
			updated_at = NOW()`,
		truncate(day),
		d.Calls,
		d.NewQuestions,
		d.NewScripts,
		d.Resolved,
		d.Unresolved,
		d.NewFacts,
	)
	if err != nil {
		return fmt.Errorf("add daily summary: %w", err)
	}
	return nil
}

func (r *repo) Range(ctx context.Context, from, to time.Time) ([]Day, error) {
	from, to = truncate(from), truncate(to)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	days, err := repository.QueryMany(
		ctx, repository.Using(ctx, r.db),
		`SELECT day, calls, new_questions, new_scripts, resolved, unresolved, new_facts, updated_at
		FROM daily_summary
		WHERE day BETWEEN $1 AND $2
		ORDER BY day DESC`,
		[]any{from, to},
		scanDay,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily summary: %w", err)
	}
	return days, nil
}

func (r *repo) Totals(ctx context.Context) (*Totals, error) {
	t := Totals{Documents: make(map[string]int)}

	err := repository.Using(ctx, r.db).QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM questions),
			(SELECT COUNT(*) FROM question_variants),
			(SELECT COUNT(*) FROM scripts),
			(SELECT COUNT(*) FROM questions WHERE lifecycle_status = 'resolved'),
			(SELECT COUNT(*) FROM questions WHERE lifecycle_status = 'needs_work'),
			(SELECT COUNT(*) FROM questions WHERE lifecycle_status = 'no_script'),
			(SELECT COUNT(*) FROM questions WHERE moderation_status = 'pending'),
			(SELECT COUNT(*) FROM questions WHERE moderation_status = 'approved'),
			(SELECT COUNT(*) FROM questions WHERE moderation_status = 'rejected'),
			(SELECT COUNT(*) FROM questions WHERE embedding IS NULL),
			(SELECT COALESCE(SUM(calls), 0) FROM daily_summary),
			(SELECT COUNT(*) FROM facts)`,
	).Scan(
		&t.Questions,
		&t.Variants,
		&t.Scripts,
		&t.Resolved,
		&t.NeedsWork,
		&t.NoScript,
		&t.PendingReview,
		&t.Approved,
		&t.Rejected,
		&t.MissingEmbeddings,
		&t.Calls,
		&t.Facts,
	)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}

	rows, err := repository.Using(ctx, r.db).QueryContext(ctx, "SELECT status, COUNT(*) FROM documents GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("query document counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		t.Documents[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &t, nil
}

func scanDay(s repository.Scanner) (Day, error) {
	var d Day
	err := s.Scan(
		&d.Day,
		&d.Calls,
		&d.NewQuestions,
		&d.NewScripts,
		&d.Resolved,
		&d.Unresolved,
		&d.NewFacts,
		&d.UpdatedAt,
	)
	return d, err
}
