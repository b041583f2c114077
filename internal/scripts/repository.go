package scripts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/pkg/keylock"
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

type repo struct {
	db     *sql.DB
	policy Policy
	locks  *keylock.Mutex[uuid.UUID]
	logger *slog.Logger
}

// New creates a script repository implementing the System interface.
func New(db *sql.DB, policy Policy, logger *slog.Logger) System {
	return &repo{
		db:     db,
		policy: policy,
		locks:  &keylock.Mutex[uuid.UUID]{},
		logger: logger.With("system", "scripts"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Policy() Policy {
	return r.policy
}

// lock serializes writers of one question within the process. Inside an
// enclosing transaction the question row lock is held until commit, which
// outlives any keyed lock, so only the row lock is used there.
func (r *repo) lock(ctx context.Context, questionID uuid.UUID) func() {
	if repository.InTx(ctx) {
		return func() {}
	}
	return r.locks.Lock(questionID)
}

func (r *repo) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]Script, error) {
	q, args := listQuery(questionID)
	list, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, args, scanScript)
	if err != nil {
		return nil, fmt.Errorf("query scripts: %w", err)
	}
	return list, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Script, error) {
	s, err := find(ctx, repository.Using(ctx, r.db), id)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) Observe(ctx context.Context, cmd ObserveCommand) (*Observation, error) {
	if !r.policy.Acceptable(cmd.Text) {
		r.logger.Debug("script candidate below minimum length", "question_id", cmd.QuestionID)
		return &Observation{Skipped: true}, nil
	}

	unlock := r.lock(ctx, cmd.QuestionID)
	defer unlock()

	obs, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Observation, error) {
		if _, err := lockQuestion(ctx, tx, cmd.QuestionID); err != nil {
			return Observation{}, err
		}

		q, args := listQuery(cmd.QuestionID)
		existing, err := repository.QueryMany(ctx, tx, q, args, scanScript)
		if err != nil {
			return Observation{}, fmt.Errorf("load scripts: %w", err)
		}

		var (
			id      uuid.UUID
			created bool
		)

		if i := r.policy.FindDuplicate(existing, cmd.Text); i >= 0 {
			id = existing[i].ID
			if err := increment(ctx, tx, id, cmd.Succeeded); err != nil {
				return Observation{}, err
			}
		} else {
			id, err = r.insert(ctx, tx, cmd)
			if err != nil {
				return Observation{}, err
			}
			created = true
		}

		ranking, err := Recompute(ctx, tx, cmd.QuestionID, r.policy)
		if err != nil {
			return Observation{}, err
		}

		s, err := find(ctx, tx, id)
		if err != nil {
			return Observation{}, fmt.Errorf("reload script: %w", err)
		}

		return Observation{Script: &s, Created: created, Ranking: &ranking}, nil
	})

	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"script observed",
		"question_id", cmd.QuestionID,
		"script_id", obs.Script.ID,
		"created", obs.Created,
		"succeeded", cmd.Succeeded,
		"effectiveness", obs.Script.Effectiveness,
		"lifecycle", obs.Ranking.Lifecycle,
	)
	return &obs, nil
}

func (r *repo) RecordOutcome(
	ctx context.Context,
	questionID, scriptID uuid.UUID,
	cmd OutcomeCommand,
) (*Script, error) {
	unlock := r.lock(ctx, questionID)
	defer unlock()

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Script, error) {
		if _, err := lockQuestion(ctx, tx, questionID); err != nil {
			return Script{}, err
		}

		if err := verifyOwner(ctx, tx, questionID, scriptID); err != nil {
			return Script{}, err
		}

		if err := increment(ctx, tx, scriptID, cmd.Resolved); err != nil {
			return Script{}, err
		}

		if _, err := Recompute(ctx, tx, questionID, r.policy); err != nil {
			return Script{}, err
		}

		return find(ctx, tx, scriptID)
	})

	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"script outcome recorded",
		"question_id", questionID,
		"script_id", scriptID,
		"resolved", cmd.Resolved,
		"effectiveness", s.Effectiveness,
	)
	return &s, nil
}

func (r *repo) OverrideBest(
	ctx context.Context,
	questionID, scriptID uuid.UUID,
	cmd OverrideCommand,
) (*Script, error) {
	unlock := r.lock(ctx, questionID)
	defer unlock()

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Script, error) {
		previous, err := lockQuestion(ctx, tx, questionID)
		if err != nil {
			return Script{}, err
		}

		if err := verifyOwner(ctx, tx, questionID, scriptID); err != nil {
			return Script{}, err
		}

		if err := markBest(ctx, tx, questionID, &scriptID); err != nil {
			return Script{}, err
		}

		s, err := find(ctx, tx, scriptID)
		if err != nil {
			return Script{}, err
		}

		if err := updateQuestion(ctx, tx, questionID, &scriptID, r.policy.Lifecycle(&s)); err != nil {
			return Script{}, err
		}

		var old string
		if previous != nil {
			old = previous.String()
		}

		err = audit.Append(ctx, tx, audit.Record{
			QuestionID: questionID,
			Actor:      cmd.Actor,
			Action:     audit.ActionBestScriptOverride,
			OldValue:   old,
			NewValue:   scriptID.String(),
			Reason:     cmd.Reason,
		})
		return s, err
	})

	if err != nil {
		return nil, err
	}

	r.logger.Info("best script overridden", "question_id", questionID, "script_id", scriptID, "actor", cmd.Actor)
	return &s, nil
}

// Recompute rescores every script of a question and persists its best script
// and lifecycle status. It must run inside the transaction that changed the
// script counters, after the question row has been locked.
func Recompute(ctx context.Context, tx *sql.Tx, questionID uuid.UUID, p Policy) (Ranking, error) {
	q, args := listQuery(questionID)
	list, err := repository.QueryMany(ctx, tx, q, args, scanScript)
	if err != nil {
		return Ranking{}, fmt.Errorf("load scripts: %w", err)
	}

	previous := make(map[uuid.UUID]float64, len(list))
	for _, s := range list {
		previous[s.ID] = s.Effectiveness
	}

	ranking := p.Rank(list)

	for _, s := range list {
		if s.Effectiveness == previous[s.ID] {
			continue
		}
		if _, err := tx.ExecContext(
			ctx,
			"UPDATE scripts SET effectiveness = $2, updated_at = NOW() WHERE id = $1",
			s.ID, s.Effectiveness,
		); err != nil {
			return Ranking{}, fmt.Errorf("update effectiveness: %w", err)
		}
	}

	if err := markBest(ctx, tx, questionID, ranking.BestScriptID); err != nil {
		return Ranking{}, err
	}

	if err := updateQuestion(ctx, tx, questionID, ranking.BestScriptID, ranking.Lifecycle); err != nil {
		return Ranking{}, err
	}

	return ranking, nil
}

func (r *repo) insert(ctx context.Context, tx *sql.Tx, cmd ObserveCommand) (uuid.UUID, error) {
	success, fail := 0, 1
	if cmd.Succeeded {
		success, fail = 1, 0
	}

	typ := ParseType(string(cmd.Type))
	id := uuid.New()

	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO scripts(id, question_id, text, type, has_steps, success_count, fail_count, effectiveness, source_document_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		cmd.QuestionID,
		cmd.Text,
		string(typ),
		cmd.HasSteps,
		success,
		fail,
		r.policy.Effectiveness(success, fail, cmd.HasSteps, typ),
		cmd.SourceDocumentID,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert script: %w", err)
	}
	return id, nil
}

// lockQuestion takes the row lock that serializes script changes for a
// question across processes and returns its current best script.
func lockQuestion(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*uuid.UUID, error) {
	var best *uuid.UUID
	err := tx.QueryRowContext(
		ctx,
		"SELECT best_script_id FROM questions WHERE id = $1 FOR UPDATE",
		id,
	).Scan(&best)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock question: %w", err)
	}
	return best, nil
}

func verifyOwner(ctx context.Context, tx *sql.Tx, questionID, scriptID uuid.UUID) error {
	var owner uuid.UUID
	err := tx.QueryRowContext(ctx, "SELECT question_id FROM scripts WHERE id = $1", scriptID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load script owner: %w", err)
	}
	if owner != questionID {
		return ErrMismatch
	}
	return nil
}

func increment(ctx context.Context, tx *sql.Tx, id uuid.UUID, succeeded bool) error {
	q := "UPDATE scripts SET fail_count = fail_count + 1, updated_at = NOW() WHERE id = $1"
	if succeeded {
		q = "UPDATE scripts SET success_count = success_count + 1, updated_at = NOW() WHERE id = $1"
	}

	if err := repository.ExecExpectOne(ctx, tx, q, id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

// markBest clears is_best before setting it so the partial unique index on
// (question_id) WHERE is_best never sees two rows.
func markBest(ctx context.Context, tx *sql.Tx, questionID uuid.UUID, best *uuid.UUID) error {
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE scripts SET is_best = false, updated_at = NOW()
		WHERE question_id = $1 AND is_best AND id IS DISTINCT FROM $2`,
		questionID, best,
	); err != nil {
		return fmt.Errorf("clear best script: %w", err)
	}

	if best == nil {
		return nil
	}

	if _, err := tx.ExecContext(
		ctx,
		"UPDATE scripts SET is_best = true, updated_at = NOW() WHERE id = $1 AND NOT is_best",
		*best,
	); err != nil {
		return fmt.Errorf("set best script: %w", err)
	}
	return nil
}

func updateQuestion(ctx context.Context, tx *sql.Tx, id uuid.UUID, best *uuid.UUID, lc Lifecycle) error {
	err := repository.ExecExpectOne(
		ctx, tx,
		"UPDATE questions SET best_script_id = $2, lifecycle_status = $3, updated_at = NOW() WHERE id = $1",
		id, best, string(lc),
	)
	if err != nil {
		return repository.MapError(err, ErrQuestionNotFound, ErrDuplicate)
	}
	return nil
}

func find(ctx context.Context, q repository.Querier, id uuid.UUID) (Script, error) {
	stmt, args := query.NewBuilder(projection).BuildSingle("ID", id)
	return repository.QueryOne(ctx, q, stmt, args, scanScript)
}
