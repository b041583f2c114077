package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/scripts"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/repository"
)

type repo struct {
	db         *sql.DB
	questions  questions.System
	policy     scripts.Policy
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the moderation system. policy is used to recompute the target's
// best script after a merge.
func New(
	db *sql.DB,
	qs questions.System,
	policy scripts.Policy,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		questions:  qs,
		policy:     policy,
		logger:     logger.With("system", "moderation"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Evaluate(ctx context.Context, text string) (Verdict, error) {
	rules, err := r.Rules(ctx)
	if err != nil {
		return Verdict{}, err
	}
	return Evaluate(rules, text), nil
}

func (r *repo) Moderate(ctx context.Context, id uuid.UUID, cmd ModerateCommand) (*questions.Question, error) {
	status, ok := statusFor(cmd.Action)
	if !ok {
		return nil, ErrInvalidAction
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var old string
		if err := lockColumn(ctx, tx, "moderation_status", id, &old); err != nil {
			return struct{}{}, err
		}

		if _, err := tx.ExecContext(
			ctx,
			"UPDATE questions SET moderation_status = $2, updated_at = NOW() WHERE id = $1",
			id, string(status),
		); err != nil {
			return struct{}{}, fmt.Errorf("update moderation status: %w", err)
		}

		return struct{}{}, audit.Append(ctx, tx, audit.Record{
			QuestionID: id,
			Actor:      cmd.Actor,
			Action:     cmd.Action,
			OldValue:   old,
			NewValue:   string(status),
			Reason:     cmd.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("question moderated", "id", id, "status", status, "actor", cmd.Actor)
	return r.questions.Find(ctx, id)
}

func (r *repo) Edit(ctx context.Context, id uuid.UUID, cmd EditCommand) (*questions.Question, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return nil, questions.ErrEmptyText
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var old string
		if err := lockColumn(ctx, tx, "canonical_text", id, &old); err != nil {
			return struct{}{}, err
		}

		if _, err := tx.ExecContext(
			ctx,
			"UPDATE questions SET canonical_text = $2, updated_at = NOW() WHERE id = $1",
			id, text,
		); err != nil {
			return struct{}{}, fmt.Errorf("update canonical text: %w", err)
		}

		return struct{}{}, audit.Append(ctx, tx, audit.Record{
			QuestionID: id,
			Actor:      cmd.Actor,
			Action:     audit.ActionEdit,
			OldValue:   old,
			NewValue:   text,
			Reason:     cmd.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("question edited", "id", id, "actor", cmd.Actor)
	return r.questions.Find(ctx, id)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID, cmd DeleteCommand) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		var old string
		if err := lockColumn(ctx, tx, "canonical_text", id, &old); err != nil {
			return struct{}{}, err
		}

		if err := audit.Append(ctx, tx, audit.Record{
			QuestionID: id,
			Actor:      cmd.Actor,
			Action:     audit.ActionDelete,
			OldValue:   old,
			Reason:     cmd.Reason,
		}); err != nil {
			return struct{}{}, err
		}

		if err := repository.ExecExpectOne(ctx, tx, "DELETE FROM questions WHERE id = $1", id); err != nil {
			return struct{}{}, repository.MapError(err, questions.ErrNotFound, questions.ErrDuplicate)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("question deleted", "id", id, "actor", cmd.Actor)
	return nil
}

func (r *repo) Bulk(ctx context.Context, cmd BulkCommand) (*BulkResult, error) {
	if len(cmd.IDs) == 0 {
		return nil, ErrInvalidRequest
	}

	var apply func(uuid.UUID) error

	switch cmd.Action {
	case audit.ActionApprove, audit.ActionReject:
		mc := ModerateCommand{Action: cmd.Action, Actor: cmd.Actor, Reason: cmd.Reason}
		apply = func(id uuid.UUID) error {
			_, err := r.Moderate(ctx, id, mc)
			return err
		}
	case audit.ActionDelete:
		dc := DeleteCommand{Actor: cmd.Actor, Reason: cmd.Reason}
		apply = func(id uuid.UUID) error {
			return r.Delete(ctx, id, dc)
		}
	default:
		return nil, ErrInvalidAction
	}

	result := &BulkResult{Errors: []BulkError{}}
	for _, id := range cmd.IDs {
		if err := apply(id); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkError{ID: id, Error: err.Error()})
			continue
		}
		result.Succeeded++
	}

	r.logger.Info(
		"bulk moderation complete",
		"action", cmd.Action,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// lockColumn locks the question row and reads one of its columns into dest.
func lockColumn(ctx context.Context, tx *sql.Tx, column string, id uuid.UUID, dest any) error {
	err := tx.QueryRowContext(
		ctx,
		fmt.Sprintf("SELECT %s FROM questions WHERE id = $1 FOR UPDATE", column),
		id,
	).Scan(dest)

	if errors.Is(err, sql.ErrNoRows) {
		return questions.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock question: %w", err)
	}
	return nil
}
