package moderation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/scripts"
	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var (
	errSourceMissing = errors.New("source question not found")
	errTargetMissing = errors.New("target question not found")
)

type mergeSide struct {
	text       string
	timesAsked int
}

func (r *repo) Merge(ctx context.Context, cmd MergeCommand) (*MergeResult, error) {
	if cmd.SourceID == cmd.TargetID {
		return &MergeResult{Message: "cannot merge a question into itself"}, nil
	}

	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (MergeRecord, error) {
		// The source must not be matched by a document while it is merged away.
		if err := questions.LockCorpus(ctx, tx); err != nil {
			return MergeRecord{}, err
		}

		source, err := lockPair(ctx, tx, cmd.SourceID, cmd.TargetID)
		if err != nil {
			return MergeRecord{}, err
		}

		// Moved scripts must not carry is_best into the target.
		if _, err := tx.ExecContext(
			ctx,
			"UPDATE scripts SET is_best = false WHERE question_id = $1 AND is_best",
			cmd.SourceID,
		); err != nil {
			return MergeRecord{}, fmt.Errorf("clear source best script: %w", err)
		}

		variantsMoved, err := reparent(ctx, tx, "question_variants", cmd.SourceID, cmd.TargetID)
		if err != nil {
			return MergeRecord{}, err
		}

		scriptsMoved, err := reparent(ctx, tx, "scripts", cmd.SourceID, cmd.TargetID)
		if err != nil {
			return MergeRecord{}, err
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO question_variants(id, question_id, variant_text, source_reference)
			VALUES ($1, $2, $3, $4)`,
			uuid.New(), cmd.TargetID, source.text, "merge:"+cmd.SourceID.String(),
		); err != nil {
			return MergeRecord{}, fmt.Errorf("add source text as variant: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			"UPDATE questions SET times_asked = times_asked + $2, updated_at = NOW() WHERE id = $1",
			cmd.TargetID, source.timesAsked,
		); err != nil {
			return MergeRecord{}, fmt.Errorf("add times asked: %w", err)
		}

		if _, err := scripts.Recompute(ctx, tx, cmd.TargetID, r.policy); err != nil {
			return MergeRecord{}, fmt.Errorf("recompute target best script: %w", err)
		}

		actor := cmd.Actor
		if actor == "" {
			actor = audit.SystemActor
		}

		rec, err := repository.QueryOne(
			ctx, tx,
			`INSERT INTO merge_records(id, source_id, target_id, source_text, variants_moved, scripts_moved, times_asked_added, actor, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, source_id, target_id, source_text, variants_moved, scripts_moved, times_asked_added, actor, reason, created_at`,
			[]any{
				uuid.New(),
				cmd.SourceID,
				cmd.TargetID,
				source.text,
				variantsMoved,
				scriptsMoved,
				source.timesAsked,
				actor,
				cmd.Reason,
			},
			scanMergeRecord,
		)
		if err != nil {
			return MergeRecord{}, fmt.Errorf("insert merge record: %w", err)
		}

		if err := audit.Append(ctx, tx, audit.Record{
			QuestionID: cmd.TargetID,
			Actor:      actor,
			Action:     audit.ActionMerge,
			OldValue:   cmd.SourceID.String(),
			NewValue:   cmd.TargetID.String(),
			Reason:     cmd.Reason,
		}); err != nil {
			return MergeRecord{}, err
		}

		if err := repository.ExecExpectOne(ctx, tx, "DELETE FROM questions WHERE id = $1", cmd.SourceID); err != nil {
			return MergeRecord{}, fmt.Errorf("delete source question: %w", err)
		}

		return rec, nil
	})

	if errors.Is(err, errSourceMissing) || errors.Is(err, errTargetMissing) {
		return &MergeResult{Message: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"questions merged",
		"source_id", rec.SourceID,
		"target_id", rec.TargetID,
		"variants_moved", rec.VariantsMoved,
		"scripts_moved", rec.ScriptsMoved,
	)

	target, err := r.questions.Find(ctx, cmd.TargetID)
	if err != nil {
		return nil, err
	}

	return &MergeResult{
		Success: true,
		Message: fmt.Sprintf("merged %s into %s", rec.SourceID, rec.TargetID),
		Record:  &rec,
		Target:  target,
	}, nil
}

func (r *repo) Merges(
	ctx context.Context,
	page pagination.PageRequest,
) (*pagination.PageResult[MergeRecord], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(mergeProjection, query.SortField{Field: "CreatedAt", Descending: true}).
		WhereSearch(page.Search, "SourceText", "Reason")

	result, err := repository.Page(ctx, repository.Using(ctx, r.db), qb, page, scanMergeRecord)
	if err != nil {
		return nil, fmt.Errorf("list merge records: %w", err)
	}
	return result, nil
}

// lockPair locks both question rows in id order so concurrent merges of the
// same pair cannot deadlock, and returns the source row.
func lockPair(ctx context.Context, tx *sql.Tx, sourceID, targetID uuid.UUID) (mergeSide, error) {
	type lock struct {
		id      uuid.UUID
		missing error
		side    *mergeSide
	}

	var source, target mergeSide
	order := []lock{
		{sourceID, errSourceMissing, &source},
		{targetID, errTargetMissing, &target},
	}
	if targetID.String() < sourceID.String() {
		order[0], order[1] = order[1], order[0]
	}

	for _, l := range order {
		err := tx.QueryRowContext(
			ctx,
			"SELECT canonical_text, times_asked FROM questions WHERE id = $1 FOR UPDATE",
			l.id,
		).Scan(&l.side.text, &l.side.timesAsked)

		if errors.Is(err, sql.ErrNoRows) {
			return source, l.missing
		}
		if err != nil {
			return source, fmt.Errorf("lock question %s: %w", l.id, err)
		}
	}

	return source, nil
}

func reparent(ctx context.Context, tx *sql.Tx, table string, from, to uuid.UUID) (int, error) {
	res, err := tx.ExecContext(
		ctx,
		fmt.Sprintf("UPDATE %s SET question_id = $2 WHERE question_id = $1", table),
		from, to,
	)
	if err != nil {
		return 0, fmt.Errorf("move %s: %w", table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var mergeProjection = query.
	NewProjectionMap("public", "merge_records", "m").
	Project("id", "ID").
	Project("source_id", "SourceID").
	Project("target_id", "TargetID").
	Project("source_text", "SourceText").
	Project("variants_moved", "VariantsMoved").
	Project("scripts_moved", "ScriptsMoved").
	Project("times_asked_added", "TimesAskedAdded").
	Project("actor", "Actor").
	Project("reason", "Reason").
	Project("created_at", "CreatedAt")

func scanMergeRecord(s repository.Scanner) (MergeRecord, error) {
	var m MergeRecord
	err := s.Scan(
		&m.ID,
		&m.SourceID,
		&m.TargetID,
		&m.SourceText,
		&m.VariantsMoved,
		&m.ScriptsMoved,
		&m.TimesAskedAdded,
		&m.Actor,
		&m.Reason,
		&m.CreatedAt,
	)
	return m, err
}
