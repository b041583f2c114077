//go:build integration

package moderation_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/internal/clusters"
	"github.com/JaimeStill/callbook/internal/migrations"
	"github.com/JaimeStill/callbook/internal/moderation"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/scripts"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("CALLBOOK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CALLBOOK_TEST_DATABASE_URL not set")
	}
	if err := migrations.Up(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	db      *sql.DB
	qs      questions.System
	scripts scripts.System
	mod     moderation.System
	log     audit.System
	cluster uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := openTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limits := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	list, err := clusters.New(db, logger).List(context.Background())
	if err != nil || len(list) == 0 {
		t.Fatalf("clusters: %v", err)
	}

	qs := questions.New(db, logger, limits)
	return &fixture{
		db:      db,
		qs:      qs,
		scripts: scripts.New(db, scripts.DefaultPolicy(), logger),
		mod:     moderation.New(db, qs, scripts.DefaultPolicy(), logger, limits),
		log:     audit.New(db, logger, limits),
		cluster: list[0].ID,
	}
}

// question creates a question with the given demand, variants and scripts.
// Winning scripts are observed on a successful call and outrank losing ones.
func (f *fixture) question(t *testing.T, text string, timesAsked int, variants, winning, losing []string) *questions.Question {
	t.Helper()
	ctx := context.Background()

	q, err := f.qs.Create(ctx, questions.CreateCommand{ClusterID: f.cluster, Text: text})
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range variants {
		if _, err := f.qs.AttachVariant(ctx, questions.VariantCommand{QuestionID: q.ID, Text: v}); err != nil {
			t.Fatalf("attach variant with empty reference: %v", err)
		}
	}
	if _, err := f.db.ExecContext(ctx, "UPDATE questions SET times_asked = $2 WHERE id = $1", q.ID, timesAsked); err != nil {
		t.Fatal(err)
	}
	observe := func(text string, succeeded bool) {
		typ := scripts.TypeInfo
		if succeeded {
			typ = scripts.TypeInstruction
		}
		if _, err := f.scripts.Observe(ctx, scripts.ObserveCommand{
			QuestionID: q.ID,
			Text:       text,
			Type:       typ,
			HasSteps:   succeeded,
			Succeeded:  succeeded,
		}); err != nil {
			t.Fatal(err)
		}
	}
	for _, text := range winning {
		observe(text, true)
	}
	for _, text := range losing {
		observe(text, false)
	}
	return q
}

func TestMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	suffix := uuid.NewString()

	source := f.question(t, "where is my parcel "+suffix, 5,
		[]string{"parcel status? " + suffix, "has my parcel shipped " + suffix},
		[]string{"Open the tracking page, then enter the order number " + suffix},
		nil,
	)
	target := f.question(t, "track my delivery "+suffix, 3,
		nil,
		nil,
		[]string{
			"Deliveries usually take three to five days " + suffix,
			"Our couriers work on weekdays from nine to six " + suffix,
		},
	)

	t.Run("self merge refused", func(t *testing.T) {
		res, err := f.mod.Merge(ctx, moderation.MergeCommand{SourceID: target.ID, TargetID: target.ID})
		if err != nil {
			t.Fatal(err)
		}
		if res.Success {
			t.Error("merging a question into itself should fail")
		}
	})

	t.Run("missing source refused", func(t *testing.T) {
		res, err := f.mod.Merge(ctx, moderation.MergeCommand{SourceID: uuid.New(), TargetID: target.ID})
		if err != nil {
			t.Fatal(err)
		}
		if res.Success {
			t.Error("merge with a missing source should fail")
		}
	})

	sourceScripts, err := f.scripts.ListByQuestion(ctx, source.ID)
	if err != nil || len(sourceScripts) != 1 {
		t.Fatalf("source scripts = %v, %v", sourceScripts, err)
	}

	res, err := f.mod.Merge(ctx, moderation.MergeCommand{
		SourceID: source.ID,
		TargetID: target.ID,
		Actor:    "reviewer",
	})
	if err != nil {
		t.Fatalf("Merge with empty reason: %v", err)
	}
	if !res.Success || res.Record == nil {
		t.Fatalf("Merge = %+v, want success with record", res)
	}

	rec := res.Record
	if rec.VariantsMoved != 2 || rec.ScriptsMoved != 1 || rec.TimesAskedAdded != 5 {
		t.Errorf("record = %+v", rec)
	}
	if rec.Reason != "" || rec.Actor != "reviewer" {
		t.Errorf("record actor = %q, reason = %q", rec.Actor, rec.Reason)
	}

	if res.Target.TimesAsked != 8 {
		t.Errorf("target TimesAsked = %d, want 8", res.Target.TimesAsked)
	}
	if _, err := f.qs.Find(ctx, source.ID); !errors.Is(err, questions.ErrNotFound) {
		t.Errorf("find source after merge err = %v, want ErrNotFound", err)
	}

	variants, err := f.qs.Variants(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	texts := make(map[string]bool, len(variants))
	for _, v := range variants {
		texts[v.Text] = true
	}
	if len(variants) != 3 || !texts[source.Text] {
		t.Errorf("target variants = %v, want the 2 moved variants and the source text", texts)
	}

	merged, err := f.scripts.ListByQuestion(ctx, target.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged) != 3 {
		t.Fatalf("target scripts = %d, want 3", len(merged))
	}
	var best []uuid.UUID
	for _, s := range merged {
		if s.IsBest {
			best = append(best, s.ID)
		}
	}
	if len(best) != 1 || best[0] != sourceScripts[0].ID {
		t.Errorf("best scripts = %v, want the moved source script %s", best, sourceScripts[0].ID)
	}
	if res.Target.BestScriptID == nil || *res.Target.BestScriptID != sourceScripts[0].ID {
		t.Errorf("target best script = %v, want %s", res.Target.BestScriptID, sourceScripts[0].ID)
	}

	merges, err := f.mod.Merges(ctx, pagination.PageRequest{Page: 1, PageSize: 10, Search: &source.Text})
	if err != nil {
		t.Fatal(err)
	}
	if merges.Total != 1 || merges.Data[0].ID != rec.ID {
		t.Errorf("merge records = %+v", merges.Data)
	}

	action := string(audit.ActionMerge)
	entries, err := f.log.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10}, audit.Filters{QuestionID: &target.ID, Action: &action})
	if err != nil {
		t.Fatal(err)
	}
	if entries.Total != 1 {
		t.Fatalf("merge log entries = %d, want 1", entries.Total)
	}
	if e := entries.Data[0]; e.Reason != "" || e.OldValue == nil || *e.OldValue != source.ID.String() {
		t.Errorf("log entry = %+v", e)
	}
}

func TestModerate_EmptyReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := f.question(t, "can I change my delivery address "+uuid.NewString(), 1, nil, nil, nil)

	got, err := f.mod.Moderate(ctx, q.ID, moderation.ModerateCommand{Action: audit.ActionApprove})
	if err != nil {
		t.Fatalf("Moderate with empty reason: %v", err)
	}
	if got.ModerationStatus != questions.StatusApproved {
		t.Errorf("status = %s, want approved", got.ModerationStatus)
	}

	entries, err := f.log.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10}, audit.Filters{QuestionID: &q.ID})
	if err != nil {
		t.Fatal(err)
	}
	if entries.Total != 1 {
		t.Fatalf("log entries = %d, want 1", entries.Total)
	}
	e := entries.Data[0]
	if e.Reason != "" || e.Actor != audit.SystemActor || e.Action != audit.ActionApprove {
		t.Errorf("log entry = %+v", e)
	}
}
