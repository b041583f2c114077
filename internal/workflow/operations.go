package workflow

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/dedup"
	"github.com/JaimeStill/callbook/internal/moderation"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/scripts"
	"github.com/JaimeStill/callbook/internal/similarity"
	"github.com/JaimeStill/callbook/pkg/events"
)

// ResolveQuestion reports whether text matches a stored question without
// writing anything.
func (w *workflow) ResolveQuestion(ctx context.Context, text string) (dedup.Resolution, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return dedup.Resolution{}, ErrEmptyQuery
	}

	res, err := w.rt.Resolver.Resolve(ctx, text)
	if err != nil {
		return dedup.Resolution{}, fmt.Errorf("resolve question: %w", err)
	}
	return res, nil
}

// RecordOutcome applies explicit feedback to a script and returns its new
// effectiveness.
func (w *workflow) RecordOutcome(ctx context.Context, questionID, scriptID uuid.UUID, resolved bool) (float64, error) {
	s, err := w.rt.Scripts.RecordOutcome(ctx, questionID, scriptID, scripts.OutcomeCommand{Resolved: resolved})
	if err != nil {
		return 0, err
	}
	return s.Effectiveness, nil
}

func (w *workflow) Moderate(ctx context.Context, questionID uuid.UUID, cmd moderation.ModerateCommand) (*questions.Question, error) {
	return w.rt.Moderation.Moderate(ctx, questionID, cmd)
}

// Merge folds one question into another and announces successful merges.
func (w *workflow) Merge(ctx context.Context, cmd moderation.MergeCommand) (*moderation.MergeResult, error) {
	res, err := w.rt.Moderation.Merge(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if res.Success {
		w.publish(events.QuestionMerged, res.Record)
	}
	return res, nil
}

// SearchSemantic ranks stored questions by similarity to query. Hits below
// threshold are dropped; the rest are sorted by descending similarity, ties
// keeping scan order, and truncated to limit. Non-positive limit and
// threshold take the configured defaults.
func (w *workflow) SearchSemantic(ctx context.Context, query string, limit int, threshold float64) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = w.cfg.SearchLimit
	}
	if threshold <= 0 {
		threshold = w.cfg.SearchThreshold
	}

	vector, err := w.rt.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	candidates, err := w.rt.Questions.Embedded(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load embedded questions: %w", err)
	}

	list, err := w.rt.Clusters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clusters: %w", err)
	}
	names := make(map[uuid.UUID]string, len(list))
	for _, c := range list {
		names[c.ID] = c.Name
	}

	hits := make([]SearchHit, 0)
	for _, c := range candidates {
		sim := similarity.Cosine(vector, c.Vector)
		if sim < threshold {
			continue
		}
		hits = append(hits, SearchHit{
			QuestionID:        c.ID,
			Text:              c.Text,
			Cluster:           names[c.ClusterID],
			Similarity:        sim,
			SimilarityPercent: similarity.Percent(sim),
			TimesAsked:        c.TimesAsked,
		})
	}

	slices.SortStableFunc(hits, func(a, b SearchHit) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	w.rt.Metrics.Search()
	return hits, nil
}

// BackfillEmbeddings embeds every question stored without a vector, in
// batches. It stops when no question is left or a batch updates nothing.
func (w *workflow) BackfillEmbeddings(ctx context.Context) (BackfillResult, error) {
	var result BackfillResult

	for {
		batch, err := w.rt.Questions.MissingEmbeddings(ctx, w.cfg.BackfillBatch)
		if err != nil {
			return result, fmt.Errorf("list questions without embeddings: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		texts := make([]string, len(batch))
		for i, q := range batch {
			texts[i] = q.Text
		}

		vectors, err := w.rt.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("embed batch: %w", err)
		}

		updated := 0
		for i, q := range batch {
			result.Processed++
			if len(vectors[i]) == 0 {
				result.Failed++
				continue
			}
			if err := w.rt.Questions.SetEmbedding(ctx, q.ID, vectors[i]); err != nil {
				return result, fmt.Errorf("store embedding for %s: %w", q.ID, err)
			}
			updated++
		}
		result.Updated += updated

		if updated == 0 || len(batch) < w.cfg.BackfillBatch {
			break
		}
	}

	w.logger.Info("embedding backfill complete",
		"processed", result.Processed,
		"updated", result.Updated,
		"failed", result.Failed,
	)
	return result, nil
}
