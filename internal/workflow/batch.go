package workflow

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ProcessPending drains up to limit pending documents, oldest first. Only one
// run may be active at a time; an overlapping call returns ErrAlreadyRunning.
// A failing document never aborts the batch.
func (w *workflow) ProcessPending(ctx context.Context, limit int) (BatchSummary, error) {
	if !w.running.CompareAndSwap(false, true) {
		return BatchSummary{}, ErrAlreadyRunning
	}
	defer w.running.Store(false)

	if limit <= 0 {
		limit = w.cfg.BatchLimit
	}

	docs, err := w.rt.Documents.ListPending(ctx, limit)
	if err != nil {
		return BatchSummary{}, fmt.Errorf("list pending documents: %w", err)
	}

	var processed, failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(w.cfg.Workers)

	for _, doc := range docs {
		g.Go(func() error {
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}

			out, err := w.ProcessDocument(ctx, doc.ID, false)
			switch {
			case err != nil:
				w.logger.Error("document processing aborted", "id", doc.ID, "error", err)
				failed.Add(1)
			case out.Status == StatusFailed:
				failed.Add(1)
			case out.Status != StatusSkipped:
				processed.Add(1)
			}
			return nil
		})
	}
	g.Wait()

	w.rt.Metrics.Batch()

	result := BatchSummary{
		Processed: int(processed.Load()),
		Errors:    int(failed.Load()),
		Total:     len(docs),
	}

	w.logger.Info("pending batch complete",
		"processed", result.Processed,
		"errors", result.Errors,
		"total", result.Total,
	)
	return result, ctx.Err()
}
