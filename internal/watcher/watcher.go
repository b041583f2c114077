// Package watcher registers transcript files dropped into a folder as pending
// documents and periodically drains the pending queue.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/internal/workflow"
	"github.com/JaimeStill/callbook/pkg/lifecycle"
)

var extensions = map[string]string{
	".txt":  "text/plain",
	".json": "application/json",
}

// Documents is the document storage the watcher registers files into.
type Documents interface {
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
	Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error)
}

// Processor drains pending documents.
type Processor interface {
	ProcessPending(ctx context.Context, limit int) (workflow.BatchSummary, error)
}

// ScanResult counts the files seen by one folder scan.
type ScanResult struct {
	Registered int `json:"registered"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Watcher scans a folder on an interval.
type Watcher struct {
	cfg    *Config
	docs   Documents
	proc   Processor
	logger *slog.Logger

	mu sync.Mutex
}

func New(cfg *Config, docs Documents, proc Processor, logger *slog.Logger) *Watcher {
	return &Watcher{
		cfg:    cfg,
		docs:   docs,
		proc:   proc,
		logger: logger.With("system", "watcher"),
	}
}

// Scan registers every new *.txt and *.json file in the folder as a pending
// transcription. Files whose name is already registered and files without
// text are skipped. A missing folder scans as empty.
func (w *Watcher) Scan(ctx context.Context) (ScanResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var result ScanResult

	entries, err := os.ReadDir(w.cfg.Folder)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("transcription folder does not exist", "folder", w.cfg.Folder)
			return result, nil
		}
		return result, fmt.Errorf("read folder: %w", err)
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}
		contentType, ok := extensions[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}

		registered, err := w.register(ctx, entry.Name(), contentType)
		switch {
		case err != nil:
			w.logger.Error("register file failed", "filename", entry.Name(), "error", err)
			result.Failed++
		case registered:
			result.Registered++
		default:
			result.Skipped++
		}
	}

	w.logger.Info("folder scan complete",
		"folder", w.cfg.Folder,
		"registered", result.Registered,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (w *Watcher) register(ctx context.Context, filename, contentType string) (bool, error) {
	exists, err := w.docs.ExistsByFilename(ctx, filename)
	if err != nil {
		return false, fmt.Errorf("check filename: %w", err)
	}
	if exists {
		return false, nil
	}

	data, err := os.ReadFile(filepath.Join(w.cfg.Folder, filename))
	if err != nil {
		return false, fmt.Errorf("read file: %w", err)
	}

	text, err := documents.DecodeText(data)
	if err != nil {
		return false, err
	}
	if documents.Blank(text) {
		w.logger.Warn("skipping empty file", "filename", filename)
		return false, nil
	}

	doc, err := w.docs.Create(ctx, documents.CreateCommand{
		Text:        text,
		Filename:    filename,
		DocType:     documents.TypeTranscription,
		ContentType: contentType,
	})
	if err != nil {
		if errors.Is(err, documents.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("create document: %w", err)
	}

	w.logger.Info("transcription registered", "filename", filename, "id", doc.ID)
	return true, nil
}

// Tick scans the folder and then drains the pending queue. A batch already
// in progress is left to finish on its own.
func (w *Watcher) Tick(ctx context.Context) {
	if _, err := w.Scan(ctx); err != nil {
		w.logger.Error("folder scan failed", "error", err)
	}

	result, err := w.proc.ProcessPending(ctx, 0)
	switch {
	case errors.Is(err, workflow.ErrAlreadyRunning):
		w.logger.Debug("pending processing already running")
	case err != nil:
		w.logger.Error("pending processing failed", "error", err)
	case result.Total > 0:
		w.logger.Info("pending batch complete",
			"processed", result.Processed,
			"errors", result.Errors,
			"total", result.Total,
		)
	}
}

// Start registers the scan loop with the lifecycle coordinator. The first
// scan only registers files; processing begins on the first tick.
func (w *Watcher) Start(lc *lifecycle.Coordinator) error {
	if !w.cfg.Enabled {
		w.logger.Info("folder watcher disabled")
		return nil
	}

	interval := w.cfg.IntervalDuration()
	w.logger.Info("starting folder watcher", "folder", w.cfg.Folder, "interval", interval)

	done := make(chan struct{})

	lc.OnStartup("watcher", func(ctx context.Context) error {
		if _, err := w.Scan(ctx); err != nil {
			w.logger.Error("initial folder scan failed", "error", err)
		}

		go func() {
			defer close(done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					w.Tick(ctx)
				}
			}
		}()
		return nil
	})

	lc.OnShutdown("watcher", func() error {
		<-done
		w.logger.Info("folder watcher stopped")
		return nil
	})

	return nil
}
