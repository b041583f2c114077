// Package workflow runs uploaded call documents through classification,
// question deduplication and script tracking, and exposes the operations
// built on top of the question corpus: resolution, semantic search, script
// feedback, moderation and merging.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/classifications"
	"github.com/JaimeStill/callbook/internal/classifier"
	"github.com/JaimeStill/callbook/internal/clusters"
	"github.com/JaimeStill/callbook/internal/dedup"
	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/internal/facts"
	"github.com/JaimeStill/callbook/internal/metrics"
	"github.com/JaimeStill/callbook/internal/moderation"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/scripts"
	"github.com/JaimeStill/callbook/internal/summary"
)

// Sentinel errors for workflow operations.
var (
	ErrAlreadyRunning   = errors.New("pending processing is already running")
	ErrNoDefaultCluster = errors.New("default cluster is not configured in the store")
	ErrEmbeddingFailed  = errors.New("query embedding failed")
	ErrClassifyFailed   = errors.New("classification failed")
	ErrExtractFailed    = errors.New("extraction failed")
	ErrEmptyQuery       = errors.New("query text is empty")
	ErrEmptyDocument    = errors.New("document has no text")
)

// Documents is the slice of document storage the pipeline drives.
type Documents interface {
	Claim(ctx context.Context, id uuid.UUID, force bool) (*documents.Document, bool, error)
	Text(ctx context.Context, id uuid.UUID) (string, error)
	ListPending(ctx context.Context, limit int) ([]documents.Document, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkNoExtraction(ctx context.Context, id uuid.UUID) error
	MarkError(ctx context.Context, id uuid.UUID, message string) error
}

type Clusters interface {
	List(ctx context.Context) ([]clusters.Cluster, error)
	EnsureSubcategory(ctx context.Context, clusterID uuid.UUID, name string) (*clusters.Subcategory, error)
}

type Resolver interface {
	Resolve(ctx context.Context, text string) (dedup.Resolution, error)
	ResolveOrCreate(ctx context.Context, cmd questions.CreateCommand, ref string) (dedup.Decision, error)
}

type Questions interface {
	Embedded(ctx context.Context, clusterID *uuid.UUID) ([]questions.Embedded, error)
	MissingEmbeddings(ctx context.Context, limit int) ([]questions.Question, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error
}

type Scripts interface {
	Observe(ctx context.Context, cmd scripts.ObserveCommand) (*scripts.Observation, error)
	RecordOutcome(ctx context.Context, questionID, scriptID uuid.UUID, cmd scripts.OutcomeCommand) (*scripts.Script, error)
}

type Moderation interface {
	Evaluate(ctx context.Context, text string) (moderation.Verdict, error)
	Moderate(ctx context.Context, id uuid.UUID, cmd moderation.ModerateCommand) (*questions.Question, error)
	Merge(ctx context.Context, cmd moderation.MergeCommand) (*moderation.MergeResult, error)
}

type Classifications interface {
	Record(ctx context.Context, cmd classifications.RecordCommand) (*classifications.Classification, error)
}

// Facts stores the facts extracted from a document.
type Facts interface {
	Replace(ctx context.Context, documentID uuid.UUID, cmds []facts.CreateCommand) (int, error)
}

// Transactor runs fn so that every store call made with the context it
// receives commits or rolls back together. Atomic may run fn more than once.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type Counters interface {
	Add(ctx context.Context, day time.Time, d summary.Delta) error
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Publisher interface {
	Publish(subject string, data any) error
}

// Runtime bundles the dependencies the workflow requires. It is constructed
// by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Documents       Documents
	Classifier      classifier.Classifier
	Clusters        Clusters
	Resolver        Resolver
	Questions       Questions
	Scripts         Scripts
	Moderation      Moderation
	Classifications Classifications
	Facts           Facts
	Summary         Counters
	Embedder        Embedder
	Events          Publisher
	Metrics         *metrics.Metrics
	Logger          *slog.Logger

	// Tx scopes the writes of one document. When nil the writes run
	// without a shared transaction.
	Tx Transactor
}

// Config tunes the workflow. Zero values take the defaults noted per field.
type Config struct {
	DefaultCluster  string  // general
	BatchLimit      int     // 50
	Workers         int     // 1
	SearchLimit     int     // 10
	SearchThreshold float64 // 0.5
	BackfillBatch   int     // 100
	ModelName       string
	ProviderName    string
}

func (c Config) withDefaults() Config {
	if c.DefaultCluster == "" {
		c.DefaultCluster = "general"
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 50
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = 10
	}
	if c.SearchThreshold <= 0 {
		c.SearchThreshold = 0.5
	}
	if c.BackfillBatch <= 0 {
		c.BackfillBatch = 100
	}
	return c
}

// System exposes the processing pipeline and the corpus operations.
type System interface {
	Handler() *Handler

	// ProcessDocument runs one document through the pipeline. Failures of the
	// document itself are reported through Outcome with a nil error; the error
	// return is reserved for storage failures outside the document's state.
	ProcessDocument(ctx context.Context, id uuid.UUID, force bool) (Outcome, error)
	ProcessPending(ctx context.Context, limit int) (BatchSummary, error)

	ResolveQuestion(ctx context.Context, text string) (dedup.Resolution, error)
	RecordOutcome(ctx context.Context, questionID, scriptID uuid.UUID, resolved bool) (float64, error)
	Moderate(ctx context.Context, questionID uuid.UUID, cmd moderation.ModerateCommand) (*questions.Question, error)
	Merge(ctx context.Context, cmd moderation.MergeCommand) (*moderation.MergeResult, error)
	SearchSemantic(ctx context.Context, query string, limit int, threshold float64) ([]SearchHit, error)
	BackfillEmbeddings(ctx context.Context) (BackfillResult, error)
}

type workflow struct {
	rt      *Runtime
	cfg     Config
	logger  *slog.Logger
	running atomic.Bool
	now     func() time.Time
}

// New creates the workflow System.
func New(rt *Runtime, cfg Config) System {
	return &workflow{
		rt:     rt,
		cfg:    cfg.withDefaults(),
		logger: rt.Logger.With("system", "workflow"),
		now:    time.Now,
	}
}

func (w *workflow) Handler() *Handler {
	return NewHandler(w, w.logger)
}

// atomic runs fn inside the runtime's transaction scope.
func (w *workflow) atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if w.rt.Tx == nil {
		return fn(ctx)
	}
	return w.rt.Tx.Atomic(ctx, fn)
}

func (w *workflow) publish(subject string, data any) {
	if w.rt.Events == nil {
		return
	}
	if err := w.rt.Events.Publish(subject, data); err != nil {
		w.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}
