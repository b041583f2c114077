package api

import (
	"context"
	"fmt"

	"github.com/JaimeStill/callbook/internal/audit"
	"github.com/JaimeStill/callbook/internal/classifications"
	"github.com/JaimeStill/callbook/internal/classifier"
	"github.com/JaimeStill/callbook/internal/clusters"
	"github.com/JaimeStill/callbook/internal/dedup"
	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/internal/embeddings"
	"github.com/JaimeStill/callbook/internal/facts"
	"github.com/JaimeStill/callbook/internal/moderation"
	"github.com/JaimeStill/callbook/internal/prompts"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/scripts"
	"github.com/JaimeStill/callbook/internal/search"
	"github.com/JaimeStill/callbook/internal/summary"
	"github.com/JaimeStill/callbook/internal/watcher"
	"github.com/JaimeStill/callbook/internal/workflow"
	"github.com/JaimeStill/callbook/pkg/repository"
	"github.com/JaimeStill/callbook/pkg/retry"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Audit           audit.System
	Classifications classifications.System
	Clusters        clusters.System
	Documents       documents.System
	Facts           facts.System
	Moderation      moderation.System
	Prompts         prompts.System
	Questions       questions.System
	Scripts         scripts.System
	Search          *search.Service
	Summary         summary.System
	Workflow        workflow.System
	Watcher         *watcher.Watcher
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) (*Domain, error) {
	conn := runtime.Database.Connection()

	docsSystem := documents.New(conn, runtime.Storage, runtime.Logger, runtime.Pagination)
	promptsSystem := prompts.New(conn, runtime.Logger, runtime.Pagination)
	questionsSystem := questions.New(conn, runtime.Logger, runtime.Pagination)
	scriptsSystem := scripts.New(conn, runtime.Engine.Scripts, runtime.Logger)
	clustersSystem := clusters.New(conn, runtime.Logger)
	summarySystem := summary.New(conn, runtime.Logger)
	factsSystem := facts.New(conn, runtime.Logger, runtime.Pagination)
	auditSystem := audit.New(conn, runtime.Logger, runtime.Pagination)
	classificationsSystem := classifications.New(conn, runtime.Logger, runtime.Pagination)
	moderationSystem := moderation.New(conn, questionsSystem, runtime.Engine.Scripts, runtime.Logger, runtime.Pagination)

	embedder, err := newEmbedder(runtime)
	if err != nil {
		return nil, err
	}

	cls, err := newClassifier(runtime, promptsSystem)
	if err != nil {
		return nil, err
	}

	resolver := dedup.New(
		questionsSystem,
		embedder,
		dedup.Config{
			Threshold:      runtime.Engine.SimilarityThreshold,
			ScopeToCluster: runtime.Engine.ScopeToCluster,
		},
		runtime.Logger,
	)

	provider := runtime.AI.Classifier()
	wf := workflow.New(
		&workflow.Runtime{
			Documents:       docsSystem,
			Classifier:      cls,
			Clusters:        clustersSystem,
			Resolver:        resolver,
			Questions:       questionsSystem,
			Scripts:         scriptsSystem,
			Moderation:      moderationSystem,
			Classifications: classificationsSystem,
			Facts:           factsSystem,
			Summary:         summarySystem,
			Embedder:        embedder,
			Events:          runtime.Events,
			Metrics:         runtime.Metrics,
			Logger:          runtime.Logger,
			Tx:              repository.Transactor{DB: conn},
		},
		workflow.Config{
			DefaultCluster:  runtime.Engine.DefaultCluster,
			BatchLimit:      runtime.Engine.BatchLimit,
			Workers:         runtime.Engine.Workers,
			SearchLimit:     runtime.Engine.SearchLimit,
			SearchThreshold: runtime.Engine.SearchThreshold,
			BackfillBatch:   runtime.Engine.BackfillBatch,
			ModelName:       provider.Model,
			ProviderName:    runtime.AI.Provider,
		},
	)

	return &Domain{
		Audit:           auditSystem,
		Classifications: classificationsSystem,
		Clusters:        clustersSystem,
		Documents:       docsSystem,
		Facts:           factsSystem,
		Moderation:      &mergeNotifier{System: moderationSystem, wf: wf, runtime: runtime},
		Prompts:         promptsSystem,
		Questions:       questionsSystem,
		Scripts:         scriptsSystem,
		Search:          search.New(docsSystem, factsSystem, questionsSystem, runtime.Logger),
		Summary:         summarySystem,
		Workflow:        wf,
		Watcher:         watcher.New(&runtime.Watcher, docsSystem, wf, runtime.Logger),
	}, nil
}

func newRetry(runtime *Runtime) retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = runtime.AI.MaxRetries
	return cfg
}

func newEmbedder(runtime *Runtime) (embeddings.Embedder, error) {
	openai := runtime.AI.OpenAI
	if openai.EmbeddingModel == "" {
		return nil, fmt.Errorf("embedding model is not configured")
	}

	base := embeddings.NewOpenAI(
		embeddings.Options{
			APIKey:            openai.APIKey,
			BaseURL:           openai.BaseURL,
			Model:             openai.EmbeddingModel,
			Timeout:           runtime.AI.RequestTimeoutDuration(),
			RequestsPerSecond: runtime.AI.RequestsPerSecond,
			BatchSize:         runtime.AI.EmbeddingBatchSize,
			Retry:             newRetry(runtime),
		},
		runtime.Logger,
	)

	return embeddings.WithCache(base, runtime.Cache, runtime.Logger), nil
}

func newClassifier(runtime *Runtime, src prompts.Source) (classifier.Classifier, error) {
	provider := runtime.AI.Classifier()

	completer, err := classifier.NewCompleter(
		runtime.AI.Provider,
		provider.APIKey,
		provider.BaseURL,
		provider.Model,
	)
	if err != nil {
		return nil, fmt.Errorf("classifier init failed: %w", err)
	}

	return classifier.New(
		completer,
		src,
		classifier.Options{
			Timeout:       runtime.AI.RequestTimeoutDuration(),
			MaxConcurrent: runtime.AI.MaxConcurrent,
			Retry:         newRetry(runtime),
		},
		runtime.Logger,
	), nil
}

// mergeNotifier routes merges issued through the moderation endpoints
// through the workflow so they are announced on the event bus.
type mergeNotifier struct {
	moderation.System
	wf      workflow.System
	runtime *Runtime
}

func (m *mergeNotifier) Handler() *moderation.Handler {
	return moderation.NewHandler(m, m.runtime.Logger, m.runtime.Pagination)
}

func (m *mergeNotifier) Merge(ctx context.Context, cmd moderation.MergeCommand) (*moderation.MergeResult, error) {
	return m.wf.Merge(ctx, cmd)
}
