// Package dedup decides whether an incoming question is a rephrasing of an
// existing canonical question by comparing embedding vectors.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/internal/similarity"
)

// Store is the slice of question storage the resolver needs.
type Store interface {
	Embedded(ctx context.Context, clusterID *uuid.UUID) ([]questions.Embedded, error)
	Serialize(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, cmd questions.CreateCommand) (*questions.Question, error)
	AttachVariant(ctx context.Context, cmd questions.VariantCommand) (*questions.Variant, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config controls matching.
type Config struct {
	// Threshold is the minimum cosine similarity for a match.
	Threshold float64
	// ScopeToCluster restricts ResolveOrCreate scans to the incoming
	// question's cluster. Resolve always scans every cluster.
	ScopeToCluster bool
}

// Kind is the outcome of a resolution.
type Kind string

const (
	Matched     Kind = "matched"
	NoMatch     Kind = "no_match"
	NoEmbedding Kind = "no_embedding"
)

// Resolution describes how a question text relates to the stored questions.
// QuestionID is set only for Matched; Vector is nil only for NoEmbedding.
type Resolution struct {
	Kind       Kind       `json:"outcome"`
	QuestionID *uuid.UUID `json:"question_id"`
	Similarity float64    `json:"similarity"`
	Vector     []float32  `json:"-"`
}

// Decision is the result of ResolveOrCreate: the resolution plus the variant
// attached on a match or the question created otherwise.
type Decision struct {
	Resolution
	Question *questions.Question `json:"question,omitempty"`
	Variant  *questions.Variant  `json:"variant,omitempty"`
}

// Created reports whether a new canonical question was minted.
func (d Decision) Created() bool {
	return d.Question != nil
}

// Match is the best scoring candidate of a scan.
type Match struct {
	QuestionID uuid.UUID
	Similarity float64
}

// BestMatch scans candidates in order and returns the most similar one.
// Candidates without a vector are skipped. Ties keep the earlier candidate.
// ok is false when no candidate has a vector.
func BestMatch(candidates []questions.Embedded, vector []float32) (best Match, ok bool) {
	for _, c := range candidates {
		if len(c.Vector) == 0 {
			continue
		}
		sim := similarity.Cosine(vector, c.Vector)
		if !ok || sim > best.Similarity {
			best = Match{QuestionID: c.ID, Similarity: sim}
			ok = true
		}
	}
	return best, ok
}

// Resolver matches questions against the stored corpus. ResolveOrCreate runs
// its scan and write under the store's corpus lock, and under a process-wide
// mutex inside it, so that two near-identical new questions cannot both be
// created.
type Resolver struct {
	store    Store
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
	mu       sync.Mutex
}

// New creates a Resolver.
func New(store Store, embedder Embedder, cfg Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With("system", "dedup"),
	}
}

// Resolve classifies text against every stored question without writing.
// An embedding failure yields NoEmbedding rather than an error.
func (r *Resolver) Resolve(ctx context.Context, text string) (Resolution, error) {
	vector := r.embed(ctx, text)
	if vector == nil {
		return Resolution{Kind: NoEmbedding}, nil
	}
	return r.scan(ctx, vector, nil)
}

// ResolveOrCreate resolves cmd.Text and applies the outcome: a match attaches
// the text as a variant of the matched question, otherwise a question is
// created with the computed vector (or none, for NoEmbedding). ref is stored as
// the variant's source reference.
func (r *Resolver) ResolveOrCreate(ctx context.Context, cmd questions.CreateCommand, ref string) (Decision, error) {
	cmd.Text = strings.TrimSpace(cmd.Text)
	if cmd.Text == "" {
		return Decision{}, questions.ErrEmptyText
	}

	vector := r.embed(ctx, cmd.Text)

	var d Decision
	err := r.store.Serialize(ctx, func(ctx context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()

		var err error
		d, err = r.decide(ctx, cmd, vector, ref)
		return err
	})
	if err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (r *Resolver) decide(ctx context.Context, cmd questions.CreateCommand, vector []float32, ref string) (Decision, error) {
	res := Resolution{Kind: NoEmbedding}
	if vector != nil {
		var scope *uuid.UUID
		if r.cfg.ScopeToCluster {
			scope = &cmd.ClusterID
		}

		var err error
		res, err = r.scan(ctx, vector, scope)
		if err != nil {
			return Decision{}, err
		}
	}

	if res.Kind == Matched {
		v, err := r.store.AttachVariant(ctx, questions.VariantCommand{
			QuestionID:      *res.QuestionID,
			Text:            cmd.Text,
			SourceReference: ref,
		})
		if err != nil {
			return Decision{}, fmt.Errorf("attach variant: %w", err)
		}
		return Decision{Resolution: res, Variant: v}, nil
	}

	cmd.Embedding = vector
	q, err := r.store.Create(ctx, cmd)
	if err != nil {
		return Decision{}, fmt.Errorf("create question: %w", err)
	}

	return Decision{Resolution: res, Question: q}, nil
}

func (r *Resolver) scan(ctx context.Context, vector []float32, scope *uuid.UUID) (Resolution, error) {
	candidates, err := r.store.Embedded(ctx, scope)
	if err != nil {
		return Resolution{}, fmt.Errorf("load embedded questions: %w", err)
	}

	res := Resolution{Kind: NoMatch, Vector: vector}

	best, ok := BestMatch(candidates, vector)
	if !ok {
		return res, nil
	}

	res.Similarity = best.Similarity
	if best.Similarity >= r.cfg.Threshold {
		id := best.QuestionID
		res.Kind = Matched
		res.QuestionID = &id
	}

	r.logger.Debug(
		"question scan complete",
		"candidates", len(candidates),
		"best_similarity", best.Similarity,
		"outcome", res.Kind,
	)
	return res, nil
}

func (r *Resolver) embed(ctx context.Context, text string) []float32 {
	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		r.logger.Warn("embedding failed, continuing without vector", "error", err)
		return nil
	}
	if len(vector) == 0 {
		return nil
	}
	return vector
}
