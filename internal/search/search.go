// Package search runs one keyword query across document filenames, stored
// facts and the question corpus.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/callbook/internal/documents"
	"github.com/JaimeStill/callbook/internal/facts"
	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

// DefaultLimit caps each result set when the caller gives no limit.
const DefaultLimit = 50

var ErrEmptyQuery = errors.New("search query is empty")

type Documents interface {
	List(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error)
}

type Facts interface {
	List(ctx context.Context, page pagination.PageRequest, filters facts.Filters) (*pagination.PageResult[facts.Fact], error)
}

type Questions interface {
	List(ctx context.Context, page pagination.PageRequest, filters questions.Filters) (*pagination.PageResult[questions.Question], error)
}

// Results groups the matches of one query. Each group is capped at the
// requested limit independently.
type Results struct {
	Query     string               `json:"query"`
	Documents []documents.Document `json:"documents"`
	Facts     []facts.Fact         `json:"facts"`
	Questions []questions.Question `json:"questions"`
}

// Service runs keyword queries. Documents match on filename, facts on key or
// value and questions on their canonical text.
type Service struct {
	docs      Documents
	facts     Facts
	questions Questions
	logger    *slog.Logger
}

func New(docs Documents, f Facts, qs Questions, logger *slog.Logger) *Service {
	return &Service{
		docs:      docs,
		facts:     f,
		questions: qs,
		logger:    logger.With("system", "search"),
	}
}

func (s *Service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

// Search matches q case-insensitively as a substring. A non-positive limit
// takes DefaultLimit.
func (s *Service) Search(ctx context.Context, q string, limit int) (*Results, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	page := pagination.PageRequest{Page: 1, PageSize: limit, Search: &q}
	res := &Results{
		Query:     q,
		Documents: []documents.Document{},
		Facts:     []facts.Fact{},
		Questions: []questions.Question{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.docs.List(gctx, page, documents.Filters{})
		if err != nil {
			return fmt.Errorf("search documents: %w", err)
		}
		res.Documents = append(res.Documents, docs.Data...)
		return nil
	})
	g.Go(func() error {
		found, err := s.facts.List(gctx, page, facts.Filters{})
		if err != nil {
			return fmt.Errorf("search facts: %w", err)
		}
		res.Facts = append(res.Facts, found.Data...)
		return nil
	})
	g.Go(func() error {
		qs, err := s.questions.List(gctx, page, questions.Filters{})
		if err != nil {
			return fmt.Errorf("search questions: %w", err)
		}
		res.Questions = append(res.Questions, qs.Data...)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("keyword search",
		"query", q,
		"documents", len(res.Documents),
		"facts", len(res.Facts),
		"questions", len(res.Questions),
	)
	return res, nil
}
