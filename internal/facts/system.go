package facts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/pagination"
)

// System stores the facts extracted from documents.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Fact], error)

	Find(ctx context.Context, id uuid.UUID) (*Fact, error)
	ByDocument(ctx context.Context, documentID uuid.UUID) ([]Fact, error)
	Counts(ctx context.Context) ([]CategoryCount, error)

	// Replace swaps the stored facts of a document for cmds and returns how
	// many were stored. Reprocessing a document therefore never duplicates
	// its facts.
	Replace(ctx context.Context, documentID uuid.UUID, cmds []CreateCommand) (int, error)
}
