package questions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/pagination"
)

// System defines the public contract for question storage.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Question], error)

	Find(ctx context.Context, id uuid.UUID) (*Question, error)
	Variants(ctx context.Context, id uuid.UUID) ([]Variant, error)

	// Serialize runs fn in a transaction holding the corpus lock. Writers
	// that scan the corpus before deciding to create a question hold it
	// until their enclosing transaction commits.
	Serialize(ctx context.Context, fn func(ctx context.Context) error) error

	Create(ctx context.Context, cmd CreateCommand) (*Question, error)
	AttachVariant(ctx context.Context, cmd VariantCommand) (*Variant, error)

	// Embedded returns every question with a stored vector ordered by
	// (created_at, id). A non-nil clusterID restricts the scan to one cluster.
	Embedded(ctx context.Context, clusterID *uuid.UUID) ([]Embedded, error)
	MissingEmbeddings(ctx context.Context, limit int) ([]Question, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, vector []float32) error
}
