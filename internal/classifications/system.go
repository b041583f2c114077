package classifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/pagination"
)

// System stores and serves call analyses.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Classification], error)

	Find(ctx context.Context, id uuid.UUID) (*Classification, error)
	FindByDocument(ctx context.Context, documentID uuid.UUID) (*Classification, error)

	// Record upserts the analysis of cmd.DocumentID.
	Record(ctx context.Context, cmd RecordCommand) (*Classification, error)
	Validate(ctx context.Context, id uuid.UUID, cmd ValidateCommand) (*Classification, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Breakdown counts the calls classified in the last days days, grouped
	// by cluster and resolution.
	Breakdown(ctx context.Context, days int) ([]Bucket, error)
}
