package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/pagination"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Text returns the stored text of a document.
	Text(ctx context.Context, id uuid.UUID) (string, error)
	ExistsByFilename(ctx context.Context, filename string) (bool, error)
	ListPending(ctx context.Context, limit int) ([]Document, error)

	// Claim moves a document to processing. Pending and error documents are
	// always claimable; any other status is claimable only when force is set.
	// When the document is not claimable, claimed is false and the returned
	// document reflects its current state.
	Claim(ctx context.Context, id uuid.UUID, force bool) (doc *Document, claimed bool, err error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkNoExtraction(ctx context.Context, id uuid.UUID) error
	MarkError(ctx context.Context, id uuid.UUID, message string) error
}
