package moderation

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/questions"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

// System defines the public contract for moderation.
type System interface {
	Handler() *Handler

	// Evaluate applies the enabled filter rules to text.
	Evaluate(ctx context.Context, text string) (Verdict, error)

	Moderate(ctx context.Context, id uuid.UUID, cmd ModerateCommand) (*questions.Question, error)
	Edit(ctx context.Context, id uuid.UUID, cmd EditCommand) (*questions.Question, error)
	Delete(ctx context.Context, id uuid.UUID, cmd DeleteCommand) error
	Bulk(ctx context.Context, cmd BulkCommand) (*BulkResult, error)

	Merge(ctx context.Context, cmd MergeCommand) (*MergeResult, error)
	Merges(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[MergeRecord], error)

	Rules(ctx context.Context) ([]FilterRule, error)
	CreateRule(ctx context.Context, cmd RuleCommand) (*FilterRule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, cmd RuleCommand) (*FilterRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
}
