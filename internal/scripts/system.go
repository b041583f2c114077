package scripts

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for script tracking.
type System interface {
	Handler() *Handler
	Policy() Policy

	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]Script, error)
	Find(ctx context.Context, id uuid.UUID) (*Script, error)

	// Observe records a sighting of a script candidate: a near-duplicate of an
	// existing script has its counters incremented, otherwise a new script is
	// created. The question's best script is recomputed in the same transaction.
	Observe(ctx context.Context, cmd ObserveCommand) (*Observation, error)

	RecordOutcome(ctx context.Context, questionID, scriptID uuid.UUID, cmd OutcomeCommand) (*Script, error)
	OverrideBest(ctx context.Context, questionID, scriptID uuid.UUID, cmd OverrideCommand) (*Script, error)
}
