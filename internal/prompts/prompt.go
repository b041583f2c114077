// Package prompts manages the instructions sent to the classification
// model. Each stage has built-in default instructions that an operator can
// override with a stored prompt; the response specification for a stage is
// fixed because the decoder depends on it.
package prompts

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Prompt is a named instruction override for a stage. At most one prompt per
// stage is active.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// Command carries the fields of a prompt for create and update.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// Validate checks required fields.
func (c Command) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Instructions) == "" {
		return ErrInvalidPrompt
	}
	if _, err := ParseStage(string(c.Stage)); err != nil {
		return err
	}
	return nil
}

// Source supplies the effective instructions for a stage.
type Source interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
}

// Defaults is a Source that always returns the built-in instructions.
type Defaults struct{}

func (Defaults) Instructions(_ context.Context, stage Stage) (string, error) {
	return Instructions(stage)
}

// EffectiveFor resolves what src sends for stage and whether it differs from
// the built-in instructions.
func EffectiveFor(ctx context.Context, src Source, stage Stage) (Effective, error) {
	text, err := src.Instructions(ctx, stage)
	if err != nil {
		return Effective{}, err
	}

	builtin, err := Instructions(stage)
	if err != nil {
		return Effective{}, err
	}

	spec, err := Spec(stage)
	if err != nil {
		return Effective{}, err
	}

	return Effective{
		Stage:        stage,
		Instructions: text,
		Spec:         spec,
		Overridden:   text != builtin,
	}, nil
}
