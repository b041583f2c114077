package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/callbook/internal/prompts"
)

// ComposePrompt builds a system prompt from the effective instructions and the
// fixed response specification of stage. A non-empty cluster list is appended
// as the set of allowed cluster names.
func ComposePrompt(
	ctx context.Context,
	src prompts.Source,
	stage prompts.Stage,
	clusters []string,
) (string, error) {
	instructions, err := src.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := prompts.Spec(stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	if len(clusters) > 0 {
		sb.WriteString("\n\nAllowed clusters:\n")
		for _, c := range clusters {
			sb.WriteString("- ")
			sb.WriteString(c)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}
