package scripts

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Policy holds the tunable constants used to score, rank and deduplicate scripts.
type Policy struct {
	NeutralPrior         float64 `json:"neutral_prior" toml:"neutral_prior"`
	StepsBonus           float64 `json:"steps_bonus" toml:"steps_bonus"`
	InstructionBonus     float64 `json:"instruction_bonus" toml:"instruction_bonus"`
	Cap                  float64 `json:"cap" toml:"cap"`
	ResolvedThreshold    float64 `json:"resolved_threshold" toml:"resolved_threshold"`
	MinLength            int     `json:"min_length" toml:"min_length"`
	ContainmentMinLength int     `json:"containment_min_length" toml:"containment_min_length"`
	WordOverlap          float64 `json:"word_overlap" toml:"word_overlap"`
}

// DefaultPolicy returns the policy used when configuration leaves values unset.
func DefaultPolicy() Policy {
	return Policy{
		NeutralPrior:         50,
		StepsBonus:           10,
		InstructionBonus:     5,
		Cap:                  100,
		ResolvedThreshold:    70,
		MinLength:            20,
		ContainmentMinLength: 50,
		WordOverlap:          0.9,
	}
}

// Effectiveness scores a script from its counters. The base is the success rate
// as a percentage, or NeutralPrior with no observations; bonuses for steps and
// instruction type are added and the result is capped.
func (p Policy) Effectiveness(success, fail int, hasSteps bool, typ Type) float64 {
	score := p.NeutralPrior
	if total := success + fail; total > 0 {
		score = float64(success) / float64(total) * 100
	}

	if hasSteps {
		score += p.StepsBonus
	}
	if typ == TypeInstruction {
		score += p.InstructionBonus
	}

	return math.Min(score, p.Cap)
}

// Lifecycle derives the question status from its best script's effectiveness.
func (p Policy) Lifecycle(best *Script) Lifecycle {
	switch {
	case best == nil:
		return LifecycleNoScript
	case best.Effectiveness >= p.ResolvedThreshold:
		return LifecycleResolved
	default:
		return LifecycleNeedsWork
	}
}

// Acceptable reports whether a candidate is long enough to be tracked.
func (p Policy) Acceptable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= p.MinLength
}
