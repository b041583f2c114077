package moderation

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/questions"
)

// Condition is the test a filter rule applies to question text.
type Condition string

const (
	ConditionContains    Condition = "contains"
	ConditionNotContains Condition = "not_contains"
	ConditionWordCountLT Condition = "word_count_lt"
	ConditionWordCountGT Condition = "word_count_gt"
	ConditionStartsWith  Condition = "starts_with"
	ConditionRegex       Condition = "regex"
)

// RuleAction is the initial moderation outcome a matching rule assigns.
type RuleAction string

const (
	RuleAutoApprove RuleAction = "auto_approve"
	RuleAutoReject  RuleAction = "auto_reject"
	RulePending     RuleAction = "pending"
)

// Status converts the action to the moderation status it assigns.
func (a RuleAction) Status() questions.ModerationStatus {
	switch a {
	case RuleAutoApprove:
		return questions.StatusApproved
	case RuleAutoReject:
		return questions.StatusRejected
	default:
		return questions.StatusPending
	}
}

// FilterRule gates newly created questions. Enabled rules are evaluated in
// ascending (Position, CreatedAt) order and the first match decides.
type FilterRule struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Condition Condition  `json:"condition"`
	Value     string     `json:"value"`
	Action    RuleAction `json:"action"`
	Position  int        `json:"position"`
	Enabled   bool       `json:"enabled"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Matches reports whether the rule's condition holds for text. Text matching
// is case-insensitive except for regex, which uses the pattern as written.
// A malformed numeric value or pattern never matches.
func (r FilterRule) Matches(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	value := strings.ToLower(r.Value)

	switch r.Condition {
	case ConditionContains:
		return strings.Contains(lower, value)
	case ConditionNotContains:
		return !strings.Contains(lower, value)
	case ConditionStartsWith:
		return strings.HasPrefix(lower, strings.TrimSpace(value))
	case ConditionWordCountLT:
		n, err := strconv.Atoi(strings.TrimSpace(r.Value))
		return err == nil && len(strings.Fields(text)) < n
	case ConditionWordCountGT:
		n, err := strconv.Atoi(strings.TrimSpace(r.Value))
		return err == nil && len(strings.Fields(text)) > n
	case ConditionRegex:
		re, err := regexp.Compile(r.Value)
		return err == nil && re.MatchString(text)
	default:
		return false
	}
}

// Verdict is the outcome of evaluating filter rules against a text.
type Verdict struct {
	Status questions.ModerationStatus `json:"status"`
	RuleID *uuid.UUID                 `json:"rule_id"`
	Reason string                     `json:"reason"`
}

// Evaluate applies rules in order and returns the first match's outcome, or
// pending when no enabled rule matches.
func Evaluate(rules []FilterRule, text string) Verdict {
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b FilterRule) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	for _, r := range ordered {
		if !r.Enabled || !r.Matches(text) {
			continue
		}
		id := r.ID
		return Verdict{
			Status: r.Action.Status(),
			RuleID: &id,
			Reason: fmt.Sprintf("filter rule %q: %s %q", r.Name, r.Condition, r.Value),
		}
	}

	return Verdict{Status: questions.StatusPending}
}

// RuleCommand creates or replaces a filter rule.
type RuleCommand struct {
	Name      string     `json:"name"`
	Condition Condition  `json:"condition"`
	Value     string     `json:"value"`
	Action    RuleAction `json:"action"`
	Position  int        `json:"position"`
	Enabled   *bool      `json:"enabled"`
}

// Validate checks that the rule can be evaluated.
func (c RuleCommand) Validate() error {
	switch c.Condition {
	case ConditionContains, ConditionNotContains, ConditionStartsWith:
		if strings.TrimSpace(c.Value) == "" {
			return fmt.Errorf("%w: %s requires a value", ErrInvalidRule, c.Condition)
		}
	case ConditionWordCountLT, ConditionWordCountGT:
		if _, err := strconv.Atoi(strings.TrimSpace(c.Value)); err != nil {
			return fmt.Errorf("%w: %s requires an integer value", ErrInvalidRule, c.Condition)
		}
	case ConditionRegex:
		if _, err := regexp.Compile(c.Value); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
	default:
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidRule, c.Condition)
	}

	switch c.Action {
	case RuleAutoApprove, RuleAutoReject, RulePending:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRule, c.Action)
	}

	return nil
}
