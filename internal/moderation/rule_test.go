package moderation_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/internal/moderation"
	"github.com/JaimeStill/callbook/internal/questions"
)

func rule(pos int, cond moderation.Condition, value string, action moderation.RuleAction) moderation.FilterRule {
	return moderation.FilterRule{
		ID:        uuid.New(),
		Name:      string(cond),
		Condition: cond,
		Value:     value,
		Action:    action,
		Position:  pos,
		Enabled:   true,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func words(n int, extra ...string) string {
	w := make([]string, 0, n)
	for i := 0; len(w) < n-len(extra); i++ {
		w = append(w, "word")
	}
	return strings.Join(append(w, extra...), " ")
}

func TestEvaluatePrecedence(t *testing.T) {
	spam := rule(1, moderation.ConditionContains, "spam", moderation.RuleAutoReject)
	short := rule(2, moderation.ConditionWordCountLT, "5", moderation.RuleAutoReject)
	rules := []moderation.FilterRule{short, spam}

	tests := []struct {
		name     string
		text     string
		want     questions.ModerationStatus
		wantRule *uuid.UUID
	}{
		{"short text rejected by second rule", "is this real", questions.StatusRejected, &short.ID},
		{"long spam rejected by first rule", words(20, "spam"), questions.StatusRejected, &spam.ID},
		{"long clean text pending", words(20), questions.StatusPending, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := moderation.Evaluate(rules, tt.text)

			if v.Status != tt.want {
				t.Errorf("Status = %s, want %s", v.Status, tt.want)
			}
			switch {
			case tt.wantRule == nil && v.RuleID != nil:
				t.Errorf("RuleID = %s, want nil", v.RuleID)
			case tt.wantRule != nil && (v.RuleID == nil || *v.RuleID != *tt.wantRule):
				t.Errorf("RuleID = %v, want %s", v.RuleID, tt.wantRule)
			}
		})
	}
}

func TestEvaluateOrdering(t *testing.T) {
	approve := rule(1, moderation.ConditionStartsWith, "how", moderation.RuleAutoApprove)
	reject := rule(1, moderation.ConditionContains, "how", moderation.RuleAutoReject)
	reject.CreatedAt = approve.CreatedAt.Add(time.Minute)

	t.Run("created_at breaks position ties", func(t *testing.T) {
		v := moderation.Evaluate([]moderation.FilterRule{reject, approve}, "How do I pay?")
		if v.Status != questions.StatusApproved {
			t.Errorf("Status = %s, want %s", v.Status, questions.StatusApproved)
		}
	})

	t.Run("disabled rules are skipped", func(t *testing.T) {
		disabled := approve
		disabled.Enabled = false
		v := moderation.Evaluate([]moderation.FilterRule{reject, disabled}, "How do I pay?")
		if v.Status != questions.StatusRejected {
			t.Errorf("Status = %s, want %s", v.Status, questions.StatusRejected)
		}
	})

	t.Run("explicit pending action stops evaluation", func(t *testing.T) {
		hold := rule(0, moderation.ConditionContains, "pay", moderation.RulePending)
		v := moderation.Evaluate([]moderation.FilterRule{approve, hold}, "How do I pay?")
		if v.Status != questions.StatusPending || v.RuleID == nil {
			t.Errorf("verdict = %+v, want pending from hold rule", v)
		}
	})

	t.Run("no rules", func(t *testing.T) {
		if v := moderation.Evaluate(nil, "anything"); v.Status != questions.StatusPending {
			t.Errorf("Status = %s, want pending", v.Status)
		}
	})
}

func TestFilterRuleMatches(t *testing.T) {
	tests := []struct {
		name  string
		cond  moderation.Condition
		value string
		text  string
		want  bool
	}{
		{"contains case-insensitive", moderation.ConditionContains, "SPAM", "buy spam now", true},
		{"contains miss", moderation.ConditionContains, "spam", "hello", false},
		{"not contains", moderation.ConditionNotContains, "?", "no question mark", true},
		{"not contains miss", moderation.ConditionNotContains, "?", "why?", false},
		{"word count lt", moderation.ConditionWordCountLT, "3", "two words", true},
		{"word count lt boundary", moderation.ConditionWordCountLT, "2", "two words", false},
		{"word count gt", moderation.ConditionWordCountGT, "2", "three words here", true},
		{"word count invalid value", moderation.ConditionWordCountGT, "many", "a b c d", false},
		{"starts with", moderation.ConditionStartsWith, "how", "  How do I pay", true},
		{"starts with miss", moderation.ConditionStartsWith, "how", "Why", false},
		{"regex", moderation.ConditionRegex, `^\d{4}$`, "1234", true},
		{"regex miss", moderation.ConditionRegex, `^\d{4}$`, "12345", false},
		{"invalid regex never matches", moderation.ConditionRegex, `(`, "(", false},
		{"unknown condition", moderation.Condition("length"), "1", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := moderation.FilterRule{Condition: tt.cond, Value: tt.value}
			if got := r.Matches(tt.text); got != tt.want {
				t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRuleCommandValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     moderation.RuleCommand
		wantErr bool
	}{
		{"valid contains", moderation.RuleCommand{Condition: moderation.ConditionContains, Value: "spam", Action: moderation.RuleAutoReject}, false},
		{"valid word count", moderation.RuleCommand{Condition: moderation.ConditionWordCountLT, Value: "5", Action: moderation.RuleAutoReject}, false},
		{"empty contains value", moderation.RuleCommand{Condition: moderation.ConditionContains, Value: " ", Action: moderation.RuleAutoReject}, true},
		{"non-numeric word count", moderation.RuleCommand{Condition: moderation.ConditionWordCountGT, Value: "x", Action: moderation.RulePending}, true},
		{"bad regex", moderation.RuleCommand{Condition: moderation.ConditionRegex, Value: "(", Action: moderation.RulePending}, true},
		{"unknown condition", moderation.RuleCommand{Condition: "length", Value: "1", Action: moderation.RulePending}, true},
		{"unknown action", moderation.RuleCommand{Condition: moderation.ConditionContains, Value: "x", Action: "delete"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, moderation.ErrInvalidRule) {
				t.Errorf("error %v does not wrap ErrInvalidRule", err)
			}
		})
	}
}

func TestRuleActionStatus(t *testing.T) {
	tests := map[moderation.RuleAction]questions.ModerationStatus{
		moderation.RuleAutoApprove: questions.StatusApproved,
		moderation.RuleAutoReject:  questions.StatusRejected,
		moderation.RulePending:     questions.StatusPending,
		"unknown":                  questions.StatusPending,
	}
	for action, want := range tests {
		if got := action.Status(); got != want {
			t.Errorf("%s.Status() = %s, want %s", action, got, want)
		}
	}
}
