package moderation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var ruleProjection = query.
	NewProjectionMap("public", "filter_rules", "f").
	Project("id", "ID").
	Project("name", "Name").
	Project("condition", "Condition").
	Project("value", "Value").
	Project("action", "Action").
	Project("position", "Position").
	Project("enabled", "Enabled").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var ruleOrder = []query.SortField{
	{Field: "Position"},
	{Field: "CreatedAt"},
}

const ruleColumns = "id, name, condition, value, action, position, enabled, created_at, updated_at"

func (r *repo) Rules(ctx context.Context) ([]FilterRule, error) {
	q, args := query.NewBuilder(ruleProjection, ruleOrder...).Build()

	rules, err := repository.QueryMany(ctx, repository.Using(ctx, r.db), q, args, scanRule)
	if err != nil {
		return nil, fmt.Errorf("query filter rules: %w", err)
	}
	return rules, nil
}

func (r *repo) CreateRule(ctx context.Context, cmd RuleCommand) (*FilterRule, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rule, err := repository.QueryOne(
		ctx, repository.Using(ctx, r.db),
		`INSERT INTO filter_rules(id, name, condition, value, action, position, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+ruleColumns,
		[]any{uuid.New(), cmd.Name, string(cmd.Condition), cmd.Value, string(cmd.Action), cmd.Position, enabled(cmd)},
		scanRule,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrRuleNotFound, ErrDuplicateRule)
	}

	r.logger.Info("filter rule created", "id", rule.ID, "condition", rule.Condition, "action", rule.Action)
	return &rule, nil
}

func (r *repo) UpdateRule(ctx context.Context, id uuid.UUID, cmd RuleCommand) (*FilterRule, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rule, err := repository.QueryOne(
		ctx, repository.Using(ctx, r.db),
		`UPDATE filter_rules
		SET name = $2, condition = $3, value = $4, action = $5, position = $6, enabled = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+ruleColumns,
		[]any{id, cmd.Name, string(cmd.Condition), cmd.Value, string(cmd.Action), cmd.Position, enabled(cmd)},
		scanRule,
	)
	if err != nil {
		return nil, repository.MapError(err, ErrRuleNotFound, ErrDuplicateRule)
	}

	r.logger.Info("filter rule updated", "id", id)
	return &rule, nil
}

func (r *repo) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, repository.Using(ctx, r.db), "DELETE FROM filter_rules WHERE id = $1", id); err != nil {
		return repository.MapError(err, ErrRuleNotFound, ErrDuplicateRule)
	}

	r.logger.Info("filter rule deleted", "id", id)
	return nil
}

func enabled(cmd RuleCommand) bool {
	return cmd.Enabled == nil || *cmd.Enabled
}

func scanRule(s repository.Scanner) (FilterRule, error) {
	var f FilterRule
	err := s.Scan(
		&f.ID,
		&f.Name,
		&f.Condition,
		&f.Value,
		&f.Action,
		&f.Position,
		&f.Enabled,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}
