package scripts

import (
	"github.com/JaimeStill/callbook/pkg/query"
	"github.com/JaimeStill/callbook/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "scripts", "s").
	Project("id", "ID").
	Project("question_id", "QuestionID").
	Project("text", "Text").
	Project("type", "Type").
	Project("has_steps", "HasSteps").
	Project("success_count", "SuccessCount").
	Project("fail_count", "FailCount").
	Project("effectiveness", "Effectiveness").
	Project("is_best", "IsBest").
	Project("source_document_id", "SourceDocumentID").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var scanOrder = []query.SortField{
	{Field: "CreatedAt"},
	{Field: "ID"},
}

func scanScript(s repository.Scanner) (Script, error) {
	var sc Script
	err := s.Scan(
		&sc.ID,
		&sc.QuestionID,
		&sc.Text,
		&sc.Type,
		&sc.HasSteps,
		&sc.SuccessCount,
		&sc.FailCount,
		&sc.Effectiveness,
		&sc.IsBest,
		&sc.SourceDocumentID,
		&sc.CreatedAt,
		&sc.UpdatedAt,
	)
	return sc, err
}

func listQuery(questionID any) (string, []any) {
	return query.
		NewBuilder(projection, scanOrder...).
		WhereEquals("QuestionID", questionID).
		Build()
}
