package workflow

import (
	"github.com/google/uuid"
)

// Status is the result of processing one document.
type Status string

const (
	StatusProcessed    Status = "processed"
	StatusNoExtraction Status = "no_extraction"
	StatusSkipped      Status = "skipped"
	StatusFailed       Status = "error"
)

// Outcome reports what ProcessDocument did with a document.
type Outcome struct {
	DocumentID       uuid.UUID   `json:"document_id"`
	Status           Status      `json:"status"`
	QuestionIDs      []uuid.UUID `json:"question_ids,omitempty"`
	QuestionsCreated int         `json:"questions_created"`
	QuestionsMatched int         `json:"questions_matched"`
	ScriptsCreated   int         `json:"scripts_created"`
	ScriptsUpdated   int         `json:"scripts_updated"`
	FactsStored      int         `json:"facts_stored"`
	Error            string      `json:"error,omitempty"`
}

// BatchSummary counts the documents of a ProcessPending run. Skipped
// documents count toward Total only.
type BatchSummary struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Total     int `json:"total"`
}

// SearchHit is one question returned by SearchSemantic.
type SearchHit struct {
	QuestionID        uuid.UUID `json:"question_id"`
	Text              string    `json:"text"`
	Cluster           string    `json:"cluster"`
	Similarity        float64   `json:"similarity"`
	SimilarityPercent float64   `json:"similarity_percent"`
	TimesAsked        int       `json:"times_asked"`
}

// BackfillResult counts the questions visited by BackfillEmbeddings.
type BackfillResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
}

// Event payloads.
type documentEvent struct {
	DocumentID  uuid.UUID   `json:"document_id"`
	Status      Status      `json:"status"`
	QuestionIDs []uuid.UUID `json:"question_ids,omitempty"`
}

type questionEvent struct {
	QuestionID uuid.UUID `json:"question_id"`
	ClusterID  uuid.UUID `json:"cluster_id"`
	Text       string    `json:"text"`
}
