// Package classifier asks a chat model to classify call transcripts and to
// extract reusable operator scripts, facts and FAQ pairs from documents. Every call yields a
// tagged Result so callers can tell a malformed response from a failed request.
package classifier

import (
	"context"
	"errors"
)

// Kind tags the outcome of a classifier call.
type Kind string

const (
	KindOK           Kind = "ok"
	KindParseError   Kind = "parse_error"
	KindServiceError Kind = "service_error"
)

// Result carries the decoded value of a call or the reason it failed. Raw holds
// the model output when one was received.
type Result[T any] struct {
	Kind  Kind
	Value T
	Err   error
	Raw   string
}

// OK reports whether the call succeeded and Value is valid.
func (r Result[T]) OK() bool {
	return r.Kind == KindOK
}

func success[T any](v T, raw string) Result[T] {
	return Result[T]{Kind: KindOK, Value: v, Raw: raw}
}

func parseFailure[T any](err error, raw string) Result[T] {
	return Result[T]{Kind: KindParseError, Err: errors.Join(ErrMalformedResponse, err), Raw: raw}
}

func serviceFailure[T any](err error) Result[T] {
	return Result[T]{Kind: KindServiceError, Err: errors.Join(ErrServiceUnavailable, err)}
}

var (
	ErrServiceUnavailable = errors.New("classification service failed")
	ErrMalformedResponse  = errors.New("classification response is malformed")
	ErrUnknownProvider    = errors.New("unknown classifier provider")
)

// Call outcome values after normalization.
const (
	ResolutionResolved   = "resolved"
	ResolutionUnresolved = "unresolved"
	ResolutionPartial    = "partial"

	SatisfactionPositive = "positive"
	SatisfactionNeutral  = "neutral"
	SatisfactionNegative = "negative"
	SatisfactionUnstated = ""
)

// Classification describes one call. An empty Question means the call carried
// no question worth tracking.
type Classification struct {
	Cluster      string `json:"cluster"`
	Subcategory  string `json:"subcategory"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	Resolution   string `json:"resolution"`
	Satisfaction string `json:"satisfaction"`
	Summary      string `json:"summary"`
}

// ScriptCandidate is an operator response proposed as a reusable script.
type ScriptCandidate struct {
	Text          string `json:"text"`
	Type          string `json:"type"`
	HasSteps      bool   `json:"has_steps"`
	ResolvedIssue bool   `json:"resolved_issue"`
}

type ScriptExtraction struct {
	Scripts           []ScriptCandidate `json:"scripts"`
	CustomerSatisfied *bool             `json:"customer_satisfied"`
}

type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type FAQExtraction struct {
	Entries []FAQEntry `json:"faq"`
}

// Fact is one structured fact stated in a call. Category is one of contact,
// problem, solution, agreement or product.
type Fact struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

type FactExtraction struct {
	Facts []Fact `json:"facts"`
}

// Instruction is one rule from an operator manual, grouped under a topic.
type Instruction struct {
	Topic       string `json:"topic"`
	Instruction string `json:"instruction"`
}

type InstructionExtraction struct {
	Instructions []Instruction `json:"instructions"`
}

// Classifier is the contract the processing workflow depends on.
type Classifier interface {
	// Classify assigns the call to one of clusters and extracts its question.
	Classify(ctx context.Context, text string, clusters []string) Result[Classification]
	ExtractScripts(ctx context.Context, text string) Result[ScriptExtraction]
	ExtractFAQ(ctx context.Context, text string) Result[FAQExtraction]
	ExtractFacts(ctx context.Context, text string) Result[FactExtraction]
	ExtractInstructions(ctx context.Context, text string) Result[InstructionExtraction]
}
