// Package facts stores the individual pieces of knowledge pulled out of
// processed documents: contacts, problems, agreements and the like from call
// transcripts, and instructions from operator manuals.
package facts

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Category groups facts by kind.
type Category string

const (
	CategoryContact     Category = "contact"
	CategoryProblem     Category = "problem"
	CategorySolution    Category = "solution"
	CategoryAgreement   Category = "agreement"
	CategoryProduct     Category = "product"
	CategorySummary     Category = "summary"
	CategorySentiment   Category = "sentiment"
	CategoryInstruction Category = "instruction"
	CategoryQuestion    Category = "question"
	CategoryAnswer      Category = "answer"
)

var categories = []Category{
	CategoryContact,
	CategoryProblem,
	CategorySolution,
	CategoryAgreement,
	CategoryProduct,
	CategorySummary,
	CategorySentiment,
	CategoryInstruction,
	CategoryQuestion,
	CategoryAnswer,
}

// Categories returns every valid category.
func Categories() []Category {
	return categories
}

// ParseCategory validates s as a known category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !slices.Contains(categories, c) {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Fact is one stored piece of document knowledge. Key qualifies the value
// within its category, for example the contact type or the instruction topic.
type Fact struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Category   Category  `json:"category"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateCommand is one fact to store for a document.
type CreateCommand struct {
	Category Category
	Key      string
	Value    string
}

// CategoryCount is the number of stored facts in one category.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// maxKeyLength caps keys derived from free text such as a question.
const maxKeyLength = 100

// TruncateKey shortens s to the stored key length without splitting a rune.
func TruncateKey(s string) string {
	r := []rune(s)
	if len(r) <= maxKeyLength {
		return s
	}
	return string(r[:maxKeyLength])
}
