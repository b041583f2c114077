// Package documents implements the document domain for Callbook.
// Documents are raw call transcriptions or manual knowledge files registered
// for processing; their text lives in blob storage and their processing
// status lives in the database.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies how a document's text is interpreted.
type Type string

const (
	TypeTranscription     Type = "transcription"
	TypeManualFAQ         Type = "manual_faq"
	TypeManualInstruction Type = "manual_instruction"
	TypeManualKnowledge   Type = "manual_knowledge"
)

// Valid reports whether t is a known document type.
func (t Type) Valid() bool {
	switch t {
	case TypeTranscription, TypeManualFAQ, TypeManualInstruction, TypeManualKnowledge:
		return true
	}
	return false
}

// Manual reports whether t is one of the manual knowledge types, which are
// mined for question/answer pairs rather than classified as a call.
func (t Type) Manual() bool {
	return t.Valid() && t != TypeTranscription
}

// Processing statuses. Status doubles as the processing lock: only pending
// and error documents can be claimed without force.
const (
	StatusPending               = "pending"
	StatusProcessing            = "processing"
	StatusProcessed             = "processed"
	StatusProcessedNoExtraction = "processed_no_extraction"
	StatusError                 = "error"
)

// Document represents a registered document and its processing state.
type Document struct {
	ID           uuid.UUID  `json:"id"`
	Filename     string     `json:"filename"`
	DocType      Type       `json:"doc_type"`
	ContentType  string     `json:"content_type"`
	SizeBytes    int64      `json:"size_bytes"`
	StorageKey   string     `json:"storage_key"`
	Status       string     `json:"status"`
	ErrorMessage *string    `json:"error_message"`
	ProcessedAt  *time.Time `json:"processed_at"`
	UploadedAt   time.Time  `json:"uploaded_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CreateCommand carries the data needed to store and register a new document.
// Text is stored as UTF-8; an empty DocType registers a transcription.
type CreateCommand struct {
	Text        string
	Filename    string
	DocType     Type
	ContentType string
}
