package documents_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/JaimeStill/callbook/internal/documents"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"utf8", []byte("Здравствуйте"), "Здравствуйте"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("карта")...), "карта"},
		{"cp1251", []byte{0xEA, 0xE0, 0xF0, 0xF2, 0xE0}, "карта"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := documents.DecodeText(tt.data)
			if err != nil {
				t.Fatalf("DecodeText: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlank(t *testing.T) {
	if !documents.Blank(" \n\t ") {
		t.Error("whitespace should be blank")
	}
	if documents.Blank(" a ") {
		t.Error("text should not be blank")
	}
}

func TestType(t *testing.T) {
	tests := []struct {
		typ    documents.Type
		valid  bool
		manual bool
	}{
		{documents.TypeTranscription, true, false},
		{documents.TypeManualFAQ, true, true},
		{documents.TypeManualInstruction, true, true},
		{documents.TypeManualKnowledge, true, true},
		{"pdf", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
			if got := tt.typ.Manual(); got != tt.manual {
				t.Errorf("Manual() = %v, want %v", got, tt.manual)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	f := documents.FiltersFromQuery(url.Values{"status": {"pending"}})
	if f.Status == nil || *f.Status != "pending" {
		t.Errorf("status = %v, want pending", f.Status)
	}
	if f.DocType != nil || f.Filename != nil {
		t.Errorf("unset filters should be nil: %+v", f)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{documents.ErrNotFound, http.StatusNotFound},
		{documents.ErrDuplicate, http.StatusConflict},
		{documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{documents.ErrInvalidFile, http.StatusBadRequest},
		{documents.ErrEmptyText, http.StatusBadRequest},
		{documents.ErrInvalidType, http.StatusBadRequest},
		{http.ErrHandlerTimeout, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := documents.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
