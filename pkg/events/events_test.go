package events_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/JaimeStill/callbook/pkg/events"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix, subject, want string
	}{
		{"callbook", events.DocumentProcessed, "callbook.document.processed"},
		{"", events.QuestionMerged, "question.merged"},
		{"prod.callbook", events.QuestionCreated, "prod.callbook.question.created"},
	}

	for _, tt := range tests {
		if got := events.Subject(tt.prefix, tt.subject); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.prefix, tt.subject, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_EVENTS_URL", "nats://localhost:4222")

	cfg := &events.Config{}
	if err := cfg.Finalize(&events.Env{URL: "TEST_EVENTS_URL"}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if !cfg.Enabled() {
		t.Error("expected enabled")
	}
	if cfg.SubjectPrefix != "callbook" {
		t.Errorf("prefix = %q, want callbook", cfg.SubjectPrefix)
	}
	if cfg.MaxReconnects != 60 {
		t.Errorf("max_reconnects = %d, want 60", cfg.MaxReconnects)
	}

	bad := &events.Config{ReconnectWait: "soon"}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected error for invalid reconnect_wait")
	}
}

func TestNewDisabled(t *testing.T) {
	p := events.New(&events.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, ok := p.(events.Noop); !ok {
		t.Fatalf("publisher = %T, want events.Noop", p)
	}
	if err := p.Publish(events.DocumentProcessed, map[string]string{"id": "x"}); err != nil {
		t.Errorf("Publish: %v", err)
	}
}
