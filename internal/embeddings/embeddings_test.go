package embeddings_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/callbook/internal/embeddings"
	"github.com/JaimeStill/callbook/pkg/lifecycle"
	"github.com/JaimeStill/callbook/pkg/retry"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// vectorFor derives a deterministic two-dimensional vector from text length.
func vectorFor(text string) []float32 {
	return []float32{float32(len(text)), 1}
}

func newServer(t *testing.T, calls *atomic.Int32, fail func(n int32) int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)

		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}

		if fail != nil {
			if code := fail(n); code != 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				io.WriteString(w, `{"error":{"message":"failure","type":"server_error"}}`)
				return
			}
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, len(req.Input))
		// reverse order exercises index-based placement
		for i := len(req.Input) - 1; i >= 0; i-- {
			data[len(req.Input)-1-i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": vectorFor(req.Input[i]),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
}

func newEmbedder(url string, attempts int) *embeddings.OpenAI {
	return embeddings.NewOpenAI(embeddings.Options{
		APIKey:    "test",
		BaseURL:   url + "/v1",
		Model:     "test-embedding",
		Timeout:   5 * time.Second,
		BatchSize: 2,
		Retry: retry.Config{
			MaxAttempts:  attempts,
			InitialDelay: time.Millisecond,
			MaxDelay:     2 * time.Millisecond,
		},
	}, discard())
}

func TestEmbed(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	defer srv.Close()

	e := newEmbedder(srv.URL, 1)

	v, err := e.Embed(context.Background(), "card blocked")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v) != 2 || v[0] != 12 {
		t.Errorf("vector = %v, want [12 1]", v)
	}

	if _, err := e.Embed(context.Background(), "   "); !errors.Is(err, embeddings.ErrEmptyText) {
		t.Errorf("blank err = %v, want ErrEmptyText", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestEmbedBatchPreservesPositions(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	defer srv.Close()

	e := newEmbedder(srv.URL, 1)

	texts := []string{"a", "", "abc", "  ", "abcde", "ab"}
	got, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}

	if len(got) != len(texts) {
		t.Fatalf("len = %d, want %d", len(got), len(texts))
	}
	for i, text := range texts {
		if text == "" || text == "  " {
			if got[i] != nil {
				t.Errorf("position %d: want nil for blank input", i)
			}
			continue
		}
		if got[i] == nil || got[i][0] != float32(len(text)) {
			t.Errorf("position %d: got %v, want %v", i, got[i], vectorFor(text))
		}
	}

	// four non-blank inputs with batch size 2
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestEmbedRetry(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := newServer(t, &calls, func(n int32) int {
			if n == 1 {
				return http.StatusInternalServerError
			}
			return 0
		})
		defer srv.Close()

		if _, err := newEmbedder(srv.URL, 3).Embed(context.Background(), "hello"); err != nil {
			t.Fatalf("Embed: %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("calls = %d, want 2", calls.Load())
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := newServer(t, &calls, func(int32) int { return http.StatusUnauthorized })
		defer srv.Close()

		if _, err := newEmbedder(srv.URL, 3).Embed(context.Background(), "hello"); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Start(*lifecycle.Coordinator) error { return nil }
func (m *memCache) Enabled() bool                      { return true }

func TestWithCache(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, &calls, nil)
	defer srv.Close()

	store := &memCache{data: make(map[string][]byte)}
	e := embeddings.WithCache(newEmbedder(srv.URL, 1), store, discard())
	ctx := context.Background()

	first, err := e.Embed(ctx, "refund")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := e.Embed(ctx, "refund")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (second lookup cached)", calls.Load())
	}
	if first[0] != second[0] {
		t.Errorf("cached vector = %v, want %v", second, first)
	}

	if _, ok := store.data[embeddings.Key("test-embedding", "refund")]; !ok {
		t.Error("expected cache entry under model-scoped key")
	}

	got, err := e.EmbedBatch(ctx, []string{"refund", "limit"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if got[0][0] != 6 || got[1][0] != 5 {
		t.Errorf("batch = %v", got)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (only the miss sent)", calls.Load())
	}
}

func TestKey(t *testing.T) {
	a := embeddings.Key("m1", "text")
	if a != embeddings.Key("m1", "text") {
		t.Error("key should be deterministic")
	}
	if a == embeddings.Key("m2", "text") {
		t.Error("key should depend on model")
	}
}
