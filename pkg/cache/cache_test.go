package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/callbook/pkg/cache"
)

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_CACHE_ADDR", "redis:6379")
	t.Setenv("TEST_CACHE_DB", "2")

	cfg := &cache.Config{}
	err := cfg.Finalize(&cache.Env{Addr: "TEST_CACHE_ADDR", DB: "TEST_CACHE_DB"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if cfg.Addr != "redis:6379" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.DB != 2 {
		t.Errorf("db = %d, want 2", cfg.DB)
	}
	if cfg.TTLDuration() != 720*time.Hour {
		t.Errorf("ttl = %v, want 720h", cfg.TTLDuration())
	}
	if cfg.Prefix != "callbook:" {
		t.Errorf("prefix = %q", cfg.Prefix)
	}
	if !cfg.Enabled() {
		t.Error("expected enabled")
	}
}

func TestConfigInvalidTTL(t *testing.T) {
	cfg := &cache.Config{TTL: "forever"}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("expected error for invalid ttl")
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := &cache.Config{Addr: "a:1", TTL: "1h"}
	cfg.Merge(&cache.Config{Addr: "b:2"})

	if cfg.Addr != "b:2" || cfg.TTL != "1h" {
		t.Errorf("merged = %+v", cfg)
	}
}

func TestNewDisabled(t *testing.T) {
	c := cache.New(&cache.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if c.Enabled() {
		t.Fatal("expected disabled cache")
	}

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_, ok, err := c.Get(ctx, "k")
	if err != nil || ok {
		t.Errorf("Get = ok %v err %v, want miss", ok, err)
	}
}
