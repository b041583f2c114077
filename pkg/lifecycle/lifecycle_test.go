package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/callbook/pkg/lifecycle"
)

func TestStartup(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Fatal("ready before WaitForStartup")
	}

	var count atomic.Int32
	for range 3 {
		lc.OnStartup("counter", func(context.Context) error {
			count.Add(1)
			return nil
		})
	}

	if err := lc.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup: %v", err)
	}
	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks ran %d times, want 3", got)
	}
	if !lc.Ready() {
		t.Error("not ready after WaitForStartup")
	}
}

func TestStartupFailuresStillReady(t *testing.T) {
	lc := lifecycle.New()
	boom := errors.New("unreachable")

	lc.OnStartup("database", func(context.Context) error { return boom })
	lc.OnStartup("cache", func(context.Context) error { return nil })

	err := lc.WaitForStartup()
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if !strings.Contains(err.Error(), "database: unreachable") {
		t.Errorf("err = %q, want hook name prefix", err)
	}
	if !lc.Ready() {
		t.Error("failed hooks should not block readiness")
	}
}

func TestCheck(t *testing.T) {
	lc := lifecycle.New()
	lc.AddProbe("database", func(context.Context) error { return nil })
	lc.AddProbe("storage", func(context.Context) error { return errors.New("container missing") })

	failed := lc.Check(context.Background())
	if len(failed) != 1 {
		t.Fatalf("failed = %v, want one entry", failed)
	}
	if err, ok := failed["storage"]; !ok || err.Error() != "container missing" {
		t.Errorf("failed[storage] = %v", err)
	}
}

func TestShutdown(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown("store", func() error {
		if lc.Context().Err() == nil {
			t.Error("shutdown hook ran before context cancellation")
		}
		cleaned.Store(true)
		return nil
	})

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !cleaned.Load() {
		t.Error("shutdown hook did not run")
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context not cancelled")
	}
}

func TestShutdownErrors(t *testing.T) {
	lc := lifecycle.New()
	lc.OnShutdown("events", func() error { return errors.New("drain failed") })
	lc.OnShutdown("database", func() error { return nil })

	err := lc.Shutdown(5 * time.Second)
	if err == nil || !strings.Contains(err.Error(), "events: drain failed") {
		t.Errorf("err = %v, want events failure", err)
	}
}

func TestShutdownTimeoutNamesPendingHooks(t *testing.T) {
	lc := lifecycle.New()
	lc.OnShutdown("http", func() error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})
	lc.OnShutdown("cache", func() error { return nil })

	err := lc.Shutdown(50 * time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "[http]") {
		t.Errorf("err = %q, want pending hook named", err)
	}
}
