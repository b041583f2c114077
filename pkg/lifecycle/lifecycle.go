// Package lifecycle coordinates subsystem startup, readiness and shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Probe reports whether a dependency can currently serve requests.
type Probe func(ctx context.Context) error

type hook struct {
	name string
	fn   func() error
}

// Coordinator runs named startup hooks concurrently, tracks readiness
// probes, and runs shutdown hooks once its context is cancelled.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc

	startup sync.WaitGroup

	mu       sync.Mutex
	ready    bool
	failures []error
	shutdown []hook
	probes   map[string]Probe
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		probes: make(map[string]Probe),
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup starts fn immediately in its own goroutine. A returned error is
// recorded under name and reported by WaitForStartup.
func (c *Coordinator) OnStartup(name string, fn func(ctx context.Context) error) {
	c.startup.Go(func() {
		if err := fn(c.ctx); err != nil {
			c.mu.Lock()
			c.failures = append(c.failures, fmt.Errorf("%s: %w", name, err))
			c.mu.Unlock()
		}
	})
}

// OnShutdown registers fn to run after the coordinator context is cancelled.
func (c *Coordinator) OnShutdown(name string, fn func() error) {
	c.mu.Lock()
	c.shutdown = append(c.shutdown, hook{name: name, fn: fn})
	c.mu.Unlock()
}

// AddProbe registers a readiness probe consulted by Check.
func (c *Coordinator) AddProbe(name string, p Probe) {
	c.mu.Lock()
	c.probes[name] = p
	c.mu.Unlock()
}

// Ready reports whether WaitForStartup has returned.
func (c *Coordinator) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// WaitForStartup blocks until every startup hook has returned and marks the
// coordinator ready. Hook failures do not block readiness; they are joined
// into the returned error so the caller can decide whether to continue.
func (c *Coordinator) WaitForStartup() error {
	c.startup.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = true
	return errors.Join(c.failures...)
}

// Check runs every registered probe and returns the failures keyed by probe
// name. An empty map means all probes passed.
func (c *Coordinator) Check(ctx context.Context) map[string]error {
	c.mu.Lock()
	probes := make(map[string]Probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.Unlock()

	failed := make(map[string]error)
	for name, p := range probes {
		if err := p(ctx); err != nil {
			failed[name] = err
		}
	}
	return failed
}

// Shutdown cancels the coordinator context and runs the shutdown hooks
// concurrently. Hooks still running after timeout are named in the error.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	c.mu.Lock()
	hooks := slices.Clone(c.shutdown)
	c.mu.Unlock()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		errs    []error
		pending = make(map[string]bool, len(hooks))
	)
	for _, h := range hooks {
		pending[h.name] = true
	}

	for _, h := range hooks {
		wg.Go(func() {
			err := h.fn()

			mu.Lock()
			defer mu.Unlock()
			delete(pending, h.name)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return errors.Join(errs...)
	case <-time.After(timeout):
		mu.Lock()
		defer mu.Unlock()
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		slices.Sort(names)
		return errors.Join(append(errs, fmt.Errorf("shutdown timeout after %v, waiting on %v", timeout, names))...)
	}
}
