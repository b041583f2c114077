// Package events publishes domain events as JSON messages over NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/JaimeStill/callbook/pkg/lifecycle"
)

// Event subjects, relative to the configured prefix.
const (
	DocumentProcessed = "document.processed"
	QuestionCreated   = "question.created"
	QuestionMerged    = "question.merged"
)

// Publisher emits events. Publish failures are reported but never block the
// caller's work.
type Publisher interface {
	Publish(subject string, data any) error
	// Start connects on startup and drains on shutdown.
	Start(lc *lifecycle.Coordinator) error
}

type natsPublisher struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	conn *nats.Conn
}

// New returns a NATS publisher, or Noop when cfg has no URL.
func New(cfg *Config, logger *slog.Logger) Publisher {
	logger = logger.With("system", "events")

	if !cfg.Enabled() {
		logger.Info("event publishing disabled")
		return Noop{}
	}

	return &natsPublisher{
		cfg:    *cfg,
		logger: logger,
	}
}

func (p *natsPublisher) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting event publisher", "url", p.cfg.URL)

	lc.OnStartup("events", func(context.Context) error {
		opts := []nats.Option{
			nats.Name("callbook"),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(p.cfg.MaxReconnects),
			nats.ReconnectWait(p.cfg.ReconnectWaitDuration()),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					p.logger.Warn("nats disconnected", "error", err)
				}
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				p.logger.Info("nats reconnected")
			}),
		}
		if p.cfg.Token != "" {
			opts = append(opts, nats.Token(p.cfg.Token))
		}

		nc, err := nats.Connect(p.cfg.URL, opts...)
		if err != nil {
			p.logger.Error("nats connect failed", "error", err)
			return err
		}

		p.mu.Lock()
		p.conn = nc
		p.mu.Unlock()

		p.logger.Info("nats connection established")
		return nil
	})

	lc.OnShutdown("events", func() error {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.conn == nil {
			return nil
		}
		err := p.conn.Drain()
		p.conn = nil
		if err != nil {
			return fmt.Errorf("nats drain: %w", err)
		}
		p.logger.Info("nats connection closed")
		return nil
	})

	return nil
}

func (p *natsPublisher) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.conn == nil {
		return fmt.Errorf("publish %s: not connected", subject)
	}

	full := Subject(p.cfg.SubjectPrefix, subject)
	if err := p.conn.Publish(full, payload); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}

// Subject joins a prefix and a relative subject with a dot.
func Subject(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(string, any) error          { return nil }
func (Noop) Start(*lifecycle.Coordinator) error { return nil }
