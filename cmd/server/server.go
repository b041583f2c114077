package main

import (
	"fmt"
	"time"

	"github.com/JaimeStill/callbook/internal/api"
	"github.com/JaimeStill/callbook/internal/config"
	"github.com/JaimeStill/callbook/internal/infrastructure"
	"github.com/JaimeStill/callbook/pkg/module"
)

// Server owns the shared infrastructure, the domain systems and the HTTP
// listener that fronts them.
type Server struct {
	infra  *infrastructure.Infrastructure
	domain *api.Domain
	http   *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	apiModule, domain, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, fmt.Errorf("api module: %w", err)
	}

	router := module.NewRouter()
	if err := router.Mount(apiModule); err != nil {
		return nil, err
	}
	registerProbes(router, infra, cfg.Version)

	infra.Logger.Info("server initialized", "addr", cfg.Server.Addr(), "api", cfg.API.BasePath)

	return &Server{
		infra:  infra,
		domain: domain,
		http:   newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start brings up infrastructure, then the folder watcher, then the
// listener. Readiness is logged once every startup hook has returned.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.domain.Watcher.Start(s.infra.Lifecycle); err != nil {
		return fmt.Errorf("watcher start failed: %w", err)
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.infra.Logger.Warn("started with degraded subsystems", "error", err)
			return
		}
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
