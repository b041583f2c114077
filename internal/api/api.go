// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/callbook/internal/config"
	"github.com/JaimeStill/callbook/internal/infrastructure"
	"github.com/JaimeStill/callbook/pkg/middleware"
	"github.com/JaimeStill/callbook/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain lets the caller start background systems such as the
// folder watcher.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux).Use(
		middleware.RequestID(),
		middleware.Logger(runtime.Infrastructure.Logger),
		middleware.Recover(runtime.Infrastructure.Logger),
		middleware.CORS(&cfg.API.CORS),
	)

	return m, domain, nil
}
