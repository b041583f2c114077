package api

import (
	"github.com/JaimeStill/callbook/internal/config"
	"github.com/JaimeStill/callbook/internal/infrastructure"
	"github.com/JaimeStill/callbook/internal/watcher"
	"github.com/JaimeStill/callbook/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	AI         config.AIConfig
	Engine     config.EngineConfig
	Pagination pagination.Config
	Watcher    watcher.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Cache:     infra.Cache,
			Events:    infra.Events,
			Registry:  infra.Registry,
			Metrics:   infra.Metrics,
		},
		AI:         cfg.AI,
		Engine:     cfg.Engine,
		Pagination: cfg.API.Pagination,
		Watcher:    cfg.Watcher,
	}
}
