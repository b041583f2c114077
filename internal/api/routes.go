package api

import (
	"net/http"

	"github.com/JaimeStill/callbook/internal/config"
	"github.com/JaimeStill/callbook/internal/watcher"
	"github.com/JaimeStill/callbook/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	routes.RegisterWith(
		mux,
		runtime.Metrics.Instrument,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Questions.Handler().Routes(),
		domain.Scripts.Handler().Routes(),
		domain.Moderation.Handler().Routes(),
		domain.Clusters.Handler().Routes(),
		domain.Classifications.Handler().Routes(),
		domain.Facts.Handler().Routes(),
		domain.Search.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		domain.Summary.Handler().Routes(),
		domain.Audit.Handler().Routes(),
		domain.Workflow.Handler().Routes(),
		watcher.NewHandler(domain.Watcher, runtime.Logger).Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
	)
}
