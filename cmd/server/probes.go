package main

import (
	"net/http"

	"github.com/JaimeStill/callbook/internal/infrastructure"
	"github.com/JaimeStill/callbook/internal/metrics"
	"github.com/JaimeStill/callbook/pkg/handlers"
	"github.com/JaimeStill/callbook/pkg/module"
)

type probeStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// registerProbes mounts liveness, readiness and metrics outside the API
// module so they skip its middleware.
func registerProbes(router *module.Router, infra *infrastructure.Infrastructure, version string) {
	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, probeStatus{Status: "ok", Version: version})
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, probeStatus{Status: "starting"})
			return
		}

		failed := infra.Lifecycle.Check(r.Context())
		if len(failed) == 0 {
			handlers.RespondJSON(w, http.StatusOK, probeStatus{Status: "ready"})
			return
		}

		body := probeStatus{Status: "degraded", Failed: make(map[string]string, len(failed))}
		for name, err := range failed {
			body.Failed[name] = err.Error()
		}
		handlers.RespondJSON(w, http.StatusServiceUnavailable, body)
	}))

	router.HandleNative("GET /metrics", metrics.Handler(infra.Registry))
}
