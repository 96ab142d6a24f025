// internal/router/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures the observability side server: health probe and
// Prometheus scrape endpoint. Server-wide middleware (logger, requestID,
// recoverer) are expected to be applied *before* mounting this router in
// main.go.
func SetupRouter() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
