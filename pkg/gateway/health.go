package gateway

import (
	"net/http"
	"time"

	"github.com/hoardlab/hoard/pkg/metrics"
)

// HealthServer exposes liveness, readiness and metrics endpoints, separate
// from the query endpoint so operations traffic never competes with asset
// updates.
type HealthServer struct {
	mux *http.ServeMux
}

// NewHealthServer creates the operations endpoint mux.
func NewHealthServer() *HealthServer {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.Handle("/metrics", metrics.Handler())

	return &HealthServer{mux: mux}
}

// Start serves the endpoints on addr.
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

// Handler returns the HTTP handler for embedding in other servers.
func (hs *HealthServer) Handler() http.Handler {
	return hs.mux
}
