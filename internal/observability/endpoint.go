package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/classmark/classmark-go/internal/logging"
)

// Endpoint serves the Prometheus metrics over HTTP for the lifetime of a
// capture session.
type Endpoint struct {
	server *http.Server
}

// NewEndpoint creates a metrics endpoint bound to the given listen address.
func NewEndpoint(listen string) *Endpoint {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Endpoint{
		server: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves the endpoint in the background and shuts it down when ctx is
// cancelled.
func (e *Endpoint) Start(ctx context.Context) {
	logger := logging.ForService("observability")

	go func() {
		logger.Info("metrics endpoint starting", "listen", e.server.Addr)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics endpoint failed", "listen", e.server.Addr, "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics endpoint shutdown", "error", err)
		}
	}()
}
