package observability

import (
	"context"
	"net/http"
	"sync"

	"github.com/audiomirror/audiomirror-go/internal/conf"
	"github.com/audiomirror/audiomirror-go/internal/errors"
	"github.com/audiomirror/audiomirror-go/internal/logging"
	metricspkg "github.com/audiomirror/audiomirror-go/internal/observability/metrics"
)

// Endpoint serves the Prometheus metrics over HTTP.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
}

// NewEndpoint creates a new metrics Endpoint from the application settings.
// It returns an error if metrics are not enabled in the settings.
func NewEndpoint(settings *conf.Settings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Capture.Metrics.Enabled {
		return nil, errors.Newf("metrics not enabled in settings").
			Component("observability").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return &Endpoint{
		listenAddress: settings.Capture.Metrics.Listen,
		metrics:       metrics,
	}, nil
}

// Start initializes and runs the HTTP server for the metrics endpoint.
// It serves until quitChan is closed, then shuts down gracefully.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	e.server = &http.Server{
		Addr:    e.listenAddress,
		Handler: mux,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logging.Info("Metrics endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics HTTP server error", "error", err)
		}
	}()

	go e.gracefulShutdown(quitChan)
}

// gracefulShutdown waits for the quit signal and shuts down the server gracefully.
func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	<-quitChan
	logging.Info("Stopping metrics server")
	ctx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		logging.Error("Metrics server shutdown error", "error", err)
	}
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
