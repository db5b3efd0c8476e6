package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
)

// prometheusEndpoint is a scrape endpoint backed by its own registry, served
// on a side port so metrics stay reachable when the API requires auth.
type prometheusEndpoint struct {
	reader sdkmetric.Reader
	mux    *http.ServeMux
	port   string
	server *http.Server
}

func newPrometheusEndpoint(cfg config.PrometheusConfig) (*prometheusEndpoint, error) {
	registry := promclient.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	path := cfg.Endpoint
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &prometheusEndpoint{reader: exporter, mux: mux, port: cfg.Port}, nil
}

// start serves the endpoint in the background. An empty port keeps the
// handler mounted only through Manager.PrometheusHandler.
func (p *prometheusEndpoint) start(logger *errors.Logger) error {
	if p.port == "" {
		return nil
	}

	p.server = &http.Server{
		Addr:              ":" + p.port,
		Handler:           p.mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if logger != nil {
		logger.Info("Starting Prometheus metrics server", "address", p.server.Addr)
	}

	go func() {
		if err := p.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) && logger != nil {
			logger.LogError(err, "Prometheus server error", "address", p.server.Addr)
		}
	}()
	return nil
}

func (p *prometheusEndpoint) shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}
