package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config contains configuration of the telemetry endpoint.
type Config struct {
	Port int `yaml:"port"` // Port the prometheus endpoint listens on.
}

// Run starts the server with the prometheus telemetry endpoint.
// This function blocks. To stop it cancel the context.
func Run(ctx context.Context, cancel context.CancelFunc, cfg Config) error {
	if cfg.Port == 0 {
		cfg.Port = 2112
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cancel()
		}
	}()

	<-ctx.Done()

	return srv.Shutdown(context.Background())
}
