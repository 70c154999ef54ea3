// Package observability serves the Prometheus metrics endpoint. The metrics
// themselves are defined with promauto in the packages that own them.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Start serves /metrics on the given port in the background.
func Start(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Warn().Err(err).Str("port", port).Msg("Metrics listener stopped")
		}
	}()
}
