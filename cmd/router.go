package main

import (
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/target-pool/internal/admin"
	"github.com/angeloszaimis/target-pool/internal/backend"
	"github.com/angeloszaimis/target-pool/internal/handler"
	"github.com/angeloszaimis/target-pool/internal/metrics"
	"github.com/angeloszaimis/target-pool/internal/pool"
)

// setupRouters returns the proxy handler and the admin API handler.
func setupRouters(log *slog.Logger, p *pool.TargetPool, registry *backend.Registry, collector *metrics.Collector, maxRetries int) (http.Handler, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/", handler.NewLoadBalancerHandler(log, p, registry, collector, maxRetries))

	return mux, admin.NewRouter(log, p, collector)
}
