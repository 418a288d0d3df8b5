package main

import (
	"log/slog"
	"time"

	"github.com/angeloszaimis/target-pool/config"
	"github.com/angeloszaimis/target-pool/internal/backend"
	"github.com/angeloszaimis/target-pool/internal/metrics"
	"github.com/angeloszaimis/target-pool/internal/pool"
)

// buildPool creates the target pool from configuration. Targets leaving the
// pool have their reverse proxy dropped, and evictions are logged and counted.
func buildPool(cfg *config.Config, log *slog.Logger, registry *backend.Registry, collector *metrics.Collector) (*pool.TargetPool, error) {
	policy, err := pool.ParsePolicy(cfg.Pool.Policy)
	if err != nil {
		return nil, err
	}

	onRemoval := func(t pool.Target, evicted bool) {
		registry.Forget(t.Address)

		if !evicted {
			log.Info("Target removed", slog.String("target", t.Address))
			return
		}

		log.Warn("Target evicted",
			slog.String("target", t.Address),
			slog.Int("consecutive_failures", t.ConsecutiveFailures),
			slog.Time("last_failure", t.LastFailureAt))

		if collector != nil {
			collector.Emit(metrics.MetricEvent{
				Type:      metrics.EventTargetEvicted,
				Timestamp: time.Now(),
				Target:    t.Address,
			})
		}
	}

	return pool.NewTargetPool(cfg.Addresses(), policy, cfg.Pool.FailureThreshold,
		pool.WithWeights(cfg.Weights()),
		pool.WithRemovalHandler(onRemoval),
	)
}
