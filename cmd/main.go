package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/target-pool/config"
	"github.com/angeloszaimis/target-pool/internal/backend"
	"github.com/angeloszaimis/target-pool/internal/httpserver"
	"github.com/angeloszaimis/target-pool/internal/metrics"
	"github.com/angeloszaimis/target-pool/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := backend.NewRegistry()
	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log, nil)

	targetPool, err := buildPool(cfg, log, registry, collector)
	if err != nil {
		log.Error("Failed to build target pool",
			slog.String("policy", cfg.Pool.Policy),
			slog.Any("err", err))
		os.Exit(1)
	}

	// The collector outlives the servers so in-flight events are drained.
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	collector.Start(collectorCtx)

	proxyHandler, adminHandler := setupRouters(log, targetPool, registry, collector, cfg.Proxy.MaxRetries)

	readTimeout, writeTimeout := cfg.Proxy.Timeouts()
	proxySrv, err := httpserver.New(cfg.Server.Address, proxyHandler, httpserver.WithTimeouts(readTimeout, writeTimeout))
	if err != nil {
		log.Error("Failed to create proxy server", slog.Any("err", err))
		os.Exit(1)
	}

	adminSrv, err := httpserver.New(cfg.Admin.Address, adminHandler)
	if err != nil {
		log.Error("Failed to create admin server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 2)
	for _, srv := range []*httpserver.Server{proxySrv, adminSrv} {
		go func() {
			srvErrCh <- srv.Start()
		}()
	}

	log.Info("Target pool started",
		slog.String("proxy", proxySrv.Addr()),
		slog.String("admin", adminSrv.Addr()),
		slog.String("policy", targetPool.Policy().String()),
		slog.Int("targets", targetPool.Len()),
		slog.Int("failure_threshold", targetPool.FailureThreshold()))

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Server stopped unexpectedly", slog.Any("err", err))
			exitCode = 1
		}
	}

	for _, srv := range []*httpserver.Server{proxySrv, adminSrv} {
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.String("addr", srv.Addr()), slog.Any("err", err))
		}
	}

	stopCollector()
	<-collector.Done()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
