package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angeloszaimis/target-pool/internal/backend"
	"github.com/angeloszaimis/target-pool/internal/metrics"
	"github.com/angeloszaimis/target-pool/internal/pool"
)

// Dispatcher is the part of the target pool the handler drives.
type Dispatcher interface {
	Next() (string, error)
	ReportSuccess(address string) error
	ReportFailure(address string) error
	ReleaseConnection(address string) error
}

type LoadBalancerHandler struct {
	logger           *slog.Logger
	pool             Dispatcher
	registry         *backend.Registry
	metricsCollector *metrics.Collector
	maxRetries       int
}

func NewLoadBalancerHandler(logger *slog.Logger, p Dispatcher, registry *backend.Registry, collector *metrics.Collector, maxRetries int) *LoadBalancerHandler {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &LoadBalancerHandler{
		logger:           logger,
		pool:             p,
		registry:         registry,
		metricsCollector: collector,
		maxRetries:       maxRetries,
	}
}

func (lb *LoadBalancerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientIP := extractClientIP(r)

	lb.logger.Debug("Received request",
		slog.String("from", clientIP),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("proto", r.Proto),
		slog.String("host", r.Host),
		slog.String("user_agent", r.UserAgent()))

	attempts := 1
	retryable := isRetryable(r)
	if retryable {
		attempts += lb.maxRetries
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		address, err := lb.pool.Next()
		if err != nil {
			lb.emitEvent(metrics.MetricEvent{
				Type:      metrics.EventPoolExhausted,
				Timestamp: time.Now(),
			})

			if attempt == 1 {
				lb.logger.Warn("No targets available", slog.String("client", clientIP))
				http.Error(w, "No target available", http.StatusServiceUnavailable)
				return
			}

			lb.logger.Warn("No targets left to retry on", slog.String("client", clientIP), slog.Int("attempt", attempt))
			http.Error(w, "Bad gateway", http.StatusBadGateway)
			return
		}

		lastAttempt := attempt == attempts
		if lb.dispatch(w, r, address, clientIP, retryable && !lastAttempt) {
			return
		}

		lb.logger.Info("Retrying request on another target",
			slog.String("client", clientIP),
			slog.String("failed_target", address),
			slog.Int("attempt", attempt))
	}
}

// dispatch forwards r to address and reports the outcome to the pool.
// It returns false when nothing was written and the caller may retry.
func (lb *LoadBalancerHandler) dispatch(w http.ResponseWriter, r *http.Request, address, clientIP string, retryable bool) bool {
	defer lb.release(address)

	lb.emitEvent(metrics.MetricEvent{
		Type:      metrics.EventTargetSelected,
		Timestamp: time.Now(),
		Target:    address,
	})

	b, err := lb.registry.Get(address)
	if err != nil {
		lb.logger.Error("Cannot build proxy for target", slog.String("target", address), slog.Any("error", err))
		lb.report(address, true)
		if retryable {
			return false
		}
		http.Error(w, "Bad gateway", http.StatusBadGateway)
		return true
	}

	lb.logger.Debug("Forwarding to target",
		slog.String("client", clientIP),
		slog.String("target", address))

	w.Header().Set("X-Backend-Server", address)

	start := time.Now()
	result := b.Forward(w, r, retryable)
	failed := result.Failed()

	lb.emitEvent(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Target:     address,
		Duration:   time.Since(start),
		StatusCode: result.StatusCode,
		Failed:     failed,
	})

	if result.Err != nil {
		lb.logger.Warn("Target transport error",
			slog.String("target", address),
			slog.Any("error", result.Err))
	}

	lb.report(address, failed)

	if result.Written {
		return true
	}

	if retryable {
		return false
	}

	http.Error(w, "Bad gateway", http.StatusBadGateway)
	return true
}

func (lb *LoadBalancerHandler) report(address string, failed bool) {
	var err error
	if failed {
		err = lb.pool.ReportFailure(address)
	} else {
		err = lb.pool.ReportSuccess(address)
	}

	switch {
	case errors.Is(err, pool.ErrTargetNotFound):
		// evicted or removed while the request was in flight
		lb.logger.Debug("Outcome for departed target", slog.String("target", address))
	case err != nil:
		lb.logger.Warn("Failed to report outcome", slog.String("target", address), slog.Any("error", err))
	}
}

func (lb *LoadBalancerHandler) release(address string) {
	if err := lb.pool.ReleaseConnection(address); err != nil && !errors.Is(err, pool.ErrTargetNotFound) {
		lb.logger.Warn("Failed to release connection", slog.String("target", address), slog.Any("error", err))
	}
}

func (lb *LoadBalancerHandler) emitEvent(event metrics.MetricEvent) {
	if lb.metricsCollector == nil {
		return
	}

	lb.metricsCollector.Emit(event)
}

// isRetryable reports whether r can be replayed on another target.
func isRetryable(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		return false
	}

	return r.ContentLength == 0 && (r.Body == nil || r.Body == http.NoBody)
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
