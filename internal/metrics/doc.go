// Package metrics collects per-target dispatch statistics for the pool.
//
// Events travel over a buffered channel to a single collector goroutine so
// the request path never blocks on bookkeeping. Senders should use a
// non-blocking send and drop the event when the buffer is full.
//
// Tracked per target:
//   - Selections made by the pool
//   - Failed attempts reported back to the pool
//   - Response times with average and P50, P95, P99
//   - HTTP status code distribution
//   - Whether the target was evicted
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger, nil)
//	collector.Start(ctx)
//
//	collector.EventChannel() <- metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Target:     "http://localhost:8081",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	}
//
//	snapshot := collector.Snapshot("round-robin")
//
// On context cancellation the collector drains whatever is still buffered
// before it exits.
package metrics
