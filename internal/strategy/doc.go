// Package strategy implements the selection algorithms used by the target pool:
//
//   - Round Robin: Sequential distribution following the pool order
//   - Least Connections: Routes to the target with the fewest in-flight requests
//   - Weighted Round Robin: Smooth distribution proportional to target weights
//   - Random: Uniform random selection
//
// Strategies only pick positions. Locking, connection accounting and eviction
// belong to the pool that owns the candidates.
package strategy
