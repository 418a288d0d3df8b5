package pool

import (
	"time"

	"github.com/angeloszaimis/target-pool/internal/strategy"
)

// target is the mutable per-address state. It is only touched while the
// owning pool's mutex is held.
type target struct {
	address             string
	weight              int
	consecutiveFailures int
	activeConnections   int
	index               int // position in TargetPool.order
	addedAt             time.Time
	lastFailureAt       time.Time
}

func (t *target) Address() string {
	return t.address
}

func (t *target) Weight() int {
	return t.weight
}

func (t *target) ActiveConnections() int {
	return t.activeConnections
}

func (t *target) snapshot() Target {
	return Target{
		Address:             t.address,
		Weight:              t.weight,
		ConsecutiveFailures: t.consecutiveFailures,
		ActiveConnections:   t.activeConnections,
		AddedAt:             t.addedAt,
		LastFailureAt:       t.lastFailureAt,
	}
}

// Target is a point-in-time copy of a pool member.
type Target struct {
	Address             string    `json:"address"`
	Weight              int       `json:"weight"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	ActiveConnections   int       `json:"active_connections"`
	AddedAt             time.Time `json:"added_at"`
	LastFailureAt       time.Time `json:"last_failure_at,omitempty"`
}

// targetOrder adapts the pool order to strategy.Candidates without copying.
type targetOrder []*target

func (o targetOrder) Len() int {
	return len(o)
}

func (o targetOrder) At(i int) strategy.Candidate {
	return o[i]
}
