package strategy

import (
	"math"
)

type leastConnStrategy struct {
}

// Select scans in order and keeps the first minimum, so ties always resolve
// to the earliest position.
func (l *leastConnStrategy) Select(candidates Candidates) int {
	best := -1
	bestConns := math.MaxInt

	for i := 0; i < candidates.Len(); i++ {
		activeConns := candidates.At(i).ActiveConnections()
		if activeConns < bestConns {
			bestConns = activeConns
			best = i
		}
	}

	return best
}

func (l *leastConnStrategy) Removed(_, _ int) {}

func NewLeastConnStrategy() Strategy {
	return &leastConnStrategy{}
}
