package strategy

// weightedRoundRobinStrategy implements smooth weighted round-robin load balancing.
// Uses the Nginx algorithm: each candidate accumulates its weight per selection cycle,
// the highest current value is chosen, then reduced by the sum of all weights.
type weightedRoundRobinStrategy struct {
	current []int // Accumulated weight per position
}

// NewWeightedRoundRobinStrategy creates a weighted round-robin strategy instance.
func NewWeightedRoundRobinStrategy() Strategy {
	return &weightedRoundRobinStrategy{}
}

// Select picks the position with the highest accumulated weight.
// Candidates with a non-positive weight are never chosen.
func (w *weightedRoundRobinStrategy) Select(candidates Candidates) int {
	n := candidates.Len()
	if n == 0 {
		w.current = w.current[:0]
		return -1
	}

	// Targets added since the last call start with no accumulated weight
	for len(w.current) < n {
		w.current = append(w.current, 0)
	}
	w.current = w.current[:n]

	totalWeight := 0
	chosen := -1

	for i := 0; i < n; i++ {
		weight := candidates.At(i).Weight()
		if weight <= 0 {
			continue
		}

		w.current[i] += weight
		totalWeight += weight

		if chosen == -1 || w.current[i] > w.current[chosen] {
			chosen = i
		}
	}

	if chosen == -1 {
		return -1
	}

	w.current[chosen] -= totalWeight
	return chosen
}

// Removed mirrors the owner's swap-with-last compaction so accumulated
// weights stay attached to the same candidates.
func (w *weightedRoundRobinStrategy) Removed(index, size int) {
	if index < len(w.current) {
		moved := 0
		if size < len(w.current) {
			moved = w.current[size]
		}
		w.current[index] = moved
	}

	if size < len(w.current) {
		w.current = w.current[:size]
	}
}
