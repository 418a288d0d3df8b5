package strategy

const cursorUnset = -1

type roundRobinStrategy struct {
	cursor int
}

func (rb *roundRobinStrategy) Select(candidates Candidates) int {
	n := candidates.Len()
	if n == 0 {
		rb.cursor = cursorUnset
		return -1
	}

	if rb.cursor == cursorUnset {
		rb.cursor = 0
	} else {
		rb.cursor = (rb.cursor + 1) % n
	}

	return rb.cursor
}

// Removed resets the cursor when compaction left it past the end, so the
// next call restarts the cycle instead of skipping a candidate.
func (rb *roundRobinStrategy) Removed(_, size int) {
	if rb.cursor >= size {
		rb.cursor = cursorUnset
	}
}

func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{
		cursor: cursorUnset,
	}
}
