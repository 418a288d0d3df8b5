package strategy

import (
	"math/rand/v2"
)

type randomStrategy struct{}

func (r *randomStrategy) Select(candidates Candidates) int {
	n := candidates.Len()
	if n == 0 {
		return -1
	}

	return rand.IntN(n)
}

func (r *randomStrategy) Removed(_, _ int) {}

func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}
