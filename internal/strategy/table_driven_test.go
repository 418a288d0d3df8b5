package strategy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/target-pool/internal/strategy"
)

var _ = Describe("Table-Driven Strategy Tests", func() {
	DescribeTable("All strategies can be instantiated",
		func(createStrat func() strategy.Strategy) {
			strat := createStrat()
			Expect(strat).NotTo(BeNil())
		},
		Entry("Round Robin", strategy.NewRoundRobinStrategy),
		Entry("Random", strategy.NewRandomStrategy),
		Entry("Least Connections", strategy.NewLeastConnStrategy),
		Entry("Weighted Round Robin", strategy.NewWeightedRoundRobinStrategy),
	)

	DescribeTable("All strategies select a position in range",
		func(createStrat func() strategy.Strategy) {
			strat := createStrat()
			candidates := newCandidates(
				"http://localhost:8081",
				"http://localhost:8082",
				"http://localhost:8083",
			)

			idx := strat.Select(candidates)
			Expect(idx).To(BeNumerically(">=", 0))
			Expect(idx).To(BeNumerically("<", candidates.Len()))
		},
		Entry("Round Robin", strategy.NewRoundRobinStrategy),
		Entry("Random", strategy.NewRandomStrategy),
		Entry("Least Connections", strategy.NewLeastConnStrategy),
		Entry("Weighted Round Robin", strategy.NewWeightedRoundRobinStrategy),
	)

	DescribeTable("All strategies report an empty set with -1",
		func(createStrat func() strategy.Strategy) {
			Expect(createStrat().Select(candidateList{})).To(Equal(-1))
		},
		Entry("Round Robin", strategy.NewRoundRobinStrategy),
		Entry("Random", strategy.NewRandomStrategy),
		Entry("Least Connections", strategy.NewLeastConnStrategy),
		Entry("Weighted Round Robin", strategy.NewWeightedRoundRobinStrategy),
	)

	DescribeTable("All strategies tolerate removal notifications",
		func(createStrat func() strategy.Strategy) {
			strat := createStrat()
			candidates := newCandidates("http://localhost:8081", "http://localhost:8082")
			strat.Select(candidates)

			candidates = removeAt(strat, candidates, 0)

			Expect(strat.Select(candidates)).To(Equal(0))
		},
		Entry("Round Robin", strategy.NewRoundRobinStrategy),
		Entry("Random", strategy.NewRandomStrategy),
		Entry("Least Connections", strategy.NewLeastConnStrategy),
		Entry("Weighted Round Robin", strategy.NewWeightedRoundRobinStrategy),
	)
})
