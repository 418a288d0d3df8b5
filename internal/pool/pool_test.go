package pool_test

import (
	"time"

	"github.com/mailgun/timetools"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/target-pool/internal/pool"
)

func nextN(p *pool.TargetPool, n int) []string {
	picked := make([]string, 0, n)
	for i := 0; i < n; i++ {
		addr, err := p.Next()
		Expect(err).NotTo(HaveOccurred())
		picked = append(picked, addr)
	}
	return picked
}

func addresses(targets []pool.Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.Address)
	}
	return out
}

var _ = Describe("TargetPool", func() {
	Describe("NewTargetPool", func() {
		It("should reject a failure threshold below 1", func() {
			p, err := pool.NewTargetPool([]string{"A"}, pool.PolicyRoundRobin, 0)
			Expect(err).To(MatchError(pool.ErrInvalidThreshold))
			Expect(p).To(BeNil())
		})

		It("should reject an unknown policy", func() {
			p, err := pool.NewTargetPool([]string{"A"}, pool.Policy("fastest"), 3)
			Expect(err).To(MatchError(pool.ErrUnknownPolicy))
			Expect(p).To(BeNil())
		})

		It("should reject empty addresses", func() {
			_, err := pool.NewTargetPool([]string{"A", ""}, pool.PolicyRoundRobin, 3)
			Expect(err).To(MatchError(pool.ErrInvalidAddress))
		})

		It("should collapse duplicates keeping the first position", func() {
			p, err := pool.NewTargetPool([]string{"A", "B", "A", "C", "B"}, pool.PolicyRoundRobin, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Len()).To(Equal(3))
			Expect(addresses(p.Targets())).To(Equal([]string{"A", "B", "C"}))
		})

		It("should start with zeroed counters and weight 1", func() {
			p, err := pool.NewTargetPool([]string{"A", "B"}, pool.PolicyRoundRobin, 3)
			Expect(err).NotTo(HaveOccurred())

			for _, t := range p.Targets() {
				Expect(t.Weight).To(Equal(1))
				Expect(t.ConsecutiveFailures).To(BeZero())
				Expect(t.ActiveConnections).To(BeZero())
			}
		})

		It("should apply configured weights", func() {
			p, err := pool.NewTargetPool([]string{"A", "B"}, pool.PolicyWeightedRoundRobin, 3,
				pool.WithWeights(map[string]int{"B": 4, "Z": 9}))
			Expect(err).NotTo(HaveOccurred())

			targets := p.Targets()
			Expect(targets[0].Weight).To(Equal(1))
			Expect(targets[1].Weight).To(Equal(4))
		})

		It("should reject non-positive configured weights", func() {
			_, err := pool.NewTargetPool([]string{"A"}, pool.PolicyWeightedRoundRobin, 3,
				pool.WithWeights(map[string]int{"A": 0}))
			Expect(err).To(MatchError(pool.ErrInvalidWeight))
		})

		It("should accept an empty address list as an exhausted pool", func() {
			p, err := pool.NewTargetPool(nil, pool.PolicyRoundRobin, 3)
			Expect(err).NotTo(HaveOccurred())

			_, err = p.Next()
			Expect(err).To(MatchError(pool.ErrPoolExhausted))
		})

		It("should expose policy and threshold", func() {
			p, err := pool.NewTargetPool([]string{"A"}, pool.PolicyLeastConnections, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Policy()).To(Equal(pool.PolicyLeastConnections))
			Expect(p.FailureThreshold()).To(Equal(5))
		})
	})

	Describe("Next with round-robin", func() {
		var p *pool.TargetPool

		BeforeEach(func() {
			var err error
			p, err = pool.NewTargetPool([]string{"A", "B", "C"}, pool.PolicyRoundRobin, 3)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should visit every member exactly once per cycle", func() {
			for cycle := 0; cycle < 4; cycle++ {
				Expect(nextN(p, 3)).To(ConsistOf("A", "B", "C"))
			}
		})

		It("should follow insertion order and wrap", func() {
			Expect(nextN(p, 4)).To(Equal([]string{"A", "B", "C", "A"}))
		})

		It("should not reserve connections", func() {
			nextN(p, 3)
			for _, t := range p.Targets() {
				Expect(t.ActiveConnections).To(BeZero())
			}
		})

		It("should cycle over the survivors after an eviction", func() {
			Expect(nextN(p, 4)).To(Equal([]string{"A", "B", "C", "A"}))

			for i := 0; i < 3; i++ {
				Expect(p.ReportFailure("A")).To(Succeed())
			}

			Expect(nextN(p, 3)).To(Equal([]string{"B", "C", "B"}))
		})

		It("should restart the cycle when the cursor falls off the end", func() {
			Expect(nextN(p, 3)).To(Equal([]string{"A", "B", "C"}))

			Expect(p.RemoveTarget("C")).To(Succeed())

			Expect(nextN(p, 3)).To(Equal([]string{"A", "B", "A"}))
		})

		It("should include targets added later at the end of the cycle", func() {
			Expect(p.AddTarget("D", 1)).To(Succeed())
			Expect(nextN(p, 4)).To(Equal([]string{"A", "B", "C", "D"}))
		})
	})

	Describe("Next with least-connections", func() {
		var p *pool.TargetPool

		BeforeEach(func() {
			var err error
			p, err = pool.NewTargetPool([]string{"A", "B"}, pool.PolicyLeastConnections, 3)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should prefer the least loaded target and honour releases", func() {
			Expect(p.Next()).To(Equal("A"))
			Expect(p.Next()).To(Equal("B"))

			Expect(p.ReleaseConnection("A")).To(Succeed())

			Expect(p.Next()).To(Equal("A"))
		})

		It("should count reservations on the chosen target", func() {
			nextN(p, 3)

			targets := p.Targets()
			Expect(targets[0].ActiveConnections).To(Equal(2))
			Expect(targets[1].ActiveConnections).To(Equal(1))
		})

		It("should always pick the global minimum with ties to the earliest position", func() {
			Expect(p.AddTarget("C", 1)).To(Succeed())

			picked := nextN(p, 9)
			Expect(picked).To(Equal([]string{"A", "B", "C", "A", "B", "C", "A", "B", "C"}))
		})

		It("should clamp releases at zero", func() {
			Expect(p.ReleaseConnection("A")).To(Succeed())
			Expect(p.Targets()[0].ActiveConnections).To(BeZero())
		})

		It("should reject releases for unknown targets", func() {
			Expect(p.ReleaseConnection("Z")).To(MatchError(pool.ErrTargetNotFound))
		})
	})

	Describe("Next with weighted round-robin", func() {
		It("should select proportionally to weight", func() {
			p, err := pool.NewTargetPool([]string{"A", "B"}, pool.PolicyWeightedRoundRobin, 3,
				pool.WithWeights(map[string]int{"A": 3}))
			Expect(err).NotTo(HaveOccurred())

			counts := make(map[string]int)
			for _, addr := range nextN(p, 40) {
				counts[addr]++
			}

			Expect(counts["A"]).To(Equal(30))
			Expect(counts["B"]).To(Equal(10))
		})
	})

	Describe("ReportFailure", func() {
		var p *pool.TargetPool

		BeforeEach(func() {
			var err error
			p, err = pool.NewTargetPool([]string{"A", "B", "C"}, pool.PolicyRoundRobin, 3)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep the target below the threshold", func() {
			Expect(p.ReportFailure("B")).To(Succeed())
			Expect(p.ReportFailure("B")).To(Succeed())

			Expect(p.Len()).To(Equal(3))
			Expect(p.Targets()[1].ConsecutiveFailures).To(Equal(2))
		})

		It("should evict the target at the threshold", func() {
			for i := 0; i < 3; i++ {
				Expect(p.ReportFailure("B")).To(Succeed())
			}

			Expect(p.Len()).To(Equal(2))
			Expect(addresses(p.Targets())).NotTo(ContainElement("B"))
			for _, addr := range nextN(p, 10) {
				Expect(addr).NotTo(Equal("B"))
			}
		})

		It("should report evicted targets as not found", func() {
			for i := 0; i < 3; i++ {
				Expect(p.ReportFailure("B")).To(Succeed())
			}

			Expect(p.ReportFailure("B")).To(MatchError(pool.ErrTargetNotFound))
			Expect(p.ReportSuccess("B")).To(MatchError(pool.ErrTargetNotFound))
		})

		It("should report unknown targets as not found", func() {
			Expect(p.ReportFailure("Z")).To(MatchError(pool.ErrTargetNotFound))
		})

		It("should drain the pool to exhaustion", func() {
			for _, addr := range []string{"A", "B", "C"} {
				for i := 0; i < 3; i++ {
					Expect(p.ReportFailure(addr)).To(Succeed())
				}
			}

			_, err := p.Next()
			Expect(err).To(MatchError(pool.ErrPoolExhausted))
		})

		It("should keep the lookup and order views consistent after evictions", func() {
			for i := 0; i < 3; i++ {
				Expect(p.ReportFailure("A")).To(Succeed())
			}
			Expect(addresses(p.Targets())).To(Equal([]string{"C", "B"}))

			for _, addr := range []string{"B", "C"} {
				Expect(p.ReportSuccess(addr)).To(Succeed())
			}
			Expect(p.ReportSuccess("A")).To(MatchError(pool.ErrTargetNotFound))
		})
	})

	Describe("ReportSuccess", func() {
		var p *pool.TargetPool

		BeforeEach(func() {
			var err error
			p, err = pool.NewTargetPool([]string{"A", "B"}, pool.PolicyLeastConnections, 3)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reset the failure streak", func() {
			Expect(p.ReportFailure("A")).To(Succeed())
			Expect(p.ReportFailure("A")).To(Succeed())
			Expect(p.ReportSuccess("A")).To(Succeed())
			Expect(p.ReportFailure("A")).To(Succeed())
			Expect(p.ReportFailure("A")).To(Succeed())

			Expect(p.Len()).To(Equal(2))
			Expect(p.Targets()[0].ConsecutiveFailures).To(Equal(2))
		})

		It("should not touch active connections", func() {
			Expect(p.Next()).To(Equal("A"))
			Expect(p.ReportSuccess("A")).To(Succeed())

			Expect(p.Targets()[0].ActiveConnections).To(Equal(1))
		})
	})

	Describe("AddTarget", func() {
		var p *pool.TargetPool

		BeforeEach(func() {
			var err error
			p, err = pool.NewTargetPool([]string{"A"}, pool.PolicyRoundRobin, 2)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject duplicates and leave the pool unchanged", func() {
			Expect(p.ReportFailure("A")).To(Succeed())
			before := p.Targets()

			Expect(p.AddTarget("A", 5)).To(MatchError(pool.ErrDuplicateTarget))

			Expect(p.Targets()).To(Equal(before))
		})

		It("should validate input", func() {
			Expect(p.AddTarget("", 1)).To(MatchError(pool.ErrInvalidAddress))
			Expect(p.AddTarget("B", 0)).To(MatchError(pool.ErrInvalidWeight))
			Expect(p.Len()).To(Equal(1))
		})

		It("should revive an exhausted pool", func() {
			Expect(p.ReportFailure("A")).To(Succeed())
			Expect(p.ReportFailure("A")).To(Succeed())
			_, err := p.Next()
			Expect(err).To(MatchError(pool.ErrPoolExhausted))

			Expect(p.AddTarget("B", 1)).To(Succeed())
			Expect(p.Next()).To(Equal("B"))
		})

		It("should give a re-added target fresh counters", func() {
			Expect(p.ReportFailure("A")).To(Succeed())
			Expect(p.ReportFailure("A")).To(Succeed())

			Expect(p.AddTarget("A", 3)).To(Succeed())

			targets := p.Targets()
			Expect(targets).To(HaveLen(1))
			Expect(targets[0].ConsecutiveFailures).To(BeZero())
			Expect(targets[0].Weight).To(Equal(3))
		})
	})

	Describe("RemoveTarget", func() {
		var p *pool.TargetPool

		BeforeEach(func() {
			var err error
			p, err = pool.NewTargetPool([]string{"A", "B", "C", "D"}, pool.PolicyRoundRobin, 3)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should swap the last entry into the removed slot", func() {
			Expect(p.RemoveTarget("B")).To(Succeed())
			Expect(addresses(p.Targets())).To(Equal([]string{"A", "D", "C"}))
		})

		It("should fail for unknown targets", func() {
			Expect(p.RemoveTarget("Z")).To(MatchError(pool.ErrTargetNotFound))
			Expect(p.Len()).To(Equal(4))
		})
	})

	Describe("removal handlers", func() {
		type removal struct {
			target  pool.Target
			evicted bool
		}

		var (
			p        *pool.TargetPool
			removals []removal
			clock    *timetools.FreezedTime
		)

		BeforeEach(func() {
			removals = nil
			clock = &timetools.FreezedTime{CurrentTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

			var err error
			p, err = pool.NewTargetPool([]string{"A", "B"}, pool.PolicyRoundRobin, 2,
				pool.WithClock(clock),
				pool.WithRemovalHandler(func(t pool.Target, evicted bool) {
					removals = append(removals, removal{target: t, evicted: evicted})
				}))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should report evictions with the final target state", func() {
			Expect(p.ReportFailure("A")).To(Succeed())
			Expect(removals).To(BeEmpty())

			clock.CurrentTime = clock.CurrentTime.Add(time.Minute)
			Expect(p.ReportFailure("A")).To(Succeed())

			Expect(removals).To(HaveLen(1))
			Expect(removals[0].evicted).To(BeTrue())
			Expect(removals[0].target.Address).To(Equal("A"))
			Expect(removals[0].target.ConsecutiveFailures).To(Equal(2))
			Expect(removals[0].target.LastFailureAt).To(Equal(clock.CurrentTime))
		})

		It("should report explicit removals", func() {
			Expect(p.RemoveTarget("B")).To(Succeed())

			Expect(removals).To(HaveLen(1))
			Expect(removals[0].evicted).To(BeFalse())
			Expect(removals[0].target.AddedAt).To(Equal(clock.CurrentTime))
		})

		It("should allow handlers to call back into the pool", func() {
			var self *pool.TargetPool
			self, err := pool.NewTargetPool([]string{"A"}, pool.PolicyRoundRobin, 1,
				pool.WithRemovalHandler(func(t pool.Target, _ bool) {
					Expect(self.AddTarget(t.Address+"-replacement", 1)).To(Succeed())
				}),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(self.ReportFailure("A")).To(Succeed())
			Expect(self.Next()).To(Equal("A-replacement"))
		})
	})
})
