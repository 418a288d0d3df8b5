package pool

import (
	"sync"
	"time"

	"github.com/mailgun/timetools"

	"github.com/angeloszaimis/target-pool/internal/strategy"
)

// RemovalHandler observes targets leaving the pool. evicted is true when the
// target reached the failure threshold and false for explicit removals.
// Handlers run after the pool lock is released and may call back into the pool.
type RemovalHandler func(t Target, evicted bool)

type options struct {
	clock    timetools.TimeProvider
	weights  map[string]int
	handlers []RemovalHandler
}

// Option configures a TargetPool at construction time.
type Option func(*options)

// WithClock overrides the time source used for AddedAt and LastFailureAt.
func WithClock(clock timetools.TimeProvider) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithWeights sets the weight of addresses from the initial list.
// Addresses not in the list are ignored; unspecified addresses get weight 1.
func WithWeights(weights map[string]int) Option {
	return func(o *options) {
		o.weights = weights
	}
}

// WithRemovalHandler registers a handler called for every eviction and removal.
func WithRemovalHandler(h RemovalHandler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, h)
	}
}

// TargetPool owns the candidate upstream targets. members and order always
// describe the same set: every target in members sits at order[target.index].
type TargetPool struct {
	mutex            sync.Mutex
	members          map[string]*target
	order            targetOrder
	selector         strategy.Strategy
	policy           Policy
	failureThreshold int
	clock            timetools.TimeProvider
	handlers         []RemovalHandler
}

// NewTargetPool builds a pool from an ordered address list. Duplicate
// addresses keep their first position. An empty list yields an exhausted pool.
func NewTargetPool(addresses []string, policy Policy, failureThreshold int, opts ...Option) (*TargetPool, error) {
	if failureThreshold < 1 {
		return nil, ErrInvalidThreshold
	}

	selector, err := policy.newStrategy()
	if err != nil {
		return nil, err
	}

	o := options{clock: &timetools.RealTime{}}
	for _, opt := range opts {
		opt(&o)
	}

	p := &TargetPool{
		members:          make(map[string]*target, len(addresses)),
		order:            make(targetOrder, 0, len(addresses)),
		selector:         selector,
		policy:           policy,
		failureThreshold: failureThreshold,
		clock:            o.clock,
		handlers:         o.handlers,
	}

	now := p.clock.UtcNow()
	for _, address := range addresses {
		if address == "" {
			return nil, ErrInvalidAddress
		}

		if _, exists := p.members[address]; exists {
			continue
		}

		weight := 1
		if w, ok := o.weights[address]; ok {
			if w < 1 {
				return nil, ErrInvalidWeight
			}
			weight = w
		}

		p.insert(address, weight, now)
	}

	return p, nil
}

// Next returns the address of the next target according to the pool policy.
// Under least-connections the chosen target's connection count is incremented;
// pair every such call with ReleaseConnection.
func (p *TargetPool) Next() (string, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	idx := p.selector.Select(p.order)
	if idx < 0 {
		return "", ErrPoolExhausted
	}

	chosen := p.order[idx]
	if p.policy.tracksConnections() {
		chosen.activeConnections++
	}

	return chosen.address, nil
}

// ReportSuccess resets the consecutive failure count of address.
func (p *TargetPool) ReportSuccess(address string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	t, ok := p.members[address]
	if !ok {
		return ErrTargetNotFound
	}

	t.consecutiveFailures = 0
	return nil
}

// ReportFailure counts a failure against address and evicts it once the
// failure threshold is reached. The eviction happens in the same critical
// section, so the target is never selectable past the threshold.
func (p *TargetPool) ReportFailure(address string) error {
	evicted, err := p.recordFailure(address)
	if err != nil {
		return err
	}

	if evicted != nil {
		p.notify(*evicted, true)
	}

	return nil
}

func (p *TargetPool) recordFailure(address string) (*Target, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	t, ok := p.members[address]
	if !ok {
		return nil, ErrTargetNotFound
	}

	t.consecutiveFailures++
	t.lastFailureAt = p.clock.UtcNow()

	if t.consecutiveFailures < p.failureThreshold {
		return nil, nil
	}

	snap := t.snapshot()
	p.removeTarget(t)
	return &snap, nil
}

// ReleaseConnection marks one in-flight request to address as finished.
// Releasing a target with no in-flight requests is a no-op.
func (p *TargetPool) ReleaseConnection(address string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	t, ok := p.members[address]
	if !ok {
		return ErrTargetNotFound
	}

	if t.activeConnections > 0 {
		t.activeConnections--
	}

	return nil
}

// AddTarget appends a new target with fresh counters to the end of the order.
func (p *TargetPool) AddTarget(address string, weight int) error {
	if address == "" {
		return ErrInvalidAddress
	}

	if weight < 1 {
		return ErrInvalidWeight
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, exists := p.members[address]; exists {
		return ErrDuplicateTarget
	}

	p.insert(address, weight, p.clock.UtcNow())
	return nil
}

// RemoveTarget removes address from the pool with the same compaction as eviction.
func (p *TargetPool) RemoveTarget(address string) error {
	removed, err := p.remove(address)
	if err != nil {
		return err
	}

	p.notify(removed, false)
	return nil
}

func (p *TargetPool) remove(address string) (Target, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	t, ok := p.members[address]
	if !ok {
		return Target{}, ErrTargetNotFound
	}

	snap := t.snapshot()
	p.removeTarget(t)
	return snap, nil
}

// Targets returns a snapshot of every member in selection order.
func (p *TargetPool) Targets() []Target {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	targets := make([]Target, 0, len(p.order))
	for _, t := range p.order {
		targets = append(targets, t.snapshot())
	}

	return targets
}

// Len returns the number of members.
func (p *TargetPool) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.order)
}

func (p *TargetPool) Policy() Policy {
	return p.policy
}

func (p *TargetPool) FailureThreshold() int {
	return p.failureThreshold
}

func (p *TargetPool) insert(address string, weight int, now time.Time) {
	t := &target{
		address: address,
		weight:  weight,
		index:   len(p.order),
		addedAt: now,
	}

	p.members[address] = t
	p.order = append(p.order, t)
}

// removeTarget moves the last entry of order into the removed slot and
// truncates. Callers must hold the mutex.
func (p *TargetPool) removeTarget(t *target) {
	idx := t.index
	last := len(p.order) - 1

	if idx != last {
		moved := p.order[last]
		p.order[idx] = moved
		moved.index = idx
	}

	p.order[last] = nil
	p.order = p.order[:last]
	delete(p.members, t.address)

	p.selector.Removed(idx, len(p.order))
}

func (p *TargetPool) notify(t Target, evicted bool) {
	for _, h := range p.handlers {
		h(t, evicted)
	}
}
