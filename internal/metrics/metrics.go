package metrics

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mailgun/timetools"
)

// responseWindow bounds the number of durations kept per target.
const responseWindow = 1000

type Metrics struct {
	mutex         sync.RWMutex
	clock         timetools.TimeProvider
	selections    map[string]int64
	failures      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	evicted       map[string]bool
	exhausted     int64
	startTime     time.Time
}

type Snapshot struct {
	TotalSelections int64                    `json:"total_selections"`
	TotalFailures   int64                    `json:"total_failures"`
	PoolExhausted   int64                    `json:"pool_exhausted"`
	Uptime          time.Duration            `json:"uptime"`
	Targets         map[string]TargetMetrics `json:"targets"`
	Policy          string                   `json:"policy"`
}

type TargetMetrics struct {
	Selections  int64         `json:"selections"`
	Failures    int64         `json:"failures"`
	Evicted     bool          `json:"evicted"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

// NewMetrics creates an empty store. A nil clock means wall-clock time.
func NewMetrics(clock timetools.TimeProvider) *Metrics {
	if clock == nil {
		clock = &timetools.RealTime{}
	}

	return &Metrics{
		clock:         clock,
		selections:    make(map[string]int64),
		failures:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		evicted:       make(map[string]bool),
		startTime:     clock.UtcNow(),
	}
}

func (m *Metrics) RecordSelection(target string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.selections[target]++
}

// RecordResponse stores the outcome of one attempt. A zero status code
// means the upstream never answered.
func (m *Metrics) RecordResponse(target string, duration time.Duration, statusCode int, failed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if failed {
		m.failures[target]++
	}

	m.responseTimes[target] = append(m.responseTimes[target], duration)
	if len(m.responseTimes[target]) > responseWindow {
		m.responseTimes[target] = m.responseTimes[target][1:]
	}

	if statusCode == 0 {
		return
	}

	if m.statusCodes[target] == nil {
		m.statusCodes[target] = make(map[int]int64)
	}
	m.statusCodes[target][statusCode]++
}

func (m *Metrics) RecordEviction(target string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.evicted[target] = true
}

// RecordAdded clears a previous eviction mark when a target rejoins.
func (m *Metrics) RecordAdded(target string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.evicted, target)
}

func (m *Metrics) RecordExhausted() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.exhausted++
}

func (m *Metrics) Snapshot(policy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		PoolExhausted: m.exhausted,
		Uptime:        m.clock.UtcNow().Sub(m.startTime),
		Targets:       make(map[string]TargetMetrics),
		Policy:        policy,
	}

	all := make(map[string]struct{})
	for target := range m.selections {
		all[target] = struct{}{}
	}
	for target := range m.responseTimes {
		all[target] = struct{}{}
	}
	for target := range m.evicted {
		all[target] = struct{}{}
	}

	for target := range all {
		snap.TotalSelections += m.selections[target]
		snap.TotalFailures += m.failures[target]

		tm := TargetMetrics{
			Selections:  m.selections[target],
			Failures:    m.failures[target],
			Evicted:     m.evicted[target],
			StatusCodes: maps.Clone(m.statusCodes[target]),
		}

		if durations := m.responseTimes[target]; len(durations) > 0 {
			sorted := slices.Clone(durations)
			slices.Sort(sorted)

			tm.AvgResponse = average(sorted)
			tm.P50Response = percentile(sorted, 0.50)
			tm.P95Response = percentile(sorted, 0.95)
			tm.P99Response = percentile(sorted, 0.99)
		}

		snap.Targets[target] = tm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
