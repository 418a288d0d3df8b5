package main

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/buger/goterm"
)

const unknownTarget = "(none)"

type loadRun struct {
	url         string
	method      string
	concurrency int
	requests    int
	timeout     time.Duration
}

type targetTally struct {
	count     int
	failures  int
	latencies []time.Duration
}

type report struct {
	mutex       sync.Mutex
	started     time.Time
	elapsed     time.Duration
	errors      int
	statusCodes map[int]int
	targets     map[string]*targetTally
}

func newReport() *report {
	return &report{
		started:     time.Now(),
		statusCodes: make(map[int]int),
		targets:     make(map[string]*targetTally),
	}
}

func (l *loadRun) execute() *report {
	client := &http.Client{Timeout: l.timeout}
	rep := newReport()

	jobs := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < l.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				l.once(client, rep)
			}
		}()
	}

	for i := 0; i < l.requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	rep.elapsed = time.Since(rep.started)
	return rep
}

func (l *loadRun) once(client *http.Client, rep *report) {
	req, err := http.NewRequest(l.method, l.url, nil)
	if err != nil {
		rep.recordError()
		return
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rep.recordError()
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	rep.record(resp.Header.Get("X-Backend-Server"), resp.StatusCode, time.Since(start))
}

func (r *report) recordError() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.errors++
}

func (r *report) record(target string, status int, latency time.Duration) {
	if target == "" {
		target = unknownTarget
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.statusCodes[status]++

	t, ok := r.targets[target]
	if !ok {
		t = &targetTally{}
		r.targets[target] = t
	}
	t.count++
	if status >= http.StatusInternalServerError {
		t.failures++
	}
	t.latencies = append(t.latencies, latency)
}

func (r *report) failures() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := r.errors
	for status, count := range r.statusCodes {
		if status >= http.StatusInternalServerError {
			n += count
		}
	}
	return n
}

func (r *report) total() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := r.errors
	for _, count := range r.statusCodes {
		n += count
	}
	return n
}

func (r *report) String() string {
	total := r.total()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	t := goterm.NewTable(0, 10, 5, ' ', 0)
	fmt.Fprintf(t, "Target\tRequests\tShare\tFailed\tP50\tP99\n")

	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tally := r.targets[name]
		sorted := slices.Clone(tally.latencies)
		slices.Sort(sorted)

		share := 0.0
		if total > 0 {
			share = float64(tally.count) / float64(total) * 100
		}

		failed := fmt.Sprintf("%d", tally.failures)
		if tally.failures > 0 {
			failed = goterm.Color(failed, goterm.RED)
		}

		fmt.Fprintf(t, "%s\t%d\t%.1f%%\t%s\t%s\t%s\n",
			name, tally.count, share, failed, pick(sorted, 0.50), pick(sorted, 0.99))
	}

	codes := make([]int, 0, len(r.statusCodes))
	for code := range r.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	summary := fmt.Sprintf("Requests: %d  Transport errors: %d  Duration: %s\nStatus codes:", total, r.errors, r.elapsed.Round(time.Millisecond))
	for _, code := range codes {
		summary += fmt.Sprintf(" %d=%d", code, r.statusCodes[code])
	}

	return summary + "\n\n" + t.String()
}

func pick(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
