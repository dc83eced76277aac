package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// RequestMetrics keeps in-process counters for unit executions so the
// health endpoint can report them without scraping Prometheus.
type RequestMetrics struct {
	totalRequests  atomic.Int64
	totalErrors    atomic.Int64
	totalLatencyMs atomic.Int64

	mu     sync.Mutex
	byUnit map[string]*unitCounters
}

type unitCounters struct {
	requests  int64
	errors    int64
	latencyMs int64
}

func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{byUnit: make(map[string]*unitCounters)}
}

// Record records a completed execution of the named unit. An empty unit
// name only updates the totals.
func (m *RequestMetrics) Record(unitName string, latency time.Duration, isError bool) {
	ms := latency.Milliseconds()
	m.totalRequests.Add(1)
	m.totalLatencyMs.Add(ms)
	if isError {
		m.totalErrors.Add(1)
	}
	if unitName == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byUnit[unitName]
	if !ok {
		c = &unitCounters{}
		m.byUnit[unitName] = c
	}
	c.requests++
	c.latencyMs += ms
	if isError {
		c.errors++
	}
}

func (m *RequestMetrics) Snapshot() RequestSnapshot {
	snap := summarize(m.totalRequests.Load(), m.totalErrors.Load(), m.totalLatencyMs.Load())

	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.byUnit))
	for name := range m.byUnit {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := m.byUnit[name]
		us := summarize(c.requests, c.errors, c.latencyMs)
		snap.Units = append(snap.Units, UnitSnapshot{
			Unit:          name,
			TotalRequests: us.TotalRequests,
			TotalErrors:   us.TotalErrors,
			AvgLatencyMs:  us.AvgLatencyMs,
			ErrorRate:     us.ErrorRate,
		})
	}
	return snap
}

func summarize(total, errors, latencyMs int64) RequestSnapshot {
	snap := RequestSnapshot{TotalRequests: total, TotalErrors: errors}
	if total > 0 {
		snap.AvgLatencyMs = float64(latencyMs) / float64(total)
		snap.ErrorRate = float64(errors) / float64(total)
	}
	return snap
}

// RequestSnapshot is a point-in-time copy of the counters. Units is sorted
// by unit name.
type RequestSnapshot struct {
	TotalRequests int64          `json:"total_requests"`
	TotalErrors   int64          `json:"total_errors"`
	AvgLatencyMs  float64        `json:"avg_latency_ms"`
	ErrorRate     float64        `json:"error_rate"`
	Units         []UnitSnapshot `json:"units,omitempty"`
}

type UnitSnapshot struct {
	Unit          string  `json:"unit"`
	TotalRequests int64   `json:"total_requests"`
	TotalErrors   int64   `json:"total_errors"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	ErrorRate     float64 `json:"error_rate"`
}
