package metrics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "mcat"

	// maxLabelLength caps label values so free-form use cases cannot blow
	// up series cardinality.
	maxLabelLength = 64
	unknownLabel   = "unknown"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder owns the Prometheus collectors for one registry and mirrors unit
// executions into RequestMetrics.
type Recorder struct {
	executions      *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	recommendations *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec

	requests *RequestMetrics
}

// NewRecorder registers the collectors with reg. Registering twice against
// the same registry reuses the collectors already present.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, errors.New("metrics: nil registerer")
	}

	r := &Recorder{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unit_executions_total",
				Help:      "Total number of command and query executions",
			},
			[]string{"unit", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "unit_duration_seconds",
				Help:      "Execution latency of commands and queries",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"unit"},
		),
		recommendations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recommendations_returned",
				Help:      "Number of recommendations returned per request",
				Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
			},
			[]string{"use_case"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommend_cache_total",
				Help:      "Recommendation cache lookups by result",
			},
			[]string{"result"},
		),
		requests: NewRequestMetrics(),
	}

	var err error
	if r.executions, err = register(reg, r.executions); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.recommendations, err = register(reg, r.recommendations); err != nil {
		return nil, err
	}
	if r.cacheLookups, err = register(reg, r.cacheLookups); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

// ObserveUnit records one execution of a command or query.
func (r *Recorder) ObserveUnit(unitName string, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	name := sanitizeLabel(unitName)
	r.executions.WithLabelValues(name, status).Inc()
	r.duration.WithLabelValues(name).Observe(d.Seconds())
	r.requests.Record(unitName, d, err != nil)
}

func (r *Recorder) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveRecommendations(useCase string, count int) {
	r.recommendations.WithLabelValues(sanitizeLabel(strings.ToLower(useCase))).Observe(float64(count))
}

func (r *Recorder) Snapshot() RequestSnapshot {
	return r.requests.Snapshot()
}

func sanitizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return unknownLabel
	}
	if len(value) > maxLabelLength {
		return value[:maxLabelLength]
	}
	return value
}
