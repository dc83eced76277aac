package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/model"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

const EventTypeRecorded = "benchmark.recorded"

const (
	defaultBatchSize      = 1
	defaultSequenceLength = 2048
)

// VersionLookup resolves the model version a result belongs to.
type VersionLookup interface {
	GetVersion(ctx context.Context, id string) (*model.Version, error)
}

// metricBounds lists every numeric metric with its inclusive upper bound;
// zero means unbounded.
var metricBounds = []struct {
	key   string
	upper float64
	set   func(r *Result, v *float64)
}{
	{"ttft_p50_ms", 0, func(r *Result, v *float64) { r.TTFTP50Ms = v }},
	{"ttft_p90_ms", 0, func(r *Result, v *float64) { r.TTFTP90Ms = v }},
	{"ttft_p99_ms", 0, func(r *Result, v *float64) { r.TTFTP99Ms = v }},
	{"tpot_p50_ms", 0, func(r *Result, v *float64) { r.TPOTP50Ms = v }},
	{"tpot_p90_ms", 0, func(r *Result, v *float64) { r.TPOTP90Ms = v }},
	{"tpot_p99_ms", 0, func(r *Result, v *float64) { r.TPOTP99Ms = v }},
	{"throughput_tokens_sec", 0, func(r *Result, v *float64) { r.ThroughputTokensSec = v }},
	{"rps_sustained", 0, func(r *Result, v *float64) { r.RequestsPerSec = v }},
	{"accuracy_score", 1, func(r *Result, v *float64) { r.AccuracyScore = v }},
	{"gpu_utilization_pct", 100, func(r *Result, v *float64) { r.GPUUtilizationPct = v }},
	{"memory_used_gb", 0, func(r *Result, v *float64) { r.MemoryUsedGB = v }},
}

type RecordCommand struct {
	store    BenchmarkStore
	versions VersionLookup
	events   unit.EventPublisher
}

// NewRecordCommand builds benchmark.record. versions may be nil, in which
// case the version id is not checked.
func NewRecordCommand(store BenchmarkStore, versions VersionLookup) *RecordCommand {
	return &RecordCommand{store: store, versions: versions}
}

func NewRecordCommandWithEvents(store BenchmarkStore, versions VersionLookup, events unit.EventPublisher) *RecordCommand {
	return &RecordCommand{store: store, versions: versions, events: events}
}

func (c *RecordCommand) Name() string        { return "benchmark.record" }
func (c *RecordCommand) Domain() string      { return "benchmark" }
func (c *RecordCommand) Description() string { return "Record a benchmark result for a model version" }

func (c *RecordCommand) InputSchema() unit.Schema {
	props := map[string]unit.Field{
		"id":               {Name: "id", Schema: unit.Schema{Type: "string"}},
		"model_version_id": {Name: "model_version_id", Schema: unit.Schema{Type: "string", MinLength: ptrs.Int(1)}},
		"workload_type": {
			Name:   "workload_type",
			Schema: unit.Schema{Type: "string", Description: "chatbot, summarization, code_generation, ...", MinLength: ptrs.Int(1)},
		},
		"batch_size":      {Name: "batch_size", Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(1), Default: defaultBatchSize}},
		"sequence_length": {Name: "sequence_length", Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(1), Default: defaultSequenceLength}},
		"gpu_type":        {Name: "gpu_type", Schema: unit.Schema{Type: "string"}},
		"framework":       {Name: "framework", Schema: unit.Schema{Type: "string", Description: "Inference framework, e.g. vllm"}},
		"created_at":      {Name: "created_at", Schema: unit.Schema{Type: "integer", Description: "Unix seconds; defaults to now"}},
	}
	for _, m := range metricBounds {
		s := unit.Schema{Type: "number", Min: ptrs.Float64(0)}
		if m.upper > 0 {
			s.Max = ptrs.Float64(m.upper)
		}
		props[m.key] = unit.Field{Name: m.key, Schema: s}
	}
	return unit.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"model_version_id", "workload_type"},
	}
}

func (c *RecordCommand) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"benchmark_id": {Name: "benchmark_id", Schema: unit.Schema{Type: "string"}},
		},
	}
}

func (c *RecordCommand) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{
				"model_version_id":      "ver-5e6f7a8b",
				"workload_type":         "chatbot",
				"gpu_type":              "A100-80GB",
				"ttft_p90_ms":           120.0,
				"throughput_tokens_sec": 450.0,
				"accuracy_score":        0.85,
			},
			Output:      map[string]any{"benchmark_id": "bench-9c0d1e2f"},
			Description: "Record a chatbot run on an A100",
		},
	}
}

func (c *RecordCommand) Execute(ctx context.Context, input any) (any, error) {
	if c.store == nil {
		return nil, ErrStoreNotSet
	}
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidInput)
	}

	r, err := parseResult(m)
	if err != nil {
		return nil, err
	}

	if c.versions != nil {
		if _, err := c.versions.GetVersion(ctx, r.ModelVersionID); err != nil {
			return nil, fmt.Errorf("resolve version %s: %w", r.ModelVersionID, err)
		}
	}

	if err := c.store.Record(ctx, r); err != nil {
		return nil, fmt.Errorf("record benchmark: %w", err)
	}

	if c.events != nil {
		event := unit.NewDomainEvent(c.Domain(), EventTypeRecorded, map[string]any{
			"benchmark_id":     r.ID,
			"model_version_id": r.ModelVersionID,
			"workload_type":    r.WorkloadType,
		})
		if err := c.events.Publish(event); err != nil {
			slog.Warn("failed to publish event", "type", EventTypeRecorded, "error", err)
		}
	}

	return map[string]any{"benchmark_id": r.ID}, nil
}

func parseResult(m map[string]any) (*Result, error) {
	versionID := strings.TrimSpace(unit.GetString(m, "model_version_id"))
	if versionID == "" {
		return nil, fmt.Errorf("model_version_id is required: %w", ErrInvalidInput)
	}
	workload := strings.TrimSpace(unit.GetString(m, "workload_type"))
	if workload == "" {
		return nil, fmt.Errorf("workload_type is required: %w", ErrInvalidInput)
	}

	r := &Result{
		ID:             unit.GetString(m, "id"),
		ModelVersionID: versionID,
		WorkloadType:   workload,
		BatchSize:      defaultBatchSize,
		SequenceLength: defaultSequenceLength,
		GPUType:        unit.GetString(m, "gpu_type"),
		Framework:      unit.GetString(m, "framework"),
		CreatedAt:      time.Now().Unix(),
	}
	if r.ID == "" {
		r.ID = "bench-" + uuid.New().String()[:8]
	}
	if ts, ok := unit.GetInt64(m, "created_at"); ok && ts > 0 {
		r.CreatedAt = ts
	}

	if _, present := m["batch_size"]; present {
		n, ok := unit.GetInt(m, "batch_size")
		if !ok || n < 1 {
			return nil, fmt.Errorf("batch_size must be a positive integer: %w", ErrBenchmarkInvalid)
		}
		r.BatchSize = n
	}
	if _, present := m["sequence_length"]; present {
		n, ok := unit.GetInt(m, "sequence_length")
		if !ok || n < 1 {
			return nil, fmt.Errorf("sequence_length must be a positive integer: %w", ErrBenchmarkInvalid)
		}
		r.SequenceLength = n
	}

	for _, mb := range metricBounds {
		v, err := unit.GetOptionalFloat64(m, mb.key)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrBenchmarkInvalid)
		}
		if v == nil {
			continue
		}
		if *v < 0 || (mb.upper > 0 && *v > mb.upper) {
			return nil, ErrBenchmarkInvalid.WithDetails(mb.key, *v)
		}
		mb.set(r, v)
	}
	return r, nil
}
