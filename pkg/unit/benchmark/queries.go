package benchmark

import (
	"context"
	"fmt"

	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func versionIDField() unit.Field {
	return unit.Field{
		Name:   "model_version_id",
		Schema: unit.Schema{Type: "string", Description: "Model version ID", MinLength: ptrs.Int(1)},
	}
}

func requireVersionID(input any) (map[string]any, string, error) {
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, "", fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidInput)
	}
	id := unit.GetString(m, "model_version_id")
	if id == "" {
		return nil, "", fmt.Errorf("model_version_id is required: %w", ErrInvalidInput)
	}
	return m, id, nil
}

type GetQuery struct {
	store BenchmarkStore
}

func NewGetQuery(store BenchmarkStore) *GetQuery {
	return &GetQuery{store: store}
}

func (q *GetQuery) Name() string        { return "benchmark.get" }
func (q *GetQuery) Domain() string      { return "benchmark" }
func (q *GetQuery) Description() string { return "Get a benchmark result by ID" }

func (q *GetQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"benchmark_id": {Name: "benchmark_id", Schema: unit.Schema{Type: "string", MinLength: ptrs.Int(1)}},
		},
		Required: []string{"benchmark_id"},
	}
}

func (q *GetQuery) OutputSchema() unit.Schema {
	return unit.Schema{Type: "object"}
}

func (q *GetQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"benchmark_id": "bench-9c0d1e2f"},
			Output: map[string]any{"id": "bench-9c0d1e2f", "workload_type": "chatbot", "ttft_p90_ms": 120.0},
		},
	}
}

func (q *GetQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidInput)
	}
	id := unit.GetString(m, "benchmark_id")
	if id == "" {
		return nil, fmt.Errorf("benchmark_id is required: %w", ErrInvalidInput)
	}
	r, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get benchmark %s: %w", id, err)
	}
	return r, nil
}

// ListQuery lists a version's results newest first, optionally narrowed
// by workload, GPU and SLA thresholds.
type ListQuery struct {
	store BenchmarkStore
}

func NewListQuery(store BenchmarkStore) *ListQuery {
	return &ListQuery{store: store}
}

func (q *ListQuery) Name() string        { return "benchmark.list" }
func (q *ListQuery) Domain() string      { return "benchmark" }
func (q *ListQuery) Description() string { return "List benchmark results of a model version" }

func (q *ListQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"model_version_id": versionIDField(),
			"workload_type":    {Name: "workload_type", Schema: unit.Schema{Type: "string"}},
			"gpu_type":         {Name: "gpu_type", Schema: unit.Schema{Type: "string"}},
			"max_ttft_p90_ms":  {Name: "max_ttft_p90_ms", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)}},
			"min_throughput":   {Name: "min_throughput", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)}},
			"limit": {
				Name:   "limit",
				Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(1), Max: ptrs.Float64(maxListLimit), Default: defaultListLimit},
			},
			"offset": {Name: "offset", Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(0)}},
		},
		Required: []string{"model_version_id"},
	}
}

func (q *ListQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"items": {Name: "items", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
			"total": {Name: "total", Schema: unit.Schema{Type: "integer"}},
		},
	}
}

func (q *ListQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"model_version_id": "ver-5e6f7a8b", "max_ttft_p90_ms": 200},
			Output: map[string]any{"items": []map[string]any{{"id": "bench-9c0d1e2f"}}, "total": 1},
		},
	}
}

func (q *ListQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, versionID, err := requireVersionID(input)
	if err != nil {
		return nil, err
	}

	filter := Filter{
		ModelVersionID: versionID,
		WorkloadType:   unit.GetString(m, "workload_type"),
		GPUType:        unit.GetString(m, "gpu_type"),
		Limit:          defaultListLimit,
	}
	if filter.MaxTTFTP90Ms, err = unit.GetOptionalFloat64(m, "max_ttft_p90_ms"); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if filter.MinThroughput, err = unit.GetOptionalFloat64(m, "min_throughput"); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	if limit, ok := unit.GetInt(m, "limit"); ok && limit > 0 {
		filter.Limit = min(limit, maxListLimit)
	}
	if offset, ok := unit.GetInt(m, "offset"); ok && offset > 0 {
		filter.Offset = offset
	}

	items, total, err := q.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list benchmarks of %s: %w", versionID, err)
	}
	return map[string]any{"items": items, "total": total}, nil
}

type StatsQuery struct {
	store BenchmarkStore
}

func NewStatsQuery(store BenchmarkStore) *StatsQuery {
	return &StatsQuery{store: store}
}

func (q *StatsQuery) Name() string        { return "benchmark.stats" }
func (q *StatsQuery) Domain() string      { return "benchmark" }
func (q *StatsQuery) Description() string { return "Aggregate benchmark statistics of a model version" }

func (q *StatsQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"model_version_id": versionIDField(),
			"workload_type":    {Name: "workload_type", Schema: unit.Schema{Type: "string"}},
		},
		Required: []string{"model_version_id"},
	}
}

func (q *StatsQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"total_benchmarks": {Name: "total_benchmarks", Schema: unit.Schema{Type: "integer"}},
			"avg_ttft_p90_ms":  {Name: "avg_ttft_p90_ms", Schema: unit.Schema{Type: "number"}},
			"avg_throughput":   {Name: "avg_throughput", Schema: unit.Schema{Type: "number"}},
			"avg_accuracy":     {Name: "avg_accuracy", Schema: unit.Schema{Type: "number"}},
		},
	}
}

func (q *StatsQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"model_version_id": "ver-5e6f7a8b", "workload_type": "chatbot"},
			Output: map[string]any{"total_benchmarks": 25, "avg_ttft_p90_ms": 125.5, "avg_throughput": 445.3, "avg_accuracy": 0.84},
		},
	}
}

func (q *StatsQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, versionID, err := requireVersionID(input)
	if err != nil {
		return nil, err
	}
	stats, err := q.store.AggregatedStats(ctx, versionID, unit.GetString(m, "workload_type"))
	if err != nil {
		return nil, fmt.Errorf("aggregate benchmarks of %s: %w", versionID, err)
	}
	return stats, nil
}
