package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jguan/model-catalog/pkg/infra/cache"
	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/model"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

const (
	EventTypeCompleted = "recommend.completed"

	CachePrefix     = "recommendations"
	DefaultCacheTTL = 300 * time.Second
)

// Observer is told about cache lookups and result sizes, e.g. to export
// metrics.
type Observer interface {
	ObserveCacheLookup(hit bool)
	ObserveRecommendations(useCase string, count int)
}

type QueryOption func(*ModelsQuery)

// WithCache serves repeated requests from c for ttl. A zero ttl selects
// DefaultCacheTTL.
func WithCache(c cache.Cache, ttl time.Duration) QueryOption {
	return func(q *ModelsQuery) {
		q.cache = c
		q.ttl = ttl
		if q.ttl <= 0 {
			q.ttl = DefaultCacheTTL
		}
	}
}

func WithEvents(events unit.EventPublisher) QueryOption {
	return func(q *ModelsQuery) { q.events = events }
}

func WithObserver(o Observer) QueryOption {
	return func(q *ModelsQuery) { q.observer = o }
}

// ModelsQuery is recommend.models, the orchestrator behind an optional
// result cache keyed by the request fingerprint.
type ModelsQuery struct {
	orch     *Orchestrator
	cache    cache.Cache
	ttl      time.Duration
	events   unit.EventPublisher
	observer Observer
}

func NewModelsQuery(orch *Orchestrator, opts ...QueryOption) *ModelsQuery {
	q := &ModelsQuery{orch: orch, ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *ModelsQuery) Name() string   { return "recommend.models" }
func (q *ModelsQuery) Domain() string { return "recommend" }
func (q *ModelsQuery) Description() string {
	return "Rank model versions and matching GPUs for a use case with TOPSIS"
}

func weightField(name string, def float64) unit.Field {
	return unit.Field{
		Name:   name,
		Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0), Max: ptrs.Float64(1), Default: def},
	}
}

func (q *ModelsQuery) InputSchema() unit.Schema {
	d := DefaultWeights()
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"use_case": {
				Name:   "use_case",
				Schema: unit.Schema{Type: "string", Description: "Use-case category or subcategory", MinLength: ptrs.Int(1), MaxLength: ptrs.Int(100)},
			},
			"max_latency_p90_ms": {Name: "max_latency_p90_ms", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)}},
			"min_throughput":     {Name: "min_throughput", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)}},
			"min_accuracy":       {Name: "min_accuracy", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0), Max: ptrs.Float64(1)}},
			"max_cost_per_hour":  {Name: "max_cost_per_hour", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)}},
			"prefer_spot_instances": {
				Name:   "prefer_spot_instances",
				Schema: unit.Schema{Type: "boolean", Default: true},
			},
			"weight_accuracy":   weightField("weight_accuracy", d.Accuracy),
			"weight_latency":    weightField("weight_latency", d.Latency),
			"weight_throughput": weightField("weight_throughput", d.Throughput),
			"weight_cost":       weightField("weight_cost", d.Cost),
			"limit": {
				Name:   "limit",
				Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(1), Max: ptrs.Float64(MaxLimit), Default: DefaultLimit},
			},
		},
		Required: []string{"use_case"},
	}
}

func (q *ModelsQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"use_case":         {Name: "use_case", Schema: unit.Schema{Type: "string"}},
			"total_candidates": {Name: "total_candidates", Schema: unit.Schema{Type: "integer"}},
			"recommendations":  {Name: "recommendations", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
			"constraints":      {Name: "constraints", Schema: unit.Schema{Type: "object"}},
			"weights":          {Name: "weights", Schema: unit.Schema{Type: "object"}},
		},
	}
}

func (q *ModelsQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{
				"use_case":           "chatbot",
				"max_latency_p90_ms": 300,
				"min_accuracy":       0.8,
				"max_cost_per_hour":  5.0,
				"limit":              5,
			},
			Output: map[string]any{
				"use_case":         "chatbot",
				"total_candidates": 1,
				"recommendations": []map[string]any{{
					"model_name":   "llama-3-8b",
					"quantization": "fp16",
					"recommended_gpu": map[string]any{
						"gpu_type": "L4", "count": 1, "total_vram_gb": 24, "cost_per_hour_usd": 0.12, "spot_available": true,
					},
					"topsis_score": 0.5,
					"rank":         1,
				}},
			},
			Description: "Chatbot models under 300ms p90 and $5/hour",
		},
	}
}

func (q *ModelsQuery) Execute(ctx context.Context, input any) (any, error) {
	ec := unit.NewExecutionContext(q.events, q.Domain(), q.Name())
	ec.PublishStarted(input)

	rec, cached, err := q.execute(ctx, input)
	if err != nil {
		ec.PublishFailed(err)
		return nil, err
	}

	if q.observer != nil {
		q.observer.ObserveRecommendations(rec.UseCase, len(rec.Recommendations))
	}
	if q.events != nil {
		event := unit.NewDomainEvent(q.Domain(), EventTypeCompleted, map[string]any{
			"use_case":         rec.UseCase,
			"total_candidates": rec.TotalCandidates,
			"returned":         len(rec.Recommendations),
			"cached":           cached,
		})
		if err := q.events.Publish(event); err != nil {
			slog.Warn("failed to publish event", "type", EventTypeCompleted, "error", err)
		}
	}
	ec.PublishCompleted(rec)
	return rec, nil
}

func (q *ModelsQuery) execute(ctx context.Context, input any) (*Recommendation, bool, error) {
	if q.orch == nil {
		return nil, false, ErrSourceNotSet
	}
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, false, fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidRequest)
	}
	req, err := ParseRequest(m)
	if err != nil {
		return nil, false, err
	}

	var key string
	if q.cache != nil {
		key, err = cache.Fingerprint(CachePrefix, req)
		if err != nil {
			return nil, false, fmt.Errorf("fingerprint request: %w", err)
		}
		if v, hit := q.cache.Get(ctx, key); hit {
			if rec, ok := v.(*Recommendation); ok {
				q.observeCache(true)
				return rec, true, nil
			}
		}
		q.observeCache(false)
	}

	rec, err := q.orch.Evaluate(ctx, req)
	if err != nil {
		return nil, false, err
	}
	if q.cache != nil {
		q.cache.Set(ctx, key, rec, q.ttl)
	}
	return rec, false, nil
}

func (q *ModelsQuery) observeCache(hit bool) {
	if q.observer != nil {
		q.observer.ObserveCacheLookup(hit)
	}
}

// ParseRequest reads the flat recommend.models input shape. Missing
// weights take their default individually.
func ParseRequest(m map[string]any) (Request, error) {
	req := Request{
		UseCase: unit.GetString(m, "use_case"),
		Limit:   DefaultLimit,
		Weights: DefaultWeights(),
	}
	if req.UseCase == "" {
		return Request{}, fmt.Errorf("use_case is required: %w", ErrInvalidRequest)
	}

	if v, present := m["limit"]; present && v != nil {
		limit, ok := unit.GetInt(m, "limit")
		if !ok || limit < 1 || limit > MaxLimit {
			return Request{}, ErrInvalidRequest.WithDetails("limit", m["limit"])
		}
		req.Limit = limit
	}

	bounds := []struct {
		key      string
		dst      **float64
		positive bool
		max      float64
	}{
		{"max_latency_p90_ms", &req.Constraints.MaxLatencyP90Ms, true, 0},
		{"min_throughput", &req.Constraints.MinThroughput, true, 0},
		{"min_accuracy", &req.Constraints.MinAccuracy, false, 1},
		{"max_cost_per_hour", &req.Constraints.MaxCostPerHour, true, 0},
	}
	for _, b := range bounds {
		v, err := unit.GetOptionalFloat64(m, b.key)
		if err != nil {
			return Request{}, fmt.Errorf("%v: %w", err, ErrInvalidRequest)
		}
		if v == nil {
			continue
		}
		if (b.positive && *v <= 0) || *v < 0 || (b.max > 0 && *v > b.max) {
			return Request{}, ErrInvalidRequest.WithDetails(b.key, *v)
		}
		*b.dst = v
	}
	req.Constraints.PreferSpot = unit.GetBool(m, "prefer_spot_instances", true)

	weights := []struct {
		key string
		dst *float64
	}{
		{"weight_accuracy", &req.Weights.Accuracy},
		{"weight_latency", &req.Weights.Latency},
		{"weight_throughput", &req.Weights.Throughput},
		{"weight_cost", &req.Weights.Cost},
	}
	for _, w := range weights {
		v, err := unit.GetOptionalFloat64(m, w.key)
		if err != nil {
			return Request{}, fmt.Errorf("%v: %w", err, ErrInvalidWeights)
		}
		if v != nil {
			*w.dst = *v
		}
	}
	if !req.Weights.valid() {
		return Request{}, ErrInvalidWeights.WithDetails("sum", req.Weights.Sum())
	}
	return req, nil
}

type DetailsQuery struct {
	orch *Orchestrator
}

func NewDetailsQuery(orch *Orchestrator) *DetailsQuery {
	return &DetailsQuery{orch: orch}
}

func (q *DetailsQuery) Name() string   { return "recommend.model_details" }
func (q *DetailsQuery) Domain() string { return "recommend" }
func (q *DetailsQuery) Description() string {
	return "Describe a model with benchmark stats and GPU options per version"
}

func (q *DetailsQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"model_id": {Name: "model_id", Schema: unit.Schema{Type: "string", MinLength: ptrs.Int(1)}},
		},
		Required: []string{"model_id"},
	}
}

func (q *DetailsQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"avg_accuracy":       {Name: "avg_accuracy", Schema: unit.Schema{Type: "number"}},
			"avg_throughput":     {Name: "avg_throughput", Schema: unit.Schema{Type: "number"}},
			"avg_latency_p90_ms": {Name: "avg_latency_p90_ms", Schema: unit.Schema{Type: "number"}},
			"versions":           {Name: "versions", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
			"use_cases":          {Name: "use_cases", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
		},
	}
}

func (q *DetailsQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{"model_id": "model-1a2b3c4d"},
			Output: map[string]any{
				"name":         "llama-3-8b",
				"avg_accuracy": 0.84,
				"versions":     []map[string]any{{"quantization": "fp16", "vram_requirement_gb": 19.27}},
			},
		},
	}
}

func (q *DetailsQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.orch == nil {
		return nil, ErrSourceNotSet
	}
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidRequest)
	}
	id := unit.GetString(m, "model_id")
	if id == "" {
		return nil, fmt.Errorf("model_id is required: %w", ErrInvalidRequest)
	}
	return q.orch.Details(ctx, id)
}

type SearchQuery struct {
	orch *Orchestrator
}

func NewSearchQuery(orch *Orchestrator) *SearchQuery {
	return &SearchQuery{orch: orch}
}

func (q *SearchQuery) Name() string   { return "recommend.search" }
func (q *SearchQuery) Domain() string { return "recommend" }
func (q *SearchQuery) Description() string {
	return "Search models and show the newest version's benchmark averages"
}

func (q *SearchQuery) InputSchema() unit.Schema {
	// same filter shape as model.search
	return model.NewSearchQuery(nil).InputSchema()
}

func (q *SearchQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"results": {Name: "results", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
			"total":   {Name: "total", Schema: unit.Schema{Type: "integer"}},
		},
	}
}

func (q *SearchQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{"query": "llama", "limit": 5},
			Output: map[string]any{
				"results": []map[string]any{{"name": "llama-3-8b", "version_count": 2, "avg_accuracy": 0.84}},
				"total":   1,
			},
		},
	}
}

func (q *SearchQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.orch == nil {
		return nil, ErrSourceNotSet
	}
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidRequest)
	}
	filter, err := model.ParseSearchFilter(m)
	if err != nil {
		return nil, err
	}
	hits, err := q.orch.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": hits, "total": len(hits)}, nil
}
