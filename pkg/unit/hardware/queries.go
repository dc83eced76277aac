package hardware

import (
	"context"
	"fmt"

	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

func quantizationEnum() []any {
	out := make([]any, 0, len(supportedQuantizations))
	for _, q := range supportedQuantizations {
		out = append(out, string(q))
	}
	return out
}

func parametersField() unit.Field {
	return unit.Field{
		Name: "parameters",
		Schema: unit.Schema{
			Type:        "number",
			Description: "Parameter count, e.g. 7000000000 for a 7B model",
			Min:         ptrs.Float64(1),
		},
	}
}

func quantizationField() unit.Field {
	return unit.Field{
		Name: "quantization",
		Schema: unit.Schema{
			Type:        "string",
			Description: "Quantization scheme",
			Enum:        quantizationEnum(),
		},
	}
}

func sequenceLengthField() unit.Field {
	return unit.Field{
		Name: "sequence_length",
		Schema: unit.Schema{
			Type:    "integer",
			Min:     ptrs.Float64(1),
			Default: DefaultSequenceLength,
		},
	}
}

func parseParameters(m map[string]any) (int64, error) {
	p, ok := unit.GetInt64(m, "parameters")
	if !ok || p <= 0 {
		return 0, fmt.Errorf("parameters must be a positive integer: %w", ErrInvalidInput)
	}
	return p, nil
}

func parseSequenceLength(m map[string]any) (int, error) {
	if _, exists := m["sequence_length"]; !exists {
		return DefaultSequenceLength, nil
	}
	seq, ok := unit.GetInt(m, "sequence_length")
	if !ok {
		return 0, fmt.Errorf("sequence_length must be an integer: %w", ErrInvalidInput)
	}
	return seq, nil
}

func inputMap(input any) (map[string]any, error) {
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidInput)
	}
	return m, nil
}

// VRAMEstimateQuery estimates serving memory for one model configuration.
type VRAMEstimateQuery struct {
	events unit.EventPublisher
}

func NewVRAMEstimateQuery() *VRAMEstimateQuery {
	return &VRAMEstimateQuery{}
}

func NewVRAMEstimateQueryWithEvents(events unit.EventPublisher) *VRAMEstimateQuery {
	return &VRAMEstimateQuery{events: events}
}

func (q *VRAMEstimateQuery) Name() string        { return "hardware.vram_estimate" }
func (q *VRAMEstimateQuery) Domain() string      { return "hardware" }
func (q *VRAMEstimateQuery) Description() string { return "Estimate VRAM needed to serve a model" }

func (q *VRAMEstimateQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"parameters":   parametersField(),
			"quantization": quantizationField(),
			"batch_size": {
				Name: "batch_size",
				Schema: unit.Schema{
					Type:    "integer",
					Min:     ptrs.Float64(1),
					Default: 1,
				},
			},
			"sequence_length": sequenceLengthField(),
		},
		Required: []string{"parameters", "quantization"},
	}
}

func (q *VRAMEstimateQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"vram_gb":      {Name: "vram_gb", Schema: unit.Schema{Type: "number"}},
			"parameters":   {Name: "parameters", Schema: unit.Schema{Type: "number"}},
			"quantization": {Name: "quantization", Schema: unit.Schema{Type: "string"}},
			"batch_size":   {Name: "batch_size", Schema: unit.Schema{Type: "integer"}},
		},
	}
}

func (q *VRAMEstimateQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:       map[string]any{"parameters": 7000000000, "quantization": "fp16"},
			Output:      map[string]any{"vram_gb": 16.8, "parameters": 7000000000, "quantization": "fp16", "batch_size": 1},
			Description: "7B model in fp16",
		},
	}
}

func (q *VRAMEstimateQuery) Execute(ctx context.Context, input any) (any, error) {
	ec := unit.NewExecutionContext(q.events, q.Domain(), q.Name())
	ec.PublishStarted(input)

	out, err := q.execute(input)
	if err != nil {
		ec.PublishFailed(err)
		return nil, err
	}
	ec.PublishCompleted(out)
	return out, nil
}

func (q *VRAMEstimateQuery) execute(input any) (map[string]any, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	params, err := parseParameters(m)
	if err != nil {
		return nil, err
	}
	batch := 1
	if _, exists := m["batch_size"]; exists {
		var ok bool
		if batch, ok = unit.GetInt(m, "batch_size"); !ok {
			return nil, fmt.Errorf("batch_size must be an integer: %w", ErrInvalidInput)
		}
	}
	seq, err := parseSequenceLength(m)
	if err != nil {
		return nil, err
	}
	quant := Quantization(unit.GetString(m, "quantization"))

	gb, err := EstimateVRAM(params, quant, batch, seq)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"vram_gb":      gb,
		"parameters":   params,
		"quantization": string(quant),
		"batch_size":   batch,
	}, nil
}

// VRAMCompareQuery compares batch-1 VRAM across common quantizations.
type VRAMCompareQuery struct{}

func NewVRAMCompareQuery() *VRAMCompareQuery { return &VRAMCompareQuery{} }

func (q *VRAMCompareQuery) Name() string   { return "hardware.vram_compare" }
func (q *VRAMCompareQuery) Domain() string { return "hardware" }
func (q *VRAMCompareQuery) Description() string {
	return "Compare VRAM requirements for fp32, fp16, int8 and int4"
}

func (q *VRAMCompareQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type:       "object",
		Properties: map[string]unit.Field{"parameters": parametersField()},
		Required:   []string{"parameters"},
	}
}

func (q *VRAMCompareQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"estimates": {Name: "estimates", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
		},
	}
}

func (q *VRAMCompareQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{"parameters": 7000000000},
			Output: map[string]any{"estimates": []map[string]any{
				{"quantization": "fp32", "vram_gb": 33.6},
				{"quantization": "fp16", "vram_gb": 16.8},
				{"quantization": "int8", "vram_gb": 8.4},
				{"quantization": "int4", "vram_gb": 4.2},
			}},
		},
	}
}

func (q *VRAMCompareQuery) Execute(ctx context.Context, input any) (any, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	params, err := parseParameters(m)
	if err != nil {
		return nil, err
	}
	estimates, err := CompareQuantizations(params)
	if err != nil {
		return nil, err
	}
	return map[string]any{"parameters": params, "estimates": estimates}, nil
}

// MaxBatchQuery finds the largest batch that fits a VRAM budget.
type MaxBatchQuery struct{}

func NewMaxBatchQuery() *MaxBatchQuery { return &MaxBatchQuery{} }

func (q *MaxBatchQuery) Name() string        { return "hardware.max_batch" }
func (q *MaxBatchQuery) Domain() string      { return "hardware" }
func (q *MaxBatchQuery) Description() string { return "Estimate the largest batch size that fits in VRAM" }

func (q *MaxBatchQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"parameters":   parametersField(),
			"quantization": quantizationField(),
			"available_vram_gb": {
				Name: "available_vram_gb",
				Schema: unit.Schema{
					Type:        "number",
					Description: "VRAM budget in GB",
					Min:         ptrs.Float64(0),
				},
			},
			"sequence_length": sequenceLengthField(),
		},
		Required: []string{"parameters", "quantization", "available_vram_gb"},
	}
}

func (q *MaxBatchQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"max_batch_size": {Name: "max_batch_size", Schema: unit.Schema{Type: "integer"}},
		},
	}
}

func (q *MaxBatchQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"parameters": 7000000000, "quantization": "fp16", "available_vram_gb": 19},
			Output: map[string]any{"max_batch_size": 2},
		},
	}
}

func (q *MaxBatchQuery) Execute(ctx context.Context, input any) (any, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	params, err := parseParameters(m)
	if err != nil {
		return nil, err
	}
	available, ok := unit.GetFloat64(m, "available_vram_gb")
	if !ok {
		return nil, fmt.Errorf("available_vram_gb is required: %w", ErrInvalidInput)
	}
	seq, err := parseSequenceLength(m)
	if err != nil {
		return nil, err
	}
	quant := Quantization(unit.GetString(m, "quantization"))

	batch, err := EstimateMaxBatchSize(params, quant, available, seq)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"max_batch_size":    batch,
		"available_vram_gb": available,
		"quantization":      string(quant),
	}, nil
}

// GPURecommendQuery ranks catalog configurations for a VRAM requirement.
type GPURecommendQuery struct {
	matcher *Matcher
	events  unit.EventPublisher
}

func NewGPURecommendQuery(matcher *Matcher) *GPURecommendQuery {
	return &GPURecommendQuery{matcher: matcher}
}

func NewGPURecommendQueryWithEvents(matcher *Matcher, events unit.EventPublisher) *GPURecommendQuery {
	return &GPURecommendQuery{matcher: matcher, events: events}
}

func (q *GPURecommendQuery) Name() string   { return "hardware.gpu_recommend" }
func (q *GPURecommendQuery) Domain() string { return "hardware" }
func (q *GPURecommendQuery) Description() string {
	return "Recommend GPU configurations for a VRAM requirement"
}

func (q *GPURecommendQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"vram_needed_gb": {
				Name:   "vram_needed_gb",
				Schema: unit.Schema{Type: "number", Description: "Required VRAM in GB"},
			},
			"prefer_spot": {
				Name:   "prefer_spot",
				Schema: unit.Schema{Type: "boolean", Default: true},
			},
			"max_cost_per_hour": {
				Name:   "max_cost_per_hour",
				Schema: unit.Schema{Type: "number", Description: "Hourly budget in USD", Min: ptrs.Float64(0)},
			},
			"limit": {
				Name:   "limit",
				Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(1)},
			},
		},
		Required: []string{"vram_needed_gb"},
	}
}

func (q *GPURecommendQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"configs": {
				Name:   "configs",
				Schema: unit.Schema{Type: "array", Description: "Configurations, cheapest per GB first", Items: &unit.Schema{Type: "object"}},
			},
			"total": {Name: "total", Schema: unit.Schema{Type: "integer"}},
		},
	}
}

func (q *GPURecommendQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{"vram_needed_gb": 20, "prefer_spot": true},
			Output: map[string]any{"configs": []map[string]any{
				{"gpu_type": "L4", "count": 1, "total_vram_gb": 24, "utilization_pct": 83.3, "cost_per_hour_usd": 0.12, "spot_available": true},
			}},
		},
	}
}

func (q *GPURecommendQuery) Execute(ctx context.Context, input any) (any, error) {
	ec := unit.NewExecutionContext(q.events, q.Domain(), q.Name())
	ec.PublishStarted(input)

	out, err := q.execute(input)
	if err != nil {
		ec.PublishFailed(err)
		return nil, err
	}
	ec.PublishCompleted(out)
	return out, nil
}

func (q *GPURecommendQuery) execute(input any) (map[string]any, error) {
	if q.matcher == nil {
		return nil, unit.ErrInternal.WithDetails("reason", "matcher not set")
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	need, ok := unit.GetFloat64(m, "vram_needed_gb")
	if !ok {
		return nil, fmt.Errorf("vram_needed_gb is required: %w", ErrInvalidInput)
	}

	opts := q.matcher.DefaultOptions()
	opts.PreferSpot = unit.GetBool(m, "prefer_spot", true)
	if opts.MaxCostPerHour, err = unit.GetOptionalFloat64(m, "max_cost_per_hour"); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}

	configs, err := q.matcher.Recommend(need, opts)
	if err != nil {
		return nil, err
	}
	total := len(configs)
	if limit, ok := unit.GetInt(m, "limit"); ok && limit > 0 && limit < len(configs) {
		configs = configs[:limit]
	}
	return map[string]any{"configs": configs, "total": total}, nil
}

// GPUCatalogQuery lists the built-in GPU catalog.
type GPUCatalogQuery struct {
	matcher *Matcher
}

func NewGPUCatalogQuery(matcher *Matcher) *GPUCatalogQuery {
	return &GPUCatalogQuery{matcher: matcher}
}

func (q *GPUCatalogQuery) Name() string        { return "hardware.gpu_catalog" }
func (q *GPUCatalogQuery) Domain() string      { return "hardware" }
func (q *GPUCatalogQuery) Description() string { return "List supported GPU types with price and spot availability" }

func (q *GPUCatalogQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"spot_only": {Name: "spot_only", Schema: unit.Schema{Type: "boolean"}},
		},
	}
}

func (q *GPUCatalogQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"gpus": {Name: "gpus", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
		},
	}
}

func (q *GPUCatalogQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{},
			Output: map[string]any{"gpus": []map[string]any{
				{"gpu_type": "L4", "vram_per_gpu_gb": 24, "cost_per_hour_usd": 0.5, "spot_available": true},
			}},
		},
	}
}

func (q *GPUCatalogQuery) Execute(ctx context.Context, input any) (any, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	entries := Catalog()
	if q.matcher != nil {
		entries = append([]CatalogEntry(nil), q.matcher.catalog...)
	}
	if unit.GetBool(m, "spot_only", false) {
		filtered := entries[:0]
		for _, e := range entries {
			if e.SpotAvailable {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	return map[string]any{"gpus": entries, "total": len(entries)}, nil
}

// SpotSavingsQuery reports what spot capacity saves for a configuration.
type SpotSavingsQuery struct {
	matcher *Matcher
}

func NewSpotSavingsQuery(matcher *Matcher) *SpotSavingsQuery {
	return &SpotSavingsQuery{matcher: matcher}
}

func (q *SpotSavingsQuery) Name() string        { return "hardware.spot_savings" }
func (q *SpotSavingsQuery) Domain() string      { return "hardware" }
func (q *SpotSavingsQuery) Description() string { return "Compare on-demand and spot cost for a GPU configuration" }

func (q *SpotSavingsQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"gpu_type": {Name: "gpu_type", Schema: unit.Schema{Type: "string"}},
			"count":    {Name: "count", Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(1), Default: 1}},
		},
		Required: []string{"gpu_type"},
	}
}

func (q *SpotSavingsQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"on_demand_cost_per_hour": {Name: "on_demand_cost_per_hour", Schema: unit.Schema{Type: "number"}},
			"spot_cost_per_hour":      {Name: "spot_cost_per_hour", Schema: unit.Schema{Type: "number"}},
			"savings_per_hour":        {Name: "savings_per_hour", Schema: unit.Schema{Type: "number"}},
			"savings_percent":         {Name: "savings_percent", Schema: unit.Schema{Type: "number"}},
		},
	}
}

func (q *SpotSavingsQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"gpu_type": "A100-80GB", "count": 2},
			Output: map[string]any{"on_demand_cost_per_hour": 4.8, "spot_cost_per_hour": 1.2, "savings_per_hour": 3.6, "savings_percent": 75},
		},
	}
}

func (q *SpotSavingsQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.matcher == nil {
		return nil, unit.ErrInternal.WithDetails("reason", "matcher not set")
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	gpuType := unit.GetString(m, "gpu_type")
	if gpuType == "" {
		return nil, fmt.Errorf("gpu_type is required: %w", ErrInvalidInput)
	}
	count := 1
	if _, exists := m["count"]; exists {
		var ok bool
		if count, ok = unit.GetInt(m, "count"); !ok {
			return nil, fmt.Errorf("count must be an integer: %w", ErrInvalidInput)
		}
	}
	savings, err := q.matcher.SpotSavings(gpuType, count)
	if err != nil {
		return nil, err
	}
	return savings, nil
}
