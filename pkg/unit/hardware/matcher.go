package hardware

import (
	"fmt"
	"math"
	"sort"
)

var defaultCatalog = []CatalogEntry{
	{GPUType: "L4", VRAMPerGPUGB: 24, CostPerHour: 0.50, SpotAvailable: true},
	{GPUType: "A100-40GB", VRAMPerGPUGB: 40, CostPerHour: 1.20, SpotAvailable: true},
	{GPUType: "A100-80GB", VRAMPerGPUGB: 80, CostPerHour: 2.40, SpotAvailable: true},
	{GPUType: "H100", VRAMPerGPUGB: 80, CostPerHour: 4.00, SpotAvailable: true},
	{GPUType: "V100", VRAMPerGPUGB: 16, CostPerHour: 0.80, SpotAvailable: false},
}

// Catalog returns a copy of the built-in GPU catalog.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

type MatcherOption func(*Matcher)

// WithStrictSpot controls whether PreferSpot drops entries without spot
// capacity (true) or keeps them at on-demand price (false).
func WithStrictSpot(strict bool) MatcherOption {
	return func(m *Matcher) { m.strictSpot = strict }
}

func WithCatalog(entries []CatalogEntry) MatcherOption {
	return func(m *Matcher) {
		m.catalog = make([]CatalogEntry, len(entries))
		copy(m.catalog, entries)
	}
}

// Matcher searches the GPU catalog for configurations that hold a model.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	catalog    []CatalogEntry
	strictSpot bool
}

func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{catalog: defaultCatalog, strictSpot: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultOptions prefers spot capacity and applies the matcher's strictness.
func (m *Matcher) DefaultOptions() RecommendOptions {
	return RecommendOptions{PreferSpot: true, StrictSpot: m.strictSpot}
}

func (m *Matcher) Entry(gpuType string) (CatalogEntry, bool) {
	for _, e := range m.catalog {
		if e.GPUType == gpuType {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

// Recommend lists feasible configurations ordered by cost per GB needed.
// For every catalog entry it probes the minimum GPU count and up to two
// more, never exceeding MaxGPUCount. An empty result is not an error.
func (m *Matcher) Recommend(vramNeeded float64, opts RecommendOptions) ([]GPUConfig, error) {
	if vramNeeded <= 0 || math.IsNaN(vramNeeded) || math.IsInf(vramNeeded, 0) {
		return nil, fmt.Errorf("vram_needed must be positive, got %v: %w", vramNeeded, ErrInvalidInput)
	}

	configs := make([]GPUConfig, 0, len(m.catalog)*3)
	for _, e := range m.catalog {
		if opts.PreferSpot && opts.StrictSpot && !e.SpotAvailable {
			continue
		}

		minCount := int(math.Ceil(vramNeeded / e.VRAMPerGPUGB))
		maxCount := min(MaxGPUCount, minCount+2)
		for count := minCount; count <= maxCount; count++ {
			total := e.VRAMPerGPUGB * float64(count)

			cost := e.CostPerHour * float64(count)
			if e.SpotAvailable && opts.PreferSpot {
				cost *= spotPriceFactor
			}
			if opts.MaxCostPerHour != nil && cost > *opts.MaxCostPerHour {
				continue
			}

			configs = append(configs, GPUConfig{
				GPUType:        e.GPUType,
				Count:          count,
				VRAMPerGPUGB:   e.VRAMPerGPUGB,
				TotalVRAMGB:    total,
				UtilizationPct: round(vramNeeded/total*100, 1),
				CostPerHourUSD: round(cost, 2),
				SpotAvailable:  e.SpotAvailable,
			})
		}
	}

	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].CostPerHourUSD/vramNeeded < configs[j].CostPerHourUSD/vramNeeded
	})
	return configs, nil
}

// Cheapest returns the first configuration Recommend would return.
func (m *Matcher) Cheapest(vramNeeded float64, opts RecommendOptions) (GPUConfig, bool, error) {
	configs, err := m.Recommend(vramNeeded, opts)
	if err != nil {
		return GPUConfig{}, false, err
	}
	if len(configs) == 0 {
		return GPUConfig{}, false, nil
	}
	return configs[0], true, nil
}

// SpotSavings compares on-demand and spot pricing for count GPUs of
// gpuType. Entries without spot capacity report zero savings.
func (m *Matcher) SpotSavings(gpuType string, count int) (SpotSavings, error) {
	e, ok := m.Entry(gpuType)
	if !ok {
		return SpotSavings{}, ErrGPUTypeNotFound.WithDetails("gpu_type", gpuType)
	}
	if count < 1 {
		return SpotSavings{}, fmt.Errorf("count must be at least 1, got %d: %w", count, ErrInvalidInput)
	}

	onDemand := e.CostPerHour * float64(count)
	s := SpotSavings{
		GPUType:          e.GPUType,
		Count:            count,
		OnDemandCostHour: round(onDemand, 2),
		SpotCostHour:     round(onDemand, 2),
	}
	if !e.SpotAvailable {
		return s, nil
	}

	spot := onDemand * spotPriceFactor
	s.SpotCostHour = round(spot, 2)
	s.SavingsPerHour = round(onDemand-spot, 2)
	s.SavingsPercent = (1 - spotPriceFactor) * 100
	return s, nil
}
