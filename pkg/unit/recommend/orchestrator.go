// Package recommend turns a use case and its constraints into a ranked
// shortlist of model versions paired with the cheapest hardware that
// serves them.
package recommend

//go:generate mockgen -source=orchestrator.go -destination=mocks_test.go -package=recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jguan/model-catalog/pkg/unit/benchmark"
	"github.com/jguan/model-catalog/pkg/unit/hardware"
	"github.com/jguan/model-catalog/pkg/unit/model"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
	"github.com/jguan/model-catalog/pkg/unit/ranking"
)

const (
	DefaultLimit          = 10
	MaxLimit              = 50
	DefaultMaxConcurrency = 4
	// WeightTolerance is the allowed deviation of request weights from 1.
	WeightTolerance = 1e-3
)

// ModelSource is the part of the model catalog the orchestrator reads.
type ModelSource interface {
	Get(ctx context.Context, id string) (*model.Model, error)
	Search(ctx context.Context, filter model.SearchFilter) ([]model.Model, error)
	SearchByUseCase(ctx context.Context, useCase string) ([]model.Model, error)
	ListVersions(ctx context.Context, modelID string) ([]model.Version, error)
	ListUseCases(ctx context.Context, modelID string) ([]model.UseCase, error)
}

// StatsSource provides aggregated benchmark statistics per version.
type StatsSource interface {
	AggregatedStats(ctx context.Context, versionID, workloadType string) (*benchmark.Stats, error)
}

type Option func(*Orchestrator)

// WithMaxConcurrency bounds concurrent store calls per request. Values
// below 1 are ignored.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrency = n
		}
	}
}

func WithMatcher(m *hardware.Matcher) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.matcher = m
		}
	}
}

// Orchestrator is safe for concurrent use; all per-request state is local
// to a call.
type Orchestrator struct {
	models         ModelSource
	stats          StatsSource
	matcher        *hardware.Matcher
	maxConcurrency int
}

func NewOrchestrator(models ModelSource, stats StatsSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		models:         models,
		stats:          stats,
		matcher:        hardware.NewMatcher(),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// candidate is one (model, version) pair flowing through the pipeline.
type candidate struct {
	model   model.Model
	version model.Version
	stats   *benchmark.Stats
	vramGB  float64
	gpu     hardware.GPUConfig
}

// Recommend returns the ranked model cards for req.
func (o *Orchestrator) Recommend(ctx context.Context, req Request) ([]ModelCard, error) {
	rec, err := o.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	return rec.Recommendations, nil
}

// Evaluate runs the recommendation pipeline and reports the applied
// request alongside the cards.
//
// Versions without benchmarks, versions that violate a constraint and
// versions no GPU configuration can hold are dropped silently. The
// survivors are ranked with TOPSIS; ties keep (model id, version id) order.
func (o *Orchestrator) Evaluate(ctx context.Context, req Request) (*Recommendation, error) {
	if o.models == nil || o.stats == nil {
		return nil, ErrSourceNotSet
	}
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	rec := &Recommendation{
		UseCase:         req.UseCase,
		Recommendations: []ModelCard{},
		Constraints:     req.Constraints,
		Weights:         req.Weights,
	}

	candidates, err := o.collect(ctx, req.UseCase)
	if err != nil {
		return nil, err
	}

	rows := make([]candidate, 0, len(candidates))
	opts := o.matcher.DefaultOptions()
	opts.PreferSpot = req.Constraints.PreferSpot
	opts.MaxCostPerHour = req.Constraints.MaxCostPerHour
	for _, c := range candidates {
		if c.stats.TotalBenchmarks == 0 || !req.Constraints.admits(c.stats) {
			continue
		}

		vram, err := hardware.EstimateVRAM(c.model.Parameters, hardware.Quantization(c.version.Quantization), 1, hardware.DefaultSequenceLength)
		if err != nil {
			slog.Warn("skipping version without vram estimate",
				"model_id", c.model.ID, "version_id", c.version.ID,
				"quantization", c.version.Quantization, "error", err)
			continue
		}
		gpu, ok, err := o.matcher.Cheapest(vram, opts)
		if err != nil {
			return nil, fmt.Errorf("match hardware for %s: %w", c.version.ID, err)
		}
		if !ok {
			continue
		}
		c.vramGB, c.gpu = vram, gpu
		rows = append(rows, c)
	}

	rec.TotalCandidates = len(rows)
	if len(rows) == 0 {
		return rec, nil
	}

	cards, err := rank(rows, req.Weights)
	if err != nil {
		return nil, err
	}
	if len(cards) > req.Limit {
		cards = cards[:req.Limit]
	}
	rec.Recommendations = cards
	return rec, nil
}

func normalize(req Request) (Request, error) {
	req.UseCase = strings.TrimSpace(req.UseCase)
	if req.UseCase == "" {
		return req, fmt.Errorf("use_case is required: %w", ErrInvalidRequest)
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit < 1 || req.Limit > MaxLimit {
		return req, ErrInvalidRequest.WithDetails("limit", req.Limit)
	}
	if req.Weights == (Weights{}) {
		req.Weights = DefaultWeights()
	}
	if !req.Weights.valid() {
		return req, ErrInvalidWeights.WithDetails("sum", req.Weights.Sum())
	}
	return req, nil
}

// collect lists every version of every candidate model with its stats,
// ordered by model id then version id.
func (o *Orchestrator) collect(ctx context.Context, useCase string) ([]candidate, error) {
	models, err := o.models.SearchByUseCase(ctx, useCase)
	if err != nil {
		return nil, fmt.Errorf("search models for %s: %w", useCase, err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	versions := make([][]model.Version, len(models))
	err = o.fanOut(ctx, len(models), func(ctx context.Context, i int) error {
		vs, err := o.models.ListVersions(ctx, models[i].ID)
		if err != nil {
			return fmt.Errorf("list versions of %s: %w", models[i].ID, err)
		}
		sort.Slice(vs, func(a, b int) bool { return vs[a].ID < vs[b].ID })
		versions[i] = vs
		return nil
	})
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	for i, m := range models {
		for _, v := range versions[i] {
			candidates = append(candidates, candidate{model: m, version: v})
		}
	}

	err = o.fanOut(ctx, len(candidates), func(ctx context.Context, i int) error {
		stats, err := o.stats.AggregatedStats(ctx, candidates[i].version.ID, "")
		if err != nil {
			return fmt.Errorf("aggregate stats of %s: %w", candidates[i].version.ID, err)
		}
		if stats == nil {
			stats = &benchmark.Stats{}
		}
		candidates[i].stats = stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// fanOut runs fn for 0..n-1 with at most maxConcurrency calls in flight.
// Each call writes only its own slot, so results never depend on
// completion order.
func (o *Orchestrator) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)
	for i := range n {
		g.Go(func() error { return fn(gctx, i) })
	}
	return g.Wait()
}

func rank(rows []candidate, weights Weights) ([]ModelCard, error) {
	table := ranking.NewDecisionTable(CriterionAccuracy, CriterionLatency, CriterionThroughput, CriterionCost)
	for i, c := range rows {
		err := table.Add(strconv.Itoa(i), map[string]float64{
			CriterionAccuracy:   ptrs.Deref(c.stats.AvgAccuracy, 0),
			CriterionLatency:    ptrs.Deref(c.stats.AvgTTFTP90Ms, 0),
			CriterionThroughput: ptrs.Deref(c.stats.AvgThroughput, 0),
			CriterionCost:       c.gpu.CostPerHourUSD,
		})
		if err != nil {
			return nil, err
		}
	}

	result, err := ranking.Rank(table, weights.Map(), benefitCriteria, costCriteria)
	if err != nil {
		return nil, fmt.Errorf("rank candidates: %w", err)
	}

	scores := result.Sorted()
	cards := make([]ModelCard, 0, len(scores))
	for _, s := range scores {
		i, err := strconv.Atoi(s.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected row id %q: %w", s.ID, err)
		}
		c := rows[i]
		cards = append(cards, ModelCard{
			ModelID:           c.model.ID,
			ModelName:         c.model.Name,
			Architecture:      c.model.Architecture,
			Parameters:        c.model.Parameters,
			VersionID:         c.version.ID,
			Quantization:      c.version.Quantization,
			AvgAccuracy:       c.stats.AvgAccuracy,
			AvgLatencyP90Ms:   c.stats.AvgTTFTP90Ms,
			AvgThroughput:     c.stats.AvgThroughput,
			VRAMRequirementGB: c.vramGB,
			RecommendedGPU:    gpuFrom(c.gpu),
			TOPSISScore:       s.Score,
			Rank:              s.Rank,
		})
	}
	return cards, nil
}
