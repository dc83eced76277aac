// Package registry wires every catalog unit into a unit.Registry.
package registry

import (
	"fmt"
	"time"

	"github.com/jguan/model-catalog/pkg/infra/cache"
	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/benchmark"
	"github.com/jguan/model-catalog/pkg/unit/hardware"
	"github.com/jguan/model-catalog/pkg/unit/model"
	"github.com/jguan/model-catalog/pkg/unit/ranking"
	"github.com/jguan/model-catalog/pkg/unit/recommend"
)

type Stores struct {
	ModelStore     model.ModelStore
	BenchmarkStore benchmark.BenchmarkStore
}

type Options struct {
	Stores         Stores
	Cache          cache.Cache
	CacheTTL       time.Duration
	MatcherOptions []hardware.MatcherOption
	MaxConcurrency int
	Events         unit.EventPublisher
	Observer       recommend.Observer
}

type Option func(*Options)

func WithStores(stores Stores) Option {
	return func(o *Options) {
		o.Stores = stores
	}
}

func WithModelStore(s model.ModelStore) Option {
	return func(o *Options) {
		o.Stores.ModelStore = s
	}
}

func WithBenchmarkStore(s benchmark.BenchmarkStore) Option {
	return func(o *Options) {
		o.Stores.BenchmarkStore = s
	}
}

// WithCache enables recommendation caching. A zero ttl keeps the
// recommend package default.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(o *Options) {
		o.Cache = c
		o.CacheTTL = ttl
	}
}

func WithMatcherOptions(opts ...hardware.MatcherOption) Option {
	return func(o *Options) {
		o.MatcherOptions = append(o.MatcherOptions, opts...)
	}
}

func WithMaxConcurrency(n int) Option {
	return func(o *Options) {
		o.MaxConcurrency = n
	}
}

func WithEventPublisher(p unit.EventPublisher) Option {
	return func(o *Options) {
		o.Events = p
	}
}

func WithObserver(obs recommend.Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}

// RegisterAll registers every domain. Missing stores default to fresh
// in-memory stores shared by all domains.
func RegisterAll(registry *unit.Registry, opts ...Option) error {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Stores.ModelStore == nil {
		options.Stores.ModelStore = model.NewMemoryStore()
	}
	if options.Stores.BenchmarkStore == nil {
		options.Stores.BenchmarkStore = benchmark.NewMemoryStore()
	}

	matcher := hardware.NewMatcher(options.MatcherOptions...)

	if err := registerModelDomain(registry, options); err != nil {
		return fmt.Errorf("register model domain: %w", err)
	}

	if err := registerBenchmarkDomain(registry, options); err != nil {
		return fmt.Errorf("register benchmark domain: %w", err)
	}

	if err := registerHardwareDomain(registry, options, matcher); err != nil {
		return fmt.Errorf("register hardware domain: %w", err)
	}

	if err := registerRankingDomain(registry, options); err != nil {
		return fmt.Errorf("register ranking domain: %w", err)
	}

	if err := registerRecommendDomain(registry, options, matcher); err != nil {
		return fmt.Errorf("register recommend domain: %w", err)
	}

	return nil
}

func registerModelDomain(registry *unit.Registry, options *Options) error {
	store := options.Stores.ModelStore
	events := options.Events

	if err := registry.RegisterCommand(model.NewCreateCommandWithEvents(store, events)); err != nil {
		return err
	}
	if err := registry.RegisterCommand(model.NewDeleteCommandWithEvents(store, events)); err != nil {
		return err
	}
	if err := registry.RegisterCommand(model.NewAddVersionCommandWithEvents(store, events)); err != nil {
		return err
	}
	if err := registry.RegisterCommand(model.NewAssignUseCaseCommandWithEvents(store, events)); err != nil {
		return err
	}

	if err := registry.RegisterQuery(model.NewGetQueryWithEvents(store, events)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(model.NewListQuery(store)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(model.NewSearchQuery(store)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(model.NewVersionsQuery(store)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(model.NewByUseCaseQuery(store)); err != nil {
		return err
	}

	return nil
}

func registerBenchmarkDomain(registry *unit.Registry, options *Options) error {
	store := options.Stores.BenchmarkStore

	if err := registry.RegisterCommand(benchmark.NewRecordCommandWithEvents(store, options.Stores.ModelStore, options.Events)); err != nil {
		return err
	}

	if err := registry.RegisterQuery(benchmark.NewGetQuery(store)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(benchmark.NewListQuery(store)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(benchmark.NewStatsQuery(store)); err != nil {
		return err
	}

	return nil
}

func registerHardwareDomain(registry *unit.Registry, options *Options, matcher *hardware.Matcher) error {
	if err := registry.RegisterQuery(hardware.NewVRAMEstimateQueryWithEvents(options.Events)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(hardware.NewVRAMCompareQuery()); err != nil {
		return err
	}
	if err := registry.RegisterQuery(hardware.NewMaxBatchQuery()); err != nil {
		return err
	}
	if err := registry.RegisterQuery(hardware.NewGPURecommendQueryWithEvents(matcher, options.Events)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(hardware.NewGPUCatalogQuery(matcher)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(hardware.NewSpotSavingsQuery(matcher)); err != nil {
		return err
	}

	return nil
}

func registerRankingDomain(registry *unit.Registry, options *Options) error {
	if err := registry.RegisterQuery(ranking.NewTOPSISQueryWithEvents(options.Events)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(ranking.NewParetoQuery()); err != nil {
		return err
	}

	return nil
}

func registerRecommendDomain(registry *unit.Registry, options *Options, matcher *hardware.Matcher) error {
	orchOpts := []recommend.Option{recommend.WithMatcher(matcher)}
	if options.MaxConcurrency > 0 {
		orchOpts = append(orchOpts, recommend.WithMaxConcurrency(options.MaxConcurrency))
	}
	orch := recommend.NewOrchestrator(options.Stores.ModelStore, options.Stores.BenchmarkStore, orchOpts...)

	queryOpts := []recommend.QueryOption{recommend.WithEvents(options.Events)}
	if options.Cache != nil {
		queryOpts = append(queryOpts, recommend.WithCache(options.Cache, options.CacheTTL))
	}
	if options.Observer != nil {
		queryOpts = append(queryOpts, recommend.WithObserver(options.Observer))
	}

	if err := registry.RegisterQuery(recommend.NewModelsQuery(orch, queryOpts...)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(recommend.NewDetailsQuery(orch)); err != nil {
		return err
	}
	if err := registry.RegisterQuery(recommend.NewSearchQuery(orch)); err != nil {
		return err
	}

	return nil
}
