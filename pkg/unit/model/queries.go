package model

import (
	"context"
	"fmt"

	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func limitField() unit.Field {
	return unit.Field{
		Name: "limit",
		Schema: unit.Schema{
			Type:    "integer",
			Min:     ptrs.Float64(1),
			Max:     ptrs.Float64(maxListLimit),
			Default: defaultListLimit,
		},
	}
}

func parseLimit(m map[string]any) int {
	limit, ok := unit.GetInt(m, "limit")
	if !ok || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

type GetQuery struct {
	store  ModelStore
	events unit.EventPublisher
}

func NewGetQuery(store ModelStore) *GetQuery {
	return &GetQuery{store: store}
}

func NewGetQueryWithEvents(store ModelStore, events unit.EventPublisher) *GetQuery {
	return &GetQuery{store: store, events: events}
}

func (q *GetQuery) Name() string        { return "model.get" }
func (q *GetQuery) Domain() string      { return "model" }
func (q *GetQuery) Description() string { return "Get a model with its versions and use cases" }

func (q *GetQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type:       "object",
		Properties: map[string]unit.Field{"model_id": modelIDField()},
		Required:   []string{"model_id"},
	}
}

func (q *GetQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"model":     {Name: "model", Schema: unit.Schema{Type: "object"}},
			"versions":  {Name: "versions", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
			"use_cases": {Name: "use_cases", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
		},
	}
}

func (q *GetQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{"model_id": "model-1a2b3c4d"},
			Output: map[string]any{
				"model":     map[string]any{"id": "model-1a2b3c4d", "name": "llama-3-8b", "architecture": "llama"},
				"versions":  []map[string]any{{"id": "ver-5e6f7a8b", "quantization": "fp16"}},
				"use_cases": []map[string]any{{"category": "chat", "suitability_score": 0.9}},
			},
		},
	}
}

func (q *GetQuery) Execute(ctx context.Context, input any) (any, error) {
	ec := unit.NewExecutionContext(q.events, q.Domain(), q.Name())
	ec.PublishStarted(input)

	details, err := q.details(ctx, input)
	if err != nil {
		ec.PublishFailed(err)
		return nil, err
	}
	ec.PublishCompleted(details)
	return details, nil
}

func (q *GetQuery) details(ctx context.Context, input any) (*Details, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	id, err := requireString(m, "model_id")
	if err != nil {
		return nil, err
	}
	return LoadDetails(ctx, q.store, id)
}

// LoadDetails reads a model with its versions and use cases.
func LoadDetails(ctx context.Context, store ModelStore, id string) (*Details, error) {
	model, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get model %s: %w", id, err)
	}
	versions, err := store.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", id, err)
	}
	useCases, err := store.ListUseCases(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list use cases of %s: %w", id, err)
	}
	return &Details{Model: *model, Versions: versions, UseCases: useCases}, nil
}

type ListQuery struct {
	store ModelStore
}

func NewListQuery(store ModelStore) *ListQuery {
	return &ListQuery{store: store}
}

func (q *ListQuery) Name() string        { return "model.list" }
func (q *ListQuery) Domain() string      { return "model" }
func (q *ListQuery) Description() string { return "List catalog models" }

func (q *ListQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"architecture": {Name: "architecture", Schema: unit.Schema{Type: "string"}},
			"tag":          {Name: "tag", Schema: unit.Schema{Type: "string"}},
			"limit":        limitField(),
			"offset": {
				Name:   "offset",
				Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(0)},
			},
		},
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
			Input:  map[string]any{"architecture": "llama", "limit": 10},
			Output: map[string]any{"items": []map[string]any{{"id": "model-1a2b3c4d", "name": "llama-3-8b"}}, "total": 1},
		},
	}
}

func (q *ListQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	offset, _ := unit.GetInt(m, "offset")
	filter := ModelFilter{
		Architecture: unit.GetString(m, "architecture"),
		Tag:          unit.GetString(m, "tag"),
		Limit:        parseLimit(m),
		Offset:       max(offset, 0),
	}

	items, total, err := q.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	return map[string]any{"items": items, "total": total}, nil
}

type SearchQuery struct {
	store ModelStore
}

func NewSearchQuery(store ModelStore) *SearchQuery {
	return &SearchQuery{store: store}
}

func (q *SearchQuery) Name() string   { return "model.search" }
func (q *SearchQuery) Domain() string { return "model" }
func (q *SearchQuery) Description() string {
	return "Search models by name or tag, architecture and size"
}

func (q *SearchQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"query": {
				Name:   "query",
				Schema: unit.Schema{Type: "string", Description: "Name substring or exact tag"},
			},
			"architecture":   {Name: "architecture", Schema: unit.Schema{Type: "string"}},
			"min_parameters": {Name: "min_parameters", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)}},
			"max_parameters": {Name: "max_parameters", Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)}},
			"limit":          limitField(),
		},
	}
}

func (q *SearchQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"models": {Name: "models", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
			"total":  {Name: "total", Schema: unit.Schema{Type: "integer"}},
		},
	}
}

func (q *SearchQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"query": "llama", "max_parameters": 10000000000},
			Output: map[string]any{"models": []map[string]any{{"id": "model-1a2b3c4d", "name": "llama-3-8b"}}, "total": 1},
		},
	}
}

func (q *SearchQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	filter, err := ParseSearchFilter(m)
	if err != nil {
		return nil, err
	}

	models, err := q.store.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search models: %w", err)
	}
	return map[string]any{"models": models, "total": len(models)}, nil
}

// ParseSearchFilter reads the model.search input shape.
func ParseSearchFilter(m map[string]any) (SearchFilter, error) {
	filter := SearchFilter{
		Query:        unit.GetString(m, "query"),
		Architecture: unit.GetString(m, "architecture"),
		Limit:        parseLimit(m),
	}
	if v, ok := unit.GetFloat64(m, "min_parameters"); ok {
		filter.MinParameters = int64(v)
	}
	if v, ok := unit.GetFloat64(m, "max_parameters"); ok {
		filter.MaxParameters = int64(v)
	}
	if filter.MaxParameters > 0 && filter.MinParameters > filter.MaxParameters {
		return SearchFilter{}, fmt.Errorf("min_parameters exceeds max_parameters: %w", ErrInvalidInput)
	}
	return filter, nil
}

type VersionsQuery struct {
	store ModelStore
}

func NewVersionsQuery(store ModelStore) *VersionsQuery {
	return &VersionsQuery{store: store}
}

func (q *VersionsQuery) Name() string        { return "model.versions" }
func (q *VersionsQuery) Domain() string      { return "model" }
func (q *VersionsQuery) Description() string { return "List versions of a model, oldest first" }

func (q *VersionsQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type:       "object",
		Properties: map[string]unit.Field{"model_id": modelIDField()},
		Required:   []string{"model_id"},
	}
}

func (q *VersionsQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"versions": {Name: "versions", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
		},
	}
}

func (q *VersionsQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"model_id": "model-1a2b3c4d"},
			Output: map[string]any{"versions": []map[string]any{{"id": "ver-5e6f7a8b", "version": "v1.0", "quantization": "fp16"}}},
		},
	}
}

func (q *VersionsQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	id, err := requireString(m, "model_id")
	if err != nil {
		return nil, err
	}
	versions, err := q.store.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", id, err)
	}
	return map[string]any{"versions": versions, "total": len(versions)}, nil
}

type ByUseCaseQuery struct {
	store ModelStore
}

func NewByUseCaseQuery(store ModelStore) *ByUseCaseQuery {
	return &ByUseCaseQuery{store: store}
}

func (q *ByUseCaseQuery) Name() string   { return "model.by_use_case" }
func (q *ByUseCaseQuery) Domain() string { return "model" }
func (q *ByUseCaseQuery) Description() string {
	return "List models recommended for a use-case category or subcategory"
}

func (q *ByUseCaseQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"use_case": {
				Name:   "use_case",
				Schema: unit.Schema{Type: "string", MinLength: ptrs.Int(1)},
			},
		},
		Required: []string{"use_case"},
	}
}

func (q *ByUseCaseQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"models": {Name: "models", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
		},
	}
}

func (q *ByUseCaseQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"use_case": "chat"},
			Output: map[string]any{"models": []map[string]any{{"id": "model-1a2b3c4d", "name": "llama-3-8b"}}},
		},
	}
}

func (q *ByUseCaseQuery) Execute(ctx context.Context, input any) (any, error) {
	if q.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	useCase, err := requireString(m, "use_case")
	if err != nil {
		return nil, err
	}
	models, err := q.store.SearchByUseCase(ctx, useCase)
	if err != nil {
		return nil, fmt.Errorf("search by use case %s: %w", useCase, err)
	}
	return map[string]any{"models": models, "total": len(models)}, nil
}
