package model

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// ModelStore persists models, their versions and use-case suitability.
type ModelStore interface {
	Create(ctx context.Context, m *Model) error
	Get(ctx context.Context, id string) (*Model, error)
	GetByName(ctx context.Context, name string) (*Model, error)
	List(ctx context.Context, filter ModelFilter) ([]Model, int, error)
	Update(ctx context.Context, m *Model) error
	// Delete removes the model together with its versions and use cases.
	Delete(ctx context.Context, id string) error

	AddVersion(ctx context.Context, v *Version) error
	GetVersion(ctx context.Context, id string) (*Version, error)
	// ListVersions returns versions oldest first.
	ListVersions(ctx context.Context, modelID string) ([]Version, error)

	// AssignUseCase inserts or replaces the entry for
	// (model, category, subcategory).
	AssignUseCase(ctx context.Context, u *UseCase) error
	ListUseCases(ctx context.Context, modelID string) ([]UseCase, error)
	// SearchByUseCase returns models with a recommended entry whose category
	// or subcategory equals useCase, best suitability first then by name.
	SearchByUseCase(ctx context.Context, useCase string) ([]Model, error)
	// Search orders results by parameter count, largest first.
	Search(ctx context.Context, filter SearchFilter) ([]Model, error)
}

type MemoryStore struct {
	models   map[string]*Model
	versions map[string][]*Version
	useCases map[string][]*UseCase
	mu       sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		models:   make(map[string]*Model),
		versions: make(map[string][]*Version),
		useCases: make(map[string][]*UseCase),
	}
}

func (s *MemoryStore) Create(ctx context.Context, m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[m.ID]; exists {
		return ErrModelAlreadyExists.WithDetails("id", m.ID)
	}
	for _, existing := range s.models {
		if existing.Name == m.Name {
			return ErrModelAlreadyExists.WithDetails("name", m.Name)
		}
	}

	cp := cloneModel(m)
	s.models[m.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.models[id]
	if !exists {
		return nil, ErrModelNotFound.WithDetails("id", id)
	}
	cp := cloneModel(m)
	return &cp, nil
}

func (s *MemoryStore) GetByName(ctx context.Context, name string) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.models {
		if m.Name == name {
			cp := cloneModel(m)
			return &cp, nil
		}
	}
	return nil, ErrModelNotFound.WithDetails("name", name)
}

func (s *MemoryStore) List(ctx context.Context, filter ModelFilter) ([]Model, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Model, 0, len(s.models))
	for _, m := range s.models {
		if filter.Architecture != "" && m.Architecture != filter.Architecture {
			continue
		}
		if filter.Tag != "" && !hasTag(m.Tags, filter.Tag) {
			continue
		}
		result = append(result, cloneModel(m))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	total := len(result)
	offset := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(offset+filter.Limit, total)
	}
	return result[offset:end], total, nil
}

func (s *MemoryStore) Update(ctx context.Context, m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[m.ID]; !exists {
		return ErrModelNotFound.WithDetails("id", m.ID)
	}
	cp := cloneModel(m)
	s.models[m.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[id]; !exists {
		return ErrModelNotFound.WithDetails("id", id)
	}
	delete(s.models, id)
	delete(s.versions, id)
	delete(s.useCases, id)
	return nil
}

func (s *MemoryStore) AddVersion(ctx context.Context, v *Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[v.ModelID]; !exists {
		return ErrModelNotFound.WithDetails("id", v.ModelID)
	}
	for _, versions := range s.versions {
		for _, existing := range versions {
			if existing.ID == v.ID {
				return ErrVersionExists.WithDetails("id", v.ID)
			}
		}
	}
	cp := *v
	s.versions[v.ModelID] = append(s.versions[v.ModelID], &cp)
	return nil
}

func (s *MemoryStore) GetVersion(ctx context.Context, id string) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, versions := range s.versions {
		for _, v := range versions {
			if v.ID == id {
				cp := *v
				return &cp, nil
			}
		}
	}
	return nil, ErrVersionNotFound.WithDetails("id", id)
}

func (s *MemoryStore) ListVersions(ctx context.Context, modelID string) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.models[modelID]; !exists {
		return nil, ErrModelNotFound.WithDetails("id", modelID)
	}
	out := make([]Version, 0, len(s.versions[modelID]))
	for _, v := range s.versions[modelID] {
		out = append(out, *v)
	}
	return out, nil
}

func (s *MemoryStore) AssignUseCase(ctx context.Context, u *UseCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[u.ModelID]; !exists {
		return ErrModelNotFound.WithDetails("id", u.ModelID)
	}
	cp := *u
	for i, existing := range s.useCases[u.ModelID] {
		if existing.Category == u.Category && existing.Subcategory == u.Subcategory {
			s.useCases[u.ModelID][i] = &cp
			return nil
		}
	}
	s.useCases[u.ModelID] = append(s.useCases[u.ModelID], &cp)
	return nil
}

func (s *MemoryStore) ListUseCases(ctx context.Context, modelID string) ([]UseCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.models[modelID]; !exists {
		return nil, ErrModelNotFound.WithDetails("id", modelID)
	}
	out := make([]UseCase, 0, len(s.useCases[modelID]))
	for _, u := range s.useCases[modelID] {
		out = append(out, *u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SuitabilityScore > out[j].SuitabilityScore })
	return out, nil
}

func (s *MemoryStore) SearchByUseCase(ctx context.Context, useCase string) ([]Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		model Model
		score float64
	}
	var hits []scored
	for id, entries := range s.useCases {
		best, found := 0.0, false
		for _, u := range entries {
			if !u.Recommended || !u.Matches(useCase) {
				continue
			}
			if !found || u.SuitabilityScore > best {
				best, found = u.SuitabilityScore, true
			}
		}
		if found {
			hits = append(hits, scored{model: cloneModel(s.models[id]), score: best})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].model.Name < hits[j].model.Name
	})

	out := make([]Model, len(hits))
	for i, h := range hits {
		out[i] = h.model
	}
	return out, nil
}

func (s *MemoryStore) Search(ctx context.Context, filter SearchFilter) ([]Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(filter.Query)
	out := make([]Model, 0)
	for _, m := range s.models {
		if query != "" && !strings.Contains(strings.ToLower(m.Name), query) && !hasTag(m.Tags, filter.Query) {
			continue
		}
		if filter.Architecture != "" && m.Architecture != filter.Architecture {
			continue
		}
		if filter.MinParameters > 0 && m.Parameters < filter.MinParameters {
			continue
		}
		if filter.MaxParameters > 0 && m.Parameters > filter.MaxParameters {
			continue
		}
		out = append(out, cloneModel(m))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Parameters != out[j].Parameters {
			return out[i].Parameters > out[j].Parameters
		}
		return out[i].Name < out[j].Name
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func cloneModel(m *Model) Model {
	cp := *m
	if m.Tags != nil {
		cp.Tags = append([]string(nil), m.Tags...)
	}
	return cp
}

var _ ModelStore = (*MemoryStore)(nil)
