package benchmark

import (
	"context"
	"sort"
	"sync"
)

// BenchmarkStore persists benchmark results.
type BenchmarkStore interface {
	Record(ctx context.Context, r *Result) error
	Get(ctx context.Context, id string) (*Result, error)
	// List returns matching results newest first with the unpaged total.
	List(ctx context.Context, filter Filter) ([]Result, int, error)
	// AggregatedStats summarises a version's results, optionally for one
	// workload type. A version without results yields TotalBenchmarks 0.
	AggregatedStats(ctx context.Context, versionID, workloadType string) (*Stats, error)
}

type MemoryStore struct {
	results map[string]*Result
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*Result)}
}

func (s *MemoryStore) Record(ctx context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.results[r.ID]; exists {
		return ErrBenchmarkExists.WithDetails("id", r.ID)
	}
	cp := *r
	s.results[r.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.results[id]
	if !exists {
		return nil, ErrBenchmarkNotFound.WithDetails("id", id)
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]Result, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.match(filter)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})

	total := len(out)
	offset := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(offset+filter.Limit, total)
	}
	return out[offset:end], total, nil
}

func (s *MemoryStore) AggregatedStats(ctx context.Context, versionID, workloadType string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Aggregate(s.match(Filter{ModelVersionID: versionID, WorkloadType: workloadType}))
	return &stats, nil
}

func (s *MemoryStore) match(filter Filter) []Result {
	out := make([]Result, 0)
	for _, r := range s.results {
		if filter.Matches(r) {
			out = append(out, *r)
		}
	}
	return out
}

var _ BenchmarkStore = (*MemoryStore)(nil)
