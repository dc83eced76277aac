package model

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jguan/model-catalog/pkg/unit"
)

func createTestModel(t *testing.T, store ModelStore, id, name string, params int64) *Model {
	t.Helper()
	m := &Model{
		ID:           id,
		Name:         name,
		Architecture: "llama",
		Parameters:   params,
		CreatedAt:    1700000000,
		UpdatedAt:    1700000000,
	}
	require.NoError(t, store.Create(context.Background(), m))
	return m
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		if ev, ok := e.(unit.Event); ok {
			out = append(out, ev.Type())
		}
	}
	return out
}
