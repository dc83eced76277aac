// Package benchmarktest holds behaviour tests shared by every
// benchmark.BenchmarkStore implementation.
package benchmarktest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/model-catalog/pkg/unit/benchmark"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

// NewResult builds a chatbot result with latency, throughput and accuracy set.
func NewResult(id, versionID string, createdAt int64, ttftP90, throughput, accuracy float64) *benchmark.Result {
	return &benchmark.Result{
		ID:                  id,
		ModelVersionID:      versionID,
		WorkloadType:        "chatbot",
		BatchSize:           1,
		SequenceLength:      2048,
		GPUType:             "A100-80GB",
		TTFTP90Ms:           ptrs.Float64(ttftP90),
		ThroughputTokensSec: ptrs.Float64(throughput),
		AccuracyScore:       ptrs.Float64(accuracy),
		CreatedAt:           createdAt,
	}
}

// RunStoreTests exercises store behaviour. newStore must return an empty
// store that accepts any version id.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) benchmark.BenchmarkStore) {
	ctx := context.Background()

	t.Run("record and get", func(t *testing.T) {
		s := newStore(t)
		r := NewResult("b1", "v1", 100, 120, 450, 0.85)
		r.TPOTP50Ms = ptrs.Float64(10.5)
		r.Framework = "vllm"
		require.NoError(t, s.Record(ctx, r))

		got, err := s.Get(ctx, "b1")
		require.NoError(t, err)
		assert.Equal(t, "v1", got.ModelVersionID)
		assert.Equal(t, "vllm", got.Framework)
		require.NotNil(t, got.TPOTP50Ms)
		assert.Equal(t, 10.5, *got.TPOTP50Ms)
		assert.Nil(t, got.TTFTP99Ms)
		assert.Nil(t, got.MemoryUsedGB)

		assert.ErrorIs(t, s.Record(ctx, r), benchmark.ErrBenchmarkExists)

		_, err = s.Get(ctx, "missing")
		assert.ErrorIs(t, err, benchmark.ErrBenchmarkNotFound)
	})

	t.Run("list newest first with filters", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Record(ctx, NewResult("b1", "v1", 100, 120, 450, 0.8)))
		require.NoError(t, s.Record(ctx, NewResult("b2", "v1", 300, 300, 200, 0.8)))
		require.NoError(t, s.Record(ctx, NewResult("b3", "v1", 200, 90, 600, 0.8)))
		require.NoError(t, s.Record(ctx, NewResult("b4", "v2", 400, 90, 600, 0.8)))
		summary := NewResult("b5", "v1", 500, 80, 700, 0.8)
		summary.WorkloadType = "summarization"
		summary.GPUType = "H100"
		require.NoError(t, s.Record(ctx, summary))

		items, total, err := s.List(ctx, benchmark.Filter{ModelVersionID: "v1"})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, []string{"b5", "b2", "b3", "b1"}, ids(items))

		items, _, err = s.List(ctx, benchmark.Filter{ModelVersionID: "v1", WorkloadType: "chatbot"})
		require.NoError(t, err)
		assert.Equal(t, []string{"b2", "b3", "b1"}, ids(items))

		items, _, err = s.List(ctx, benchmark.Filter{ModelVersionID: "v1", GPUType: "H100"})
		require.NoError(t, err)
		assert.Equal(t, []string{"b5"}, ids(items))

		items, _, err = s.List(ctx, benchmark.Filter{ModelVersionID: "v1", MaxTTFTP90Ms: ptrs.Float64(120), MinThroughput: ptrs.Float64(450)})
		require.NoError(t, err)
		assert.Equal(t, []string{"b5", "b3", "b1"}, ids(items))

		items, total, err = s.List(ctx, benchmark.Filter{ModelVersionID: "v1", Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, []string{"b2", "b3"}, ids(items))

		items, total, err = s.List(ctx, benchmark.Filter{ModelVersionID: "none"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})

	t.Run("aggregated stats", func(t *testing.T) {
		s := newStore(t)
		a := NewResult("b1", "v1", 1, 100, 400, 0.8)
		a.GPUUtilizationPct = ptrs.Float64(80)
		b := NewResult("b2", "v1", 2, 200, 600, 0.9)
		b.AccuracyScore = nil
		c := NewResult("b3", "v1", 3, 300, 800, 0.7)
		c.WorkloadType = "summarization"
		require.NoError(t, s.Record(ctx, a))
		require.NoError(t, s.Record(ctx, b))
		require.NoError(t, s.Record(ctx, c))

		stats, err := s.AggregatedStats(ctx, "v1", "")
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalBenchmarks)
		require.NotNil(t, stats.AvgTTFTP90Ms)
		assert.InDelta(t, 200.0, *stats.AvgTTFTP90Ms, 1e-9)
		assert.InDelta(t, 600.0, *stats.AvgThroughput, 1e-9)
		assert.InDelta(t, 800.0, *stats.MaxThroughput, 1e-9)
		require.NotNil(t, stats.AvgAccuracy)
		assert.InDelta(t, 0.75, *stats.AvgAccuracy, 1e-9, "absent accuracy is skipped")
		assert.InDelta(t, 80.0, *stats.AvgGPUUtilizationPct, 1e-9)
		assert.Nil(t, stats.AvgMemoryUsedGB)
		assert.Nil(t, stats.AvgTTFTP50Ms)

		chat, err := s.AggregatedStats(ctx, "v1", "chatbot")
		require.NoError(t, err)
		assert.Equal(t, 2, chat.TotalBenchmarks)
		assert.InDelta(t, 150.0, *chat.AvgTTFTP90Ms, 1e-9)

		empty, err := s.AggregatedStats(ctx, "v9", "")
		require.NoError(t, err)
		assert.Zero(t, empty.TotalBenchmarks)
		assert.Nil(t, empty.AvgThroughput)
		assert.Nil(t, empty.MaxThroughput)
	})
}

func ids(results []benchmark.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}
