package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/model-catalog/pkg/unit/benchmark"
	"github.com/jguan/model-catalog/pkg/unit/benchmark/benchmarktest"
	"github.com/jguan/model-catalog/pkg/unit/model"
	"github.com/jguan/model-catalog/pkg/unit/model/modeltest"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteModelStore(t *testing.T) {
	modeltest.RunStoreTests(t, func(t *testing.T) model.ModelStore {
		s, err := NewSQLiteModelStore(openMemory(t))
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteBenchmarkStore(t *testing.T) {
	benchmarktest.RunStoreTests(t, func(t *testing.T) benchmark.BenchmarkStore {
		s, err := NewSQLiteBenchmarkStore(openMemory(t))
		require.NoError(t, err)
		return s
	})
}

func TestSQLiteStores_PersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	db, err := Open(path)
	require.NoError(t, err)
	models, err := NewSQLiteModelStore(db)
	require.NoError(t, err)
	results, err := NewSQLiteBenchmarkStore(db)
	require.NoError(t, err)

	require.NoError(t, models.Create(ctx, modeltest.NewModel("m1", "llama-3-8b", "llama", 8_030_000_000, "chat")))
	require.NoError(t, models.AddVersion(ctx, &model.Version{ID: "v1", ModelID: "m1", Version: "v1", Quantization: "fp16", QuantizationBits: 16}))
	require.NoError(t, results.Record(ctx, benchmarktest.NewResult("b1", "v1", 10, 120, 450, 0.86)))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	models, err = NewSQLiteModelStore(db)
	require.NoError(t, err)
	results, err = NewSQLiteBenchmarkStore(db)
	require.NoError(t, err)

	m, err := models.GetByName(ctx, "llama-3-8b")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat"}, m.Tags)

	versions, err := models.ListVersions(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, versions, 1)

	stats, err := results.AggregatedStats(ctx, "v1", "chatbot")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalBenchmarks)
	require.NotNil(t, stats.AvgAccuracy)
	assert.InDelta(t, 0.86, *stats.AvgAccuracy, 1e-9)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "catalog.db"))
	assert.Error(t, err)
}
