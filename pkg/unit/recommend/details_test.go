package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jguan/model-catalog/pkg/unit/model"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

func TestOrchestrator_Details(t *testing.T) {
	ctx := context.Background()
	f := seedChatbot(t)
	f.addVersion(t, "m-a", "v-a-int4", "int4")
	f.addResult(t, "b-a-int4-1", "v-a-int4", 80, 600, 0.80)
	f.addResult(t, "b-a-int4-2", "v-a-int4", 60, 700, 0.82)
	// not benchmarked, left out
	f.addVersion(t, "m-a", "v-a-int8", "int8")
	require.NoError(t, f.models.AssignUseCase(ctx, &model.UseCase{ModelID: "m-a", Category: "coding", SuitabilityScore: 0.95}))

	d, err := f.orchestrator().Details(ctx, "m-a")
	require.NoError(t, err)

	assert.Equal(t, "m-a", d.ID)
	assert.Equal(t, "model-a", d.Name)
	require.Len(t, d.Versions, 2)
	assert.Equal(t, []string{"v-a", "v-a-int4"}, []string{d.Versions[0].VersionID, d.Versions[1].VersionID})
	require.Len(t, d.UseCases, 2)
	assert.Equal(t, "coding", d.UseCases[0].Category)

	fp16 := d.Versions[0]
	assert.Equal(t, 16.8, fp16.VRAMRequirementGB)
	assert.Equal(t, 1, fp16.Stats.TotalBenchmarks)
	require.Len(t, fp16.RecommendedGPUs, 3)
	assert.Equal(t, "L4", fp16.RecommendedGPUs[0].GPUType)
	for _, g := range fp16.RecommendedGPUs {
		assert.True(t, g.SpotAvailable)
	}

	int4 := d.Versions[1]
	assert.Equal(t, 4.2, int4.VRAMRequirementGB)
	assert.Equal(t, 2, int4.Stats.TotalBenchmarks)
	require.NotNil(t, int4.Stats.AvgAccuracy)
	assert.InDelta(t, 0.81, *int4.Stats.AvgAccuracy, 1e-9)

	require.NotNil(t, d.AvgAccuracy)
	assert.InDelta(t, (0.85+0.81)/2, *d.AvgAccuracy, 1e-9)
	require.NotNil(t, d.AvgThroughput)
	assert.InDelta(t, (500.0+650.0)/2, *d.AvgThroughput, 1e-9)
	require.NotNil(t, d.AvgLatencyP90Ms)
	assert.InDelta(t, (100.0+70.0)/2, *d.AvgLatencyP90Ms, 1e-9)
}

func TestOrchestrator_DetailsEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown model", func(t *testing.T) {
		f := seedChatbot(t)
		_, err := f.orchestrator().Details(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrModelNotFound)
	})

	t.Run("no benchmarks", func(t *testing.T) {
		f := newFixture()
		f.addModel(t, "m1", "fresh", 7_000_000_000, "chatbot", 0.5)
		f.addVersion(t, "m1", "v1", "fp16")

		d, err := f.orchestrator().Details(ctx, "m1")
		require.NoError(t, err)
		assert.Empty(t, d.Versions)
		assert.Nil(t, d.AvgAccuracy)
		assert.Nil(t, d.AvgThroughput)
		assert.Nil(t, d.AvgLatencyP90Ms)
	})

	t.Run("unknown quantization keeps stats", func(t *testing.T) {
		f := newFixture()
		f.addModel(t, "m1", "gguf", 7_000_000_000, "chatbot", 0.5)
		f.addVersion(t, "m1", "v1", "q4_k_m")
		f.addResult(t, "b1", "v1", 100, 300, 0.7)

		d, err := f.orchestrator().Details(ctx, "m1")
		require.NoError(t, err)
		require.Len(t, d.Versions, 1)
		assert.Zero(t, d.Versions[0].VRAMRequirementGB)
		assert.Empty(t, d.Versions[0].RecommendedGPUs)
		require.NotNil(t, d.AvgAccuracy)
		assert.Equal(t, 0.7, *d.AvgAccuracy)
	})

	t.Run("stats error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		models := NewMockModelSource(ctrl)
		stats := NewMockStatsSource(ctrl)
		boom := errors.New("timeout")
		models.EXPECT().Get(gomock.Any(), "m1").Return(&model.Model{ID: "m1", Parameters: 7_000_000_000}, nil)
		models.EXPECT().ListVersions(gomock.Any(), "m1").Return([]model.Version{{ID: "v1", Quantization: "fp16"}}, nil)
		models.EXPECT().ListUseCases(gomock.Any(), "m1").Return(nil, nil)
		stats.EXPECT().AggregatedStats(gomock.Any(), "v1", "").Return(nil, boom)

		_, err := NewOrchestrator(models, stats).Details(ctx, "m1")
		assert.ErrorIs(t, err, boom)
	})
}

func TestOrchestrator_Search(t *testing.T) {
	ctx := context.Background()
	f := seedChatbot(t)
	f.addVersion(t, "m-a", "v-a-int4", "int4")
	f.addResult(t, "b-a-int4", "v-a-int4", 70, 650, 0.8)

	hits, err := f.orchestrator().Search(ctx, model.SearchFilter{Query: "model"})
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// largest first
	assert.Equal(t, []string{"m-b", "m-c", "m-a"}, []string{hits[0].ID, hits[1].ID, hits[2].ID})

	a := hits[2]
	assert.Equal(t, 2, a.VersionCount)
	require.NotNil(t, a.AvgAccuracy)
	assert.Equal(t, 0.8, *a.AvgAccuracy, "newest version wins")
	require.NotNil(t, a.AvgThroughput)
	assert.Equal(t, 650.0, *a.AvgThroughput)

	hits, err = f.orchestrator().Search(ctx, model.SearchFilter{Query: "model", MaxParameters: 7_500_000_000})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "m-a", hits[0].ID)
}

func TestOrchestrator_SearchWithoutVersions(t *testing.T) {
	ctrl := gomock.NewController(t)
	models := NewMockModelSource(ctrl)
	stats := NewMockStatsSource(ctrl)
	models.EXPECT().Search(gomock.Any(), model.SearchFilter{Query: "x"}).Return([]model.Model{{ID: "m1", Name: "x"}}, nil)
	models.EXPECT().ListVersions(gomock.Any(), "m1").Return([]model.Version{}, nil)

	hits, err := NewOrchestrator(models, stats).Search(context.Background(), model.SearchFilter{Query: "x"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Zero(t, hits[0].VersionCount)
	assert.Nil(t, hits[0].AvgAccuracy)
}

func TestAverage(t *testing.T) {
	var a average
	assert.Nil(t, a.value())

	a.add(nil)
	a.add(ptrs.Float64(0))
	a.add(ptrs.Float64(1))
	require.NotNil(t, a.value())
	assert.Equal(t, 0.5, *a.value())

}
