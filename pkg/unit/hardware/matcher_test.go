package hardware

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

func TestMatcher_RecommendPreferSpot(t *testing.T) {
	m := NewMatcher()

	configs, err := m.Recommend(20, m.DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, configs)

	for _, c := range configs {
		assert.True(t, c.SpotAvailable, "%s should be spot", c.GPUType)
		assert.NotEqual(t, "V100", c.GPUType)
		assert.GreaterOrEqual(t, c.TotalVRAMGB, 20.0)
		assert.LessOrEqual(t, c.Count, MaxGPUCount)
	}
	assert.True(t, sort.SliceIsSorted(configs, func(i, j int) bool {
		return configs[i].CostPerHourUSD < configs[j].CostPerHourUSD
	}))

	first := configs[0]
	assert.Equal(t, "L4", first.GPUType)
	assert.Equal(t, 1, first.Count)
	assert.Equal(t, 24.0, first.TotalVRAMGB)
	assert.Equal(t, 83.3, first.UtilizationPct)
	assert.Equal(t, 0.12, first.CostPerHourUSD, "0.125 rounds half to even")

	// 4 spot entries, 3 probed counts each
	assert.Len(t, configs, 12)
}

func TestMatcher_RecommendNonStrictSpot(t *testing.T) {
	m := NewMatcher(WithStrictSpot(false))

	configs, err := m.Recommend(20, m.DefaultOptions())
	require.NoError(t, err)

	var v100 []GPUConfig
	for _, c := range configs {
		if c.GPUType == "V100" {
			v100 = append(v100, c)
		}
	}
	require.Len(t, v100, 3)
	assert.Equal(t, 2, v100[0].Count)
	assert.Equal(t, 1.6, v100[0].CostPerHourUSD, "no discount without spot capacity")
}

func TestMatcher_RecommendOnDemand(t *testing.T) {
	m := NewMatcher()

	configs, err := m.Recommend(20, RecommendOptions{PreferSpot: false, StrictSpot: true})
	require.NoError(t, err)
	assert.Len(t, configs, 15)
	assert.Equal(t, "L4", configs[0].GPUType)
	assert.Equal(t, 0.5, configs[0].CostPerHourUSD)
}

func TestMatcher_RecommendMaxCost(t *testing.T) {
	m := NewMatcher()
	opts := m.DefaultOptions()
	opts.MaxCostPerHour = ptrs.Float64(0.3)

	configs, err := m.Recommend(20, opts)
	require.NoError(t, err)
	for _, c := range configs {
		assert.LessOrEqual(t, c.CostPerHourUSD, 0.3)
	}
	// L4 x1 (0.12), L4 x2 (0.25), A100-40GB x1 (0.30)
	assert.Len(t, configs, 3)

	opts.MaxCostPerHour = ptrs.Float64(0.01)
	configs, err = m.Recommend(20, opts)
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestMatcher_RecommendCountLimits(t *testing.T) {
	m := NewMatcher()

	t.Run("counts never exceed eight", func(t *testing.T) {
		configs, err := m.Recommend(170, m.DefaultOptions())
		require.NoError(t, err)
		for _, c := range configs {
			assert.LessOrEqual(t, c.Count, MaxGPUCount)
			if c.GPUType == "L4" {
				assert.Equal(t, 8, c.Count)
			}
		}
	})

	t.Run("too large for the catalog", func(t *testing.T) {
		configs, err := m.Recommend(5000, m.DefaultOptions())
		require.NoError(t, err)
		assert.Empty(t, configs)
	})

	t.Run("exact fit", func(t *testing.T) {
		configs, err := m.Recommend(48, m.DefaultOptions())
		require.NoError(t, err)
		for _, c := range configs {
			if c.GPUType == "L4" {
				assert.GreaterOrEqual(t, c.Count, 2)
			}
		}
	})
}

func TestMatcher_RecommendInvalid(t *testing.T) {
	m := NewMatcher()
	_, err := m.Recommend(0, m.DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = m.Recommend(-3, m.DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMatcher_Cheapest(t *testing.T) {
	m := NewMatcher()

	c, ok, err := m.Cheapest(35, m.DefaultOptions())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "L4", c.GPUType)
	assert.Equal(t, 2, c.Count)

	_, ok, err = m.Cheapest(10_000, m.DefaultOptions())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatcher_SpotSavings(t *testing.T) {
	m := NewMatcher()

	s, err := m.SpotSavings("A100-80GB", 2)
	require.NoError(t, err)
	assert.Equal(t, 4.8, s.OnDemandCostHour)
	assert.Equal(t, 1.2, s.SpotCostHour)
	assert.Equal(t, 3.6, s.SavingsPerHour)
	assert.Equal(t, 75.0, s.SavingsPercent)

	s, err = m.SpotSavings("V100", 1)
	require.NoError(t, err)
	assert.Zero(t, s.SavingsPercent)
	assert.Equal(t, s.OnDemandCostHour, s.SpotCostHour)

	_, err = m.SpotSavings("TPU", 1)
	assert.ErrorIs(t, err, ErrGPUTypeNotFound)
	_, err = m.SpotSavings("L4", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalog(t *testing.T) {
	c := Catalog()
	require.Len(t, c, 5)
	c[0].CostPerHour = 99

	m := NewMatcher()
	e, ok := m.Entry("L4")
	require.True(t, ok)
	assert.Equal(t, 0.5, e.CostPerHour)

	custom := NewMatcher(WithCatalog([]CatalogEntry{{GPUType: "X", VRAMPerGPUGB: 10, CostPerHour: 1}}))
	_, ok = custom.Entry("L4")
	assert.False(t, ok)
}
