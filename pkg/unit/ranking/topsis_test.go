package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultWeights = map[string]float64{"accuracy": 0.3, "latency": 0.25, "throughput": 0.25, "cost": 0.2}

func threeModelTable(t *testing.T) *DecisionTable {
	t.Helper()
	table := NewDecisionTable("accuracy", "latency", "throughput", "cost")
	require.NoError(t, table.Add("model-a", map[string]float64{"accuracy": 0.85, "latency": 100, "throughput": 500, "cost": 10}))
	require.NoError(t, table.Add("model-b", map[string]float64{"accuracy": 0.90, "latency": 150, "throughput": 450, "cost": 15}))
	require.NoError(t, table.Add("model-c", map[string]float64{"accuracy": 0.88, "latency": 120, "throughput": 480, "cost": 12}))
	return table
}

func TestRank_ThreeModels(t *testing.T) {
	res, err := Rank(threeModelTable(t), defaultWeights, []string{"accuracy", "throughput"}, []string{"latency", "cost"})
	require.NoError(t, err)
	require.Len(t, res.Scores, 3)

	sorted := res.Sorted()
	assert.Equal(t, "model-a", sorted[0].ID)
	assert.Equal(t, "model-c", sorted[1].ID)
	assert.Equal(t, "model-b", sorted[2].ID)
	assert.Equal(t, []int{1, 2, 3}, []int{sorted[0].Rank, sorted[1].Rank, sorted[2].Rank})

	a, ok := res.ByID("model-a")
	require.True(t, ok)
	assert.InDelta(t, 0.8843, a.Score, 1e-4)
	c, _ := res.ByID("model-c")
	assert.InDelta(t, 0.6, c.Score, 1e-9)

	_, ok = res.ByID("missing")
	assert.False(t, ok)
}

func TestRank_TableOrderPreserved(t *testing.T) {
	res, err := Rank(threeModelTable(t), defaultWeights, []string{"accuracy", "throughput"}, []string{"latency", "cost"})
	require.NoError(t, err)
	assert.Equal(t, "model-a", res.Scores[0].ID)
	assert.Equal(t, "model-b", res.Scores[1].ID)
	assert.Equal(t, "model-c", res.Scores[2].ID)
}

func TestRank_WeightValidation(t *testing.T) {
	table := threeModelTable(t)

	tests := []struct {
		name    string
		weights map[string]float64
	}{
		{name: "sum below one", weights: map[string]float64{"accuracy": 0.5, "latency": 0.4}},
		{name: "sum above one", weights: map[string]float64{"accuracy": 0.7, "latency": 0.4}},
		{name: "empty", weights: map[string]float64{}},
		{name: "negative", weights: map[string]float64{"accuracy": 1.5, "latency": -0.5}},
		{name: "unknown column", weights: map[string]float64{"accuracy": 0.5, "energy": 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Rank(table, tt.weights, nil, nil)
			assert.ErrorIs(t, err, ErrInvalidWeights)
			assert.Nil(t, res)
		})
	}

	t.Run("within tolerance", func(t *testing.T) {
		_, err := Rank(table, map[string]float64{"accuracy": 0.5, "latency": 0.5 + 5e-7}, nil, nil)
		assert.NoError(t, err)
	})
}

func TestRank_CriteriaValidation(t *testing.T) {
	table := threeModelTable(t)

	_, err := Rank(table, defaultWeights, []string{"accuracy", "cost"}, []string{"cost"})
	assert.ErrorIs(t, err, ErrInvalidCriteria)

	_, err = Rank(table, defaultWeights, []string{"energy"}, nil)
	assert.ErrorIs(t, err, ErrInvalidCriteria)

	_, err = Rank(table, map[string]float64{"accuracy": 1}, nil, []string{"latency"})
	assert.ErrorIs(t, err, ErrInvalidCriteria, "latency is a column but not weighted")

	_, err = Rank(nil, defaultWeights, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidMatrix)
}

func TestRank_PolarityDefaults(t *testing.T) {
	table := threeModelTable(t)
	explicit, err := Rank(table, defaultWeights, []string{"accuracy", "throughput"}, []string{"latency", "cost"})
	require.NoError(t, err)

	t.Run("benefit from cost complement", func(t *testing.T) {
		res, err := Rank(table, defaultWeights, nil, []string{"latency", "cost"})
		require.NoError(t, err)
		assert.Equal(t, explicit.Scores, res.Scores)
	})

	t.Run("cost from benefit complement", func(t *testing.T) {
		res, err := Rank(table, defaultWeights, []string{"accuracy", "throughput"}, nil)
		require.NoError(t, err)
		assert.Equal(t, explicit.Scores, res.Scores)
	})

	t.Run("all benefit", func(t *testing.T) {
		res, err := Rank(table, map[string]float64{"latency": 1}, nil, nil)
		require.NoError(t, err)
		b, _ := res.ByID("model-b")
		assert.Equal(t, 1, b.Rank, "highest latency wins when latency is a benefit")
	})
}

func TestRank_EdgeCases(t *testing.T) {
	t.Run("single alternative", func(t *testing.T) {
		table := NewDecisionTable("accuracy", "cost")
		require.NoError(t, table.Add("only", map[string]float64{"accuracy": 0.9, "cost": 3}))

		res, err := Rank(table, map[string]float64{"accuracy": 0.5, "cost": 0.5}, nil, []string{"cost"})
		require.NoError(t, err)
		require.Len(t, res.Scores, 1)
		assert.Equal(t, 0.5, res.Scores[0].Score)
		assert.Equal(t, 1, res.Scores[0].Rank)
	})

	t.Run("identical rows tie", func(t *testing.T) {
		table := NewDecisionTable("accuracy", "cost")
		require.NoError(t, table.Add("x", map[string]float64{"accuracy": 0.9, "cost": 3}))
		require.NoError(t, table.Add("y", map[string]float64{"accuracy": 0.9, "cost": 3}))
		require.NoError(t, table.Add("z", map[string]float64{"accuracy": 0.5, "cost": 9}))

		res, err := Rank(table, map[string]float64{"accuracy": 0.5, "cost": 0.5}, nil, []string{"cost"})
		require.NoError(t, err)
		assert.Equal(t, res.Scores[0].Score, res.Scores[1].Score)
		assert.Equal(t, 1, res.Scores[0].Rank)
		assert.Equal(t, 1, res.Scores[1].Rank)
		assert.Equal(t, 3, res.Scores[2].Rank)
	})

	t.Run("all rows identical", func(t *testing.T) {
		table := NewDecisionTable("accuracy")
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, table.Add(id, map[string]float64{"accuracy": 0.7}))
		}
		res, err := Rank(table, map[string]float64{"accuracy": 1}, nil, nil)
		require.NoError(t, err)
		for _, s := range res.Scores {
			assert.Equal(t, 0.5, s.Score)
			assert.Equal(t, 1, s.Rank)
		}
	})

	t.Run("zero column", func(t *testing.T) {
		table := NewDecisionTable("accuracy", "cost")
		require.NoError(t, table.Add("a", map[string]float64{"accuracy": 0, "cost": 1}))
		require.NoError(t, table.Add("b", map[string]float64{"accuracy": 0, "cost": 2}))
		res, err := Rank(table, map[string]float64{"accuracy": 0.5, "cost": 0.5}, nil, []string{"cost"})
		require.NoError(t, err)
		a, _ := res.ByID("a")
		assert.Equal(t, 1, a.Rank)
		assert.Equal(t, 1.0, a.Score)
	})

	t.Run("empty table", func(t *testing.T) {
		res, err := Rank(NewDecisionTable("accuracy"), map[string]float64{"accuracy": 1}, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Scores)
	})

	t.Run("extreme magnitudes stay in range", func(t *testing.T) {
		table := NewDecisionTable("throughput", "latency")
		require.NoError(t, table.Add("huge", map[string]float64{"throughput": 1e300, "latency": 1e-300}))
		require.NoError(t, table.Add("tiny", map[string]float64{"throughput": 1e-300, "latency": 1e300}))
		require.NoError(t, table.Add("mid", map[string]float64{"throughput": 1e150, "latency": 1e150}))

		res, err := Rank(table, map[string]float64{"throughput": 0.5, "latency": 0.5}, nil, []string{"latency"})
		require.NoError(t, err)
		for _, s := range res.Scores {
			assert.False(t, math.IsNaN(s.Score))
			assert.GreaterOrEqual(t, s.Score, 0.0)
			assert.LessOrEqual(t, s.Score, 1.0)
		}
		huge, _ := res.ByID("huge")
		assert.Equal(t, 1, huge.Rank)
	})
}

func TestDecisionTable(t *testing.T) {
	table := NewDecisionTable("b", "a", "b")
	assert.Equal(t, []string{"a", "b"}, table.Criteria())
	assert.True(t, table.Has("a"))
	assert.False(t, table.Has("c"))

	assert.ErrorIs(t, table.Add("x", map[string]float64{"a": 1}), ErrInvalidMatrix)
	assert.ErrorIs(t, table.Add("x", map[string]float64{"a": 1, "b": math.NaN()}), ErrInvalidMatrix)
	assert.ErrorIs(t, table.Add("x", map[string]float64{"a": math.Inf(1), "b": 1}), ErrInvalidMatrix)
	assert.Equal(t, 0, table.Len())

	require.NoError(t, table.Add("x", map[string]float64{"a": 1, "b": 2, "extra": 9}))
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "x", table.ID(0))
	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, table.Values(0))

	v, ok := table.Value(0, "b")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	_, ok = table.Value(1, "b")
	assert.False(t, ok)
}
