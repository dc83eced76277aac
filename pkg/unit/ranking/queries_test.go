package ranking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeModelInput() map[string]any {
	return map[string]any{
		"alternatives": []any{
			map[string]any{"id": "model-a", "values": map[string]any{"accuracy": 0.85, "latency": 100.0, "throughput": 500.0, "cost": 10.0}},
			map[string]any{"id": "model-b", "values": map[string]any{"accuracy": 0.90, "latency": 150.0, "throughput": 450.0, "cost": 15.0}},
			map[string]any{"id": "model-c", "values": map[string]any{"accuracy": 0.88, "latency": 120.0, "throughput": 480.0, "cost": 12.0}},
		},
		"weights":          map[string]any{"accuracy": 0.3, "latency": 0.25, "throughput": 0.25, "cost": 0.2},
		"benefit_criteria": []any{"accuracy", "throughput"},
		"cost_criteria":    []any{"latency", "cost"},
	}
}

func TestTOPSISQuery(t *testing.T) {
	q := NewTOPSISQuery()

	t.Run("metadata", func(t *testing.T) {
		assert.Equal(t, "ranking.topsis", q.Name())
		assert.Equal(t, "ranking", q.Domain())
		assert.NotEmpty(t, q.Description())
		assert.Equal(t, []string{"alternatives", "weights"}, q.InputSchema().Required)
		assert.NotEmpty(t, q.Examples())
	})

	t.Run("ranks", func(t *testing.T) {
		out, err := q.Execute(context.Background(), threeModelInput())
		require.NoError(t, err)
		results := out.(map[string]any)["results"].([]Score)
		require.Len(t, results, 3)
		assert.Equal(t, "model-a", results[0].ID)
		assert.Equal(t, 1, results[0].Rank)
	})

	t.Run("example", func(t *testing.T) {
		out, err := q.Execute(context.Background(), q.Examples()[0].Input)
		require.NoError(t, err)
		results := out.(map[string]any)["results"].([]Score)
		assert.Equal(t, "a", results[0].ID)
	})

	t.Run("bad weights", func(t *testing.T) {
		in := threeModelInput()
		in["weights"] = map[string]any{"accuracy": 0.9}
		_, err := q.Execute(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidWeights)

		in["weights"] = "heavy"
		_, err = q.Execute(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})

	t.Run("ragged alternatives", func(t *testing.T) {
		in := threeModelInput()
		alts := in["alternatives"].([]any)
		alts = append(alts, map[string]any{"id": "model-d", "values": map[string]any{"accuracy": 0.5}})
		in["alternatives"] = alts
		_, err := q.Execute(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidMatrix)
	})

	t.Run("unweighted values ignored", func(t *testing.T) {
		out, err := q.Execute(context.Background(), map[string]any{
			"alternatives": []any{
				map[string]any{"id": "a", "values": map[string]any{"accuracy": 0.9, "extra": 1.0}},
				map[string]any{"id": "b", "values": map[string]any{"accuracy": 0.8}},
			},
			"weights":          map[string]any{"accuracy": 1.0},
			"benefit_criteria": []any{"accuracy"},
		})
		require.NoError(t, err)
		results := out.(map[string]any)["results"].([]Score)
		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].ID)
		assert.Equal(t, "b", results[1].ID)
	})

	t.Run("weighted criterion on no alternative", func(t *testing.T) {
		in := threeModelInput()
		in["weights"] = map[string]any{"accuracy": 0.5, "energy": 0.5}
		_, err := q.Execute(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := q.Execute(context.Background(), map[string]any{"alternatives": "x"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = q.Execute(context.Background(), map[string]any{"alternatives": []any{1}})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestParetoQuery(t *testing.T) {
	q := NewParetoQuery()
	assert.Equal(t, "ranking.pareto", q.Name())

	out, err := q.Execute(context.Background(), q.Examples()[0].Input)
	require.NoError(t, err)
	front := out.(map[string]any)["front"].([]ParetoPoint)
	require.Len(t, front, 1)
	assert.Equal(t, "fast", front[0].ID)
	assert.Equal(t, 1, front[0].DominanceScore)

	out, err = q.Execute(context.Background(), map[string]any{
		"alternatives": []any{
			map[string]any{"id": "x", "values": map[string]any{"accuracy": 0.9, "note": 7.0}},
			map[string]any{"id": "y", "values": map[string]any{"accuracy": 0.7}},
		},
		"objectives": []any{map[string]any{"name": "accuracy", "maximize": true}},
	})
	require.NoError(t, err)
	front = out.(map[string]any)["front"].([]ParetoPoint)
	require.Len(t, front, 1)
	assert.Equal(t, "x", front[0].ID)

	_, err = q.Execute(context.Background(), map[string]any{
		"alternatives": []any{},
		"objectives":   []any{map[string]any{"maximize": true}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
