package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WeightTolerance is the allowed deviation of a weight sum from 1.
const WeightTolerance = 1e-6

// Score is the TOPSIS outcome for one alternative. Rank 1 is best; tied
// scores share the lowest rank of the tie group.
type Score struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// Result holds one Score per alternative in table order.
type Result struct {
	Scores []Score `json:"scores"`
}

// Sorted returns the scores ordered by rank, ties keeping table order.
func (r *Result) Sorted() []Score {
	out := make([]Score, len(r.Scores))
	copy(out, r.Scores)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

func (r *Result) ByID(id string) (Score, bool) {
	for _, s := range r.Scores {
		if s.ID == id {
			return s, true
		}
	}
	return Score{}, false
}

// Rank scores the table's alternatives with TOPSIS.
//
// Only weighted criteria take part. A nil benefit list defaults to the
// weighted criteria not listed as cost, and vice versa; with both nil
// every criterion is a benefit. A weighted criterion listed in neither is
// treated as a cost.
func Rank(table *DecisionTable, weights map[string]float64, benefit, cost []string) (*Result, error) {
	if table == nil {
		return nil, fmt.Errorf("decision table is nil: %w", ErrInvalidMatrix)
	}
	criteria, err := validateWeights(table, weights)
	if err != nil {
		return nil, err
	}
	isBenefit, err := polarity(criteria, benefit, cost)
	if err != nil {
		return nil, err
	}

	n := table.Len()
	if n == 0 {
		return &Result{Scores: []Score{}}, nil
	}

	m := len(criteria)
	x := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		for j, c := range criteria {
			v, _ := table.Value(i, c)
			x.Set(i, j, v)
		}
	}

	// vector normalisation then weighting, column by column
	ideal := make([]float64, m)
	anti := make([]float64, m)
	col := make([]float64, n)
	for j, c := range criteria {
		mat.Col(col, j, x)
		norm := floats.Norm(col, 2)
		if norm == 0 {
			norm = 1
		}
		floats.Scale(weights[c]/norm, col)
		x.SetCol(j, col)

		if isBenefit[c] {
			ideal[j], anti[j] = floats.Max(col), floats.Min(col)
		} else {
			ideal[j], anti[j] = floats.Min(col), floats.Max(col)
		}
	}

	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)
		dPlus := floats.Distance(row, ideal, 2)
		dMinus := floats.Distance(row, anti, 2)
		raw[i] = closeness(dPlus, dMinus)
	}

	scores := make([]Score, n)
	for i := range scores {
		scores[i] = Score{ID: table.ID(i), Score: raw[i], Rank: minRank(raw, raw[i])}
	}
	return &Result{Scores: scores}, nil
}

// validateWeights returns the weighted criteria in sorted order.
func validateWeights(table *DecisionTable, weights map[string]float64) ([]string, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weights given: %w", ErrInvalidWeights)
	}

	criteria := make([]string, 0, len(weights))
	sum := 0.0
	for c, w := range weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			return nil, ErrInvalidWeights.WithDetails("criterion", c).WithDetails("weight", w)
		}
		sum += w
		criteria = append(criteria, c)
	}
	sort.Strings(criteria)

	if math.Abs(sum-1) > WeightTolerance {
		return nil, fmt.Errorf("weights sum to %.6f, want 1.0: %w", sum, ErrInvalidWeights)
	}

	var missing []string
	for _, c := range criteria {
		if !table.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("criteria not in table: %s: %w", strings.Join(missing, ", "), ErrInvalidWeights)
	}
	return criteria, nil
}

func polarity(criteria, benefit, cost []string) (map[string]bool, error) {
	weighted := make(map[string]struct{}, len(criteria))
	for _, c := range criteria {
		weighted[c] = struct{}{}
	}

	benefitSet := make(map[string]struct{}, len(benefit))
	for _, c := range benefit {
		if _, ok := weighted[c]; !ok {
			return nil, fmt.Errorf("benefit criterion %q is not weighted: %w", c, ErrInvalidCriteria)
		}
		benefitSet[c] = struct{}{}
	}
	costSet := make(map[string]struct{}, len(cost))
	for _, c := range cost {
		if _, ok := weighted[c]; !ok {
			return nil, fmt.Errorf("cost criterion %q is not weighted: %w", c, ErrInvalidCriteria)
		}
		if _, dup := benefitSet[c]; dup {
			return nil, fmt.Errorf("criterion %q is both benefit and cost: %w", c, ErrInvalidCriteria)
		}
		costSet[c] = struct{}{}
	}

	isBenefit := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		switch {
		case benefit == nil && cost == nil:
			isBenefit[c] = true
		case benefit == nil:
			_, isCost := costSet[c]
			isBenefit[c] = !isCost
		default:
			_, listed := benefitSet[c]
			isBenefit[c] = listed
		}
	}
	return isBenefit, nil
}

func closeness(dPlus, dMinus float64) float64 {
	total := dPlus + dMinus
	if total == 0 || math.IsNaN(total) {
		return 0.5
	}
	s := dMinus / total
	switch {
	case math.IsNaN(s):
		return 0.5
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}

// minRank is one plus the number of scores strictly greater than s.
func minRank(all []float64, s float64) int {
	r := 1
	for _, v := range all {
		if v > s {
			r++
		}
	}
	return r
}
