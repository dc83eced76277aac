package ranking

import (
	"fmt"
	"math"
	"sort"
)

// DecisionTable is a fixed set of criteria and the alternatives scored on
// them. Every alternative carries a finite value for every criterion.
type DecisionTable struct {
	criteria []string
	index    map[string]int
	ids      []string
	rows     [][]float64
}

// NewDecisionTable creates a table over the given criteria. Duplicate
// names are collapsed; columns are kept in sorted order.
func NewDecisionTable(criteria ...string) *DecisionTable {
	set := make(map[string]struct{}, len(criteria))
	for _, c := range criteria {
		set[c] = struct{}{}
	}
	sorted := make([]string, 0, len(set))
	for c := range set {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)

	index := make(map[string]int, len(sorted))
	for i, c := range sorted {
		index[c] = i
	}
	return &DecisionTable{criteria: sorted, index: index}
}

// Add appends an alternative. Values for unknown criteria are ignored.
func (t *DecisionTable) Add(id string, values map[string]float64) error {
	row := make([]float64, len(t.criteria))
	for i, c := range t.criteria {
		v, ok := values[c]
		if !ok {
			return fmt.Errorf("alternative %q has no value for %q: %w", id, c, ErrInvalidMatrix)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("alternative %q has non-finite %q: %w", id, c, ErrInvalidMatrix)
		}
		row[i] = v
	}
	t.ids = append(t.ids, id)
	t.rows = append(t.rows, row)
	return nil
}

func (t *DecisionTable) Len() int { return len(t.rows) }

func (t *DecisionTable) Criteria() []string {
	out := make([]string, len(t.criteria))
	copy(out, t.criteria)
	return out
}

func (t *DecisionTable) Has(criterion string) bool {
	_, ok := t.index[criterion]
	return ok
}

func (t *DecisionTable) ID(i int) string { return t.ids[i] }

// Value returns the value of criterion for the i-th alternative.
func (t *DecisionTable) Value(i int, criterion string) (float64, bool) {
	j, ok := t.index[criterion]
	if !ok || i < 0 || i >= len(t.rows) {
		return 0, false
	}
	return t.rows[i][j], true
}

// Values returns a copy of the i-th alternative as a name to value map.
func (t *DecisionTable) Values(i int) map[string]float64 {
	out := make(map[string]float64, len(t.criteria))
	for j, c := range t.criteria {
		out[c] = t.rows[i][j]
	}
	return out
}
