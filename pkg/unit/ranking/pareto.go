package ranking

import (
	"fmt"
	"sort"
)

// Objective is one axis of a Pareto comparison.
type Objective struct {
	Name     string `json:"name"`
	Maximize bool   `json:"maximize"`
}

// ParetoPoint is a non-dominated alternative. DominanceScore counts the
// alternatives it dominates.
type ParetoPoint struct {
	ID             string             `json:"id"`
	Values         map[string]float64 `json:"values"`
	DominanceScore int                `json:"dominance_score"`
}

// ParetoFront returns the non-dominated alternatives of table over the
// objectives, highest dominance score first. Ties keep table order.
func ParetoFront(table *DecisionTable, objectives []Objective) ([]ParetoPoint, error) {
	if table == nil {
		return nil, fmt.Errorf("decision table is nil: %w", ErrInvalidMatrix)
	}
	if len(objectives) == 0 {
		return nil, fmt.Errorf("no objectives given: %w", ErrInvalidCriteria)
	}
	seen := make(map[string]struct{}, len(objectives))
	for _, o := range objectives {
		if !table.Has(o.Name) {
			return nil, fmt.Errorf("objective %q is not in table: %w", o.Name, ErrInvalidCriteria)
		}
		if _, dup := seen[o.Name]; dup {
			return nil, fmt.Errorf("objective %q listed twice: %w", o.Name, ErrInvalidCriteria)
		}
		seen[o.Name] = struct{}{}
	}

	n := table.Len()
	points := make([][]float64, n)
	for i := 0; i < n; i++ {
		points[i] = make([]float64, len(objectives))
		for k, o := range objectives {
			points[i][k], _ = table.Value(i, o.Name)
		}
	}

	dominated := make([]bool, n)
	scores := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && dominates(points[i], points[j], objectives) {
				scores[i]++
				dominated[j] = true
			}
		}
	}

	front := make([]ParetoPoint, 0, n)
	for i := 0; i < n; i++ {
		if dominated[i] {
			continue
		}
		front = append(front, ParetoPoint{ID: table.ID(i), Values: table.Values(i), DominanceScore: scores[i]})
	}
	sort.SliceStable(front, func(i, j int) bool { return front[i].DominanceScore > front[j].DominanceScore })
	return front, nil
}

// dominates reports whether a is no worse than b on every objective and
// strictly better on at least one.
func dominates(a, b []float64, objectives []Objective) bool {
	better := false
	for k, o := range objectives {
		x, y := a[k], b[k]
		if !o.Maximize {
			x, y = -x, -y
		}
		if x < y {
			return false
		}
		if x > y {
			better = true
		}
	}
	return better
}
