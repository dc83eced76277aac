package ranking

import (
	"context"
	"fmt"

	"github.com/jguan/model-catalog/pkg/unit"
)

func alternativesField() unit.Field {
	return unit.Field{
		Name: "alternatives",
		Schema: unit.Schema{
			Type:        "array",
			Description: "Alternatives as {id, values: {criterion: number}}",
			Items: &unit.Schema{
				Type: "object",
				Properties: map[string]unit.Field{
					"id":     {Name: "id", Schema: unit.Schema{Type: "string"}},
					"values": {Name: "values", Schema: unit.Schema{Type: "object"}},
				},
				Required: []string{"id", "values"},
			},
		},
	}
}

// tableFromInput builds a table over the given criteria. Other values an
// alternative carries are ignored. A criterion no alternative names is left
// out so Rank and ParetoFront report it as unknown.
func tableFromInput(m map[string]any, criteria []string) (*DecisionTable, error) {
	raw, ok := m["alternatives"].([]any)
	if !ok {
		return nil, fmt.Errorf("alternatives must be an array: %w", ErrInvalidInput)
	}

	type alt struct {
		id     string
		values map[string]float64
	}
	alts := make([]alt, 0, len(raw))
	seen := make(map[string]struct{})
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("alternative %d must be an object: %w", i, ErrInvalidInput)
		}
		id := unit.GetString(obj, "id")
		if id == "" {
			id = fmt.Sprintf("alt-%d", i)
		}
		values, err := unit.GetFloat64Map(obj, "values")
		if err != nil {
			return nil, fmt.Errorf("alternative %q: %v: %w", id, err, ErrInvalidInput)
		}
		for name := range values {
			seen[name] = struct{}{}
		}
		alts = append(alts, alt{id: id, values: values})
	}

	var names []string
	for _, c := range criteria {
		if _, ok := seen[c]; ok {
			names = append(names, c)
		}
	}
	table := NewDecisionTable(names...)
	for _, a := range alts {
		if err := table.Add(a.id, a.values); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// TOPSISQuery exposes Rank over caller-supplied alternatives.
type TOPSISQuery struct {
	events unit.EventPublisher
}

func NewTOPSISQuery() *TOPSISQuery { return &TOPSISQuery{} }

func NewTOPSISQueryWithEvents(events unit.EventPublisher) *TOPSISQuery {
	return &TOPSISQuery{events: events}
}

func (q *TOPSISQuery) Name() string        { return "ranking.topsis" }
func (q *TOPSISQuery) Domain() string      { return "ranking" }
func (q *TOPSISQuery) Description() string { return "Rank alternatives with TOPSIS" }

func (q *TOPSISQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"alternatives": alternativesField(),
			"weights": {
				Name:   "weights",
				Schema: unit.Schema{Type: "object", Description: "Criterion weights summing to 1.0"},
			},
			"benefit_criteria": {
				Name:   "benefit_criteria",
				Schema: unit.Schema{Type: "array", Description: "Higher is better", Items: &unit.Schema{Type: "string"}},
			},
			"cost_criteria": {
				Name:   "cost_criteria",
				Schema: unit.Schema{Type: "array", Description: "Lower is better", Items: &unit.Schema{Type: "string"}},
			},
		},
		Required: []string{"alternatives", "weights"},
	}
}

func (q *TOPSISQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"results": {
				Name:   "results",
				Schema: unit.Schema{Type: "array", Description: "Scores ordered by rank", Items: &unit.Schema{Type: "object"}},
			},
		},
	}
}

func (q *TOPSISQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{
				"alternatives": []any{
					map[string]any{"id": "a", "values": map[string]any{"accuracy": 0.85, "latency": 100}},
					map[string]any{"id": "b", "values": map[string]any{"accuracy": 0.90, "latency": 150}},
				},
				"weights":       map[string]any{"accuracy": 0.5, "latency": 0.5},
				"cost_criteria": []any{"latency"},
			},
			Output: map[string]any{"results": []map[string]any{{"id": "a", "rank": 1}, {"id": "b", "rank": 2}}},
		},
	}
}

func (q *TOPSISQuery) Execute(ctx context.Context, input any) (any, error) {
	ec := unit.NewExecutionContext(q.events, q.Domain(), q.Name())
	ec.PublishStarted(input)

	out, err := q.execute(input)
	if err != nil {
		ec.PublishFailed(err)
		return nil, err
	}
	ec.PublishCompleted(out)
	return out, nil
}

func (q *TOPSISQuery) execute(input any) (map[string]any, error) {
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input: %w", ErrInvalidInput)
	}
	weights, err := unit.GetFloat64Map(m, "weights")
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidWeights)
	}
	criteria := make([]string, 0, len(weights))
	for c := range weights {
		criteria = append(criteria, c)
	}
	table, err := tableFromInput(m, criteria)
	if err != nil {
		return nil, err
	}

	res, err := Rank(table, weights, unit.GetStringSlice(m, "benefit_criteria"), unit.GetStringSlice(m, "cost_criteria"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": res.Sorted()}, nil
}

// ParetoQuery returns the non-dominated set of caller-supplied alternatives.
type ParetoQuery struct{}

func NewParetoQuery() *ParetoQuery { return &ParetoQuery{} }

func (q *ParetoQuery) Name() string        { return "ranking.pareto" }
func (q *ParetoQuery) Domain() string      { return "ranking" }
func (q *ParetoQuery) Description() string { return "Find Pareto-optimal alternatives" }

func (q *ParetoQuery) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"alternatives": alternativesField(),
			"objectives": {
				Name: "objectives",
				Schema: unit.Schema{
					Type:        "array",
					Description: "Objectives as {name, maximize}",
					Items: &unit.Schema{
						Type: "object",
						Properties: map[string]unit.Field{
							"name":     {Name: "name", Schema: unit.Schema{Type: "string"}},
							"maximize": {Name: "maximize", Schema: unit.Schema{Type: "boolean"}},
						},
						Required: []string{"name"},
					},
				},
			},
		},
		Required: []string{"alternatives", "objectives"},
	}
}

func (q *ParetoQuery) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"front": {Name: "front", Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "object"}}},
		},
	}
}

func (q *ParetoQuery) Examples() []unit.Example {
	return []unit.Example{
		{
			Input: map[string]any{
				"alternatives": []any{
					map[string]any{"id": "fast", "values": map[string]any{"accuracy": 0.8, "latency": 50}},
					map[string]any{"id": "slow", "values": map[string]any{"accuracy": 0.8, "latency": 90}},
				},
				"objectives": []any{
					map[string]any{"name": "accuracy", "maximize": true},
					map[string]any{"name": "latency", "maximize": false},
				},
			},
			Output: map[string]any{"front": []map[string]any{{"id": "fast", "dominance_score": 1}}},
		},
	}
}

func (q *ParetoQuery) Execute(ctx context.Context, input any) (any, error) {
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input: %w", ErrInvalidInput)
	}
	rawObjectives, ok := m["objectives"].([]any)
	if !ok {
		return nil, fmt.Errorf("objectives must be an array: %w", ErrInvalidInput)
	}
	objectives := make([]Objective, 0, len(rawObjectives))
	for i, item := range rawObjectives {
		obj, ok := item.(map[string]any)
		if !ok || unit.GetString(obj, "name") == "" {
			return nil, fmt.Errorf("objective %d needs a name: %w", i, ErrInvalidInput)
		}
		objectives = append(objectives, Objective{
			Name:     unit.GetString(obj, "name"),
			Maximize: unit.GetBool(obj, "maximize", true),
		})
	}

	names := make([]string, len(objectives))
	for i, o := range objectives {
		names[i] = o.Name
	}
	table, err := tableFromInput(m, names)
	if err != nil {
		return nil, err
	}

	front, err := ParetoFront(table, objectives)
	if err != nil {
		return nil, err
	}
	return map[string]any{"front": front, "total": len(front)}, nil
}
