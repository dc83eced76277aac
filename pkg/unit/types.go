package unit

import (
	"context"
	"time"
)

type Schema struct {
	Type       string           `json:"type"`
	Properties map[string]Field `json:"properties,omitempty"`
	Items      *Schema          `json:"items,omitempty"`
	Required   []string         `json:"required,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
	Default   any      `json:"default,omitempty"`
	Examples  []any    `json:"examples,omitempty"`
}

type Field struct {
	Schema
	Name string `json:"name"`
}

type Example struct {
	Input       any    `json:"input"`
	Output      any    `json:"output"`
	Description string `json:"description,omitempty"`
}

// Command mutates catalog state (models, versions, benchmark results).
type Command interface {
	Name() string
	Domain() string
	InputSchema() Schema
	OutputSchema() Schema
	Execute(ctx context.Context, input any) (output any, err error)
	Description() string
	Examples() []Example
}

// Query is a read-only unit. Pure calculators (VRAM, GPU matching, ranking)
// are queries as well.
type Query interface {
	Name() string
	Domain() string
	InputSchema() Schema
	OutputSchema() Schema
	Execute(ctx context.Context, input any) (output any, err error)
	Description() string
	Examples() []Example
}

type Event interface {
	Type() string
	Domain() string
	Payload() any
	Timestamp() time.Time
	CorrelationID() string
}
