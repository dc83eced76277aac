package unit

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Validate checks input against the schema. Object schemas ignore
// properties that are not declared.
func (s *Schema) Validate(input any) error {
	if input == nil {
		return fmt.Errorf("input is nil")
	}

	switch s.Type {
	case "string":
		return s.validateString(input)
	case "number":
		return s.validateNumber(input, false)
	case "integer":
		return s.validateNumber(input, true)
	case "boolean":
		if _, ok := input.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", input)
		}
		return nil
	case "array":
		return s.validateArray(input)
	case "object":
		return s.validateObject(input)
	case "":
		return nil
	default:
		return fmt.Errorf("unknown schema type: %s", s.Type)
	}
}

func (s *Schema) validateString(input any) error {
	str, ok := input.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", input)
	}

	if s.MinLength != nil && len(str) < *s.MinLength {
		return fmt.Errorf("string length %d is less than minimum %d", len(str), *s.MinLength)
	}
	if s.MaxLength != nil && len(str) > *s.MaxLength {
		return fmt.Errorf("string length %d exceeds maximum %d", len(str), *s.MaxLength)
	}

	if s.Pattern != "" {
		matched, err := regexp.MatchString(s.Pattern, str)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", s.Pattern, err)
		}
		if !matched {
			return fmt.Errorf("string %q does not match pattern %q", str, s.Pattern)
		}
	}

	return s.validateEnum(input)
}

func (s *Schema) validateNumber(input any, integer bool) error {
	value, ok := ToFloat64(input)
	if !ok {
		return fmt.Errorf("expected number, got %T", input)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("value %v is not finite", value)
	}
	if integer && value != math.Trunc(value) {
		return fmt.Errorf("expected integer, got %v", value)
	}

	if s.Min != nil && value < *s.Min {
		return fmt.Errorf("value %v is less than minimum %v", value, *s.Min)
	}
	if s.Max != nil && value > *s.Max {
		return fmt.Errorf("value %v exceeds maximum %v", value, *s.Max)
	}

	if len(s.Enum) == 0 {
		return nil
	}
	for _, e := range s.Enum {
		if ev, ok := ToFloat64(e); ok && ev == value {
			return nil
		}
	}
	return fmt.Errorf("value %v is not one of allowed values %v", input, s.Enum)
}

func (s *Schema) validateArray(input any) error {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		return fmt.Errorf("expected array, got %T", input)
	}
	if s.Items == nil {
		return nil
	}

	for i := 0; i < val.Len(); i++ {
		if err := s.Items.Validate(val.Index(i).Interface()); err != nil {
			return fmt.Errorf("array item %d: %w", i, err)
		}
	}
	return nil
}

func (s *Schema) validateObject(input any) error {
	obj, ok := toStringMap(input)
	if !ok {
		return fmt.Errorf("expected object, got %T", input)
	}

	for _, req := range s.Required {
		if v, exists := obj[req]; !exists || v == nil {
			return fmt.Errorf("required field %q is missing", req)
		}
	}

	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, exists := obj[name]
		if !exists || value == nil {
			continue
		}
		field := s.Properties[name]
		if err := field.Schema.Validate(value); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

func (s *Schema) validateEnum(input any) error {
	if len(s.Enum) == 0 {
		return nil
	}
	for _, enumValue := range s.Enum {
		if reflect.DeepEqual(input, enumValue) {
			return nil
		}
	}
	return fmt.Errorf("value %v is not one of allowed values %v", input, s.Enum)
}

// Coerce converts string values (query parameters, CLI flags) into the
// types declared by the schema's properties. Undeclared keys stay strings
// and values that fail to parse are left for Validate to reject.
func (s *Schema) Coerce(raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		field, ok := s.Properties[key]
		if !ok {
			out[key] = value
			continue
		}
		out[key] = coerceValue(field.Schema, value)
	}
	return out
}

func coerceValue(s Schema, value string) any {
	switch s.Type {
	case "number":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case "integer":
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	case "boolean":
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	case "array":
		parts := strings.Split(value, ",")
		items := make([]any, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if s.Items != nil {
				items = append(items, coerceValue(*s.Items, p))
			} else {
				items = append(items, p)
			}
		}
		return items
	}
	return value
}

// ToFloat64 accepts any Go numeric type, including json.Number-like
// values decoded as float64.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toStringMap(input any) (map[string]any, bool) {
	if obj, ok := input.(map[string]any); ok {
		return obj, true
	}
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Map || val.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	obj := make(map[string]any, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		obj[iter.Key().String()] = iter.Value().Interface()
	}
	return obj, true
}

func StringSchema() *Schema {
	return &Schema{Type: "string"}
}

func NumberSchema() *Schema {
	return &Schema{Type: "number"}
}

func IntegerSchema() *Schema {
	return &Schema{Type: "integer"}
}

func BooleanSchema() *Schema {
	return &Schema{Type: "boolean"}
}

func ArraySchema(items *Schema) *Schema {
	return &Schema{Type: "array", Items: items}
}

func ObjectSchema(properties map[string]Field, required []string) *Schema {
	return &Schema{Type: "object", Properties: properties, Required: required}
}

func NewField(name string, schema *Schema) Field {
	return Field{Name: name, Schema: *schema}
}
