package unit

import (
	"fmt"
	"math"
)

// Input helpers shared by unit Execute methods. Units receive
// map[string]any decoded from JSON, so numbers usually arrive as float64.

func InputMap(input any) (map[string]any, bool) {
	if input == nil {
		return map[string]any{}, true
	}
	m, ok := toStringMap(input)
	return m, ok
}

func GetString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func GetFloat64(m map[string]any, key string) (float64, bool) {
	v, exists := m[key]
	if !exists || v == nil {
		return 0, false
	}
	return ToFloat64(v)
}

// GetOptionalFloat64 returns nil when key is absent or null.
func GetOptionalFloat64(m map[string]any, key string) (*float64, error) {
	v, exists := m[key]
	if !exists || v == nil {
		return nil, nil
	}
	f, ok := ToFloat64(v)
	if !ok {
		return nil, fmt.Errorf("%s must be a number, got %T", key, v)
	}
	return &f, nil
}

func GetInt(m map[string]any, key string) (int, bool) {
	f, ok := GetFloat64(m, key)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func GetInt64(m map[string]any, key string) (int64, bool) {
	f, ok := GetFloat64(m, key)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// GetBool returns def when key is absent or not a boolean.
func GetBool(m map[string]any, key string, def bool) bool {
	b, ok := m[key].(bool)
	if !ok {
		return def
	}
	return b
}

// GetStringSlice accepts []string and []any of strings; nil when absent.
func GetStringSlice(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// GetFloat64Map decodes an object of numbers, e.g. criterion weights.
func GetFloat64Map(m map[string]any, key string) (map[string]float64, error) {
	raw, exists := m[key]
	if !exists || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case map[string]float64:
		return v, nil
	case map[string]any:
		out := make(map[string]float64, len(v))
		for k, item := range v {
			f, ok := ToFloat64(item)
			if !ok {
				return nil, fmt.Errorf("%s.%s must be a number, got %T", key, k, item)
			}
			out[k] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an object, got %T", key, raw)
	}
}
