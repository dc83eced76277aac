// Package ptrs returns pointers to literal values. Optional numeric fields
// (benchmark metrics, constraints) are pointers throughout the catalog.
package ptrs

// Of returns a pointer to v.
func Of[T any](v T) *T { return &v }

func Int(v int) *int { return &v }

func Float64(v float64) *float64 { return &v }

func String(v string) *string { return &v }

func Bool(v bool) *bool { return &v }

// Deref returns *p, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
