package restructure

import (
	"fmt"
	"math"
	"reflect"

	"github.com/arloliu/restructure/errs"
)

// Record is the decoded form of a struct: field name to value.
//
// Lazy pointer fields hold a *Lazy until resolved; use Get or Resolve to read
// them transparently.
type Record map[string]any

// Get returns the named field, materializing it first when it is lazy.
func (r Record) Get(key string) (any, error) {
	v, ok := r[key]
	if !ok {
		return nil, nil
	}

	return unwrapLazy(v)
}

// Resolve materializes every lazy field, recursing into nested records and
// slices, and returns r.
func (r Record) Resolve() (Record, error) {
	for k, v := range r {
		resolved, err := resolveDeep(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		r[k] = resolved
	}

	return r, nil
}

func resolveDeep(v any) (any, error) {
	v, err := unwrapLazy(v)
	if err != nil {
		return nil, err
	}

	switch val := v.(type) {
	case Record:
		return val.Resolve()
	case []any:
		for i, item := range val {
			if val[i], err = resolveDeep(item); err != nil {
				return nil, err
			}
		}

		return val, nil
	default:
		return v, nil
	}
}

// Lazy is a deferred pointer dereference. The target is decoded on the first
// call to Value and cached afterwards.
type Lazy struct {
	load func() (any, error)
	val  any
	err  error
	done bool
}

// NewLazy wraps a loader in a Lazy.
func NewLazy(load func() (any, error)) *Lazy {
	return &Lazy{load: load}
}

// Value decodes the target on first use and returns the cached result.
func (l *Lazy) Value() (any, error) {
	if !l.done {
		l.val, l.err = l.load()
		l.done = true
		l.load = nil
	}

	return l.val, l.err
}

func unwrapLazy(v any) (any, error) {
	if lazy, ok := v.(*Lazy); ok {
		return lazy.Value()
	}

	return v, nil
}

// asRecord accepts the map shapes a struct can be encoded from.
func asRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

// toInt converts any Go numeric kind to int. Floats are truncated toward
// zero; NaN and infinities are rejected.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true //nolint:gosec
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true //nolint:gosec
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	}

	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return int(f), true
}

// toFloat converts any Go numeric kind to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}

	i, ok := toInt(v)

	return float64(i), ok
}

// toSlice converts any slice or array value to []any.
func toSlice(v any) ([]any, error) {
	switch s := v.(type) {
	case []any:
		return s, nil
	case *LazyArray:
		return s.ToSlice()
	case nil:
		return nil, fmt.Errorf("%w: nil array", errs.ErrInvalidValue)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: expected a slice, got %T", errs.ErrInvalidValue, v)
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, nil
}

// normalizeKey maps numeric discriminants to int so that version tables and
// enum options compare equal regardless of the Go numeric kind used.
func normalizeKey(v any) any {
	switch n := v.(type) {
	case float32:
		return normalizeFloat(float64(n), v)
	case float64:
		return normalizeFloat(n, v)
	}

	if i, ok := toInt(v); ok {
		return i
	}

	return v
}

func normalizeFloat(f float64, orig any) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int(f)
	}

	return orig
}

// valuesEqual compares option values, treating numerics of any kind alike.
func valuesEqual(a, b any) bool {
	a, b = normalizeKey(a), normalizeKey(b)
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if reflect.TypeOf(a) != nil && reflect.TypeOf(a).Comparable() {
		return a == b
	}

	return reflect.DeepEqual(a, b)
}

// isHashable reports whether v can be used as a map key without panicking.
func isHashable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}
