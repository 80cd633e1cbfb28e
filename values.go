package reflective

import (
	"reflect"

	"github.com/junioryono/reflective/internal/reflection"
)

// Values holds caller-supplied values for a resolution. Keys are parameter names
// (string), zero-based positions (int) or fully-qualified type names (string, see TypeName).
//
//	reflective.Values{
//	    "timeout":                   30 * time.Second,
//	    0:                           "first",
//	    reflective.TypeName[*DB](): db,
//	}
type Values map[any]any

// byName returns the value supplied under a parameter name.
func (v Values) byName(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v[name]
	return val, ok
}

// byPosition returns the value supplied under a zero-based position.
func (v Values) byPosition(position int) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v[position]
	return val, ok
}

// Merge returns a new map holding v overlaid with other.
func (v Values) Merge(other Values) Values {
	if len(v) == 0 && len(other) == 0 {
		return nil
	}
	merged := make(Values, len(v)+len(other))
	for k, val := range v {
		merged[k] = val
	}
	for k, val := range other {
		merged[k] = val
	}
	return merged
}

// TypeName returns the fully-qualified type name of T, the default target name
// for constructors producing T and the key for type-keyed Values.
func TypeName[T any]() string {
	return reflection.TypeName(reflect.TypeFor[T]())
}

// TypeNameOf returns the fully-qualified type name of t.
func TypeNameOf(t reflect.Type) string {
	return reflection.TypeName(t)
}
