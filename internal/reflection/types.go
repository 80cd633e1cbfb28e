package reflection

import (
	"reflect"
	"sync"
)

// typeNames caches fully-qualified type names, which are computed recursively.
var typeNames sync.Map // map[reflect.Type]string

// TypeName returns the fully-qualified name of t, e.g. "*github.com/acme/app.Service".
// Named types use their package path; composite types are spelled out the way Go prints them.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}

	if cached, ok := typeNames.Load(t); ok {
		return cached.(string)
	}

	name := typeName(t)
	actual, _ := typeNames.LoadOrStore(t, name)
	return actual.(string)
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.String() // predeclared types and error
		}
		// Generic instantiations keep their bracketed arguments from String().
		short := t.String()
		if i := indexByte(short, '.'); i >= 0 {
			short = short[i+1:]
		}
		return t.PkgPath() + "." + short
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeName(t.Elem())
	case reflect.Slice:
		return "[]" + TypeName(t.Elem())
	case reflect.Map:
		return "map[" + TypeName(t.Key()) + "]" + TypeName(t.Elem())
	}

	return t.String()
}

func indexByte(s string, c byte) int {
	// Stop at '[' so the package qualifier of type arguments is not mistaken for ours.
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case c:
			return i
		case '[':
			return -1
		}
	}
	return -1
}

// IsPrimitive reports whether t is a predeclared scalar kind.
func IsPrimitive(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128, reflect.String:
		return true
	}
	return false
}

// CanBeNil reports whether a value of type t may be nil.
func CanBeNil(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	}
	return false
}

// IsClassLike reports whether t can be constructed by the container: a named struct,
// a pointer to a named struct, or a named interface with at least one method.
func IsClassLike(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct:
		return t.Name() != ""
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct && t.Elem().Name() != ""
	case reflect.Interface:
		return t.Name() != "" && t.NumMethod() > 0
	}
	return false
}
