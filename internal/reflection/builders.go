package reflection

import (
	"fmt"
	"math"
	"reflect"
)

// ConvertError describes a value that cannot be bound to a parameter type.
type ConvertError struct {
	Expected reflect.Type
	Actual   reflect.Type // nil for an untyped nil
}

func (e *ConvertError) Error() string {
	if e.Actual == nil {
		return fmt.Sprintf("cannot use nil as %s", TypeName(e.Expected))
	}
	return fmt.Sprintf("cannot use %s as %s", TypeName(e.Actual), TypeName(e.Expected))
}

// PanicError carries a value recovered from a panicking call.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Bind converts v to a reflect.Value assignable to t.
// Nil binds to the zero value of nillable types. Numeric values convert between
// numeric kinds only when the value survives unchanged; floats never become integers.
func Bind(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		if CanBeNil(t) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, &ConvertError{Expected: t}
	}

	val := reflect.ValueOf(v)
	if val.Type().AssignableTo(t) {
		return val, nil
	}

	if converted, ok := convertNumber(val, t); ok {
		return converted, nil
	}

	return reflect.Value{}, &ConvertError{Expected: t, Actual: val.Type()}
}

// convertNumber converts val to the numeric type t without overflow or truncation.
// Integers convert to floats only within the float's exact integer range.
func convertNumber(val reflect.Value, t reflect.Type) (reflect.Value, bool) {
	from, to := numericClass(val.Kind()), numericClass(t.Kind())
	if from == notNumeric || to == notNumeric {
		return reflect.Value{}, false
	}

	out := reflect.New(t).Elem()
	switch from {
	case signed:
		n := val.Int()
		switch to {
		case signed:
			if out.OverflowInt(n) {
				return reflect.Value{}, false
			}
			out.SetInt(n)
		case unsigned:
			if n < 0 || out.OverflowUint(uint64(n)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(n))
		case float:
			limit := exactFloatLimit(t.Kind())
			if n < -int64(limit) || n > int64(limit) {
				return reflect.Value{}, false
			}
			out.SetFloat(float64(n))
		}
	case unsigned:
		u := val.Uint()
		switch to {
		case signed:
			if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
				return reflect.Value{}, false
			}
			out.SetInt(int64(u))
		case unsigned:
			if out.OverflowUint(u) {
				return reflect.Value{}, false
			}
			out.SetUint(u)
		case float:
			if u > exactFloatLimit(t.Kind()) {
				return reflect.Value{}, false
			}
			out.SetFloat(float64(u))
		}
	case float:
		if to != float {
			return reflect.Value{}, false
		}
		f := val.Float()
		if out.OverflowFloat(f) {
			return reflect.Value{}, false
		}
		out.SetFloat(f)
	}
	return out, true
}

type numeric int

const (
	notNumeric numeric = iota
	signed
	unsigned
	float
)

func numericClass(k reflect.Kind) numeric {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signed
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return unsigned
	case reflect.Float32, reflect.Float64:
		return float
	}
	return notNumeric
}

// exactFloatLimit is the largest magnitude below which every integer is
// representable by the float kind.
func exactFloatLimit(k reflect.Kind) uint64 {
	if k == reflect.Float32 {
		return 1 << 24
	}
	return 1 << 53
}

// Invoke calls fn with args. A panic inside fn is returned as *PanicError.
// When fn returns an error as its last value and it is non-nil, that error is returned.
func Invoke(info *FuncInfo, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = &PanicError{Value: r}
		}
	}()

	if info.Variadic {
		results = info.Value.CallSlice(args)
	} else {
		results = info.Value.Call(args)
	}

	if info.HasErrorReturn && len(results) > 0 {
		last := results[len(results)-1]
		results = results[:len(results)-1]
		if CanBeNil(last.Type()) && last.IsNil() {
			return results, nil
		}
		return nil, last.Interface().(error)
	}

	return results, nil
}
