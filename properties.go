package reflective

import (
	"reflect"

	"github.com/junioryono/reflective/internal/reflection"
)

// Injectable marks a struct for property injection when embedded:
//
//	type Handler struct {
//	    reflective.Injectable
//
//	    Service *Service `inject:""`
//	    Cache   Cache    `inject:"cache,optional,prefer,default"`
//	}
type Injectable = reflection.Injectable

// injectProperties resolves the marked properties of instance that do not hold a value yet.
// Properties match caller values by name only.
func (c *Container) injectProperties(t *target, instance any, values Values) (any, error) {
	if len(t.desc.Properties) == 0 || instance == nil {
		return instance, nil
	}

	val := reflect.ValueOf(instance)
	var structVal reflect.Value
	switch {
	case val.Kind() == reflect.Pointer && !val.IsNil() && val.Elem().Kind() == reflect.Struct:
		structVal = val.Elem()
	case val.Kind() == reflect.Struct:
		// Struct values are not addressable; inject into a copy.
		copied := reflect.New(val.Type())
		copied.Elem().Set(val)
		val = copied.Elem()
		structVal = val
	default:
		return instance, nil
	}

	info, err := c.analyzer.Struct(structVal.Type())
	if err != nil {
		return nil, err
	}

	r := &resolution{
		desc:     t.desc,
		values:   values,
		resolved: make(map[string]any, len(t.desc.Properties)),
	}

	for i, p := range t.desc.Properties {
		field := structVal.Field(info.Fields[i].Index)
		if !field.CanSet() {
			continue
		}
		if !field.IsZero() {
			r.resolved[p.Name] = field.Interface()
			continue
		}

		v, err := c.resolveParameter(r, p, false)
		if err != nil {
			return nil, err
		}

		bound, err := reflection.Bind(v, p.GoType)
		if err != nil {
			return nil, mismatch(t.desc, p, v)
		}
		field.Set(bound)
		r.resolved[p.Name] = v
	}

	return val.Interface(), nil
}
