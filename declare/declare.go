// Package declare renders target descriptors as human-readable declarations.
//
// The output is meant for diagnostics and tooling:
//
//	*github.com/acme/app.Service = NewService(
//	    store *github.com/acme/app.Store `resolve:"primary" optional prefer`,
//	    timeout time.Duration = 5s,
//	)
package declare

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/junioryono/reflective"
)

const indent = "    "

// Target renders the declaration of a target: its constructor signature and,
// when property injection is enabled, its injected properties.
func Target(desc reflective.TargetDescriptor) string {
	var b strings.Builder

	b.WriteString(desc.Name)
	if desc.Function != "" {
		b.WriteString(" = ")
		b.WriteString(desc.Function)
		writeParams(&b, desc.Params)
	}

	if desc.InjectProperties && len(desc.Properties) > 0 {
		b.WriteString(" {\n")
		for _, p := range desc.Properties {
			b.WriteString(indent)
			b.WriteString(Parameter(p))
			b.WriteString("\n")
		}
		b.WriteString("}")
	}

	return b.String()
}

func writeParams(b *strings.Builder, params []reflective.ParameterDescriptor) {
	if len(params) == 0 {
		b.WriteString("()")
		return
	}

	b.WriteString("(\n")
	for _, p := range params {
		b.WriteString(indent)
		b.WriteString(Parameter(p))
		b.WriteString(",\n")
	}
	b.WriteString(")")
}

// Parameter renders one parameter: name, type set, default and directives.
func Parameter(p reflective.ParameterDescriptor) string {
	var b strings.Builder
	b.WriteString(p.Name)

	if types := p.Types.String(); types != "" {
		b.WriteString(" ")
		b.WriteString(types)
	}

	if p.HasDefault {
		b.WriteString(" = ")
		b.WriteString(Value(p.Default))
	}

	if len(p.Directives) > 0 {
		parts := make([]string, 0, len(p.Directives))
		for _, d := range p.Directives {
			parts = append(parts, Directive(d))
		}
		b.WriteString(" `")
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("`")
	}

	return b.String()
}

// Directive renders a directive in tag-like form.
func Directive(d reflective.Directive) string {
	switch d := d.(type) {
	case reflective.ResolveByID:
		var b strings.Builder
		fmt.Fprintf(&b, "resolve:%q", d.ID)
		if d.Optional {
			b.WriteString(" optional")
		}
		if d.PreferResolution {
			b.WriteString(" prefer")
		}
		if len(d.Values) > 0 {
			b.WriteString(" values:")
			b.WriteString(values(d.Values))
		}
		return b.String()
	case reflective.PreferResolution:
		return "prefer"
	case reflective.ExtraValues:
		return "values:" + values(d.Values)
	case reflective.Propagate:
		sources := make([]string, len(d.Sources))
		for i, src := range d.Sources {
			sources[i] = src.From
			if src.As != nil && src.As != any(src.From) {
				sources[i] += "->" + fmt.Sprint(src.As)
			}
		}
		return fmt.Sprintf("using:%q", strings.Join(sources, ","))
	default:
		return fmt.Sprintf("%T", d)
	}
}

// Value renders a default or caller value as a Go-syntax literal where possible.
func Value(v any) string {
	if v == nil {
		return "nil"
	}

	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case fmt.Stringer:
		return val.String()
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if reflect.ValueOf(v).IsNil() {
			return "nil"
		}
	}
	return fmt.Sprintf("%#v", v)
}

func values(v reflective.Values) string {
	keys := make([]string, 0, len(v))
	byKey := make(map[string]any, len(v))
	for k, val := range v {
		key := fmt.Sprint(k)
		keys = append(keys, key)
		byKey[key] = val
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + Value(byKey[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
