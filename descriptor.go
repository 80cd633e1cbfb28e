package reflective

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/reflective/internal/reflection"
)

// TypeRef is one alternative in a parameter's declared type set.
type TypeRef struct {
	Name    string
	Builtin bool
	Type    reflect.Type // Nil for references declared by name only
}

// Type returns a TypeRef for T.
func Type[T any]() TypeRef {
	return typeRef(reflect.TypeFor[T]())
}

// Named returns a class-like TypeRef for a target name that has no Go type at hand,
// for example a target that may or may not be registered.
func Named(name string) TypeRef {
	return TypeRef{Name: name}
}

func typeRef(t reflect.Type) TypeRef {
	return TypeRef{
		Name:    reflection.TypeName(t),
		Builtin: !reflection.IsClassLike(t),
		Type:    t,
	}
}

// TypeSet is the ordered list of alternatives a parameter accepts.
type TypeSet struct {
	Alternatives []TypeRef
	Nullable     bool
}

// ClassLike returns the alternatives the container may construct, in declared order.
func (s TypeSet) ClassLike() []TypeRef {
	refs := make([]TypeRef, 0, len(s.Alternatives))
	for _, ref := range s.Alternatives {
		if !ref.Builtin {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (s TypeSet) String() string {
	names := make([]string, 0, len(s.Alternatives)+1)
	for _, ref := range s.Alternatives {
		names = append(names, ref.Name)
	}
	if s.Nullable {
		names = append(names, "nil")
	}
	return strings.Join(names, "|")
}

// ParameterDescriptor describes one constructor/function parameter or injectable property.
type ParameterDescriptor struct {
	Name       string
	Position   int
	Types      TypeSet
	HasDefault bool
	Default    any
	Directives []Directive
	GoType     reflect.Type // Static Go type the value is bound to
}

// TargetDescriptor describes a constructible target or an invocable.
type TargetDescriptor struct {
	Name             string
	Function         string // Constructor, function or method name
	Declaring        string // Declaring context for diagnostics
	Params           []ParameterDescriptor
	Properties       []ParameterDescriptor
	InjectProperties bool
}

// Param looks up a parameter by name.
func (d TargetDescriptor) Param(name string) (ParameterDescriptor, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterDescriptor{}, false
}

// ParamNames returns parameter names in declaration order.
func (d TargetDescriptor) ParamNames() []string {
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return names
}

// FillParameters fills a name-keyed argument map without resolving dependencies:
// a value by name, then by position, then the default (when setDefault), then nil (when setNil).
// Parameters matching none of these are left out.
func (d TargetDescriptor) FillParameters(values Values, setNil, setDefault bool) map[string]any {
	filled := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		if v, ok := values.byName(p.Name); ok {
			filled[p.Name] = v
			continue
		}
		if v, ok := values.byPosition(p.Position); ok {
			filled[p.Name] = v
			continue
		}
		if setDefault && p.HasDefault {
			filled[p.Name] = p.Default
			continue
		}
		if setNil {
			filled[p.Name] = nil
		}
	}
	return filled
}

// ========================================
// Parameter specs
// ========================================

// ParamSpec declares the metadata of one parameter, by position.
type ParamSpec struct {
	name string
	opts []ParamOption
}

// Param declares a parameter name and its metadata.
//
//	reflective.Param("cache", reflective.Default(nil), reflective.WithDirective(reflective.PreferResolution{}))
func Param(name string, opts ...ParamOption) ParamSpec {
	return ParamSpec{name: name, opts: opts}
}

// ParamOption configures a parameter descriptor.
type ParamOption interface {
	applyParam(*ParameterDescriptor)
}

type paramOptionFunc func(*ParameterDescriptor)

func (f paramOptionFunc) applyParam(p *ParameterDescriptor) {
	f(p)
}

// Default gives the parameter a default value.
func Default(v any) ParamOption {
	return paramOptionFunc(func(p *ParameterDescriptor) {
		p.HasDefault = true
		p.Default = v
	})
}

// Nullable lets the parameter resolve to nil once every alternative is exhausted.
func Nullable() ParamOption {
	return paramOptionFunc(func(p *ParameterDescriptor) {
		p.Types.Nullable = true
	})
}

// OneOf replaces the parameter's declared type set with the given alternatives.
func OneOf(refs ...TypeRef) ParamOption {
	return paramOptionFunc(func(p *ParameterDescriptor) {
		p.Types.Alternatives = append([]TypeRef(nil), refs...)
	})
}

// WithDirective attaches directives to the parameter.
func WithDirective(directives ...Directive) ParamOption {
	return paramOptionFunc(func(p *ParameterDescriptor) {
		p.Directives = append(p.Directives, directives...)
	})
}

// describeFunc builds a descriptor for an analyzed function and its parameter specs.
func describeFunc(info *reflection.FuncInfo, target, function string, specs []ParamSpec) (TargetDescriptor, error) {
	if len(specs) > len(info.Params) {
		return TargetDescriptor{}, fmt.Errorf("%w: %d specs for %d parameters", ErrInvalidParams, len(specs), len(info.Params))
	}

	desc := TargetDescriptor{
		Name:      target,
		Function:  function,
		Declaring: target,
		Params:    make([]ParameterDescriptor, len(info.Params)),
	}

	seen := make(map[string]bool, len(info.Params))
	for i, param := range info.Params {
		p := ParameterDescriptor{
			Name:     fmt.Sprintf("arg%d", i),
			Position: i,
			Types:    TypeSet{Alternatives: []TypeRef{typeRef(param.Type)}},
			GoType:   param.Type,
		}

		// A variadic tail may always be empty.
		if info.Variadic && i == len(info.Params)-1 {
			p.HasDefault = true
		}

		if i < len(specs) {
			if specs[i].name != "" {
				p.Name = specs[i].name
			}
			for _, opt := range specs[i].opts {
				if opt != nil {
					opt.applyParam(&p)
				}
			}
		}

		if seen[p.Name] {
			return TargetDescriptor{}, fmt.Errorf("duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = true
		desc.Params[i] = p
	}

	return desc, nil
}

// describeProperties builds property descriptors from inject-tagged struct fields.
func describeProperties(info *reflection.StructInfo) []ParameterDescriptor {
	props := make([]ParameterDescriptor, 0, len(info.Fields))
	for i, field := range info.Fields {
		p := ParameterDescriptor{
			Name:       field.Name,
			Position:   i,
			Types:      TypeSet{Alternatives: []TypeRef{typeRef(field.Type)}, Nullable: field.Tag.Nullable},
			HasDefault: field.Tag.Default,
			GoType:     field.Type,
		}
		if field.Tag.Default {
			p.Default = reflect.Zero(field.Type).Interface()
		}
		if len(field.Tag.Alternatives) > 0 {
			p.Types.Alternatives = p.Types.Alternatives[:0]
			for _, name := range field.Tag.Alternatives {
				p.Types.Alternatives = append(p.Types.Alternatives, Named(name))
			}
		}
		switch {
		case field.Tag.ID != "":
			p.Directives = append(p.Directives, ResolveByID{
				ID:               field.Tag.ID,
				Optional:         field.Tag.Optional,
				PreferResolution: field.Tag.Prefer,
			})
		case field.Tag.Prefer:
			p.Directives = append(p.Directives, PreferResolution{})
		}
		props = append(props, p)
	}
	return props
}
