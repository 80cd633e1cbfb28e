// Package digregistry provides a reflective.Delegate backed by a dig container.
//
// Identifiers are dig value names. Directives resolving by identifier are served by
// dig, while the reflective container keeps building type-directed dependencies:
//
//	reg := digregistry.New()
//	reg.Provide("primary-store", NewPostgresStore)
//
//	c, _ := reflective.New()
//	c.SetDelegate(reflective.Chain(reg, c))
package digregistry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/dig"

	"github.com/junioryono/reflective"
)

var _ reflective.Delegate = (*Registry)(nil)

var (
	inType    = reflect.TypeFor[dig.In]()
	errorType = reflect.TypeFor[error]()
)

// Registry resolves named values from a dig container.
type Registry struct {
	mu    sync.RWMutex
	dig   *dig.Container
	types map[string]reflect.Type
}

// New creates a registry over a fresh dig container.
func New(opts ...dig.Option) *Registry {
	return &Registry{
		dig:   dig.New(opts...),
		types: make(map[string]reflect.Type),
	}
}

// Provide registers constructor under id. The constructor must return one value,
// optionally followed by an error; its parameters are resolved by dig.
func (r *Registry) Provide(id string, constructor any) error {
	if id == "" {
		return reflective.RegistrationError{Cause: reflective.ErrEmptyName}
	}
	if constructor == nil {
		return reflective.RegistrationError{Name: id, Cause: reflective.ErrNilFunction}
	}

	t := reflect.TypeOf(constructor)
	out, err := outputType(t)
	if err != nil {
		return reflective.RegistrationError{Name: id, Cause: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[id]; exists {
		return reflective.RegistrationError{Name: id, Cause: reflective.ErrAlreadyRegistered}
	}
	if err := r.dig.Provide(constructor, dig.Name(id)); err != nil {
		return reflective.RegistrationError{Name: id, Cause: err}
	}
	r.types[id] = out
	return nil
}

// Supply registers a ready value under id.
func (r *Registry) Supply(id string, value any) error {
	if value == nil {
		return reflective.RegistrationError{Name: id, Cause: reflective.ErrNilFunction}
	}

	v := reflect.ValueOf(value)
	fn := reflect.MakeFunc(
		reflect.FuncOf(nil, []reflect.Type{v.Type()}, false),
		func([]reflect.Value) []reflect.Value { return []reflect.Value{v} },
	)
	return r.Provide(id, fn.Interface())
}

func outputType(t reflect.Type) (reflect.Type, error) {
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: got %s", reflective.ErrInvalidConstructor, t)
	}

	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
		return t.Out(0), nil
	case t.NumOut() == 2 && t.Out(1) == errorType:
		return t.Out(0), nil
	default:
		return nil, reflective.ErrInvalidConstructor
	}
}

// Has reports whether id was provided.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[id]
	return ok
}

// IDs returns the provided identifiers, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.types))
	for id := range r.types {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get resolves id through dig. Construction values are not forwarded: dig
// constructors receive only dig-provided dependencies.
func (r *Registry) Get(id string, _ reflective.Values) (any, error) {
	r.mu.RLock()
	typ, ok := r.types[id]
	r.mu.RUnlock()
	if !ok {
		return nil, reflective.NotFoundError{ID: id}
	}

	// struct { dig.In; Value T `name:"id"` }
	params := reflect.StructOf([]reflect.StructField{
		{Name: "In", Type: inType, Anonymous: true},
		{Name: "Value", Type: typ, Tag: reflect.StructTag(fmt.Sprintf("name:%q", id))},
	})

	var result reflect.Value
	fn := reflect.MakeFunc(
		reflect.FuncOf([]reflect.Type{params}, nil, false),
		func(args []reflect.Value) []reflect.Value {
			result = args[0].Field(1)
			return nil
		},
	)

	if err := r.dig.Invoke(fn.Interface()); err != nil {
		return nil, fmt.Errorf("resolve %s through dig: %w", id, err)
	}
	return result.Interface(), nil
}
