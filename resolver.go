package reflective

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/junioryono/reflective/internal/reflection"
)

// resolution carries the state of one argument list being resolved.
type resolution struct {
	desc     TargetDescriptor
	values   Values
	resolved map[string]any // Sibling values resolved so far, by name
}

// resolveArguments resolves every parameter of desc in declaration order.
func (c *Container) resolveArguments(desc TargetDescriptor, values Values) ([]any, error) {
	r := &resolution{
		desc:     desc,
		values:   values,
		resolved: make(map[string]any, len(desc.Params)),
	}

	args := make([]any, len(desc.Params))
	for i, p := range desc.Params {
		v, err := c.resolveParameter(r, p, true)
		if err != nil {
			return nil, err
		}
		args[i] = v
		r.resolved[p.Name] = v
	}
	return args, nil
}

// resolveParameter produces the value for one parameter or property. Rules are
// applied in order and the first satisfied rule wins:
//
//  1. a caller value under the parameter name
//  2. a caller value under the parameter position (parameters only)
//  3. a ResolveByID directive, unless a default exists and resolution is not preferred
//  4. the default value, unless resolution is preferred
//  5. the class-like alternatives of the declared type set, in order
//  6. nil for nullable parameters without default, then the default, then an error
func (c *Container) resolveParameter(r *resolution, p ParameterDescriptor, positional bool) (any, error) {
	if v, ok := r.values.byName(p.Name); ok {
		return v, nil
	}
	if positional {
		if v, ok := r.values.byPosition(p.Position); ok {
			return v, nil
		}
	}

	pl := compile(p.Directives)

	if pl.id != "" && (!p.HasDefault || pl.prefer) {
		extra, err := c.extraValues(r, p, pl)
		if err != nil {
			return nil, err
		}

		v, err := c.upstream().Get(pl.id, extra)
		if err == nil {
			return v, nil
		}
		if !isMissing(err, pl.id) || !(pl.optional || p.HasDefault) {
			return nil, err
		}
		c.logger.Debug("optional identifier not found, falling through",
			zap.String("target", r.desc.Name),
			zap.String("parameter", p.Name),
			zap.String("id", pl.id),
		)
	}

	if p.HasDefault && !pl.prefer {
		return p.Default, nil
	}

	alternatives := p.Types.ClassLike()
	if len(alternatives) > 0 {
		extra, err := c.extraValues(r, p, pl)
		if err != nil {
			return nil, err
		}

		for _, alt := range alternatives {
			if v, ok := r.values[alt.Name]; ok {
				return v, nil
			}

			v, err := c.Get(alt.Name, extra)
			if err == nil {
				return v, nil
			}
			if !isRetryable(err) {
				return nil, err
			}
			c.logger.Debug("alternative failed, trying next",
				zap.String("target", r.desc.Name),
				zap.String("parameter", p.Name),
				zap.String("alternative", alt.Name),
				zap.Error(err),
			)
		}
	}

	switch {
	case p.Types.Nullable && !p.HasDefault:
		return nil, nil
	case p.HasDefault:
		return p.Default, nil
	}

	attempted := make([]string, len(alternatives))
	for i, alt := range alternatives {
		attempted[i] = alt.Name
	}
	return nil, UnresolvableParameterError{
		Target:    r.desc.Declaring,
		Function:  r.desc.Function,
		Parameter: p.Name,
		Attempted: attempted,
	}
}

// extraValues merges directive-supplied values with propagated sibling values.
func (c *Container) extraValues(r *resolution, p ParameterDescriptor, pl plan) (Values, error) {
	if len(pl.propagate) == 0 {
		return pl.extra, nil
	}

	propagated := make(Values, len(pl.propagate))
	for _, src := range pl.propagate {
		v, ok := r.resolved[src.From]
		if !ok {
			return nil, UnresolvableParameterError{
				Target:    r.desc.Declaring,
				Function:  r.desc.Function,
				Parameter: p.Name,
				Cause:     fmt.Errorf("%w: %s", ErrPendingSource, src.From),
			}
		}
		key := src.As
		if key == nil {
			key = src.From
		}
		propagated[key] = v
	}
	return pl.extra.Merge(propagated), nil
}

// bind converts resolved arguments to the function's Go parameter types.
func bind(desc TargetDescriptor, args []any) ([]reflect.Value, error) {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		p := desc.Params[i]
		v, err := reflection.Bind(arg, p.GoType)
		if err != nil {
			return nil, mismatch(desc, p, arg)
		}
		in[i] = v
	}
	return in, nil
}

// run invokes a function with bound arguments, reporting panics and returned
// errors as ConstructorError.
func run(desc TargetDescriptor, info *reflection.FuncInfo, in []reflect.Value) ([]reflect.Value, error) {
	results, err := reflection.Invoke(info, in)
	if err != nil {
		var panicErr *reflection.PanicError
		if errors.As(err, &panicErr) {
			return nil, ConstructorError{Target: desc.Name, Function: desc.Function, Panic: panicErr.Value}
		}
		return nil, ConstructorError{Target: desc.Name, Function: desc.Function, Cause: err}
	}
	return results, nil
}

// call binds resolved arguments to the function's Go types and invokes it.
func (c *Container) call(desc TargetDescriptor, info *reflection.FuncInfo, args []any) ([]reflect.Value, error) {
	in, err := bind(desc, args)
	if err != nil {
		return nil, err
	}
	return run(desc, info, in)
}

func mismatch(desc TargetDescriptor, p ParameterDescriptor, value any) TypeMismatchError {
	return TypeMismatchError{
		Target:    desc.Declaring,
		Function:  desc.Function,
		Parameter: p.Name,
		Expected:  p.GoType,
		Actual:    reflect.TypeOf(value),
	}
}
