package reflective

import (
	"reflect"

	"github.com/junioryono/reflective/internal/reflection"
)

// Function is a function value with declared parameter metadata.
type Function struct {
	fn     any
	params []ParamSpec
}

// Func describes fn so it can be invoked with named values.
//
//	c.InvokeFunction(reflective.Func(SendMail, reflective.Param("to"), reflective.Param("mailer")), values)
func Func(fn any, params ...ParamSpec) Function {
	return Function{fn: fn, params: params}
}

// RegisterFunc makes fn invocable by name through InvokeFunction.
func (c *Container) RegisterFunc(name string, fn any, params ...ParamSpec) error {
	if name == "" {
		return RegistrationError{Cause: ErrEmptyName}
	}

	described, err := c.describeCallable(fn, name, name, params)
	if err != nil {
		return RegistrationError{Name: name, Cause: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.functions[name]; exists {
		return RegistrationError{Name: name, Cause: ErrAlreadyRegistered}
	}
	c.functions[name] = described
	return nil
}

func (c *Container) describeCallable(fn any, declaring, function string, params []ParamSpec) (*callable, error) {
	if fn == nil {
		return nil, ErrNilFunction
	}
	info, err := c.analyzer.Analyze(fn)
	if err != nil {
		return nil, err
	}
	if function == "" {
		function = reflection.ShortFuncName(info.Name)
	}
	if declaring == "" {
		declaring = function
	}

	desc, err := describeFunc(info, declaring, function, params)
	if err != nil {
		return nil, err
	}
	return &callable{desc: desc, info: info}, nil
}

// InvokeFunction calls fn with arguments resolved from values and the container.
// fn is a Function, the name of a function registered with RegisterFunc, or a plain
// function whose parameters are then known only by position (arg0, arg1, ...).
//
// The first non-error result is returned; a trailing non-nil error is returned as a
// ConstructorError.
func (c *Container) InvokeFunction(fn any, values Values) (any, error) {
	call, err := c.BindFunction(fn, values)
	if err != nil {
		return nil, err
	}
	return call.Run()
}

// BindFunction resolves and binds the arguments of fn without calling it. fn
// takes the forms InvokeFunction accepts. The returned Call uses no resolution
// state, so it may run after the container's Exclusive lock is released.
func (c *Container) BindFunction(fn any, values Values) (Call, error) {
	target, err := c.function(fn)
	if err != nil {
		return Call{}, err
	}
	return c.prepareCall(target, values)
}

func (c *Container) function(fn any) (*callable, error) {
	var (
		target *callable
		err    error
	)

	switch f := fn.(type) {
	case nil:
		return nil, ErrNilFunction
	case string:
		c.mu.RLock()
		target = c.functions[f]
		c.mu.RUnlock()
		if target == nil {
			return nil, NotFoundError{ID: f, Kind: "function"}
		}
	case Function:
		target, err = c.describeCallable(f.fn, "", "", f.params)
	case *Function:
		target, err = c.describeCallable(f.fn, "", "", f.params)
	default:
		target, err = c.describeCallable(fn, "", "", nil)
	}
	if err != nil {
		return nil, RegistrationError{Cause: err}
	}
	return target, nil
}

// Call is a function with resolved and bound arguments, ready to run.
type Call struct {
	target *callable
	in     []reflect.Value
}

// Run calls the function and returns its first non-error result. A panic or a
// trailing non-nil error is returned as a ConstructorError.
func (call Call) Run() (any, error) {
	if call.target == nil {
		return nil, ErrNilFunction
	}

	results, err := run(call.target.desc, call.target.info, call.in)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0].Interface(), nil
}

// InvokeMethod calls a method with arguments resolved from values and the container.
//
// receiver is an instance or a target name. For a target name, a static method
// registered with StaticMethod is called without an instance; otherwise the
// receiver is constructed with Get first. Parameter metadata comes from the
// Method option of the receiver's target, when declared.
func (c *Container) InvokeMethod(receiver any, method string, values Values) (any, error) {
	if receiver == nil {
		return nil, NotFoundError{ID: method, Kind: "method"}
	}

	var owner *target
	if name, ok := receiver.(string); ok {
		t, found := c.lookup(name)
		if !found {
			return nil, NotFoundError{ID: name}
		}
		if static, ok := t.statics[method]; ok {
			return c.invoke(static, values)
		}

		instance, err := c.Get(name, nil)
		if err != nil {
			return nil, err
		}
		receiver, owner = instance, t
	}

	val := reflect.ValueOf(receiver)
	typeName := reflection.TypeName(val.Type())
	m := val.MethodByName(method)
	if !m.IsValid() {
		return nil, NotFoundError{ID: typeName + "." + method, Kind: "method"}
	}

	if owner == nil {
		owner, _ = c.lookup(typeName)
	}
	var specs []ParamSpec
	if owner != nil {
		specs = owner.methods[method]
	}

	info := reflection.AnalyzeValue(m)
	desc, err := describeFunc(info, typeName, method, specs)
	if err != nil {
		return nil, RegistrationError{Name: typeName + "." + method, Cause: err}
	}

	return c.invoke(&callable{desc: desc, info: info}, values)
}

func (c *Container) invoke(target *callable, values Values) (any, error) {
	call, err := c.prepareCall(target, values)
	if err != nil {
		return nil, err
	}
	return call.Run()
}

func (c *Container) prepareCall(target *callable, values Values) (Call, error) {
	args, err := c.resolveArguments(target.desc, values)
	if err != nil {
		return Call{}, err
	}

	in, err := bind(target.desc, args)
	if err != nil {
		return Call{}, err
	}
	return Call{target: target, in: in}, nil
}

// Factory is embedded by types that build other targets through a container.
//
//	type ReportFactory struct {
//	    reflective.Factory
//	}
//
//	func (f ReportFactory) Daily() (*Report, error) {
//	    return reflective.FactoryGet[*Report](f.Factory, reflective.Values{"period": "daily"})
//	}
type Factory struct {
	Container *Container
}

// Get constructs name through the factory's container.
func (f Factory) Get(name string, values Values) (any, error) {
	if f.Container == nil {
		return nil, ErrNilContainer
	}
	return f.Container.Get(name, values)
}

// FactoryGet constructs T through the factory's container.
func FactoryGet[T any](f Factory, values Values) (T, error) {
	if f.Container == nil {
		var zero T
		return zero, ErrNilContainer
	}
	return Resolve[T](f.Container, values)
}
