package reflective

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/junioryono/reflective/internal/reflection"
)

// Delegate is the upstream registry used for ResolveByID lookups.
type Delegate interface {
	Get(id string, values Values) (any, error)
	Has(id string) bool
}

var _ Delegate = (*Container)(nil)

// target is a registered constructible type.
type target struct {
	desc    TargetDescriptor
	typ     reflect.Type
	ctor    *reflection.FuncInfo // Nil when instantiated without arguments
	methods map[string][]ParamSpec
	statics map[string]*callable
}

// callable is an analyzed function with its descriptor.
type callable struct {
	desc TargetDescriptor
	info *reflection.FuncInfo
}

// Container resolves targets on demand by recursively constructing their dependencies.
//
// Registration methods and Has/Inspect are safe for concurrent use. Get and the
// Invoke methods mutate per-container resolution state (cycle tracking and the proxy
// cache); a Container shared across goroutines must be used under a lock held for the
// whole call, such as the one Exclusive provides.
type Container struct {
	id       string
	logger   *zap.Logger
	analyzer *reflection.Analyzer
	hooks    *hookRegistry
	delegate Delegate

	mu        sync.RWMutex
	targets   map[string]*target
	aliases   map[string]string
	functions map[string]*callable

	// Resolution state, owned by the goroutine running Get.
	exclusive  sync.Mutex
	tracker    *cycleTracker
	proxies    map[string]string
	resolution string
}

// New creates a Container. The container is its own delegate unless WithDelegate is given.
func New(opts ...Option) (*Container, error) {
	options := &containerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(options)
		}
	}

	hooks, err := newHookRegistry(options.hooks)
	if err != nil {
		return nil, err
	}

	c := &Container{
		id:        uuid.NewString(),
		logger:    options.logger,
		analyzer:  reflection.New(),
		hooks:     hooks,
		targets:   make(map[string]*target),
		aliases:   make(map[string]string),
		functions: make(map[string]*callable),
		tracker:   newCycleTracker(),
		proxies:   make(map[string]string),
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("container_id", c.id))
	c.SetDelegate(options.delegate)

	return c, nil
}

// ID returns the unique identifier of this container.
func (c *Container) ID() string {
	return c.id
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// SetDelegate replaces the upstream registry used for ResolveByID lookups.
// A nil delegate makes the container resolve identifiers against its own targets.
func (c *Container) SetDelegate(d Delegate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d == nil {
		d = c
	}
	c.delegate = d
}

func (c *Container) upstream() Delegate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.delegate
}

// ========================================
// Registration
// ========================================

// Provide registers a constructor. The constructor must return the target value,
// optionally followed by an error. The target is named after the returned type
// unless Name is given.
//
//	c.Provide(NewService, reflective.Params(
//	    reflective.Param("store"),
//	    reflective.Param("timeout", reflective.Default(5*time.Second)),
//	))
func (c *Container) Provide(constructor any, opts ...ProvideOption) error {
	if constructor == nil {
		return RegistrationError{Cause: ErrNilFunction}
	}

	info, err := c.analyzer.Analyze(constructor)
	if err != nil {
		return RegistrationError{Cause: fmt.Errorf("%w: %v", ErrInvalidConstructor, err)}
	}

	values := info.Returns
	if info.HasErrorReturn {
		values = values[:len(values)-1]
	}
	if len(values) != 1 {
		return RegistrationError{Name: info.Name, Cause: ErrInvalidConstructor}
	}

	options := applyProvideOptions(opts)
	t := &target{typ: values[0], ctor: info}
	return c.register(t, options)
}

// ProvideType registers a struct (or pointer to struct) type that is instantiated
// with no arguments.
func (c *Container) ProvideType(typ reflect.Type, opts ...ProvideOption) error {
	if typ == nil {
		return RegistrationError{Cause: ErrInvalidTarget}
	}
	structType := typ
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return RegistrationError{Name: reflection.TypeName(typ), Cause: ErrInvalidTarget}
	}

	return c.register(&target{typ: typ}, applyProvideOptions(opts))
}

// Register registers T for construction without arguments.
func Register[T any](c *Container, opts ...ProvideOption) error {
	return c.ProvideType(reflect.TypeFor[T](), opts...)
}

func applyProvideOptions(opts []ProvideOption) *provideOptions {
	options := &provideOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyProvide(options)
		}
	}
	return options
}

func (c *Container) register(t *target, options *provideOptions) error {
	name := options.name
	if name == "" {
		name = reflection.TypeName(t.typ)
	}

	if t.ctor != nil {
		desc, err := describeFunc(t.ctor, name, reflection.ShortFuncName(t.ctor.Name), options.params)
		if err != nil {
			return RegistrationError{Name: name, Cause: err}
		}
		t.desc = desc
	} else {
		if len(options.params) > 0 {
			return RegistrationError{Name: name, Cause: fmt.Errorf("%w: target has no constructor", ErrInvalidParams)}
		}
		t.desc = TargetDescriptor{Name: name, Declaring: name}
	}

	if structInfo, err := c.analyzer.Struct(t.typ); err == nil {
		t.desc.InjectProperties = options.injectProperties || structInfo.Injectable
		if t.desc.InjectProperties {
			t.desc.Properties = describeProperties(structInfo)
		}
	} else if options.injectProperties {
		return RegistrationError{Name: name, Cause: ErrInvalidTarget}
	}

	t.methods = options.methods
	if len(options.statics) > 0 {
		t.statics = make(map[string]*callable, len(options.statics))
		for method, static := range options.statics {
			fn, err := c.describeCallable(static.fn, name, method, static.params)
			if err != nil {
				return RegistrationError{Name: name + "." + method, Cause: err}
			}
			t.statics[method] = fn
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.targets[name]; exists {
		return RegistrationError{Name: name, Cause: ErrAlreadyRegistered}
	}
	if to, exists := c.aliases[name]; exists {
		return RegistrationError{Name: name, Cause: fmt.Errorf("%w: alias of %s", ErrAlreadyRegistered, to)}
	}
	c.targets[name] = t

	return nil
}

// Alias makes alias resolve to the target registered as name.
func (c *Container) Alias(alias, name string) error {
	if alias == "" || name == "" {
		return RegistrationError{Name: alias, Cause: ErrEmptyName}
	}
	if alias == name {
		return RegistrationError{Name: alias, Cause: fmt.Errorf("%s is aliased to itself", alias)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.targets[alias]; exists {
		return RegistrationError{Name: alias, Cause: ErrAlreadyRegistered}
	}
	c.aliases[alias] = name
	return nil
}

// canonical resolves aliases to a target name (must hold mu).
func (c *Container) canonical(name string) string {
	for i := 0; i < len(c.aliases); i++ {
		next, ok := c.aliases[name]
		if !ok {
			break
		}
		name = next
	}
	return name
}

func (c *Container) lookup(name string) (*target, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.targets[c.canonical(name)]
	return t, ok
}

// Has reports whether id names a registered target or alias.
func (c *Container) Has(id string) bool {
	_, ok := c.lookup(id)
	return ok
}

// Inspect returns the descriptor of a registered target.
func (c *Container) Inspect(name string) (TargetDescriptor, error) {
	t, ok := c.lookup(name)
	if !ok {
		return TargetDescriptor{}, NotFoundError{ID: name}
	}
	return t.desc, nil
}

// Targets returns the registered target names, sorted.
func (c *Container) Targets() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.targets))
	for name := range c.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ========================================
// Resolution
// ========================================

// Get constructs the target registered as name, resolving its constructor
// parameters from values and the container.
//
// Proxy hooks may substitute the name first. Prepare hooks run before construction
// and alter hooks run afterwards even when construction failed; an alter hook error
// never replaces a construction error, both are returned combined.
func (c *Container) Get(name string, values Values) (instance any, err error) {
	original := name
	name = c.substitute(original)

	top := c.tracker.depth() == 0
	if top {
		c.resolution = uuid.NewString()
		defer func() { c.resolution = "" }()
	}

	defer func() {
		hookErr := c.hooks.runAlter(name, original, instance)
		if hookErr == nil {
			return
		}
		if err != nil {
			c.logger.Warn("alter hook failed after construction error",
				zap.String("target", name),
				zap.String("resolution_id", c.resolution),
				zap.Error(hookErr),
			)
			err = multierr.Append(err, hookErr)
			return
		}
		instance, err = nil, hookErr
	}()

	instance, err = c.construct(name, original, values)
	return instance, err
}

// Exclusive runs fn while holding the container's resolution lock. Every Get or
// Invoke call made by fn runs with the resolution state to itself. fn must not
// call Exclusive again.
func (c *Container) Exclusive(fn func() error) error {
	c.exclusive.Lock()
	defer c.exclusive.Unlock()
	return fn()
}

// Resolve constructs T by its type name and asserts the result.
func Resolve[T any](c *Container, values Values) (T, error) {
	var zero T
	name := TypeName[T]()

	instance, err := c.Get(name, values)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{
			Target:   name,
			Expected: reflect.TypeFor[T](),
			Actual:   reflect.TypeOf(instance),
		}
	}
	return typed, nil
}

// substitute applies proxy hooks once per distinct requested name.
func (c *Container) substitute(original string) string {
	if len(c.hooks.proxy) == 0 {
		return original
	}
	if name, ok := c.proxies[original]; ok {
		return name
	}

	// Recorded first so a proxy hook resolving the same name does not recurse.
	c.proxies[original] = original
	name := c.hooks.substitute(original)
	c.proxies[original] = name

	if name != original {
		c.logger.Debug("target substituted by proxy hook",
			zap.String("original", original),
			zap.String("target", name),
		)
	}
	return name
}

// construct runs prepare hooks, guards against cycles and builds the instance.
func (c *Container) construct(name, original string, values Values) (any, error) {
	if err := c.hooks.runPrepare(name, original); err != nil {
		return nil, err
	}

	if err := c.tracker.enter(name); err != nil {
		return nil, err
	}
	defer c.tracker.leave(name)

	t, ok := c.lookup(name)
	if !ok {
		return nil, NotFoundError{ID: name, Original: original}
	}

	c.logger.Debug("resolving target",
		zap.String("target", name),
		zap.String("resolution_id", c.resolution),
		zap.Int("depth", c.tracker.depth()),
	)

	instance, err := c.instantiate(t, values)
	if err != nil {
		return nil, err
	}

	if t.desc.InjectProperties {
		return c.injectProperties(t, instance, values)
	}
	return instance, nil
}

// instantiate calls the constructor with resolved arguments, or allocates a zero value.
func (c *Container) instantiate(t *target, values Values) (any, error) {
	if t.ctor == nil {
		if t.typ.Kind() == reflect.Pointer {
			return reflect.New(t.typ.Elem()).Interface(), nil
		}
		return reflect.New(t.typ).Elem().Interface(), nil
	}

	args, err := c.resolveArguments(t.desc, values)
	if err != nil {
		return nil, err
	}

	results, err := c.call(t.desc, t.ctor, args)
	if err != nil {
		return nil, err
	}
	return results[0].Interface(), nil
}
