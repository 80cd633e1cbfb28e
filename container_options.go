package reflective

import (
	"go.uber.org/zap"
)

// Option configures a Container.
type Option interface {
	apply(*containerOptions)
}

// containerOptions holds container configuration.
type containerOptions struct {
	logger   *zap.Logger
	delegate Delegate
	hooks    []Hook
}

// optionFunc adapts a function to Option.
type optionFunc func(*containerOptions)

func (f optionFunc) apply(opts *containerOptions) {
	f(opts)
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.logger = logger
	})
}

// WithDelegate sets the upstream registry used for ResolveByID lookups.
func WithDelegate(d Delegate) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.delegate = d
	})
}

// WithHooks registers lifecycle hooks.
func WithHooks(hooks ...Hook) Option {
	return optionFunc(func(opts *containerOptions) {
		opts.hooks = append(opts.hooks, hooks...)
	})
}

// WithHookSet registers every hook of a hook set.
func WithHookSet(set HookSet) Option {
	return optionFunc(func(opts *containerOptions) {
		if set != nil {
			opts.hooks = append(opts.hooks, set.Hooks()...)
		}
	})
}

// ProvideOption configures target registration.
type ProvideOption interface {
	applyProvide(*provideOptions)
}

// provideOptions holds registration configuration.
type provideOptions struct {
	name             string
	params           []ParamSpec
	injectProperties bool
	methods          map[string][]ParamSpec
	statics          map[string]staticMethod
}

type staticMethod struct {
	fn     any
	params []ParamSpec
}

// provideOptionFunc adapts a function to ProvideOption.
type provideOptionFunc func(*provideOptions)

func (f provideOptionFunc) applyProvide(opts *provideOptions) {
	f(opts)
}

// Name registers the target under name instead of its type name.
func Name(name string) ProvideOption {
	return provideOptionFunc(func(opts *provideOptions) {
		opts.name = name
	})
}

// Params declares constructor parameter metadata by position.
func Params(specs ...ParamSpec) ProvideOption {
	return provideOptionFunc(func(opts *provideOptions) {
		opts.params = specs
	})
}

// InjectProperties marks the target for property injection of its inject-tagged fields.
// Struct types embedding Injectable are marked automatically.
func InjectProperties() ProvideOption {
	return provideOptionFunc(func(opts *provideOptions) {
		opts.injectProperties = true
	})
}

// Method declares parameter metadata for an instance method of the target.
func Method(name string, specs ...ParamSpec) ProvideOption {
	return provideOptionFunc(func(opts *provideOptions) {
		if opts.methods == nil {
			opts.methods = make(map[string][]ParamSpec)
		}
		opts.methods[name] = specs
	})
}

// StaticMethod attaches a receiver-less function to the target under a method name.
func StaticMethod(name string, fn any, specs ...ParamSpec) ProvideOption {
	return provideOptionFunc(func(opts *provideOptions) {
		if opts.statics == nil {
			opts.statics = make(map[string]staticMethod)
		}
		opts.statics[name] = staticMethod{fn: fn, params: specs}
	})
}
