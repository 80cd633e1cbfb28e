package reflective

// ModuleOption represents a registration action within a module.
type ModuleOption func(*Container) error

// NewModule creates a new module with the given name and builders.
// Modules are a way to group related registrations together; the first failing
// builder stops the module and its error is wrapped in a ModuleError.
//
// Example:
//
//	var StorageModule = reflective.NewModule("storage",
//	    reflective.AddConstructor(NewPostgresStore, reflective.Name("primary")),
//	    reflective.AddConstructor(NewMemoryStore),
//	    reflective.AddAlias("store", "primary"),
//	)
//
//	var AppModule = reflective.NewModule("app",
//	    StorageModule,
//	    reflective.AddConstructor(NewService),
//	)
func NewModule(name string, builders ...ModuleOption) ModuleOption {
	return func(c *Container) error {
		for _, builder := range builders {
			if builder == nil {
				continue
			}

			if err := builder(c); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// Install applies modules in order and stops at the first failure.
// Targets registered before the failure stay registered.
func (c *Container) Install(modules ...ModuleOption) error {
	for _, module := range modules {
		if module == nil {
			continue
		}
		if err := module(c); err != nil {
			return err
		}
	}
	return nil
}

// AddConstructor creates a ModuleOption registering a constructor, as Provide does.
func AddConstructor(constructor any, opts ...ProvideOption) ModuleOption {
	return func(c *Container) error {
		return c.Provide(constructor, opts...)
	}
}

// AddType creates a ModuleOption registering T without a constructor, as Register does.
func AddType[T any](opts ...ProvideOption) ModuleOption {
	return func(c *Container) error {
		return Register[T](c, opts...)
	}
}

// AddAlias creates a ModuleOption making alias resolve to the target registered as name.
func AddAlias(alias, name string) ModuleOption {
	return func(c *Container) error {
		return c.Alias(alias, name)
	}
}

// AddFunc creates a ModuleOption registering a named function for InvokeFunction.
func AddFunc(name string, fn any, params ...ParamSpec) ModuleOption {
	return func(c *Container) error {
		return c.RegisterFunc(name, fn, params...)
	}
}
