// Package reflective provides a reflection-driven dependency resolution engine.
//
// A Container constructs registered targets on demand. Constructor parameters are
// resolved recursively from caller-supplied values, explicit identifiers, default
// values and the parameter's declared type alternatives.
//
// # Basic Usage
//
// Register constructors and resolve by type:
//
//	c, err := reflective.New(reflective.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c.Provide(NewDatabase)
//	c.Provide(NewUserService, reflective.Params(
//	    reflective.Param("db"),
//	    reflective.Param("timeout", reflective.Default(5*time.Second)),
//	))
//
//	svc, err := reflective.Resolve[*UserService](c, nil)
//
// Targets are named after the fully-qualified type they produce (see TypeName).
// Name registers under another name and Alias adds extra identifiers.
//
// # Resolution Order
//
// Each parameter is resolved by the first rule that applies:
//
//  1. a caller value under the parameter name
//  2. a caller value under the parameter position
//  3. a ResolveByID directive, unless a default exists and resolution is not preferred
//  4. the default value, unless PreferResolution is set
//  5. the class-like type alternatives in declared order; alternatives that are not
//     registered are skipped
//  6. nil for Nullable parameters, then the default
//
// When nothing applies the call fails with UnresolvableParameterError naming every
// alternative tried.
//
//	c.Provide(NewNotifier, reflective.Params(
//	    reflective.Param("sender", reflective.OneOf(
//	        reflective.Named("sms-sender"),
//	        reflective.Type[*EmailSender](),
//	    )),
//	))
//
// # Directives
//
// ResolveByID forces lookup through the delegate (the container itself by default,
// see SetDelegate). ExtraValues and Propagate forward values into the construction
// of the resolved dependency:
//
//	reflective.Param("repo",
//	    reflective.WithDirective(reflective.ResolveByID{ID: "users-repo"}, reflective.Using("db")),
//	)
//
// # Lifecycle Hooks
//
// Proxy hooks substitute target names, prepare hooks run before construction and
// alter hooks run after every construction, including failed ones:
//
//	c, _ := reflective.New(reflective.WithHooks(
//	    reflective.AlterHookFunc("audit", 10, func(target, original string, instance any) error {
//	        audit.Record(target, instance != nil)
//	        return nil
//	    }),
//	))
//
// # Circular References
//
// A target requested again while it is being constructed fails with
// CircularReferenceError listing the chain of targets in progress. The container
// stays usable afterwards.
//
// # Property Injection
//
// Struct targets embedding Injectable get their inject-tagged fields resolved after
// construction:
//
//	type Handler struct {
//	    reflective.Injectable
//
//	    Users *UserService `inject:""`
//	    Cache Cache        `inject:"cache,optional,prefer,default"`
//	}
//
// # Invocation
//
// InvokeFunction and InvokeMethod apply the same resolution to any function or method:
//
//	result, err := c.InvokeFunction(reflective.Func(SendWelcome,
//	    reflective.Param("user"), reflective.Param("mailer"),
//	), reflective.Values{"user": u})
//
// # Concurrency
//
// Registration is safe for concurrent use. Get and the Invoke methods are not:
// serialize whole calls when sharing a Container across goroutines.
package reflective
