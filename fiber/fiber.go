// Package fiber provides reflective integration for the Fiber web framework.
//
// This package provides middleware attaching a container to every request and
// handler wrappers whose dependencies are resolved from route parameters and
// the container.
//
// Example usage:
//
//	c, _ := reflective.New()
//	c.Provide(NewUserController)
//
//	app := fiber.New()
//	app.Use(reflectivefiber.Middleware(c))
//
//	app.Get("/users/:id", reflectivefiber.Handle((*UserController).GetByID))
//	app.Post("/login", reflectivefiber.HandleFunc(reflective.Func(Login,
//	    reflective.Param("c"), reflective.Param("auth"),
//	)))
package fiber

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/junioryono/reflective"
)

// containerKey is the key used to store the container in fiber.Ctx.Locals
const containerKey = "reflective_container"

// Config holds the configuration for the container middleware.
type Config struct {
	// ErrorHandler is called when a middleware function fails.
	// If nil, a 500 Internal Server Error JSON response is sent.
	ErrorHandler func(*fiber.Ctx, error) error

	// Middlewares are functions that run after the container is attached.
	// They can be used to validate the request, set user data, etc.
	Middlewares []func(*reflective.Container, *fiber.Ctx) error
}

// Option configures the container middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the container is attached.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*reflective.Container, *fiber.Ctx) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

// Middleware creates a Fiber middleware that stores the container in
// fiber.Ctx.Locals and attaches it to the UserContext.
//
// Example:
//
//	app := fiber.New()
//	app.Use(reflectivefiber.Middleware(c))
func Middleware(container *reflective.Container, opts ...Option) fiber.Handler {
	cfg := &Config{ErrorHandler: internalError}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		c.SetUserContext(reflective.WithContainer(c.UserContext(), container))
		c.Locals(containerKey, container)

		for _, mw := range cfg.Middlewares {
			if err := mw(container, c); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		return c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrappers.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*fiber.Ctx, any) error

	// ContainerErrorHandler is called when no container is attached to the request.
	ContainerErrorHandler func(*fiber.Ctx, error) error

	// ResolutionErrorHandler is called when resolving the handler's dependencies fails.
	ResolutionErrorHandler func(*fiber.Ctx, error) error
}

// HandlerOption configures the Handle wrappers.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithContainerErrorHandler sets the error handler for a missing container.
func WithContainerErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ContainerErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := &HandlerConfig{
		PanicHandler: func(c *fiber.Ctx, v any) error {
			logger(c).Error("panic in handler", zap.Any("panic", v), zap.String("path", c.Path()))
			return internalError(c, nil)
		},
		ContainerErrorHandler: internalError,
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			logger(c).Error("failed to resolve handler", zap.Error(err), zap.String("path", c.Path()))
			return internalError(c, err)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Handle wraps a controller method. The controller T is constructed from the
// container stored in fiber.Ctx.Locals, with the route parameters as caller values.
//
// The method signature should be: func(T, *fiber.Ctx) error
//
// Example:
//
//	app.Get("/users/:id", reflectivefiber.Handle((*UserController).GetByID))
func Handle[T any](method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := newHandlerConfig(opts)

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		container := FromContext(c)
		if container == nil {
			return cfg.ContainerErrorHandler(c, reflective.ErrContainerNotInContext)
		}

		var controller T
		resolveErr := container.Exclusive(func() (err error) {
			controller, err = reflective.Resolve[T](container, Values(c))
			return err
		})
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}

// HandleFunc wraps a function whose parameters are resolved per request from
// Values(c) and the container. An error returned by the function is passed to
// Fiber unchanged.
//
// Arguments are resolved under the container's Exclusive lock; the function
// itself runs after the lock is released.
func HandleFunc(fn reflective.Function, opts ...HandlerOption) fiber.Handler {
	cfg := newHandlerConfig(opts)

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		container := FromContext(c)
		if container == nil {
			return cfg.ContainerErrorHandler(c, reflective.ErrContainerNotInContext)
		}

		var call reflective.Call
		invokeErr := container.Exclusive(func() (err error) {
			call, err = container.BindFunction(fn, Values(c))
			return err
		})
		if invokeErr == nil {
			_, invokeErr = call.Run()
		}
		if invokeErr == nil {
			return nil
		}

		var ctorErr reflective.ConstructorError
		if errors.As(invokeErr, &ctorErr) {
			switch {
			case ctorErr.Panic != nil && cfg.PanicRecovery:
				return cfg.PanicHandler(c, ctorErr.Panic)
			case ctorErr.Cause != nil:
				return ctorErr.Cause
			}
		}
		return cfg.ResolutionErrorHandler(c, invokeErr)
	}
}

// FromContext retrieves the container from fiber.Ctx.Locals.
// This is useful when you need to resolve targets manually.
//
// Example:
//
//	users, err := reflective.Resolve[*UserService](reflectivefiber.FromContext(c), nil)
func FromContext(c *fiber.Ctx) *reflective.Container {
	container, _ := c.Locals(containerKey).(*reflective.Container)
	return container
}

// Values returns the caller values for a request: the route parameters by name,
// and the *fiber.Ctx as "c" and under its type name.
func Values(c *fiber.Ctx) reflective.Values {
	values := reflective.Values{"c": c}
	values[reflective.TypeName[*fiber.Ctx]()] = c
	for name, value := range c.AllParams() {
		values[name] = value
	}
	return values
}

func logger(c *fiber.Ctx) *zap.Logger {
	if container := FromContext(c); container != nil {
		return container.Logger()
	}
	return zap.NewNop()
}

func internalError(c *fiber.Ctx, _ error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}
