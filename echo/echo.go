// Package echo provides reflective integration for the Echo web framework.
//
// This package provides middleware attaching a container to every request and
// handler wrappers whose dependencies are resolved from path parameters and
// the container.
//
// Example usage:
//
//	c, _ := reflective.New()
//	c.Provide(NewUserController)
//
//	e := echo.New()
//	e.Use(reflectiveecho.Middleware(c))
//
//	e.GET("/users/:id", reflectiveecho.Handle((*UserController).GetByID))
//	e.POST("/login", reflectiveecho.HandleFunc(reflective.Func(Login,
//	    reflective.Param("c"), reflective.Param("auth"),
//	)))
package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/junioryono/reflective"
)

// Config holds the configuration for the container middleware.
type Config struct {
	// ErrorHandler is called when a middleware function fails.
	// If nil, the error is returned (Echo's default error handling).
	ErrorHandler func(echo.Context, error) error

	// Middlewares are functions that run after the container is attached.
	// They can be used to validate the request, set user data, etc.
	Middlewares []func(*reflective.Container, echo.Context) error
}

// Option configures the container middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(echo.Context, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the container is attached.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*reflective.Container, echo.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

// Middleware creates an echo.MiddlewareFunc that attaches the container to the
// request context, where it can be retrieved using reflective.FromContext.
//
// Example:
//
//	e := echo.New()
//	e.Use(reflectiveecho.Middleware(c))
func Middleware(container *reflective.Container, opts ...Option) echo.MiddlewareFunc {
	cfg := &Config{
		ErrorHandler: func(_ echo.Context, err error) error {
			return err
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(reflective.WithContainer(req.Context(), container)))

			for _, mw := range cfg.Middlewares {
				if err := mw(container, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// HandlerConfig holds configuration for the Handle wrappers.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(echo.Context, any) error

	// ContainerErrorHandler is called when no container is attached to the request.
	ContainerErrorHandler func(echo.Context, error) error

	// ResolutionErrorHandler is called when resolving the handler's dependencies fails.
	ResolutionErrorHandler func(echo.Context, error) error
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
func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithContainerErrorHandler sets the error handler for a missing container.
func WithContainerErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ContainerErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := &HandlerConfig{
		PanicHandler: func(c echo.Context, v any) error {
			logger(c).Error("panic in handler", zap.Any("panic", v), zap.String("path", c.Path()))
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		ContainerErrorHandler: func(echo.Context, error) error {
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		ResolutionErrorHandler: func(c echo.Context, err error) error {
			logger(c).Error("failed to resolve handler", zap.Error(err), zap.String("path", c.Path()))
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Handle wraps a controller method. The controller T is constructed from the
// container attached to the request, with the path parameters as caller values.
//
// The method signature should be: func(T, echo.Context) error
//
// Example:
//
//	e.GET("/users/:id", reflectiveecho.Handle((*UserController).GetByID))
func Handle[T any](method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		container, containerErr := reflective.FromContext(c.Request().Context())
		if containerErr != nil {
			return cfg.ContainerErrorHandler(c, containerErr)
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
// Echo unchanged.
//
// Arguments are resolved under the container's Exclusive lock; the function
// itself runs after the lock is released.
func HandleFunc(fn reflective.Function, opts ...HandlerOption) echo.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		container, containerErr := reflective.FromContext(c.Request().Context())
		if containerErr != nil {
			return cfg.ContainerErrorHandler(c, containerErr)
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

// Values returns the caller values for a request: the path parameters by name,
// and the echo.Context as "c" and under its type name.
func Values(c echo.Context) reflective.Values {
	values := reflective.Values{"c": c}
	values[reflective.TypeName[echo.Context]()] = c
	names, params := c.ParamNames(), c.ParamValues()
	for i, name := range names {
		if i < len(params) {
			values[name] = params[i]
		}
	}
	return values
}

func logger(c echo.Context) *zap.Logger {
	if container, err := reflective.FromContext(c.Request().Context()); err == nil {
		return container.Logger()
	}
	return zap.NewNop()
}
