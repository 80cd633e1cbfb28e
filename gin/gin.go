// Package gin provides reflective integration for the Gin web framework.
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
//	g := gin.New()
//	g.Use(reflectivegin.Middleware(c))
//
//	g.GET("/users/:id", reflectivegin.Handle((*UserController).GetByID))
//	g.POST("/login", reflectivegin.HandleFunc(reflective.Func(Login,
//	    reflective.Param("c"), reflective.Param("auth"),
//	)))
package gin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junioryono/reflective"
)

// Config holds the configuration for the container middleware.
type Config struct {
	// ErrorHandler is called when a middleware function fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(*gin.Context, error)

	// Middlewares are functions that run after the container is attached.
	// They can be used to validate the request, set user claims, etc.
	Middlewares []func(*reflective.Container, *gin.Context) error
}

// Option configures the container middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the container is attached.
// Multiple middlewares are executed in the order they are added.
//
// Example:
//
//	reflectivegin.Middleware(c,
//	    reflectivegin.WithMiddleware(func(c *reflective.Container, ctx *gin.Context) error {
//	        if ctx.GetHeader("X-Tenant") == "" {
//	            return errMissingTenant
//	        }
//	        return nil
//	    }),
//	)
func WithMiddleware(mw func(*reflective.Container, *gin.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig(logger *zap.Logger) *Config {
	return &Config{
		ErrorHandler: func(c *gin.Context, err error) {
			logger.Error("request middleware failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
			abort(c)
		},
	}
}

// Middleware creates a gin.HandlerFunc that attaches the container to the request
// context, where it can be retrieved using reflective.FromContext.
//
// Example:
//
//	g := gin.New()
//	g.Use(reflectivegin.Middleware(c))
func Middleware(container *reflective.Container, opts ...Option) gin.HandlerFunc {
	cfg := defaultConfig(container.Logger())
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(reflective.WithContainer(c.Request.Context(), container))

		for _, mw := range cfg.Middlewares {
			if err := mw(container, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrappers.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	// If true, panics are caught and handled by PanicHandler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	// If nil, a default handler returning 500 Internal Server Error is used.
	PanicHandler func(*gin.Context, any)

	// ContainerErrorHandler is called when no container is attached to the request.
	ContainerErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler is called when resolving the handler's dependencies fails.
	ResolutionErrorHandler func(*gin.Context, error)
}

// HandlerOption configures the Handle wrappers.
type HandlerOption func(*HandlerConfig)

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics (requires WithPanicRecovery(true)).
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithContainerErrorHandler sets the error handler for a missing container.
func WithContainerErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ContainerErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := &HandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.PanicHandler == nil {
		cfg.PanicHandler = func(c *gin.Context, v any) {
			logger(c).Error("panic in handler", zap.Any("panic", v), zap.String("path", c.Request.URL.Path))
			abort(c)
		}
	}
	if cfg.ContainerErrorHandler == nil {
		cfg.ContainerErrorHandler = func(c *gin.Context, _ error) {
			abort(c)
		}
	}
	if cfg.ResolutionErrorHandler == nil {
		cfg.ResolutionErrorHandler = func(c *gin.Context, err error) {
			logger(c).Error("failed to resolve handler", zap.Error(err), zap.String("path", c.Request.URL.Path))
			abort(c)
		}
	}
	return cfg
}

// Handle wraps a controller method. The controller T is constructed from the
// container attached to the request, with the route parameters as caller values.
//
// The method signature should be: func(T, *gin.Context)
//
// Example:
//
//	g.GET("/users/:id", reflectivegin.Handle((*UserController).GetByID))
func Handle[T any](method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(c, v)
				}
			}()
		}

		container, err := reflective.FromContext(c.Request.Context())
		if err != nil {
			cfg.ContainerErrorHandler(c, err)
			return
		}

		var controller T
		err = container.Exclusive(func() (err error) {
			controller, err = reflective.Resolve[T](container, Values(c))
			return err
		})
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}

// HandleFunc wraps a function whose parameters are resolved per request from
// Values(c) and the container.
//
// Arguments are resolved under the container's Exclusive lock; the function
// itself runs after the lock is released.
func HandleFunc(fn reflective.Function, opts ...HandlerOption) gin.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(c, v)
				}
			}()
		}

		container, err := reflective.FromContext(c.Request.Context())
		if err != nil {
			cfg.ContainerErrorHandler(c, err)
			return
		}

		var call reflective.Call
		err = container.Exclusive(func() (err error) {
			call, err = container.BindFunction(fn, Values(c))
			return err
		})
		if err == nil {
			_, err = call.Run()
		}
		if err != nil {
			// The container reports handler panics as construction errors.
			var ctorErr reflective.ConstructorError
			if cfg.PanicRecovery && errors.As(err, &ctorErr) && ctorErr.Panic != nil {
				cfg.PanicHandler(c, ctorErr.Panic)
				return
			}
			cfg.ResolutionErrorHandler(c, err)
		}
	}
}

// Values returns the caller values for a request: the route parameters by name,
// and the *gin.Context as "c" and under its type name.
func Values(c *gin.Context) reflective.Values {
	values := reflective.Values{"c": c}
	values[reflective.TypeName[*gin.Context]()] = c
	for _, p := range c.Params {
		values[p.Key] = p.Value
	}
	return values
}

func logger(c *gin.Context) *zap.Logger {
	if container, err := reflective.FromContext(c.Request.Context()); err == nil {
		return container.Logger()
	}
	return zap.NewNop()
}

func abort(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "Internal Server Error",
	})
}
