// Package http provides reflective integration for the standard library's net/http.
//
// This package provides middleware attaching a container to every request and
// handler wrappers whose dependencies are resolved from http.ServeMux path
// wildcards and the container.
//
// Example usage:
//
//	c, _ := reflective.New()
//	c.Provide(NewUserController)
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /users/{id}", reflectivehttp.Handle((*UserController).GetByID))
//
//	http.ListenAndServe(":8080", reflectivehttp.Middleware(c)(mux))
package http

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/junioryono/reflective"
)

// Config holds the configuration for the container middleware.
type Config struct {
	// ErrorHandler is called when a middleware function fails.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares are functions that run after the container is attached.
	Middlewares []func(*reflective.Container, *http.Request) error
}

// Option configures the container middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the container is attached.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*reflective.Container, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger(r).Error("request middleware failed", zap.Error(err), zap.String("path", r.URL.Path))
			internalError(w)
		},
	}
}

// Middleware attaches the container to the request context, where it can be
// retrieved using reflective.FromContext.
func Middleware(container *reflective.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(reflective.WithContainer(r.Context(), container))

			for _, mw := range cfg.Middlewares {
				if err := mw(container, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds configuration for the Handle wrappers.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ContainerErrorHandler is called when no container is attached to the request.
	ContainerErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when resolving the handler's dependencies fails.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
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
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithContainerErrorHandler sets the error handler for a missing container.
func WithContainerErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ContainerErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			logger(r).Error("panic in handler", zap.Any("panic", v), zap.String("path", r.URL.Path))
			internalError(w)
		},
		ContainerErrorHandler: func(w http.ResponseWriter, _ *http.Request, _ error) {
			internalError(w)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger(r).Error("failed to resolve handler", zap.Error(err), zap.String("path", r.URL.Path))
			internalError(w)
		},
	}
}

func newHandlerConfig(opts []HandlerOption) *HandlerConfig {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Handle wraps a controller method. The controller T is constructed from the
// container attached to the request, with the path wildcards as caller values.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		container, err := reflective.FromContext(r.Context())
		if err != nil {
			cfg.ContainerErrorHandler(w, r, err)
			return
		}

		var controller T
		err = container.Exclusive(func() (err error) {
			controller, err = reflective.Resolve[T](container, Values(w, r))
			return err
		})
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}

// HandleFunc wraps a function whose parameters are resolved per request from
// Values(w, r) and the container. Arguments are resolved under the container's
// Exclusive lock; the function runs after it is released.
func HandleFunc(fn reflective.Function, opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		container, err := reflective.FromContext(r.Context())
		if err != nil {
			cfg.ContainerErrorHandler(w, r, err)
			return
		}

		var call reflective.Call
		err = container.Exclusive(func() (err error) {
			call, err = container.BindFunction(fn, Values(w, r))
			return err
		})
		if err == nil {
			_, err = call.Run()
		}
		if err == nil {
			return
		}

		// The container reports handler panics as construction errors.
		var ctorErr reflective.ConstructorError
		if cfg.PanicRecovery && errors.As(err, &ctorErr) && ctorErr.Panic != nil {
			cfg.PanicHandler(w, r, ctorErr.Panic)
			return
		}
		cfg.ResolutionErrorHandler(w, r, err)
	}
}

// Values returns the caller values for a request: the wildcards of the matched
// ServeMux pattern by name, "w" and "r", and the writer and request under their
// type names.
func Values(w http.ResponseWriter, r *http.Request) reflective.Values {
	values := reflective.Values{"w": w, "r": r}
	values[reflective.TypeName[http.ResponseWriter]()] = w
	values[reflective.TypeName[*http.Request]()] = r

	for _, name := range wildcards(r.Pattern) {
		values[name] = r.PathValue(name)
	}
	return values
}

// wildcards returns the wildcard names of a ServeMux pattern, in order.
func wildcards(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			return names
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			return names
		}

		name := strings.TrimSuffix(pattern[start+1:start+end], "...")
		if name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
}

func logger(r *http.Request) *zap.Logger {
	if container, err := reflective.FromContext(r.Context()); err == nil {
		return container.Logger()
	}
	return zap.NewNop()
}

func internalError(w http.ResponseWriter) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
