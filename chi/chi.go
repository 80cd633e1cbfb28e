// Package chi provides reflective integration for the Chi router.
//
// Middleware attaches a container to every request; Handle invokes functions whose
// parameters are resolved from URL parameters, the request and the container.
//
// Example usage:
//
//	c, _ := reflective.New()
//	c.Provide(NewUserService)
//
//	r := chi.NewRouter()
//	r.Use(reflectivechi.Middleware(c))
//
//	r.Get("/users/{id}", reflectivechi.Handle(reflective.Func(GetUser,
//	    reflective.Param("w"), reflective.Param("r"),
//	    reflective.Param("id"), reflective.Param("users"),
//	)))
//	r.Mount("/debug/reflective", reflectivechi.DebugRoutes(c))
package chi

import (
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/junioryono/reflective"
)

// Config holds the configuration for the container middleware.
type Config struct {
	// Middlewares are functions that run after the container is attached.
	// They can be used to validate the request or prepare caller values.
	Middlewares []func(*reflective.Container, *http.Request) error

	// ErrorHandler is called when a middleware function fails.
	// If nil, the error is logged and 500 Internal Server Error is returned.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// Option configures the container middleware.
type Option func(*Config)

// WithMiddleware adds a function that runs after the container is attached.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(*reflective.Container, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

// WithErrorHandler sets the handler for middleware failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// Middleware creates a Chi middleware that attaches c to the request context.
// The container can be retrieved using reflective.FromContext.
func Middleware(c *reflective.Container, opts ...Option) func(http.Handler) http.Handler {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = internalError(c.Logger(), "request middleware failed")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(reflective.WithContainer(r.Context(), c))

			for _, mw := range cfg.Middlewares {
				if err := mw(c, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ContainerErrorHandler is called when no container is attached to the request.
	ContainerErrorHandler func(http.ResponseWriter, *http.Request, error)

	// InvocationErrorHandler is called when resolving or calling the handler fails.
	InvocationErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Values adds caller values derived from the request.
	Values func(*http.Request) reflective.Values
}

// HandlerOption configures the Handle wrapper.
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

// WithInvocationErrorHandler sets the error handler for resolution and handler failures.
func WithInvocationErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.InvocationErrorHandler = h
	}
}

// WithValues adds request-derived caller values. They override URL parameters.
func WithValues(fn func(*http.Request) reflective.Values) HandlerOption {
	return func(c *HandlerConfig) {
		c.Values = fn
	}
}

// Handle wraps fn so its parameters are resolved per request.
//
// Caller values hold the route's URL parameters by name, the parameters "w" and "r",
// and the http.ResponseWriter and *http.Request under their type names, so
// parameters typed as either are satisfied without declaring names.
// Arguments are resolved under the container's Exclusive lock; fn runs after
// the lock is released.
func Handle(fn reflective.Function, opts ...HandlerOption) http.HandlerFunc {
	cfg := &HandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := reflective.FromContext(r.Context())
		if err != nil {
			handler := cfg.ContainerErrorHandler
			if handler == nil {
				handler = internalError(zap.NewNop(), "no container attached to request")
			}
			handler(w, r, err)
			return
		}
		logger := c.Logger()

		onPanic := func(v any) {
			if cfg.PanicHandler != nil {
				cfg.PanicHandler(w, r, v)
				return
			}
			logger.Error("panic in handler", zap.Any("panic", v), zap.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					onPanic(v)
				}
			}()
		}

		values := RequestValues(w, r)
		if cfg.Values != nil {
			values = values.Merge(cfg.Values(r))
		}

		var call reflective.Call
		err = c.Exclusive(func() (err error) {
			call, err = c.BindFunction(fn, values)
			return err
		})
		if err == nil {
			_, err = call.Run()
		}
		if err != nil {
			// The container reports handler panics as construction errors.
			var ctorErr reflective.ConstructorError
			if cfg.PanicRecovery && errors.As(err, &ctorErr) && ctorErr.Panic != nil {
				onPanic(ctorErr.Panic)
				return
			}

			handler := cfg.InvocationErrorHandler
			if handler == nil {
				handler = internalError(logger, "failed to invoke handler")
			}
			handler(w, r, err)
		}
	}
}

// RequestValues returns the caller values Handle passes to its function.
func RequestValues(w http.ResponseWriter, r *http.Request) reflective.Values {
	values := reflective.Values{
		"w": w,
		"r": r,
		reflective.TypeName[http.ResponseWriter](): w,
		reflective.TypeName[*http.Request]():       r,
	}

	if rctx := gochi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			if key == "*" || i >= len(rctx.URLParams.Values) {
				continue
			}
			values[key] = rctx.URLParams.Values[i]
		}
	}
	return values
}

func internalError(logger *zap.Logger, msg string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error(msg, zap.Error(err), zap.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
