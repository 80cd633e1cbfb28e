package gin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/reflective"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Test types
type testService struct {
	ID string
}

type testController struct {
	Service *testService
	UserID  string
}

func newTestController(svc *testService, id string) *testController {
	return &testController{Service: svc, UserID: id}
}

func (c *testController) GetValue(ctx *gin.Context) {
	ctx.String(http.StatusOK, c.Service.ID+":"+c.UserID)
}

func (c *testController) Panic(ctx *gin.Context) {
	panic("test panic")
}

func newContainer(t *testing.T) *reflective.Container {
	t.Helper()
	c, err := reflective.New()
	require.NoError(t, err)
	require.NoError(t, c.Provide(func() *testService { return &testService{ID: "svc"} }))
	require.NoError(t, c.Provide(newTestController, reflective.Params(
		reflective.Param("svc"),
		reflective.Param("id", reflective.Default("anonymous")),
	)))
	return c
}

func serve(g *gin.Engine, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware(t *testing.T) {
	t.Run("attaches container to context", func(t *testing.T) {
		c := newContainer(t)

		var attached *reflective.Container
		g := gin.New()
		g.Use(Middleware(c))
		g.GET("/test", func(ctx *gin.Context) {
			var err error
			attached, err = reflective.FromContext(ctx.Request.Context())
			assert.NoError(t, err)
			ctx.Status(http.StatusOK)
		})

		rec := serve(g, "/test")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Same(t, c, attached)
	})

	t.Run("runs middlewares in order", func(t *testing.T) {
		var order []int

		g := gin.New()
		g.Use(Middleware(newContainer(t),
			WithMiddleware(func(*reflective.Container, *gin.Context) error {
				order = append(order, 1)
				return nil
			}),
			WithMiddleware(func(*reflective.Container, *gin.Context) error {
				order = append(order, 2)
				return nil
			}),
		))
		g.GET("/test", func(ctx *gin.Context) {
			order = append(order, 3)
			ctx.Status(http.StatusOK)
		})

		serve(g, "/test")
		assert.Equal(t, []int{1, 2, 3}, order)
	})

	t.Run("middleware error", func(t *testing.T) {
		called := false

		g := gin.New()
		g.Use(Middleware(newContainer(t),
			WithMiddleware(func(*reflective.Container, *gin.Context) error {
				return errors.New("denied")
			}),
			WithErrorHandler(func(ctx *gin.Context, err error) {
				ctx.AbortWithStatus(http.StatusForbidden)
			}),
		))
		g.GET("/test", func(ctx *gin.Context) {
			called = true
		})

		rec := serve(g, "/test")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, called)
	})

	t.Run("middleware error uses default handler", func(t *testing.T) {
		g := gin.New()
		g.Use(Middleware(newContainer(t), WithMiddleware(func(*reflective.Container, *gin.Context) error {
			return errors.New("denied")
		})))
		g.GET("/test", func(ctx *gin.Context) {})

		rec := serve(g, "/test")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandle(t *testing.T) {
	t.Run("resolves controller with route params", func(t *testing.T) {
		g := gin.New()
		g.Use(Middleware(newContainer(t)))
		g.GET("/users/:id", Handle((*testController).GetValue))
		g.GET("/me", Handle((*testController).GetValue))

		rec := serve(g, "/users/42")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "svc:42", rec.Body.String())

		rec = serve(g, "/me")
		assert.Equal(t, "svc:anonymous", rec.Body.String())
	})

	t.Run("no container", func(t *testing.T) {
		var handled error

		g := gin.New()
		g.GET("/test", Handle((*testController).GetValue, WithContainerErrorHandler(func(ctx *gin.Context, err error) {
			handled = err
			ctx.AbortWithStatus(http.StatusServiceUnavailable)
		})))

		rec := serve(g, "/test")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.ErrorIs(t, handled, reflective.ErrContainerNotInContext)
	})

	t.Run("resolution error", func(t *testing.T) {
		c, err := reflective.New()
		require.NoError(t, err)

		g := gin.New()
		g.Use(Middleware(c))
		g.GET("/test", Handle((*testController).GetValue))

		rec := serve(g, "/test")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("panic recovery", func(t *testing.T) {
		var recovered any

		g := gin.New()
		g.Use(Middleware(newContainer(t)))
		g.GET("/panic", Handle((*testController).Panic,
			WithPanicRecovery(true),
			WithPanicHandler(func(ctx *gin.Context, v any) {
				recovered = v
				ctx.AbortWithStatus(http.StatusTeapot)
			}),
		))

		rec := serve(g, "/panic")
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "test panic", recovered)
	})
}

func TestHandleFunc(t *testing.T) {
	greet := reflective.Func(func(c *gin.Context, name string, svc *testService) {
		c.String(http.StatusOK, svc.ID+" greets "+name)
	}, reflective.Param("c"), reflective.Param("name"), reflective.Param("svc"))

	t.Run("resolves parameters", func(t *testing.T) {
		g := gin.New()
		g.Use(Middleware(newContainer(t)))
		g.GET("/greet/:name", HandleFunc(greet))

		rec := serve(g, "/greet/ann")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "svc greets ann", rec.Body.String())
	})

	t.Run("unresolvable parameter", func(t *testing.T) {
		var handled error

		g := gin.New()
		g.Use(Middleware(newContainer(t)))
		g.GET("/greet", HandleFunc(greet, WithResolutionErrorHandler(func(ctx *gin.Context, err error) {
			handled = err
			ctx.AbortWithStatus(http.StatusBadRequest)
		})))

		rec := serve(g, "/greet")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, reflective.IsUnresolvable(handled))
	})

	t.Run("panic recovery", func(t *testing.T) {
		g := gin.New()
		g.Use(Middleware(newContainer(t)))
		g.GET("/panic", HandleFunc(reflective.Func(func() { panic("boom") }), WithPanicRecovery(true)))

		rec := serve(g, "/panic")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
