package fiber

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/reflective"
)

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

func (c *testController) GetValue(ctx *fiber.Ctx) error {
	return ctx.SendString(c.Service.ID + ":" + c.UserID)
}

func (c *testController) Panic(ctx *fiber.Ctx) error {
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

func serve(t *testing.T, app *fiber.App, target string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestMiddleware(t *testing.T) {
	t.Run("attaches container", func(t *testing.T) {
		c := newContainer(t)

		var fromLocals, fromUserContext *reflective.Container
		app := fiber.New()
		app.Use(Middleware(c))
		app.Get("/test", func(ctx *fiber.Ctx) error {
			fromLocals = FromContext(ctx)
			var err error
			fromUserContext, err = reflective.FromContext(ctx.UserContext())
			assert.NoError(t, err)
			return ctx.SendStatus(http.StatusOK)
		})

		status, _ := serve(t, app, "/test")
		assert.Equal(t, http.StatusOK, status)
		assert.Same(t, c, fromLocals)
		assert.Same(t, c, fromUserContext)
	})

	t.Run("no middleware", func(t *testing.T) {
		var found *reflective.Container
		app := fiber.New()
		app.Get("/test", func(ctx *fiber.Ctx) error {
			found = FromContext(ctx)
			return ctx.SendStatus(http.StatusOK)
		})

		serve(t, app, "/test")
		assert.Nil(t, found)
	})

	t.Run("runs middlewares in order", func(t *testing.T) {
		var order []int

		app := fiber.New()
		app.Use(Middleware(newContainer(t),
			WithMiddleware(func(*reflective.Container, *fiber.Ctx) error {
				order = append(order, 1)
				return nil
			}),
			WithMiddleware(func(*reflective.Container, *fiber.Ctx) error {
				order = append(order, 2)
				return nil
			}),
		))
		app.Get("/test", func(ctx *fiber.Ctx) error {
			order = append(order, 3)
			return ctx.SendStatus(http.StatusOK)
		})

		serve(t, app, "/test")
		assert.Equal(t, []int{1, 2, 3}, order)
	})

	t.Run("middleware error", func(t *testing.T) {
		called := false

		app := fiber.New()
		app.Use(Middleware(newContainer(t),
			WithMiddleware(func(*reflective.Container, *fiber.Ctx) error {
				return errors.New("denied")
			}),
			WithErrorHandler(func(ctx *fiber.Ctx, err error) error {
				return ctx.Status(http.StatusForbidden).SendString(err.Error())
			}),
		))
		app.Get("/test", func(ctx *fiber.Ctx) error {
			called = true
			return nil
		})

		status, body := serve(t, app, "/test")
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "denied", body)
		assert.False(t, called)
	})

	t.Run("middleware error uses default handler", func(t *testing.T) {
		app := fiber.New()
		app.Use(Middleware(newContainer(t), WithMiddleware(func(*reflective.Container, *fiber.Ctx) error {
			return errors.New("denied")
		})))
		app.Get("/test", func(ctx *fiber.Ctx) error { return nil })

		status, body := serve(t, app, "/test")
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Contains(t, body, "Internal Server Error")
	})
}

func TestHandle(t *testing.T) {
	t.Run("resolves controller with route params", func(t *testing.T) {
		app := fiber.New()
		app.Use(Middleware(newContainer(t)))
		app.Get("/users/:id", Handle((*testController).GetValue))
		app.Get("/me", Handle((*testController).GetValue))

		status, body := serve(t, app, "/users/42")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "svc:42", body)

		_, body = serve(t, app, "/me")
		assert.Equal(t, "svc:anonymous", body)
	})

	t.Run("no container", func(t *testing.T) {
		var handled error

		app := fiber.New()
		app.Get("/test", Handle((*testController).GetValue, WithContainerErrorHandler(func(ctx *fiber.Ctx, err error) error {
			handled = err
			return ctx.SendStatus(http.StatusServiceUnavailable)
		})))

		status, _ := serve(t, app, "/test")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.ErrorIs(t, handled, reflective.ErrContainerNotInContext)
	})

	t.Run("resolution error", func(t *testing.T) {
		c, err := reflective.New()
		require.NoError(t, err)

		app := fiber.New()
		app.Use(Middleware(c))
		app.Get("/test", Handle((*testController).GetValue))

		status, _ := serve(t, app, "/test")
		assert.Equal(t, http.StatusInternalServerError, status)
	})

	t.Run("panic recovery", func(t *testing.T) {
		var recovered any

		app := fiber.New()
		app.Use(Middleware(newContainer(t)))
		app.Get("/panic", Handle((*testController).Panic,
			WithPanicRecovery(true),
			WithPanicHandler(func(ctx *fiber.Ctx, v any) error {
				recovered = v
				return ctx.SendStatus(http.StatusTeapot)
			}),
		))

		status, _ := serve(t, app, "/panic")
		assert.Equal(t, http.StatusTeapot, status)
		assert.Equal(t, "test panic", recovered)
	})
}

func TestHandleFunc(t *testing.T) {
	greet := reflective.Func(func(c *fiber.Ctx, name string, svc *testService) error {
		return c.SendString(svc.ID + " greets " + name)
	}, reflective.Param("c"), reflective.Param("name"), reflective.Param("svc"))

	t.Run("resolves parameters", func(t *testing.T) {
		app := fiber.New()
		app.Use(Middleware(newContainer(t)))
		app.Get("/greet/:name", HandleFunc(greet))

		status, body := serve(t, app, "/greet/ann")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "svc greets ann", body)
	})

	t.Run("handler error reaches fiber", func(t *testing.T) {
		app := fiber.New()
		app.Use(Middleware(newContainer(t)))
		app.Get("/fail", HandleFunc(reflective.Func(func() error {
			return fiber.NewError(http.StatusConflict, "conflict")
		})))

		status, body := serve(t, app, "/fail")
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "conflict", body)
	})

	t.Run("unresolvable parameter", func(t *testing.T) {
		var handled error

		app := fiber.New()
		app.Use(Middleware(newContainer(t)))
		app.Get("/greet", HandleFunc(greet, WithResolutionErrorHandler(func(ctx *fiber.Ctx, err error) error {
			handled = err
			return ctx.SendStatus(http.StatusBadRequest)
		})))

		status, _ := serve(t, app, "/greet")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.True(t, reflective.IsUnresolvable(handled))
	})

	t.Run("panic recovery", func(t *testing.T) {
		app := fiber.New()
		app.Use(Middleware(newContainer(t)))
		app.Get("/panic", HandleFunc(reflective.Func(func() error { panic("boom") }), WithPanicRecovery(true)))

		status, _ := serve(t, app, "/panic")
		assert.Equal(t, http.StatusInternalServerError, status)
	})
}
