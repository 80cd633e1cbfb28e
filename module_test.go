package reflective_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/reflective"
	"github.com/junioryono/reflective/internal/testutil"
)

func TestModule(t *testing.T) {
	t.Run("installs every builder", func(t *testing.T) {
		c := testutil.NewContainerBuilder(t).Build()

		storage := reflective.NewModule("storage",
			reflective.AddConstructor(testutil.NewStore, testutil.StoreParams(), reflective.Name("primary")),
			reflective.AddConstructor(func() *testutil.Config { return &testutil.Config{DSN: "module"} }),
			reflective.AddAlias("store", "primary"),
		)
		app := reflective.NewModule("app",
			storage,
			nil,
			reflective.AddType[testutil.EnglishGreeter](reflective.Name(reflective.TypeName[testutil.Greeter]())),
			reflective.AddFunc("greet", func(g testutil.Greeter, name string) string {
				return g.Greet(name)
			}, reflective.Param("g"), reflective.Param("name")),
		)

		require.NoError(t, c.Install(app, nil))
		testutil.AssertHasTargets(t, c, "primary", "store", reflective.TypeName[testutil.Greeter]())

		store, err := c.Get("store", reflective.Values{"dsn": "memory://"})
		require.NoError(t, err)
		assert.Equal(t, "module", store.(*testutil.Store).Config.DSN)

		greeting, err := c.InvokeFunction("greet", reflective.Values{"name": "ann"})
		require.NoError(t, err)
		assert.Equal(t, "hello ann", greeting)
	})

	t.Run("wraps the first failure", func(t *testing.T) {
		c := testutil.NewContainerBuilder(t).Build()

		called := false
		broken := reflective.NewModule("broken",
			reflective.AddConstructor(testutil.NewC),
			reflective.AddConstructor(testutil.NewC),
			func(*reflective.Container) error {
				called = true
				return nil
			},
		)

		err := c.Install(broken)
		require.Error(t, err)
		assert.ErrorIs(t, err, reflective.ErrAlreadyRegistered)
		assert.False(t, called)
		assert.True(t, c.Has(reflective.TypeName[*testutil.C]()))

		var moduleErr reflective.ModuleError
		require.True(t, errors.As(err, &moduleErr))
		assert.Equal(t, "broken", moduleErr.Module)
		assert.Contains(t, err.Error(), "module broken")
	})

	t.Run("nested failures name the innermost module", func(t *testing.T) {
		c := testutil.NewContainerBuilder(t).Build()

		inner := reflective.NewModule("inner", reflective.AddAlias("", "x"))
		err := c.Install(reflective.NewModule("outer", inner))

		var moduleErr reflective.ModuleError
		require.True(t, errors.As(err, &moduleErr))
		assert.Equal(t, "outer", moduleErr.Module)
		require.True(t, errors.As(moduleErr.Cause, &moduleErr))
		assert.Equal(t, "inner", moduleErr.Module)
		assert.ErrorIs(t, err, reflective.ErrEmptyName)
	})
}
