package declare_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/reflective"
	"github.com/junioryono/reflective/declare"
	"github.com/junioryono/reflective/internal/testutil"
)

func builtin(name string) reflective.TypeSet {
	return reflective.TypeSet{Alternatives: []reflective.TypeRef{{Name: name, Builtin: true}}}
}

func TestParameter(t *testing.T) {
	tests := []struct {
		name  string
		param reflective.ParameterDescriptor
		want  string
	}{
		{
			name:  "plain",
			param: reflective.ParameterDescriptor{Name: "dsn", Types: builtin("string")},
			want:  "dsn string",
		},
		{
			name: "default",
			param: reflective.ParameterDescriptor{
				Name: "timeout", Types: builtin("time.Duration"),
				HasDefault: true, Default: 5 * time.Second,
			},
			want: "timeout time.Duration = 5s",
		},
		{
			name: "nullable union",
			param: reflective.ParameterDescriptor{
				Name: "cache",
				Types: reflective.TypeSet{
					Alternatives: []reflective.TypeRef{reflective.Named("redis"), reflective.Named("memory")},
					Nullable:     true,
				},
			},
			want: "cache redis|memory|nil",
		},
		{
			name: "directives",
			param: reflective.ParameterDescriptor{
				Name:  "store",
				Types: reflective.TypeSet{Alternatives: []reflective.TypeRef{reflective.Named("Store")}},
				Directives: []reflective.Directive{
					reflective.ResolveByID{ID: "primary", Optional: true, PreferResolution: true},
					reflective.Using("dsn"),
				},
			},
			want: "store Store `resolve:\"primary\" optional prefer using:\"dsn\"`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, declare.Parameter(tt.param))
		})
	}
}

func TestDirective(t *testing.T) {
	assert.Equal(t, "prefer", declare.Directive(reflective.PreferResolution{}))
	assert.Equal(t, `values:{a="x", b=2}`,
		declare.Directive(reflective.ExtraValues{Values: reflective.Values{"b": 2, "a": "x"}}))
	assert.Equal(t, `resolve:"db" values:{retries=3}`,
		declare.Directive(reflective.ResolveByID{ID: "db", Values: reflective.Values{"retries": 3}}))
	assert.Equal(t, `using:"dsn,config->settings"`,
		declare.Directive(reflective.Propagate{Sources: []reflective.Source{
			{From: "dsn"},
			{From: "config", As: "settings"},
		}}))
	assert.Equal(t, `using:"dsn"`,
		declare.Directive(reflective.Propagate{Sources: []reflective.Source{{From: "dsn", As: "dsn"}}}))
}

func TestValue(t *testing.T) {
	var nilMap map[string]int

	assert.Equal(t, "nil", declare.Value(nil))
	assert.Equal(t, "nil", declare.Value(nilMap))
	assert.Equal(t, `"memory://"`, declare.Value("memory://"))
	assert.Equal(t, "42", declare.Value(42))
	assert.Equal(t, "true", declare.Value(true))
	assert.Equal(t, "[]int{1, 2}", declare.Value([]int{1, 2}))
	assert.Equal(t, "1m0s", declare.Value(time.Minute))
}

func TestTarget(t *testing.T) {
	t.Run("constructor", func(t *testing.T) {
		c := testutil.NewContainerBuilder(t).
			WithProvide(testutil.NewStore, testutil.StoreParams()).
			Build()

		desc, err := c.Inspect(reflective.TypeName[*testutil.Store]())
		require.NoError(t, err)

		want := desc.Name + " = NewStore(\n" +
			"    dsn string = \"memory://\",\n" +
			"    config " + reflective.TypeName[*testutil.Config]() + ",\n" +
			")"
		assert.Equal(t, want, declare.Target(desc))
	})

	t.Run("no parameters", func(t *testing.T) {
		desc := reflective.TargetDescriptor{Name: "clock", Function: "NewClock"}
		assert.Equal(t, "clock = NewClock()", declare.Target(desc))
	})

	t.Run("properties", func(t *testing.T) {
		desc := reflective.TargetDescriptor{
			Name:             "handler",
			InjectProperties: true,
			Properties: []reflective.ParameterDescriptor{
				{Name: "Greeter", Types: reflective.TypeSet{Alternatives: []reflective.TypeRef{reflective.Named("Greeter")}}},
				{Name: "Retries", Types: builtin("int"), HasDefault: true, Default: 0},
			},
		}
		assert.Equal(t, "handler {\n    Greeter Greeter\n    Retries int = 0\n}", declare.Target(desc))
	})
}
