package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/junioryono/reflective"
)

// ContainerBuilder provides a fluent interface for building test containers
type ContainerBuilder struct {
	t            *testing.T
	options      []reflective.Option
	registration []func(*reflective.Container) error
}

// NewContainerBuilder creates a new ContainerBuilder logging to the test output.
func NewContainerBuilder(t *testing.T) *ContainerBuilder {
	return &ContainerBuilder{
		t:       t,
		options: []reflective.Option{reflective.WithLogger(zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)))},
	}
}

// WithOptions adds container options
func (b *ContainerBuilder) WithOptions(opts ...reflective.Option) *ContainerBuilder {
	b.options = append(b.options, opts...)
	return b
}

// WithHooks adds lifecycle hooks
func (b *ContainerBuilder) WithHooks(hooks ...reflective.Hook) *ContainerBuilder {
	b.options = append(b.options, reflective.WithHooks(hooks...))
	return b
}

// WithProvide registers a constructor
func (b *ContainerBuilder) WithProvide(constructor any, opts ...reflective.ProvideOption) *ContainerBuilder {
	b.registration = append(b.registration, func(c *reflective.Container) error {
		return c.Provide(constructor, opts...)
	})
	return b
}

// WithType registers a constructor-less type
func WithType[T any](b *ContainerBuilder, opts ...reflective.ProvideOption) *ContainerBuilder {
	b.registration = append(b.registration, func(c *reflective.Container) error {
		return reflective.Register[T](c, opts...)
	})
	return b
}

// Build creates the container and runs every registration, failing the test on error
func (b *ContainerBuilder) Build() *reflective.Container {
	b.t.Helper()

	c, err := reflective.New(b.options...)
	require.NoError(b.t, err, "failed to create container")

	for _, register := range b.registration {
		require.NoError(b.t, register(c), "failed to register target")
	}
	return c
}

// ChainContainer builds a container holding the A -> B -> C chain.
func ChainContainer(t *testing.T) *reflective.Container {
	t.Helper()
	return NewContainerBuilder(t).
		WithProvide(NewA).
		WithProvide(NewB).
		WithProvide(NewC).
		Build()
}
