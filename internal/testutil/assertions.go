package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/reflective"
)

// AssertResolvable checks that T resolves and returns it
func AssertResolvable[T any](t *testing.T, c *reflective.Container, values reflective.Values) T {
	t.Helper()
	instance, err := reflective.Resolve[T](c, values)
	require.NoError(t, err, "failed to resolve %s", reflective.TypeName[T]())
	require.NotNil(t, instance, "resolved instance is nil")
	return instance
}

// AssertNotFound checks that resolving name fails with a not-found error
func AssertNotFound(t *testing.T, c *reflective.Container, name string) {
	t.Helper()
	_, err := c.Get(name, nil)
	require.Error(t, err)
	assert.True(t, reflective.IsNotFound(err), "expected not found error, got: %v", err)
}

// AssertUnresolvable checks that err is an UnresolvableParameterError for parameter
// and returns it
func AssertUnresolvable(t *testing.T, err error, parameter string) reflective.UnresolvableParameterError {
	t.Helper()
	require.Error(t, err)

	var unresolvable reflective.UnresolvableParameterError
	require.True(t, errors.As(err, &unresolvable), "expected unresolvable parameter error, got: %v", err)
	assert.Equal(t, parameter, unresolvable.Parameter)
	return unresolvable
}

// AssertCircular checks that err is a CircularReferenceError whose message names every given target
func AssertCircular(t *testing.T, err error, names ...string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, reflective.IsCircularReference(err), "expected circular reference error, got: %v", err)
	for _, name := range names {
		assert.Contains(t, err.Error(), name)
	}
}

// AssertHasTargets checks that every name is registered
func AssertHasTargets(t *testing.T, c *reflective.Container, names ...string) {
	t.Helper()
	for _, name := range names {
		assert.True(t, c.Has(name), "expected %s to be registered", name)
	}
}
