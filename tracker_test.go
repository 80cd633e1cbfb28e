package reflective

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleTracker(t *testing.T) {
	tr := newCycleTracker()

	require.NoError(t, tr.enter("a"))
	require.NoError(t, tr.enter("b"))
	assert.Equal(t, 2, tr.depth())

	err := tr.enter("a")
	var circular CircularReferenceError
	require.True(t, errors.As(err, &circular))
	assert.Equal(t, "a", circular.Name)
	assert.Equal(t, []string{"a", "b"}, circular.Chain)

	// The reported chain is a snapshot.
	tr.leave("b")
	assert.Equal(t, []string{"a", "b"}, circular.Chain)

	tr.leave("a")
	assert.Equal(t, 0, tr.depth())
	assert.NoError(t, tr.enter("a"))
}

func TestCompileDirectives(t *testing.T) {
	p := compile([]Directive{
		ExtraValues{Values: Values{"a": 1}},
		ResolveByID{ID: "first", Optional: true, Values: Values{"b": 2}},
		ResolveByID{ID: "second", PreferResolution: true},
		Using("x"),
		Propagate{Sources: []Source{{From: "y", As: "z"}}},
	})

	assert.Equal(t, "first", p.id)
	assert.True(t, p.optional)
	assert.True(t, p.prefer)
	assert.Equal(t, Values{"a": 1, "b": 2}, p.extra)
	assert.Equal(t, []Source{{From: "x"}, {From: "y", As: "z"}}, p.propagate)

	empty := compile(nil)
	assert.Equal(t, plan{}, empty)
}

func TestHookRegistry_Sorting(t *testing.T) {
	noop := func(string, string) error { return nil }
	r, err := newHookRegistry([]Hook{
		PrepareHookFunc("low", -1, noop),
		PrepareHookFunc("first", 3, noop),
		PrepareHookFunc("second", 3, noop),
		PrepareHookFunc("default", 0, noop),
	})
	require.NoError(t, err)

	names := make([]string, len(r.prepare))
	for i, h := range r.prepare {
		names[i] = h.Name
	}
	assert.Equal(t, []string{"first", "second", "default", "low"}, names)
	assert.Empty(t, r.proxy)
	assert.Empty(t, r.alter)

	_, err = newHookRegistry([]Hook{{Name: "unknown", Kind: HookKind(9)}})
	assert.ErrorIs(t, err, ErrInvalidHook)
}
