package graph_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junioryono/reflective/internal/graph"
)

// chain builds service -> store -> config, with service also needing a logger
// that was never registered.
func chain() *graph.Graph {
	g := graph.New()
	g.Add("service", "store", "logger")
	g.Add("store", "config")
	g.Add("config")
	return g
}

func TestGraph_Add(t *testing.T) {
	g := chain()

	assert.Equal(t, 4, g.Size())
	assert.Equal(t, []string{"store", "logger"}, g.Dependencies("service"))
	assert.Equal(t, []string{"store"}, g.Dependents("config"))
	assert.Equal(t, []string{"service"}, g.Dependents("logger"))
	assert.Nil(t, g.Dependencies("unknown"))

	node, ok := g.Node("store")
	require.True(t, ok)
	assert.True(t, node.Registered)
	assert.Equal(t, 1, node.InDegree)
	assert.Equal(t, 1, node.OutDegree)

	logger, ok := g.Node("logger")
	require.True(t, ok)
	assert.False(t, logger.Registered)

	_, ok = g.Node("unknown")
	assert.False(t, ok)
}

func TestGraph_AddDeduplicates(t *testing.T) {
	g := graph.New()
	g.Add("a", "b", "b", "c")

	assert.Equal(t, []string{"b", "c"}, g.Dependencies("a"))
}

func TestGraph_AddRegistersReferencedNode(t *testing.T) {
	g := graph.New()
	g.Add("a", "b")
	assert.Equal(t, []string{"b"}, g.Missing())

	g.Add("b")
	assert.Empty(t, g.Missing())
}

func TestGraph_NodeIsCopy(t *testing.T) {
	g := chain()

	node, _ := g.Node("service")
	node.Dependencies[0] = "changed"

	assert.Equal(t, []string{"store", "logger"}, g.Dependencies("service"))
}

func TestGraph_TopologicalSort(t *testing.T) {
	t.Run("dependencies first", func(t *testing.T) {
		sorted, err := chain().TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"config", "logger", "store", "service"}, sorted)
	})

	t.Run("cycle", func(t *testing.T) {
		g := graph.New()
		g.Add("a", "b")
		g.Add("b", "a")

		_, err := g.TopologicalSort()
		assert.Error(t, err)
	})
}

func TestGraph_DetectCycles(t *testing.T) {
	tests := []struct {
		name  string
		edges map[string][]string
		want  []string
	}{
		{
			name:  "acyclic",
			edges: map[string][]string{"a": {"b"}, "b": {"c"}},
		},
		{
			name:  "self reference",
			edges: map[string][]string{"a": {"a"}},
			want:  []string{"a"},
		},
		{
			name:  "two nodes",
			edges: map[string][]string{"a": {"b"}, "b": {"a"}},
			want:  []string{"a", "b"},
		},
		{
			name:  "cycle below entry",
			edges: map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"d"}, "d": {"b"}},
			want:  []string{"b", "c", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			for from, tos := range tt.edges {
				g.Add(from, tos...)
			}

			err := g.DetectCycles()
			if tt.want == nil {
				assert.NoError(t, err)
				assert.True(t, g.IsAcyclic())
				return
			}

			var cycle graph.CycleError
			require.True(t, errors.As(err, &cycle))
			assert.Equal(t, tt.want, cycle.Path)
			assert.False(t, g.IsAcyclic())
			assert.Contains(t, err.Error(), tt.want[0]+" (cycle)")
		})
	}
}

func TestGraph_TransitiveDependencies(t *testing.T) {
	g := chain()

	assert.Equal(t, []string{"store", "config", "logger"}, g.TransitiveDependencies("service"))
	assert.Empty(t, g.TransitiveDependencies("config"))
}

func TestGraph_WriteDOT(t *testing.T) {
	g := graph.New()
	g.Add("a", "b")

	var b strings.Builder
	require.NoError(t, g.WriteDOT(&b))

	want := "digraph dependencies {\n" +
		"  rankdir=LR;\n" +
		"  node [shape=box, style=filled];\n" +
		"  n0 [label=\"a\", fillcolor=\"lightblue\"];\n" +
		"  n1 [label=\"b\", fillcolor=\"lightgray\"];\n" +
		"  n0 -> n1;\n" +
		"}\n"
	assert.Equal(t, want, b.String())
}

func TestGraph_WriteText(t *testing.T) {
	t.Run("levels", func(t *testing.T) {
		var b strings.Builder
		require.NoError(t, chain().WriteText(&b))

		out := b.String()
		assert.Contains(t, out, "Level 0:\n  config\n  logger (unregistered)\n")
		assert.Contains(t, out, "Level 2:\n  service\n    Dependencies: [store, logger]\n")
		assert.Contains(t, out, "Total nodes: 4\nTotal edges: 3\n")
		assert.NotContains(t, out, "cycles")
	})

	t.Run("cycles", func(t *testing.T) {
		g := graph.New()
		g.Add("a", "b")
		g.Add("b", "a")
		g.Add("c")

		var b strings.Builder
		require.NoError(t, g.WriteText(&b))
		assert.Contains(t, b.String(), "In or above cycles:\n  a\n")
	})
}

func TestGraph_Concurrent(t *testing.T) {
	g := graph.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			name := fmt.Sprintf("service%d", idx)
			if idx == 0 {
				g.Add(name)
				return
			}
			g.Add(name, fmt.Sprintf("service%d", idx-1))
		}(i)
		go func() {
			defer wg.Done()
			_ = g.Size()
			_ = g.DetectCycles()
			_, _ = g.TopologicalSort()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, g.Size())
	assert.Empty(t, g.Missing())
	assert.True(t, g.IsAcyclic())
}
