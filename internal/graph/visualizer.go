package graph

import (
	"fmt"
	"io"
	"strings"
)

// WriteDOT writes the graph in Graphviz DOT format.
// Unregistered dependencies are drawn gray.
func (g *Graph) WriteDOT(w io.Writer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	names := g.sortedNames()
	ids := make(map[string]string, len(names))
	for i, name := range names {
		ids[name] = fmt.Sprintf("n%d", i)
		node := g.nodes[name]

		color := "lightblue"
		if !node.Registered {
			color = "lightgray"
		}
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q];\n", ids[name], name, color)
	}

	for _, from := range names {
		for _, to := range g.edges[from] {
			fmt.Fprintf(&b, "  %s -> %s;\n", ids[from], ids[to])
		}
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes the graph grouped by depth, leaves first.
func (g *Graph) WriteText(w io.Writer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var b strings.Builder
	depths := g.depths()

	maxDepth := -1
	for _, d := range depths {
		if d > maxDepth {
			maxDepth = d
		}
	}

	names := g.sortedNames()
	for depth := 0; depth <= maxDepth; depth++ {
		fmt.Fprintf(&b, "Level %d:\n", depth)
		for _, name := range names {
			if depths[name] == depth {
				g.writeNode(&b, name)
			}
		}
		b.WriteString("\n")
	}

	cyclic := false
	for _, name := range names {
		if depths[name] < 0 {
			if !cyclic {
				b.WriteString("In or above cycles:\n")
				cyclic = true
			}
			g.writeNode(&b, name)
		}
	}
	if cyclic {
		b.WriteString("\n")
	}

	edges := 0
	for _, tos := range g.edges {
		edges += len(tos)
	}
	fmt.Fprintf(&b, "Total nodes: %d\n", len(g.nodes))
	fmt.Fprintf(&b, "Total edges: %d\n", edges)

	_, err := io.WriteString(w, b.String())
	return err
}

func (g *Graph) writeNode(b *strings.Builder, name string) {
	node := g.nodes[name]
	b.WriteString("  ")
	b.WriteString(name)
	if !node.Registered {
		b.WriteString(" (unregistered)")
	}
	b.WriteString("\n")

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "    Dependencies: [%s]\n", strings.Join(node.Dependencies, ", "))
	}
}
