package graph

import (
	"fmt"
	"sort"
	"sync"
)

// Graph records the static dependency relationships between target names.
// It provides cycle detection, topological sorting and dependency analysis.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string][]string // adjacency list, in declaration order
}

// Node represents a target in the dependency graph
type Node struct {
	Name       string
	Registered bool // False for names referenced but never registered

	// Graph metadata
	InDegree  int // number of dependents
	OutDegree int // number of dependencies

	Dependencies []string
	Dependents   []string
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[string][]string),
	}
}

// Add records a registered target and the names it depends on.
// Dependencies that were never added themselves appear as unregistered nodes.
func (g *Graph) Add(name string, dependencies ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.node(name)
	node.Registered = true

	seen := make(map[string]bool, len(dependencies))
	deps := make([]string, 0, len(dependencies))
	for _, dep := range dependencies {
		if seen[dep] {
			continue
		}
		seen[dep] = true
		deps = append(deps, dep)
		g.node(dep)
	}
	g.edges[name] = deps

	g.updateDegrees()
}

func (g *Graph) node(name string) *Node {
	node, ok := g.nodes[name]
	if !ok {
		node = &Node{Name: name}
		g.nodes[name] = node
	}
	return node
}

// updateDegrees recalculates degrees and dependents for all nodes (must hold mu)
func (g *Graph) updateDegrees() {
	for _, node := range g.nodes {
		node.InDegree = 0
		node.OutDegree = 0
		node.Dependents = node.Dependents[:0]
	}

	for _, from := range g.sortedNames() {
		tos := g.edges[from]
		fromNode := g.nodes[from]
		fromNode.OutDegree = len(tos)
		fromNode.Dependencies = append([]string(nil), tos...)

		for _, to := range tos {
			toNode := g.nodes[to]
			toNode.InDegree++
			toNode.Dependents = append(toNode.Dependents, from)
		}
	}
}

// sortedNames returns node names in lexical order (must hold mu)
func (g *Graph) sortedNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TopologicalSort returns node names in dependency order (dependencies first).
// Nodes without ordering constraints between them are sorted by name.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// Kahn's algorithm over the reversed edges: a node is ready once all of its
	// dependencies are emitted.
	pending := make(map[string]int, len(g.nodes))
	queue := make([]string, 0)
	for _, name := range g.sortedNames() {
		pending[name] = g.nodes[name].OutDegree
		if pending[name] == 0 {
			queue = append(queue, name)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		ready := make([]string, 0)
		for _, dependent := range g.nodes[current].Dependents {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(result) != len(g.nodes) {
		return nil, fmt.Errorf("graph contains a cycle: %d nodes but only %d could be sorted",
			len(g.nodes), len(result))
	}
	return result, nil
}

// DetectCycles returns a CycleError for the first cycle found, visiting nodes by name.
func (g *Graph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.nodes))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			start := 0
			for i, n := range path {
				if n == name {
					start = i
					break
				}
			}
			return CycleError{Path: append([]string(nil), path[start:]...)}
		case done:
			return nil
		}

		state[name] = visiting
		path = append(path, name)
		for _, dep := range g.edges[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, name := range g.sortedNames() {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsAcyclic returns true if the graph has no cycles
func (g *Graph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// Dependencies returns the direct dependencies of a target
func (g *Graph) Dependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[name]; ok {
		return append([]string(nil), node.Dependencies...)
	}
	return nil
}

// Dependents returns the targets that depend on the given target
func (g *Graph) Dependents(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[name]; ok {
		return append([]string(nil), node.Dependents...)
	}
	return nil
}

// TransitiveDependencies returns all dependencies (direct and indirect) in
// depth-first order.
func (g *Graph) TransitiveDependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[string]bool{name: true}
	result := make([]string, 0)

	var collect func(current string)
	collect = func(current string) {
		for _, dep := range g.edges[current] {
			if !visited[dep] {
				visited[dep] = true
				result = append(result, dep)
				collect(dep)
			}
		}
	}

	collect(name)
	return result
}

// Node returns a copy of the node for a given target
func (g *Graph) Node(name string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[name]
	if !ok {
		return Node{}, false
	}
	copied := *node
	copied.Dependencies = append([]string(nil), node.Dependencies...)
	copied.Dependents = append([]string(nil), node.Dependents...)
	return copied, true
}

// Size returns the number of nodes in the graph
func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Missing returns the names referenced as dependencies but never added, sorted.
func (g *Graph) Missing() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	missing := make([]string, 0)
	for _, name := range g.sortedNames() {
		if !g.nodes[name].Registered {
			missing = append(missing, name)
		}
	}
	return missing
}

// depths maps each node to the length of its longest dependency chain.
// Nodes on or above a cycle get -1 (must hold mu).
func (g *Graph) depths() map[string]int {
	depths := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool)

	var depth func(name string) int
	depth = func(name string) int {
		if d, ok := depths[name]; ok {
			return d
		}
		if onStack[name] {
			return -1
		}
		onStack[name] = true
		defer delete(onStack, name)

		d := 0
		for _, dep := range g.edges[name] {
			dd := depth(dep)
			if dd < 0 {
				d = -1
				break
			}
			if dd+1 > d {
				d = dd + 1
			}
		}
		depths[name] = d
		return d
	}

	for _, name := range g.sortedNames() {
		depth(name)
	}
	return depths
}
