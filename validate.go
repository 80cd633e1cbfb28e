package reflective

import (
	"errors"
	"io"

	"github.com/junioryono/reflective/internal/graph"
)

// Validate reports a circular reference among registered targets without
// constructing anything. Each parameter is followed to the target it would
// resolve to when no caller values are given, so a cycle reported here may
// still be broken at runtime by values passed to Get.
func (c *Container) Validate() error {
	err := c.dependencyGraph().DetectCycles()

	var cycle graph.CycleError
	if errors.As(err, &cycle) {
		return CircularReferenceError{Name: cycle.Path[0], Chain: cycle.Path}
	}
	return err
}

// Missing returns the target names some registered target depends on
// but which are not registered, sorted.
func (c *Container) Missing() []string {
	return c.dependencyGraph().Missing()
}

// WriteGraph writes the static dependency graph of the registered targets in
// Graphviz DOT format. Unregistered dependencies are drawn gray.
func (c *Container) WriteGraph(w io.Writer) error {
	return c.dependencyGraph().WriteDOT(w)
}

// WriteGraphText writes the static dependency graph grouped by depth.
func (c *Container) WriteGraphText(w io.Writer) error {
	return c.dependencyGraph().WriteText(w)
}

func (c *Container) dependencyGraph() *graph.Graph {
	delegate := c.upstream()

	c.mu.RLock()
	targets := make(map[string]*target, len(c.targets))
	for name, t := range c.targets {
		targets[name] = t
	}
	aliases := make(map[string]string, len(c.aliases))
	for alias, name := range c.aliases {
		aliases[alias] = name
	}
	c.mu.RUnlock()

	s := &snapshot{targets: targets, aliases: aliases, external: delegate}
	if delegate == Delegate(c) {
		s.external = nil
	}

	g := graph.New()
	for name, t := range targets {
		params := t.desc.Params
		if t.desc.InjectProperties {
			params = append(append([]ParameterDescriptor(nil), params...), t.desc.Properties...)
		}

		deps := make([]string, 0, len(params))
		for _, p := range params {
			if dep, ok := s.dependency(p); ok {
				deps = append(deps, dep)
			}
		}
		g.Add(name, deps...)
	}
	return g
}

// snapshot is a copy of the registrations used for static analysis.
type snapshot struct {
	targets  map[string]*target
	aliases  map[string]string
	external Delegate // Nil when the container is its own delegate
}

func (s *snapshot) canonical(name string) string {
	for i := 0; i < len(s.aliases); i++ {
		next, ok := s.aliases[name]
		if !ok {
			break
		}
		name = next
	}
	return name
}

func (s *snapshot) registered(name string) bool {
	_, ok := s.targets[name]
	return ok
}

// dependency mirrors the resolution order for a parameter given no caller values.
// Identifiers served by an external delegate are not part of the graph.
func (s *snapshot) dependency(p ParameterDescriptor) (string, bool) {
	pl := compile(p.Directives)

	if pl.id != "" && (!p.HasDefault || pl.prefer) {
		id := s.canonical(pl.id)
		switch {
		case s.registered(id):
			return id, true
		case s.external != nil && s.external.Has(pl.id):
			return "", false
		case !pl.optional && !p.HasDefault:
			return id, true
		}
	}

	if p.HasDefault && !pl.prefer {
		return "", false
	}

	alternatives := p.Types.ClassLike()
	for _, alt := range alternatives {
		if name := s.canonical(alt.Name); s.registered(name) {
			return name, true
		}
	}

	if len(alternatives) > 0 && !p.Types.Nullable && !p.HasDefault {
		return s.canonical(alternatives[0].Name), true
	}
	return "", false
}
