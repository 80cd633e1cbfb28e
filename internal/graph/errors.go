package graph

import (
	"fmt"
	"strings"
)

// CycleError represents a cycle among target dependencies.
// Path starts and ends the cycle at Path[0].
type CycleError struct {
	Path []string
}

func (e CycleError) Error() string {
	var b strings.Builder
	b.WriteString("dependency cycle detected:\n\n")

	for _, name := range e.Path {
		b.WriteString(fmt.Sprintf("    %s\n", name))
		b.WriteString("      ↓\n")
	}
	if len(e.Path) > 0 {
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Path[0]))
	}

	return b.String()
}
