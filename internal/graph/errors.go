package graph

import (
	"fmt"
	"strings"
)

// CircularDependencyError represents a producer chain that leads back to itself.
type CircularDependencyError struct {
	Node NodeKey
	Path []NodeKey
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	path := e.Path
	if len(path) == 0 {
		path = []NodeKey{e.Node}
	}

	for _, node := range path {
		b.WriteString(fmt.Sprintf("    %s\n", node.String()))
		b.WriteString("      ↓\n")
	}
	b.WriteString(fmt.Sprintf("    %s (cycle)\n", path[0].String()))

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Override one of the producers with one that does not depend back\n")
	b.WriteString("  • Move the shared part into its own producer\n")

	return b.String()
}
