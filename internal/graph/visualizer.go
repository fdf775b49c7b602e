package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer provides methods to visualize the dependency graph
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format
func (v *Visualizer) WriteDOT(w io.Writer) error {
	nodes := v.graph.Nodes()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled];\n")

	ids := make(map[NodeKey]string, len(nodes))
	for i, node := range nodes {
		id := fmt.Sprintf("n%d", i)
		ids[node.Key] = id
		fmt.Fprintf(&b, "  %s [label=%q, fillcolor=%q];\n", id, node.Key.String(), nodeColor(node))
	}

	for _, node := range nodes {
		for _, dep := range node.Dependencies {
			fmt.Fprintf(&b, "  %s -> %s;\n", ids[node.Key], ids[dep])
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes the graph as an indented list, dependencies first.
func (v *Visualizer) WriteText(w io.Writer) error {
	var b strings.Builder

	sorted, err := v.graph.TopologicalSort()
	if err != nil {
		fmt.Fprintf(&b, "Warning: graph contains cycles\n%v\n", err)
		sorted = v.graph.Nodes()
	}

	for _, node := range sorted {
		fmt.Fprintf(&b, "%s (%s)\n", node.Key.String(), node.Kind)
		for _, dep := range node.Dependencies {
			fmt.Fprintf(&b, "  -> %s\n", dep.String())
		}
	}

	_, err = io.WriteString(w, b.String())
	return err
}

func nodeColor(node *Node) string {
	if node.Kind == KindHandler {
		return "lightblue"
	}
	return "lightyellow"
}
