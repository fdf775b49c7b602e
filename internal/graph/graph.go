package graph

import (
	"fmt"
	"slices"
	"sync"
)

// NodeKind distinguishes handlers from producers.
type NodeKind int

const (
	KindProducer NodeKind = iota
	KindHandler
)

func (k NodeKind) String() string {
	if k == KindHandler {
		return "handler"
	}
	return "producer"
}

// NodeKey uniquely identifies a function in the graph.
type NodeKey struct {
	// ID is the function identity, see reflection.FuncID.
	ID uintptr

	// Name is used for display only.
	Name string
}

// String returns a string representation of the node key
func (k NodeKey) String() string {
	if k.Name == "" {
		return fmt.Sprintf("func@%#x", k.ID)
	}
	return k.Name
}

// Node represents a handler or producer in the dependency graph
type Node struct {
	Key  NodeKey
	Kind NodeKind

	Dependencies []NodeKey // producers this node calls
	Dependents   []NodeKey // nodes that call this producer
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("Node{%s, %s, deps:%d, dependents:%d}",
		n.Key.String(), n.Kind, len(n.Dependencies), len(n.Dependents))
}

// DependencyGraph records which producers each handler and producer calls.
// It provides cycle detection and topological sorting.
type DependencyGraph struct {
	mu    sync.RWMutex
	nodes map[NodeKey]*Node
	order []NodeKey // insertion order, for deterministic traversal
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[NodeKey]*Node),
	}
}

// AddNode adds or replaces a node and its outgoing edges. Dependencies that
// are not yet in the graph are added as producers without edges.
func (g *DependencyGraph) AddNode(key NodeKey, kind NodeKind, deps []NodeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node := g.ensure(key, kind)
	node.Kind = kind

	for _, old := range node.Dependencies {
		if dep, ok := g.nodes[old]; ok {
			dep.Dependents = slices.DeleteFunc(dep.Dependents, func(k NodeKey) bool { return k == key })
		}
	}

	node.Dependencies = make([]NodeKey, 0, len(deps))
	for _, depKey := range deps {
		dep := g.ensure(depKey, KindProducer)
		node.Dependencies = append(node.Dependencies, depKey)
		if !slices.Contains(dep.Dependents, key) {
			dep.Dependents = append(dep.Dependents, key)
		}
	}
}

func (g *DependencyGraph) ensure(key NodeKey, kind NodeKind) *Node {
	if node, ok := g.nodes[key]; ok {
		return node
	}
	node := &Node{Key: key, Kind: kind}
	g.nodes[key] = node
	g.order = append(g.order, key)
	return node
}

// Node returns the node for key, or nil.
func (g *DependencyGraph) Node(key NodeKey) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[key]
}

// HasNode checks if a node exists in the graph
func (g *DependencyGraph) HasNode(key NodeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[key]
	return ok
}

// Dependencies returns the direct dependencies of a node
func (g *DependencyGraph) Dependencies(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[key]; ok {
		return append([]NodeKey(nil), node.Dependencies...)
	}
	return nil
}

// Dependents returns the nodes that call the given producer
func (g *DependencyGraph) Dependents(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if node, ok := g.nodes[key]; ok {
		return append([]NodeKey(nil), node.Dependents...)
	}
	return nil
}

// Nodes returns every node in insertion order.
func (g *DependencyGraph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]*Node, 0, len(g.order))
	for _, key := range g.order {
		nodes = append(nodes, g.nodes[key])
	}
	return nodes
}

// Size returns the number of nodes in the graph
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Clear removes all nodes and edges from the graph
func (g *DependencyGraph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[NodeKey]*Node)
	g.order = nil
}

// DetectCycles returns a CircularDependencyError for the first cycle found,
// walking nodes in insertion order.
func (g *DependencyGraph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[NodeKey]int, len(g.nodes))
	var stack []NodeKey

	var visit func(key NodeKey) error
	visit = func(key NodeKey) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, k := range stack {
				if k == key {
					start = i
					break
				}
			}
			path := append([]NodeKey(nil), stack[start:]...)
			return CircularDependencyError{Node: key, Path: path}
		}

		state[key] = visiting
		stack = append(stack, key)

		if node := g.nodes[key]; node != nil {
			for _, dep := range node.Dependencies {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[key] = done
		return nil
	}

	for _, key := range g.order {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}

// IsAcyclic returns true if the graph has no cycles
func (g *DependencyGraph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

// TopologicalSort returns nodes in dependency order (dependencies first)
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]*Node, 0, len(g.nodes))
	seen := make(map[NodeKey]bool, len(g.nodes))

	var visit func(key NodeKey)
	visit = func(key NodeKey) {
		if seen[key] {
			return
		}
		seen[key] = true
		node := g.nodes[key]
		for _, dep := range node.Dependencies {
			visit(dep)
		}
		result = append(result, node)
	}

	for _, key := range g.order {
		visit(key)
	}
	return result, nil
}
