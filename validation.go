package depends

import (
	"errors"
	"io"

	"github.com/junioryono/depends/internal/graph"
	"github.com/junioryono/depends/internal/reflection"
)

// Validate checks every prepared handler against the current producers and
// overrides without running anything. It reports descriptors with no
// producer bound, producers with an unsupported signature or parameters,
// producers whose result does not fit their descriptor, and cycles.
// All problems are returned together, joined with errors.Join.
//
// Call it after all routes are registered and before serving:
//
//	if err := router.Injector().Validate(); err != nil {
//	    log.Fatal(err)
//	}
func (i *Injector) Validate() error {
	g, errs := i.buildGraph()

	if err := g.DetectCycles(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// WriteGraph writes the dependency graph of every prepared handler in
// Graphviz DOT format.
func (i *Injector) WriteGraph(w io.Writer) error {
	g, _ := i.buildGraph()
	return graph.NewVisualizer(g).WriteDOT(w)
}

// buildGraph walks the dependency maps of all handlers, following the
// effective producer of each descriptor.
func (i *Injector) buildGraph() (*graph.DependencyGraph, []error) {
	g := graph.NewDependencyGraph()

	var errs []error
	visited := make(map[uintptr]bool)
	unbound := make(map[Descriptor]bool)

	var walk func(deps []Dependency) []graph.NodeKey
	walk = func(deps []Dependency) []graph.NodeKey {
		keys := make([]graph.NodeKey, 0, len(deps))

		for _, dep := range deps {
			producer := dep.Descriptor.Producer()
			if producer == nil {
				if !dep.Optional && !unbound[dep.Descriptor] {
					unbound[dep.Descriptor] = true
					errs = append(errs, UnboundProducerError{Descriptor: dep.Descriptor})
				}
				continue
			}

			effective := i.overrides.Lookup(producer)
			key := graph.NodeKey{
				ID:   reflection.FuncID(effective),
				Name: reflection.FuncName(effective),
			}
			keys = append(keys, key)

			if visited[key.ID] {
				continue
			}
			visited[key.ID] = true

			info, err := i.analyzer.Analyze(effective, reflection.RoleProducer)
			if err != nil {
				errs = append(errs, err)
				g.AddNode(key, graph.KindProducer, nil)
				continue
			}

			if rt := dep.Descriptor.ResultType(); rt != nil && !reflection.Compatible(info.Result, rt) {
				errs = append(errs, TypeMismatchError{Expected: rt, Actual: info.Result, Context: key.Name})
			}

			g.AddNode(key, graph.KindProducer, walk(info.Dependencies()))
		}

		return keys
	}

	for _, h := range i.Handlers() {
		key := graph.NodeKey{
			ID:   reflection.FuncID(h.raw),
			Name: h.name,
		}
		g.AddNode(key, graph.KindHandler, walk(h.Dependencies()))
	}

	return g, errs
}
