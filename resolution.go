package depends

import (
	"reflect"

	"github.com/junioryono/depends/internal/graph"
	"github.com/junioryono/depends/internal/reflection"
)

// resolutionContext tracks the producers being resolved by one call chain.
type resolutionContext struct {
	scope *Scope
	stack []graph.NodeKey
}

func newResolutionContext(s *Scope) *resolutionContext {
	return &resolutionContext{scope: s}
}

// push adds key to the in-progress stack, failing if it is already there.
func (rc *resolutionContext) push(key graph.NodeKey) error {
	for i, k := range rc.stack {
		if k.ID == key.ID {
			path := append([]graph.NodeKey(nil), rc.stack[i:]...)
			return CircularDependencyError{Node: key, Path: path}
		}
	}
	rc.stack = append(rc.stack, key)
	return nil
}

func (rc *resolutionContext) pop() {
	rc.stack = rc.stack[:len(rc.stack)-1]
}

// scopeResolver adapts a resolution context to reflection.Resolver
type scopeResolver struct {
	rc *resolutionContext
}

func (r scopeResolver) Resolve(d reflection.Descriptor) (any, error) {
	return r.rc.scope.resolve(d, r.rc)
}

func (r scopeResolver) Supplied(t reflect.Type) (reflect.Value, bool) {
	return r.rc.scope.supplied(t)
}

// resolve produces the value for d, running its effective producer at most
// once per scope.
func (s *Scope) resolve(d Descriptor, rc *resolutionContext) (any, error) {
	if s.closed.Load() {
		return nil, ErrScopeClosed
	}

	if d == nil {
		return nil, UnboundProducerError{}
	}

	producer := d.Producer()
	if producer == nil {
		return nil, UnboundProducerError{Descriptor: d}
	}

	effective := s.injector.overrides.Lookup(producer)
	key := graph.NodeKey{
		ID:   reflection.FuncID(effective),
		Name: reflection.FuncName(effective),
	}

	if cached, ok := s.cache.get(key.ID); ok {
		s.injector.logger.Debug("dependency cache hit", "producer", key.Name, "scope", s.id)
		return coerceResult(cached, d, key.Name)
	}

	if err := rc.push(key); err != nil {
		return nil, err
	}
	defer rc.pop()

	info, err := s.injector.analyzer.Analyze(effective, reflection.RoleProducer)
	if err != nil {
		return nil, err
	}

	if rt := d.ResultType(); rt != nil && !reflection.Compatible(info.Result, rt) {
		return nil, TypeMismatchError{Expected: rt, Actual: info.Result, Context: key.Name}
	}

	args, err := reflection.BuildArgs(info, scopeResolver{rc: rc})
	if err != nil {
		return nil, err
	}

	// func values are not comparable; compare identities.
	if key.ID != reflection.FuncID(producer) {
		s.injector.logger.Debug("using override", "original", reflection.FuncName(producer), "replacement", key.Name)
	}

	res := reflection.Invoke(reflect.ValueOf(effective), info, args)
	if res.Err != nil {
		return nil, res.Err
	}

	if res.Cleanup != nil {
		s.addCleanup(res.Cleanup)
	}

	value := s.cache.set(key.ID, res.Value.Interface())
	return coerceResult(value, d, key.Name)
}

// coerceResult converts a cached value to the descriptor's result type.
func coerceResult(value any, d Descriptor, producer string) (any, error) {
	rt := d.ResultType()
	if rt == nil {
		return value, nil
	}

	val, ok := reflection.Coerce(value, rt)
	if !ok {
		return nil, TypeMismatchError{Expected: rt, Actual: reflect.TypeOf(value), Context: producer}
	}
	return val.Interface(), nil
}
