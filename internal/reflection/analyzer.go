package reflection

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// In marks a struct parameter as a parameter object.
type In struct{}

// Descriptor describes how to produce the value of an injected parameter.
type Descriptor interface {
	// Producer returns the bound producer function, or nil when unbound.
	Producer() any

	// ResultType returns the declared type of the produced value.
	ResultType() reflect.Type
}

// Annotated is implemented by parameter types that carry a Descriptor.
type Annotated interface {
	Dependency() Descriptor
}

var (
	inType         = reflect.TypeOf((*In)(nil)).Elem()
	errType        = reflect.TypeOf((*error)(nil)).Elem()
	annotatedType  = reflect.TypeOf((*Annotated)(nil)).Elem()
	cleanupType    = reflect.TypeOf((func())(nil))
	cleanupErrType = reflect.TypeOf((func() error)(nil))
)

// Role selects the signature rules applied to an analyzed function.
type Role int

const (
	// RoleHandler functions return nothing or a single error.
	RoleHandler Role = iota

	// RoleProducer functions return a value, optionally followed by a
	// cleanup function and/or an error.
	RoleProducer
)

func (r Role) String() string {
	switch r {
	case RoleHandler:
		return "handler"
	case RoleProducer:
		return "producer"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParamKind tells where a parameter's value comes from.
type ParamKind int

const (
	// Supplied values come from the host framework (request, writer, context).
	Supplied ParamKind = iota

	// Injected values are resolved from a Descriptor.
	Injected

	// ParamObject is a struct embedding In whose fields are filled individually.
	ParamObject
)

// Parameter describes one function parameter or one parameter object field.
type Parameter struct {
	Index      int
	Name       string
	Type       reflect.Type
	Kind       ParamKind
	Descriptor Descriptor
	Optional   bool

	// Fields is set for ParamObject parameters.
	Fields []Parameter
}

// Dependency is one entry of a dependency map.
type Dependency struct {
	// Name is the parameter type name, or the field name for parameter objects.
	Name string

	// Index is the parameter position in the function signature.
	Index int

	// Field is the field index inside a parameter object, or -1.
	Field int

	Type       reflect.Type
	Descriptor Descriptor
	Optional   bool
}

// FuncInfo contains the analyzed shape of a handler or producer.
type FuncInfo struct {
	Type   reflect.Type
	Role   Role
	Params []Parameter

	// Result is the produced type for producers, nil for handlers.
	Result reflect.Type

	// CleanupIndex and ErrorIndex locate the optional cleanup and error
	// returns, -1 when absent.
	CleanupIndex int
	ErrorIndex   int

	dependencies []Dependency
}

// Dependencies returns the dependency map in declaration order.
func (info *FuncInfo) Dependencies() []Dependency {
	return info.dependencies
}

type cacheKey struct {
	typ  reflect.Type
	role Role
}

// Analyzer performs reflection-based analysis of handlers and producers.
// Results depend only on the function type and role, so they are cached
// by type.
type Analyzer struct {
	supplied []reflect.Type

	mu    sync.RWMutex
	cache map[cacheKey]*FuncInfo
}

// New creates an Analyzer that treats the given types as host-supplied.
func New(supplied ...reflect.Type) *Analyzer {
	s := make([]reflect.Type, 0, len(supplied))
	for _, t := range supplied {
		if t != nil {
			s = append(s, t)
		}
	}

	return &Analyzer{
		supplied: s,
		cache:    make(map[cacheKey]*FuncInfo),
	}
}

// Supplied returns the host-supplied types known to the analyzer.
func (a *Analyzer) Supplied() []reflect.Type {
	return a.supplied
}

// IsSupplied reports whether t is one of the host-supplied types.
func (a *Analyzer) IsSupplied(t reflect.Type) bool {
	for _, s := range a.supplied {
		if s == t {
			return true
		}
	}
	return false
}

// Analyze analyzes fn under the given role.
func (a *Analyzer) Analyze(fn any, role Role) (*FuncInfo, error) {
	if fn == nil {
		return nil, SignatureError{Role: role, Cause: ErrNilFunc}
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, SignatureError{Type: val.Type(), Role: role, Cause: ErrNotFunc}
	}

	if val.IsNil() {
		return nil, SignatureError{Type: val.Type(), Role: role, Cause: ErrNilFunc}
	}

	return a.AnalyzeType(val.Type(), role)
}

// AnalyzeType analyzes a function type under the given role.
func (a *Analyzer) AnalyzeType(fnType reflect.Type, role Role) (*FuncInfo, error) {
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, SignatureError{Type: fnType, Role: role, Cause: ErrNotFunc}
	}

	key := cacheKey{typ: fnType, role: role}

	a.mu.RLock()
	if cached, ok := a.cache[key]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	info := &FuncInfo{
		Type:         fnType,
		Role:         role,
		CleanupIndex: -1,
		ErrorIndex:   -1,
	}

	if fnType.IsVariadic() {
		return nil, SignatureError{Type: fnType, Role: role, Cause: ErrVariadic}
	}

	if err := a.analyzeReturns(info); err != nil {
		return nil, err
	}

	if err := a.analyzeParameters(info); err != nil {
		return nil, err
	}

	info.dependencies = buildDependencies(info)

	a.mu.Lock()
	defer a.mu.Unlock()
	if cached, ok := a.cache[key]; ok {
		return cached, nil
	}
	a.cache[key] = info
	return info, nil
}

// analyzeReturns validates the return values for the role.
func (a *Analyzer) analyzeReturns(info *FuncInfo) error {
	fnType := info.Type
	numOut := fnType.NumOut()

	if info.Role == RoleHandler {
		switch {
		case numOut == 0:
		case numOut == 1 && fnType.Out(0) == errType:
			info.ErrorIndex = 0
		default:
			return SignatureError{Type: fnType, Role: info.Role, Cause: ErrHandlerReturns}
		}
		return nil
	}

	if numOut == 0 || numOut > 3 || fnType.Out(0) == errType {
		return SignatureError{Type: fnType, Role: info.Role, Cause: ErrProducerReturns}
	}

	info.Result = fnType.Out(0)

	for i := 1; i < numOut; i++ {
		out := fnType.Out(i)
		switch {
		case (out == cleanupType || out == cleanupErrType) && info.CleanupIndex < 0 && info.ErrorIndex < 0:
			info.CleanupIndex = i
		case out == errType && i == numOut-1:
			info.ErrorIndex = i
		default:
			return SignatureError{Type: fnType, Role: info.Role, Cause: ErrProducerReturns}
		}
	}

	return nil
}

// analyzeParameters classifies every parameter.
func (a *Analyzer) analyzeParameters(info *FuncInfo) error {
	fnType := info.Type
	info.Params = make([]Parameter, 0, fnType.NumIn())

	for i := 0; i < fnType.NumIn(); i++ {
		paramType := fnType.In(i)

		param, err := a.classify(paramType, typeName(paramType), i, true)
		if err != nil {
			return ParameterError{Func: fnType, Index: i, Type: paramType, Cause: err}
		}

		info.Params = append(info.Params, param)
	}

	return nil
}

// classify decides where a value of type t comes from.
func (a *Analyzer) classify(t reflect.Type, name string, index int, allowObject bool) (Parameter, error) {
	param := Parameter{Index: index, Name: name, Type: t}

	if t.Implements(annotatedType) {
		desc, err := descriptorOf(t)
		if err != nil {
			return param, err
		}
		if rt := desc.ResultType(); rt != nil && !Compatible(rt, t) {
			return param, fmt.Errorf("%w: %s produces %s", ErrIncompatibleDescriptor, t, rt)
		}
		param.Kind = Injected
		param.Descriptor = desc
		return param, nil
	}

	if a.IsSupplied(t) {
		param.Kind = Supplied
		return param, nil
	}

	if allowObject && hasEmbeddedIn(t) {
		fields, err := a.analyzeParamObject(t)
		if err != nil {
			return param, err
		}
		param.Kind = ParamObject
		param.Fields = fields
		return param, nil
	}

	return param, ErrNotInjectable
}

// analyzeParamObject analyzes the fields of an In struct.
func (a *Analyzer) analyzeParamObject(t reflect.Type) ([]Parameter, error) {
	structType := t
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	fields := make([]Parameter, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Anonymous && field.Type == inType {
			continue
		}

		tag := parseTag(field.Tag)
		if tag.ignore {
			continue
		}

		if !field.IsExported() {
			return nil, fmt.Errorf("field %s: %w", field.Name, ErrUnexportedField)
		}

		param, err := a.classify(field.Type, field.Name, i, false)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		param.Optional = tag.optional
		fields = append(fields, param)
	}

	return fields, nil
}

// descriptorOf calls Dependency on the zero value of t.
func descriptorOf(t reflect.Type) (desc Descriptor, err error) {
	if t.Kind() == reflect.Interface {
		return nil, ErrInterfaceAnnotation
	}

	zero := reflect.Zero(t)
	if t.Kind() == reflect.Pointer && t.Elem().Implements(annotatedType) {
		// value receiver: calling through a nil pointer would dereference it
		zero = reflect.Zero(t.Elem())
	}

	defer func() {
		if r := recover(); r != nil {
			desc = nil
			err = fmt.Errorf("%w: %v", ErrDescriptorPanic, r)
		}
	}()

	desc = zero.Interface().(Annotated).Dependency()
	if isNil(desc) {
		return nil, ErrNilDescriptor
	}

	return desc, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// buildDependencies flattens injected parameters and fields in order.
func buildDependencies(info *FuncInfo) []Dependency {
	deps := make([]Dependency, 0, len(info.Params))
	for _, param := range info.Params {
		switch param.Kind {
		case Injected:
			deps = append(deps, Dependency{
				Name:       param.Name,
				Index:      param.Index,
				Field:      -1,
				Type:       param.Type,
				Descriptor: param.Descriptor,
			})
		case ParamObject:
			for _, field := range param.Fields {
				if field.Kind != Injected {
					continue
				}
				deps = append(deps, Dependency{
					Name:       field.Name,
					Index:      param.Index,
					Field:      field.Index,
					Type:       field.Type,
					Descriptor: field.Descriptor,
					Optional:   field.Optional,
				})
			}
		}
	}
	return deps
}

// Clear drops every cached analysis.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache = make(map[cacheKey]*FuncInfo)
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

type tagInfo struct {
	ignore   bool
	optional bool
}

func parseTag(tag reflect.StructTag) tagInfo {
	var info tagInfo
	value, ok := tag.Lookup("depends")
	if !ok {
		return info
	}

	for _, part := range strings.Split(value, ",") {
		switch strings.TrimSpace(part) {
		case "-":
			info.ignore = true
		case "optional":
			info.optional = true
		}
	}
	return info
}

// hasEmbeddedIn reports whether t (or *t) is a struct embedding In.
func hasEmbeddedIn(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
	}
	return false
}

func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer && t.Elem().Name() != "" {
		return "*" + t.Elem().Name()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
