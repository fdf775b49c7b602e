package reflection_test

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"github.com/junioryono/depends/internal/reflection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// descriptor is a minimal reflection.Descriptor for tests.
type descriptor struct {
	producer any
	result   reflect.Type
}

func (d *descriptor) Producer() any            { return d.producer }
func (d *descriptor) ResultType() reflect.Type { return d.result }

type Answer int

var answerDep = &descriptor{
	producer: func() Answer { return 42 },
	result:   reflect.TypeOf(Answer(0)),
}

func (Answer) Dependency() reflection.Descriptor { return answerDep }

type Label string

var labelDep = &descriptor{result: reflect.TypeOf("")}

func (Label) Dependency() reflection.Descriptor { return labelDep }

type Session struct{ ID string }

var sessionDep = &descriptor{result: reflect.TypeOf(&Session{})}

func (*Session) Dependency() reflection.Descriptor { return sessionDep }

type Broken int

func (Broken) Dependency() reflection.Descriptor { return nil }

type Panicky struct{ m map[string]reflection.Descriptor }

func (p Panicky) Dependency() reflection.Descriptor { return p.m["x"].(reflection.Descriptor) }

type Mismatched int

var mismatchedDep = &descriptor{result: reflect.TypeOf(struct{}{})}

func (Mismatched) Dependency() reflection.Descriptor { return mismatchedDep }

type Params struct {
	reflection.In

	Answer  Answer
	Label   Label `depends:"optional"`
	Request *http.Request
	Skipped int `depends:"-"`
}

var (
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	requestType  = reflect.TypeOf((*http.Request)(nil))
	responseType = reflect.TypeOf((*http.ResponseWriter)(nil)).Elem()
)

func newAnalyzer() *reflection.Analyzer {
	return reflection.New(responseType, requestType, contextType)
}

func TestAnalyzer_Handler(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer()

	t.Run("mixed parameters", func(t *testing.T) {
		fn := func(w http.ResponseWriter, a Answer, r *http.Request, l Label) {}

		info, err := analyzer.Analyze(fn, reflection.RoleHandler)
		require.NoError(t, err)

		require.Len(t, info.Params, 4)
		assert.Equal(t, reflection.Supplied, info.Params[0].Kind)
		assert.Equal(t, reflection.Injected, info.Params[1].Kind)
		assert.Equal(t, reflection.Supplied, info.Params[2].Kind)
		assert.Equal(t, reflection.Injected, info.Params[3].Kind)

		deps := info.Dependencies()
		require.Len(t, deps, 2)
		assert.Equal(t, "Answer", deps[0].Name)
		assert.Equal(t, 1, deps[0].Index)
		assert.Equal(t, -1, deps[0].Field)
		assert.Same(t, answerDep, deps[0].Descriptor)
		assert.Equal(t, "Label", deps[1].Name)
		assert.Equal(t, 3, deps[1].Index)
	})

	t.Run("no dependencies", func(t *testing.T) {
		info, err := analyzer.Analyze(func(ctx context.Context) error { return nil }, reflection.RoleHandler)
		require.NoError(t, err)
		assert.Empty(t, info.Dependencies())
		assert.Equal(t, 0, info.ErrorIndex)
		assert.Nil(t, info.Result)
	})

	t.Run("pointer receiver annotation", func(t *testing.T) {
		info, err := analyzer.Analyze(func(s *Session) {}, reflection.RoleHandler)
		require.NoError(t, err)
		require.Len(t, info.Dependencies(), 1)
		assert.Same(t, sessionDep, info.Dependencies()[0].Descriptor)
		assert.Equal(t, "*Session", info.Dependencies()[0].Name)
	})

	t.Run("parameter object", func(t *testing.T) {
		info, err := analyzer.Analyze(func(p Params) {}, reflection.RoleHandler)
		require.NoError(t, err)

		require.Len(t, info.Params, 1)
		assert.Equal(t, reflection.ParamObject, info.Params[0].Kind)
		require.Len(t, info.Params[0].Fields, 3)

		deps := info.Dependencies()
		require.Len(t, deps, 2)
		assert.Equal(t, "Answer", deps[0].Name)
		assert.Equal(t, 0, deps[0].Index)
		assert.Equal(t, 1, deps[0].Field)
		assert.False(t, deps[0].Optional)
		assert.Equal(t, "Label", deps[1].Name)
		assert.True(t, deps[1].Optional)
	})
}

func TestAnalyzer_Producer(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer()

	tests := []struct {
		name         string
		fn           any
		result       reflect.Type
		cleanupIndex int
		errorIndex   int
	}{
		{"value", func() int { return 0 }, reflect.TypeOf(0), -1, -1},
		{"value and error", func() (int, error) { return 0, nil }, reflect.TypeOf(0), -1, 1},
		{"value and cleanup", func() (int, func()) { return 0, nil }, reflect.TypeOf(0), 1, -1},
		{"value and cleanup error", func() (int, func() error) { return 0, nil }, reflect.TypeOf(0), 1, -1},
		{"value cleanup and error", func() (int, func(), error) { return 0, nil, nil }, reflect.TypeOf(0), 1, 2},
		{"with dependencies", func(a Answer, r *http.Request) (string, error) { return "", nil }, reflect.TypeOf(""), -1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := analyzer.Analyze(tt.fn, reflection.RoleProducer)
			require.NoError(t, err)
			assert.Equal(t, tt.result, info.Result)
			assert.Equal(t, tt.cleanupIndex, info.CleanupIndex)
			assert.Equal(t, tt.errorIndex, info.ErrorIndex)
		})
	}
}

func TestAnalyzer_SignatureErrors(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer()

	tests := []struct {
		name  string
		fn    any
		role  reflection.Role
		cause error
	}{
		{"nil", nil, reflection.RoleHandler, reflection.ErrNilFunc},
		{"typed nil", (func())(nil), reflection.RoleHandler, reflection.ErrNilFunc},
		{"not a function", 42, reflection.RoleHandler, reflection.ErrNotFunc},
		{"variadic", func(a ...Answer) {}, reflection.RoleHandler, reflection.ErrVariadic},
		{"handler returns value", func() int { return 0 }, reflection.RoleHandler, reflection.ErrHandlerReturns},
		{"handler returns two", func() (int, error) { return 0, nil }, reflection.RoleHandler, reflection.ErrHandlerReturns},
		{"producer returns nothing", func() {}, reflection.RoleProducer, reflection.ErrProducerReturns},
		{"producer returns error only", func() error { return nil }, reflection.RoleProducer, reflection.ErrProducerReturns},
		{"producer error before cleanup", func() (int, error, func()) { return 0, nil, nil }, reflection.RoleProducer, reflection.ErrProducerReturns},
		{"producer two values", func() (int, int) { return 0, 0 }, reflection.RoleProducer, reflection.ErrProducerReturns},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.Analyze(tt.fn, tt.role)
			require.Error(t, err)

			var sigErr reflection.SignatureError
			assert.True(t, errors.As(err, &sigErr))
			assert.ErrorIs(t, err, tt.cause)
			assert.Equal(t, tt.role, sigErr.Role)
		})
	}
}

func TestAnalyzer_ParameterErrors(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer()

	type private struct {
		reflection.In

		answer Answer
	}

	type unknownField struct {
		reflection.In

		Count int
	}

	tests := []struct {
		name  string
		fn    any
		index int
		cause error
	}{
		{"plain int", func(a Answer, n int) {}, 1, reflection.ErrNotInjectable},
		{"nil descriptor", func(b Broken) {}, 0, reflection.ErrNilDescriptor},
		{"panicking descriptor", func(p Panicky) {}, 0, reflection.ErrDescriptorPanic},
		{"result type mismatch", func(m Mismatched) {}, 0, reflection.ErrIncompatibleDescriptor},
		{"unexported field", func(p private) {}, 0, reflection.ErrUnexportedField},
		{"unknown field", func(p unknownField) {}, 0, reflection.ErrNotInjectable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.Analyze(tt.fn, reflection.RoleHandler)
			require.Error(t, err)

			var paramErr reflection.ParameterError
			require.True(t, errors.As(err, &paramErr))
			assert.Equal(t, tt.index, paramErr.Index)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestAnalyzer_Supplied(t *testing.T) {
	t.Parallel()

	t.Run("nil types ignored", func(t *testing.T) {
		a := reflection.New(nil, contextType)
		assert.Len(t, a.Supplied(), 1)
		assert.True(t, a.IsSupplied(contextType))
		assert.False(t, a.IsSupplied(requestType))
	})

	t.Run("unsupplied host type is rejected", func(t *testing.T) {
		a := reflection.New(contextType)
		_, err := a.Analyze(func(r *http.Request) {}, reflection.RoleHandler)
		assert.ErrorIs(t, err, reflection.ErrNotInjectable)
	})
}

func TestAnalyzer_Cache(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer()
	fn := func(a Answer) {}

	first, err := analyzer.Analyze(fn, reflection.RoleHandler)
	require.NoError(t, err)

	second, err := analyzer.Analyze(func(b Answer) {}, reflection.RoleHandler)
	require.NoError(t, err)

	assert.Same(t, first, second, "same function type shares one analysis")
	assert.Equal(t, 1, analyzer.CacheSize())

	analyzer.Clear()
	assert.Equal(t, 0, analyzer.CacheSize())
}

func TestAnalyzer_Concurrent(t *testing.T) {
	t.Parallel()

	analyzer := newAnalyzer()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := analyzer.Analyze(func(a Answer, p Params) error { return nil }, reflection.RoleHandler)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, analyzer.CacheSize())
}

func TestRole_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "handler", reflection.RoleHandler.String())
	assert.Equal(t, "producer", reflection.RoleProducer.String())
	assert.Equal(t, "Role(7)", reflection.Role(7).String())
}
