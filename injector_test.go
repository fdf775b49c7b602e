package depends_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/junioryono/depends"
	"github.com/junioryono/depends/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjector_Prepare(t *testing.T) {
	t.Parallel()

	t.Run("builds the dependency map", func(t *testing.T) {
		injector := depends.NewInjector(httpSupplied)

		h, err := injector.Prepare(func(w http.ResponseWriter, a testutil.Answer, g testutil.Greeting) {})
		require.NoError(t, err)

		deps := h.Dependencies()
		require.Len(t, deps, 2)
		assert.Equal(t, 1, deps[0].Index)
		assert.Equal(t, testutil.AnswerDep, deps[0].Descriptor)
		assert.Equal(t, 2, deps[1].Index)
		assert.Equal(t, testutil.GreetingDep, deps[1].Descriptor)
		assert.Contains(t, h.Name(), "TestInjector_Prepare")
		assert.Equal(t, h.Name(), h.String())
		assert.NotNil(t, h.Func())
	})

	t.Run("records prepared handlers", func(t *testing.T) {
		injector := depends.NewInjector()
		_, err := injector.Prepare(func() {})
		require.NoError(t, err)
		_, err = injector.Prepare(func(a testutil.Answer) {})
		require.NoError(t, err)

		assert.Len(t, injector.Handlers(), 2)
	})

	t.Run("nil handler", func(t *testing.T) {
		injector := depends.NewInjector()

		_, err := injector.Prepare(nil)
		assert.ErrorIs(t, err, depends.ErrNilHandler)

		_, err = injector.Prepare((func())(nil))
		assert.ErrorIs(t, err, depends.ErrNilHandler)
	})

	t.Run("unknown parameter", func(t *testing.T) {
		injector := depends.NewInjector()

		_, err := injector.Prepare(func(a testutil.Answer, limit int) {})
		require.Error(t, err)

		var paramErr depends.ParameterError
		require.True(t, errors.As(err, &paramErr))
		assert.Equal(t, 1, paramErr.Index)
		assert.ErrorIs(t, err, depends.ErrNotInjectable)
		assert.Empty(t, injector.Handlers())
	})

	t.Run("host types are only supplied when declared", func(t *testing.T) {
		_, err := depends.NewInjector().Prepare(func(w http.ResponseWriter) {})
		assert.ErrorIs(t, err, depends.ErrNotInjectable)
	})

	t.Run("unsupported return", func(t *testing.T) {
		_, err := depends.NewInjector().Prepare(func() int { return 0 })

		var sigErr depends.SignatureError
		assert.True(t, errors.As(err, &sigErr))
	})
}

func TestInjector_Supplied(t *testing.T) {
	t.Parallel()

	injector := depends.NewInjector(httpSupplied, depends.WithSupplied(reflect.TypeFor[*http.Request](), nil))

	supplied := injector.Supplied()
	require.Len(t, supplied, 4)
	assert.Equal(t, reflect.TypeFor[context.Context](), supplied[0])
	assert.Equal(t, reflect.TypeFor[*depends.Scope](), supplied[1])
}

func TestInjector_ScopeFrom(t *testing.T) {
	t.Parallel()

	injector := depends.NewInjector()

	s, created := injector.ScopeFrom(context.Background())
	assert.True(t, created)

	again, created := injector.ScopeFrom(s.Context())
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := depends.NewInjector().ScopeFrom(s.Context())
	assert.True(t, created, "a scope of another injector is not reused")
	assert.NotSame(t, s, other)

	require.NoError(t, s.Close())
	fresh, created := injector.ScopeFrom(s.Context())
	assert.True(t, created, "a closed scope is not reused")
	assert.NotSame(t, s, fresh)
}

func TestInjector_Invoke(t *testing.T) {
	t.Parallel()

	t.Run("closes its own scope", func(t *testing.T) {
		var order []string
		d := depends.On[int](func() (int, func()) {
			return 1, func() { order = append(order, "closed") }
		})

		injector := depends.NewInjector()
		err := injector.Invoke(context.Background(), func(s *depends.Scope) error {
			_, err := d.From(s)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"closed"}, order)
		assert.Empty(t, injector.Handlers(), "Invoke does not record handlers")
	})

	t.Run("reports close failures", func(t *testing.T) {
		d := depends.On[int](func() (int, func() error) {
			return 1, func() error { return testutil.ErrCleanup }
		})

		err := depends.NewInjector().Invoke(context.Background(), func(s *depends.Scope) error {
			_, err := d.From(s)
			return err
		})
		assert.ErrorIs(t, err, testutil.ErrCleanup)
	})

	t.Run("handler error wins over close failure", func(t *testing.T) {
		d := depends.On[int](func() (int, func() error) {
			return 1, func() error { return testutil.ErrCleanup }
		})

		err := depends.NewInjector().Invoke(context.Background(), func(s *depends.Scope) error {
			_, _ = d.From(s)
			return testutil.ErrTest
		})
		assert.Equal(t, testutil.ErrTest, err)
	})

	t.Run("reuses the scope in the context", func(t *testing.T) {
		injector := depends.NewInjector()
		producer, calls := testutil.CountingProducer()
		require.NoError(t, injector.Overrides().Set(testutil.ProduceCounter, producer))

		scope := injector.NewScope(context.Background())
		defer scope.Close()

		for i := 0; i < 3; i++ {
			require.NoError(t, injector.Invoke(scope.Context(), func(c testutil.Counter) {}))
		}
		assert.Equal(t, int64(1), calls.Load())
		assert.False(t, scope.IsClosed())
	})
}

func TestInjector_Logger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	injector := depends.NewInjector(depends.WithLogger(logger))
	assert.Same(t, logger, injector.Logger())
	require.NoError(t, injector.Overrides().Set(testutil.ProduceAnswer, func() testutil.Answer { return 1 }))

	_, err := injector.Prepare(func(a testutil.Answer, b testutil.Answer) {})
	require.NoError(t, err)

	scope := injector.NewScope(context.Background())
	defer scope.Close()
	_, err = scope.Resolve(testutil.AnswerDep)
	require.NoError(t, err)
	_, err = scope.Resolve(testutil.AnswerDep)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "handler prepared")
	assert.Contains(t, out, "using override")
	assert.Contains(t, out, "dependency cache hit")
	assert.Equal(t, 1, strings.Count(out, "using override"))
}

func TestDefault(t *testing.T) {
	injector := depends.NewInjector()
	depends.SetDefault(injector)
	t.Cleanup(func() { depends.SetDefault(nil) })

	assert.Same(t, injector, depends.Default())

	var got testutil.Answer
	require.NoError(t, depends.Invoke(context.Background(), func(a testutil.Answer) { got = a }))
	assert.Equal(t, testutil.Answer(42), got)

	t.Run("uses the request scope when present", func(t *testing.T) {
		other := depends.NewInjector()
		require.NoError(t, other.Overrides().Set(testutil.ProduceAnswer, func() testutil.Answer { return 5 }))

		scope := other.NewScope(context.Background())
		defer scope.Close()

		require.NoError(t, depends.Invoke(scope.Context(), func(a testutil.Answer) { got = a }))
		assert.Equal(t, testutil.Answer(5), got)
	})

	t.Run("nil resets to a fresh injector", func(t *testing.T) {
		depends.SetDefault(nil)
		assert.NotNil(t, depends.Default())
		assert.NotSame(t, injector, depends.Default())
	})
}
