package depends_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/junioryono/depends"
	"github.com/junioryono/depends/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestErrors_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unbound producer",
			err:  depends.UnboundProducerError{Descriptor: depends.Declare[*testing.T]()},
			want: "descriptor has no producer bound for *T: call Bind before serving",
		},
		{
			name: "unbound producer without descriptor",
			err:  depends.UnboundProducerError{},
			want: "descriptor has no producer bound",
		},
		{
			name: "type mismatch",
			err: depends.TypeMismatchError{
				Expected: reflect.TypeFor[int](),
				Actual:   reflect.TypeFor[string](),
				Context:  "main.loadUser",
			},
			want: "main.loadUser: expected int, got string",
		},
		{
			name: "single disposal failure",
			err:  depends.DisposalError{Context: "scope", Errors: []error{testutil.ErrCleanup}},
			want: "scope disposal failed: cleanup error",
		},
		{
			name: "several disposal failures",
			err:  depends.DisposalError{Context: "scope", Errors: []error{testutil.ErrCleanup, testutil.ErrTest}},
			want: "scope disposal failed with 2 errors:\n  1. cleanup error\n  2. test error",
		},
		{
			name: "override",
			err:  depends.OverrideError{Original: 42, Replacement: nil, Cause: depends.ErrOverrideNotFunc},
			want: "cannot override int with <nil>: override original and replacement must be functions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, depends.UnboundProducerError{}, depends.ErrUnboundProducer)

	overrideErr := depends.OverrideError{Cause: depends.ErrOverrideNil}
	assert.ErrorIs(t, overrideErr, depends.ErrOverrideNil)

	disposal := depends.DisposalError{Context: "scope", Errors: []error{testutil.ErrCleanup, testutil.ErrTest}}
	assert.ErrorIs(t, disposal, testutil.ErrCleanup)
	assert.ErrorIs(t, disposal, testutil.ErrTest)

	var target depends.UnboundProducerError
	wrapped := depends.OverrideError{Cause: depends.UnboundProducerError{}}
	assert.True(t, errors.As(wrapped, &target))
}

func TestErrors_OverrideDescribesDescriptor(t *testing.T) {
	t.Parallel()

	err := depends.OverrideError{
		Original:    testutil.AnswerDep,
		Replacement: testutil.ProduceCounter,
		Cause:       depends.ErrOverrideNil,
	}
	assert.Contains(t, err.Error(), "Depends[Answer](testutil.ProduceAnswer)")
	assert.Contains(t, err.Error(), "with testutil.ProduceCounter")
}
