package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandcloud/objstore/billing"
)

func TestError_ContextAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewError("upload", cause).WithBucket("bucket").WithKey("key")

	assert.Contains(t, err.Error(), "upload")
	assert.Contains(t, err.Error(), "bucket/key")
	assert.ErrorIs(t, err, cause)
}

func TestError_WithMessage(t *testing.T) {
	cause := stderrors.New("boom")
	err := NewError("upload", cause).WithMessage("during part 3")

	assert.Contains(t, err.Error(), "during part 3")
	assert.ErrorIs(t, err, cause)
}

func TestMetrics_Extraction(t *testing.T) {
	m := billing.OperationResult{ClassA: 3, IngressBytes: 100}

	tests := []struct {
		name string
		err  error
		want billing.OperationResult
	}{
		{
			name: "operation error",
			err:  NewError("upload", stderrors.New("x")).WithMetrics(m),
			want: m,
		},
		{
			name: "wrapped operation error",
			err:  fmt.Errorf("outer: %w", NewError("upload", stderrors.New("x")).WithMetrics(m)),
			want: m,
		},
		{
			name: "batch error",
			err:  &BatchError{Op: "deleteMany", Metrics: m},
			want: m,
		},
		{
			name: "list error",
			err:  &ListError{Op: "listAllObjects", Metrics: m},
			want: m,
		},
		{
			name: "plain error has no metrics",
			err:  stderrors.New("x"),
			want: billing.OperationResult{},
		},
		{
			name: "validation error never carries metrics",
			err:  NewValidationError("upload", "bad input", ErrInvalidInput),
			want: billing.OperationResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Metrics(tt.err))
		})
	}
}

func TestBatchError_UnwrapExposesCauses(t *testing.T) {
	cause := stderrors.New("root cause")
	err := &BatchError{
		Op:         "deleteMany",
		Bucket:     "bucket",
		FailedKeys: []string{"a", "b"},
		Causes:     []error{cause, stderrors.New("other")},
	}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2 object(s) failed")
}

func TestSentinelHelpers(t *testing.T) {
	notFound := NewError("download", fmt.Errorf("%w: 404", ErrObjectNotFound))
	require.True(t, IsObjectNotFound(notFound))
	assert.False(t, IsBucketNotFound(notFound))

	validation := NewValidationError("upload", "too big", ErrObjectTooLarge)
	assert.True(t, IsValidation(validation))
	assert.ErrorIs(t, validation, ErrObjectTooLarge)
	assert.False(t, IsValidation(stderrors.New("x")))
}
