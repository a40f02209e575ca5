package toolerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsMessageWhenEmpty(t *testing.T) {
	err := New(KindValidation, "")
	assert.Equal(t, "tool error", err.Message)
	assert.Equal(t, KindValidation, err.Kind)
}

func TestErrorfFormatsMessage(t *testing.T) {
	err := Errorf(KindNotFound, "no file resolves to %s", "foo.go")
	assert.Equal(t, "no file resolves to foo.go", err.Error())
	assert.Equal(t, KindNotFound, err.Kind)
}

func TestNewWithCauseChainsUnderlyingError(t *testing.T) {
	cause := errors.New("disk is full")
	err := NewWithCause(KindExecution, "writing file", cause)

	require.Error(t, err)
	assert.Equal(t, "writing file", err.Message)
	require.NotNil(t, err.Cause)
	assert.Equal(t, "disk is full", err.Cause.Message)
	assert.Equal(t, "disk is full", errors.Unwrap(err).Error())
}

func TestNewWithCauseFillsMessageFromCauseWhenEmpty(t *testing.T) {
	cause := errors.New("boom")
	err := NewWithCause(KindExecution, "", cause)
	assert.Equal(t, "boom", err.Message)
}

func TestFromErrorPreservesExistingToolError(t *testing.T) {
	original := New(KindPermission, "blocked by privacy rules")
	wrapped := FromError(original)
	assert.Same(t, original, wrapped)
}

func TestFromErrorWrapsPlainError(t *testing.T) {
	plain := errors.New("some failure")
	wrapped := FromError(plain)
	require.NotNil(t, wrapped)
	assert.Equal(t, "some failure", wrapped.Message)
	assert.Empty(t, wrapped.Kind)
}

func TestFromErrorNilIsNil(t *testing.T) {
	assert.Nil(t, FromError(nil))
}

func TestErrorsIsMatchesByIdentity(t *testing.T) {
	sentinel := New(KindBudget, "token budget exceeded")
	wrapped := NewWithCause(KindExecution, "step failed", sentinel)

	assert.True(t, errors.Is(wrapped, sentinel))

	var found *ToolError
	require.True(t, errors.As(wrapped, &found))
	assert.Equal(t, KindBudget, found.Cause.Kind)
}
