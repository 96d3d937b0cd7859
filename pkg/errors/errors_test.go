package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapAndIsCode(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(CodeLLMError, "generation failed", cause))

	require.True(t, IsCode(err, CodeLLMError))
	require.False(t, IsCode(err, CodeInvalidInput))
	require.ErrorIs(t, err, cause)
	require.Equal(t, CodeLLMError, CodeOf(err))
	require.Equal(t, "outer: generation failed: boom", err.Error())
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(CodeInvalidInput, "message cannot be empty", nil)
	require.Equal(t, "message cannot be empty", err.Error())
	require.Equal(t, "", CodeOf(errors.New("plain")))
}
