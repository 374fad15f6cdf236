package vmerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptionCodes(t *testing.T) {
	cases := []struct {
		err  error
		code uint8
	}{
		{ErrOutOfGas, 0},
		{ErrInvalidOpcode, 1},
		{ErrStackUnderflow, 2},
		{ErrInvalidJumpDestination, 3},
		{ErrInvalidJumpiDestination, 4},
		{ErrStackOverflow, 5},
		{ErrUnalignedAccess, 6},
	}
	require.Len(t, cases, NumExceptionCodes)
	for _, tc := range cases {
		code, ok := ExceptionCode(tc.err)
		require.True(t, ok, GetErrorName(tc.err))
		assert.Equal(t, tc.code, code)

		// wrapped errors keep their code
		code, ok = ExceptionCode(fmt.Errorf("lw at 0x40: %w", tc.err))
		require.True(t, ok)
		assert.Equal(t, tc.code, code)
	}
}

func TestUncodedErrors(t *testing.T) {
	for _, err := range []error{ErrInvalidContext, ErrMaxCyclesExceeded, ErrProverInput, ErrKernelPanic, errors.New("other")} {
		_, ok := ExceptionCode(err)
		assert.False(t, ok, err.Error())
	}
}

func TestErrorNameAndCode(t *testing.T) {
	assert.Equal(t, "StackUnderflow", GetErrorName(ErrStackUnderflow))
	assert.Equal(t, "E2", GetErrorCode(ErrStackUnderflow))
	assert.Equal(t, "E2_StackUnderflow", GetErrorCodeWithName(ErrStackUnderflow))
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, "", GetErrorCode(errors.New("plain")))
	assert.Equal(t, "", GetErrorCodeWithName(errors.New("plain")))

	// names and codes survive wrapping with prefixes that contain ':'
	wrapped := fmt.Errorf("run: pc 0x40: %w", fmt.Errorf("lw at 0x41: %w", ErrUnalignedAccess))
	assert.Equal(t, "E6_UnalignedAccess", GetErrorCodeWithName(wrapped))
	assert.Equal(t, "I3", GetErrorCode(fmt.Errorf("exception 2: %w", ErrKernelPanic)))
}
