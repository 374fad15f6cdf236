// Package vmerrors is the catalogue of faults raised while generating a
// witness. Every error message has the form "CODE|Name: description".
package vmerrors

import (
	"errors"
	"strings"
)

// Exception (E) errors. These are guest-triggerable and carry a numeric
// exception code; in user mode they are recorded as exception cycles.
var (
	ErrOutOfGas                = errors.New("E0|OutOfGas: Gas limit exhausted.")
	ErrInvalidOpcode           = errors.New("E1|InvalidOpcode: Instruction word does not decode to a supported operation.")
	ErrStackUnderflow          = errors.New("E2|StackUnderflow: Stack access above the stack base.")
	ErrInvalidJumpDestination  = errors.New("E3|InvalidJumpDestination: Jump target is unaligned or outside the code segment.")
	ErrInvalidJumpiDestination = errors.New("E4|InvalidJumpiDestination: Branch target is outside the code segment.")
	ErrStackOverflow           = errors.New("E5|StackOverflow: Stack access below the stack limit.")
	ErrUnalignedAccess         = errors.New("E6|UnalignedAccess: Word access at an address that is not 4-aligned.")
)

// Interpreter (I) errors have no exception code; they always abort the run.
var (
	ErrInvalidContext    = errors.New("I1|InvalidContext: Execution context id out of range.")
	ErrProverInput       = errors.New("I2|ProverInputError: Prover input or hint stream exhausted or mismatched.")
	ErrKernelPanic       = errors.New("I3|KernelPanic: Kernel image is missing a required symbol.")
	ErrMaxCyclesExceeded = errors.New("I4|MaxCyclesExceeded: Cycle limit reached before the program halted.")
)

var catalogue = []error{
	ErrOutOfGas, ErrInvalidOpcode, ErrStackUnderflow, ErrInvalidJumpDestination,
	ErrInvalidJumpiDestination, ErrStackOverflow, ErrUnalignedAccess,
	ErrInvalidContext, ErrProverInput, ErrKernelPanic, ErrMaxCyclesExceeded,
}

var exceptionCodes = []struct {
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

// NumExceptionCodes is the number of distinct exception codes.
const NumExceptionCodes = 7

// ExceptionCode returns the exception code assigned to err (which may wrap
// one of the sentinel errors above). ok is false when err has no code.
func ExceptionCode(err error) (code uint8, ok bool) {
	for _, e := range exceptionCodes {
		if errors.Is(err, e.err) {
			return e.code, true
		}
	}
	return 0, false
}

// sentinel returns the catalogue error wrapped by err, or err itself.
func sentinel(err error) error {
	for _, e := range catalogue {
		if errors.Is(err, e) {
			return e
		}
	}
	return err
}

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := sentinel(err).Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	// Split on ':' to separate the error name from its description.
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := sentinel(err).Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}
