package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/weft/internal/ir"
)

// RuntimeError represents a fault detected while applying an action.
//
// Runtime errors include:
//   - Arithmetic error: division or modulo by zero in an assignment
//   - Unknown label: a taken branch references a label that does not exist
//   - Invalid choice: an action index outside the enabled-action list
//   - Model violation: an internal invariant breached (interpreter bug)
//
// Arithmetic and unknown-label errors abort the session with a diagnostic
// naming the thread, instruction index and cause; the step that raised
// them leaves machine state unchanged. Model violations are fatal.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Thread identifies the thread whose action faulted.
	Thread ir.ThreadID

	// Index is the faulting instruction's index within its program.
	Index int

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeArithmetic indicates division or modulo by zero.
	ErrCodeArithmetic RuntimeErrorCode = "ARITHMETIC_ERROR"

	// ErrCodeUnknownLabel indicates a taken branch with a missing target.
	ErrCodeUnknownLabel RuntimeErrorCode = "UNKNOWN_LABEL"

	// ErrCodeInvalidChoice indicates an out-of-range action index.
	ErrCodeInvalidChoice RuntimeErrorCode = "INVALID_CHOICE"

	// ErrCodeModelViolation indicates a breached internal invariant.
	ErrCodeModelViolation RuntimeErrorCode = "MODEL_VIOLATION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Code == ErrCodeInvalidChoice || e.Code == ErrCodeModelViolation {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (thread=%d, instruction=%d)", e.Code, e.Message, e.Thread, e.Index)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *RuntimeError) Unwrap() error { return e.Err }

// IsArithmeticError reports whether err is a division/modulo-by-zero fault.
// Uses errors.As to handle wrapped errors.
func IsArithmeticError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeArithmetic
}

// IsUnknownLabelError reports whether err is a missing-branch-target fault.
func IsUnknownLabelError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeUnknownLabel
}

// IsInvalidChoice reports whether err is an out-of-range action index.
func IsInvalidChoice(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeInvalidChoice
}
