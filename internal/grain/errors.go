package grain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnderflow is returned when a nonnegative subtraction would go
	// below zero.
	ErrUnderflow = errors.New("grain underflow")

	// ErrOverflow is returned when a result leaves the 128-bit range.
	ErrOverflow = errors.New("grain overflow")

	// ErrNegativeAmount is returned when a negative amount reaches a
	// nonnegative-only boundary.
	ErrNegativeAmount = errors.New("negative grain amount")

	// ErrInvalidMultiplier is returned by MultiplyFloat for NaN or
	// infinite multipliers.
	ErrInvalidMultiplier = errors.New("invalid grain multiplier")

	// ErrInvalidWeight is returned by SplitBudget for negative or
	// non-finite weights.
	ErrInvalidWeight = errors.New("invalid split weight")
)

// ParseError is returned by FromString for inputs that are not a decimal
// base-unit amount.
type ParseError struct {
	Input      string
	OutOfRange bool
}

func (e *ParseError) Error() string {
	if e.OutOfRange {
		return fmt.Sprintf("grain amount out of range: %q", e.Input)
	}
	return fmt.Sprintf("invalid grain amount: %q", e.Input)
}
