package allocation

import "errors"

var (
	// Preprocessor errors.
	ErrEmptyIdentities    = errors.New("no identities to allocate to")
	ErrCredLengthMismatch = errors.New("cred histories have mismatched lengths")
	ErrInvalidCred        = errors.New("cred contains a negative or non-finite value")
	ErrInvalidPaid        = errors.New("negative paid amount")
	ErrZeroCred           = errors.New("no identity has any cred")

	// Policy validation errors.
	ErrInvalidBudget    = errors.New("invalid policy budget")
	ErrInvalidDiscount  = errors.New("discount must be in [0, 1]")
	ErrInvalidExponent  = errors.New("exponent must be in (0, 1]")
	ErrInvalidThreshold = errors.New("threshold must be nonnegative")
	ErrUnknownRecipient = errors.New("special policy recipient is not in the active set")
	ErrUnknownPolicy    = errors.New("unknown policy type")

	// Distribution planner errors.
	ErrEmptyCredHistory     = errors.New("cred history is empty")
	ErrInvalidCredTimestamp = errors.New("invalid cred timestamp")
)
