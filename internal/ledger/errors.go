package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownIdentity        = errors.New("no identity with that id")
	ErrNameTaken              = errors.New("identity name already taken")
	ErrNameUnchanged          = errors.New("rename to the current name")
	ErrAliasAlreadyOnIdentity = errors.New("alias already present on this identity")
	ErrAliasBoundElsewhere    = errors.New("alias address already bound")
	ErrAliasNotPresent        = errors.New("alias not present on this identity")
	ErrCannotRemoveInnate     = errors.New("cannot remove an identity's innate address")
	ErrInvalidProportion      = errors.New("cred proportion must be in [0, 1]")
	ErrSameIdentity           = errors.New("cannot merge an identity into itself")
	ErrSubtypeMismatch        = errors.New("merged identities must share a subtype")
	ErrAlreadyInDesiredState  = errors.New("identity already in the desired activation state")
	ErrInactiveRecipient      = errors.New("distribution recipient is not active")
	ErrNegativeReceipt        = errors.New("distribution receipt is negative")
	ErrNegativeAmount         = errors.New("transfer amount is negative")
	ErrInsufficientBalance    = errors.New("insufficient balance for transfer")
	ErrTimestampOutOfOrder    = errors.New("event timestamp precedes the previous event")
	ErrIdentityExists         = errors.New("identity id already exists")
	ErrUnknownAction          = errors.New("unknown ledger action")
	ErrAddressMismatch        = errors.New("identity address is not its innate address")
)

// ParseError reports a malformed event log line. Line is 1-based.
type ParseError struct {
	Line  int
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ledger parse error at line %d: %v", e.Line, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// VersionError reports an event whose version this implementation does not
// understand.
type VersionError struct {
	Version string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported ledger event version: %q", e.Version)
}
