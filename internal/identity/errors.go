package identity

import "fmt"

// InvalidNameError is returned for names outside ^[A-Za-z0-9-]+$.
type InvalidNameError struct {
	Raw string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid identity name: %q", e.Raw)
}

// InvalidSubtypeError is returned for an unrecognized subtype.
type InvalidSubtypeError struct {
	Subtype Subtype
}

func (e *InvalidSubtypeError) Error() string {
	return fmt.Sprintf("invalid identity subtype: %q", e.Subtype)
}

// DuplicateAliasError is returned when two supplied aliases share an address.
type DuplicateAliasError struct {
	Address NodeAddress
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("duplicate alias address: %s", e.Address.String())
}
