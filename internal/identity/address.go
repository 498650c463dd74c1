package identity

import "strings"

// addressSeparator joins address parts in the compact string form. NUL cannot
// appear inside a part, so the joined form is unambiguous and usable as a map
// key.
const addressSeparator = "\x00"

// NodeAddress is an ordered sequence of string parts identifying a node in
// the contribution graph, stored in its NUL-joined compact form.
type NodeAddress string

// AddressFromParts builds a NodeAddress from its ordered parts. Parts must
// not contain NUL.
func AddressFromParts(parts ...string) NodeAddress {
	for _, p := range parts {
		if strings.Contains(p, addressSeparator) {
			panic("identity: address part contains NUL")
		}
	}
	return NodeAddress(strings.Join(parts, addressSeparator))
}

// Parts returns the ordered parts of the address.
func (a NodeAddress) Parts() []string {
	if a == "" {
		return nil
	}
	return strings.Split(string(a), addressSeparator)
}

// String renders the address with "/" separators for logs and messages.
func (a NodeAddress) String() string {
	return strings.Join(a.Parts(), "/")
}

// InnateAddress derives the reserved graph address owned by the identity with
// the given id.
func InnateAddress(id Id) NodeAddress {
	return AddressFromParts("sourcecred", "core", "IDENTITY", id.String())
}
