// Package identity defines the participant model: stable ids, validated
// names, innate graph addresses, and the aliases that bind external accounts
// to one participant.
package identity

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Id is the stable 128-bit identifier of an identity. It survives renames
// and, for a merged identity, remains resolvable to the base it was merged
// into.
type Id = uuid.UUID

// NewId returns a fresh random (v4) identity id.
func NewId() Id {
	return uuid.New()
}

// ParseId parses the canonical string form of an identity id.
func ParseId(s string) (Id, error) {
	return uuid.Parse(s)
}

// Subtype classifies an identity.
type Subtype string

const (
	SubtypeUser         Subtype = "USER"
	SubtypeBot          Subtype = "BOT"
	SubtypeProject      Subtype = "PROJECT"
	SubtypeOrganization Subtype = "ORGANIZATION"
)

// IsValidSubtype reports whether s is one of the defined subtypes.
func IsValidSubtype(s Subtype) bool {
	switch s {
	case SubtypeUser, SubtypeBot, SubtypeProject, SubtypeOrganization:
		return true
	}
	return false
}

// Name is a validated identity name, stored lowercased. Comparison is
// therefore case-insensitive by construction.
type Name string

var namePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// NewName validates and normalizes a raw name.
func NewName(raw string) (Name, error) {
	if !namePattern.MatchString(raw) {
		return "", &InvalidNameError{Raw: raw}
	}
	return Name(strings.ToLower(raw)), nil
}

func (n Name) String() string { return string(n) }

// Alias binds an external address (for example a forum handle) to an
// identity. The description is display text only.
type Alias struct {
	Description string      `json:"description"`
	Address     NodeAddress `json:"address"`
}

// Identity is a named participant. Its Address is always the innate address
// derived from its id; the innate address is reserved but never listed in
// Aliases.
type Identity struct {
	ID      Id          `json:"id"`
	Name    Name        `json:"name"`
	Subtype Subtype     `json:"subtype"`
	Address NodeAddress `json:"address"`
	Aliases []Alias     `json:"aliases"`
}

// New constructs a validated identity with a fresh id.
func New(subtype Subtype, rawName string, aliases ...Alias) (Identity, error) {
	return NewWithId(NewId(), subtype, rawName, aliases...)
}

// NewWithId constructs a validated identity with a caller-supplied id, which
// deterministic tests and log replay rely on.
func NewWithId(id Id, subtype Subtype, rawName string, aliases ...Alias) (Identity, error) {
	name, err := NewName(rawName)
	if err != nil {
		return Identity{}, err
	}
	if !IsValidSubtype(subtype) {
		return Identity{}, &InvalidSubtypeError{Subtype: subtype}
	}
	seen := make(map[NodeAddress]struct{}, len(aliases))
	for _, a := range aliases {
		if _, dup := seen[a.Address]; dup {
			return Identity{}, &DuplicateAliasError{Address: a.Address}
		}
		seen[a.Address] = struct{}{}
	}
	return Identity{
		ID:      id,
		Name:    name,
		Subtype: subtype,
		Address: InnateAddress(id),
		Aliases: append([]Alias(nil), aliases...),
	}, nil
}

// GraphNode is the contribution-graph node an identity projects to.
type GraphNode struct {
	Address     NodeAddress `json:"address"`
	Description string      `json:"description"`
	TimestampMs *int64      `json:"timestampMs"`
}

// Node returns the graph node for an identity. Identity nodes carry no
// timestamp.
func Node(i Identity) GraphNode {
	return GraphNode{
		Address:     i.Address,
		Description: i.Name.String(),
		TimestampMs: nil,
	}
}

// Clone returns a deep copy safe to hand outside the ledger.
func (i Identity) Clone() Identity {
	out := i
	out.Aliases = append([]Alias(nil), i.Aliases...)
	return out
}
