package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewName(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		expected  Name
		expectErr bool
	}{
		{name: "simple", raw: "alice", expected: "alice"},
		{name: "uppercase normalized", raw: "Alice", expected: "alice"},
		{name: "digits and hyphen", raw: "agent-007", expected: "agent-007"},
		{name: "empty", raw: "", expectErr: true},
		{name: "spaces", raw: "alice smith", expectErr: true},
		{name: "underscore", raw: "alice_smith", expectErr: true},
		{name: "unicode", raw: "ålice", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewName(tt.raw)
			if tt.expectErr {
				var invalid *InvalidNameError
				assert.ErrorAs(t, err, &invalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewIdentity(t *testing.T) {
	ident, err := New(SubtypeUser, "Alice")
	require.NoError(t, err)
	assert.Equal(t, Name("alice"), ident.Name)
	assert.Equal(t, SubtypeUser, ident.Subtype)
	assert.Equal(t, InnateAddress(ident.ID), ident.Address)
	assert.Empty(t, ident.Aliases)
}

func TestNewIdentityRejectsBadSubtype(t *testing.T) {
	_, err := New(Subtype("ROBOT"), "alice")
	var invalid *InvalidSubtypeError
	assert.ErrorAs(t, err, &invalid)
}

func TestNewIdentityRejectsDuplicateAliases(t *testing.T) {
	addr := AddressFromParts("sourcecred", "plugins", "github", "USERLIKE", "USER", "alice")
	a := Alias{Description: "github/alice", Address: addr}
	_, err := New(SubtypeUser, "alice", a, a)
	var dup *DuplicateAliasError
	assert.ErrorAs(t, err, &dup)
}

func TestInnateAddress(t *testing.T) {
	id := NewId()
	addr := InnateAddress(id)
	assert.Equal(t, []string{"sourcecred", "core", "IDENTITY", id.String()}, addr.Parts())
}

func TestAddressEquality(t *testing.T) {
	a := AddressFromParts("sourcecred", "core", "IDENTITY", "x")
	b := AddressFromParts("sourcecred", "core", "IDENTITY", "x")
	c := AddressFromParts("sourcecred", "core", "IDENTITY", "y")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	// Parts must not collapse: ["ab","c"] != ["a","bc"]
	assert.NotEqual(t, AddressFromParts("ab", "c"), AddressFromParts("a", "bc"))
}

func TestGraphNode(t *testing.T) {
	ident, err := New(SubtypeProject, "tools")
	require.NoError(t, err)
	node := Node(ident)
	assert.Equal(t, ident.Address, node.Address)
	assert.Equal(t, "tools", node.Description)
	assert.Nil(t, node.TimestampMs)
}

func TestCloneIsDeep(t *testing.T) {
	alias := Alias{Description: "d", Address: AddressFromParts("a", "b")}
	ident, err := New(SubtypeUser, "alice", alias)
	require.NoError(t, err)

	clone := ident.Clone()
	clone.Aliases[0].Description = "mutated"
	assert.Equal(t, "d", ident.Aliases[0].Description)
}
