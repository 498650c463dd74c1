package ledger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcecred/sourcecred-go/internal/allocation"
	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/testutil"
)

// fullLedger drives every action kind through a ledger so the resulting log
// exercises the whole serialization surface.
func fullLedger(t *testing.T) *Ledger {
	t.Helper()
	l, _ := newTestLedger()

	alice, err := l.CreateIdentity(identity.SubtypeUser, "alice")
	require.NoError(t, err)
	bob, err := l.CreateIdentity(identity.SubtypeUser, "bob")
	require.NoError(t, err)
	old, err := l.CreateIdentity(identity.SubtypeUser, "old-alice")
	require.NoError(t, err)

	require.NoError(t, l.RenameIdentity(bob, "bobby"))
	alias := githubAlias("alice")
	require.NoError(t, l.AddAlias(alice, alias))
	require.NoError(t, l.RemoveAlias(alice, alias, 0.25))
	require.NoError(t, l.AddAlias(alice, alias))
	require.NoError(t, l.MergeIdentities(alice, old))
	require.NoError(t, l.Activate(alice))
	require.NoError(t, l.Activate(bob))

	require.NoError(t, l.DistributeGrain(allocation.Distribution{
		CredTimestamp: 1610000000000,
		Allocations: []allocation.Allocation{
			{
				Policy: allocation.Policy{
					Type:   allocation.Immediate,
					Budget: grain.MustNonnegative(whole(10)),
				},
				Receipts: []allocation.Receipt{
					{ID: alice, Amount: whole(6)},
					{ID: bob, Amount: whole(4)},
				},
			},
			{
				Policy: allocation.Policy{
					Type:      allocation.Special,
					Budget:    grain.MustNonnegative(whole(100)),
					Memo:      "launch bonus",
					Recipient: bob,
				},
				Receipts: []allocation.Receipt{{ID: bob, Amount: whole(100)}},
			},
		},
	}))

	memo := "rent"
	require.NoError(t, l.TransferGrain(bob, alice, whole(30), &memo))
	require.NoError(t, l.TransferGrain(alice, bob, whole(1), nil))
	require.NoError(t, l.Deactivate(bob))
	return l
}

func TestSerializeParseRoundTrip(t *testing.T) {
	l := fullLedger(t)

	data, err := l.Serialize()
	require.NoError(t, err)

	reparsed, err := Parse(testutil.FixedClock(), data)
	require.NoError(t, err)

	again, err := reparsed.Serialize()
	require.NoError(t, err)
	assert.Equal(t, data, again, "serialize is a fixed point of parse")

	want := l.Accounts()
	got := reparsed.Accounts()
	require.Len(t, got, len(want))
	for idx := range want {
		assert.Equal(t, want[idx].Identity, got[idx].Identity)
		assert.True(t, want[idx].Balance.Eq(got[idx].Balance))
		assert.True(t, want[idx].Paid.Eq(got[idx].Paid))
		assert.Equal(t, want[idx].Active, got[idx].Active)
		assert.Equal(t, want[idx].MergedIdentityIDs, got[idx].MergedIdentityIDs)
	}
}

func TestSerializeFormat(t *testing.T) {
	l, _ := newTestLedger()
	_, err := l.CreateIdentity(identity.SubtypeUser, "alice")
	require.NoError(t, err)

	data, err := l.Serialize()
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasSuffix(text, "\n"), "log ends with a newline")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "{"), "each line is one JSON object")
	assert.Contains(t, lines[0], `"type":"CREATE_IDENTITY"`)
	assert.Contains(t, lines[0], `"version":"1"`)
}

func TestSerializeEmptyLedger(t *testing.T) {
	l, _ := newTestLedger()
	data, err := l.Serialize()
	require.NoError(t, err)
	assert.Empty(t, data)

	reparsed, err := Parse(testutil.FixedClock(), data)
	require.NoError(t, err)
	assert.Empty(t, reparsed.EventLog())
}

func TestParseLegacyArrayForm(t *testing.T) {
	l := fullLedger(t)
	data, err := l.Serialize()
	require.NoError(t, err)

	// Rewrap the same events in the older bracketed-array layout, one
	// element per line with trailing commas.
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	var sb strings.Builder
	sb.WriteString("[\n")
	for idx, line := range lines {
		sb.WriteString(line)
		if idx < len(lines)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")

	reparsed, err := Parse(testutil.FixedClock(), []byte(sb.String()))
	require.NoError(t, err)

	again, err := reparsed.Serialize()
	require.NoError(t, err)
	assert.Equal(t, data, again, "legacy form replays to the same log")
}

func TestParseTolerancesAndErrors(t *testing.T) {
	l, _ := newTestLedger()
	_, err := l.CreateIdentity(identity.SubtypeUser, "alice")
	require.NoError(t, err)
	valid, err := l.Serialize()
	require.NoError(t, err)
	line := strings.TrimSuffix(string(valid), "\n")

	t.Run("blank lines and CRLF are accepted", func(t *testing.T) {
		text := "\r\n" + line + "\r\n\r\n"
		events, err := ParseEventLog([]byte(text))
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("malformed line reports its number", func(t *testing.T) {
		text := line + "\n{not json}\n"
		_, err := ParseEventLog([]byte(text))
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 2, perr.Line)
	})

	t.Run("unsupported version surfaces VersionError", func(t *testing.T) {
		bad := strings.Replace(line, `"version":"1"`, `"version":"99"`, 1)
		_, err := ParseEventLog([]byte(bad))
		var verr *VersionError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "99", verr.Version)
	})

	t.Run("unknown action type is rejected", func(t *testing.T) {
		bad := strings.Replace(line, `"type":"CREATE_IDENTITY"`, `"type":"DESTROY_IDENTITY"`, 1)
		_, err := ParseEventLog([]byte(bad))
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, 1, perr.Line)
	})
}

func TestDiskStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStorage(dir + "/data/ledger.json")
	clk := testutil.FixedClock()

	t.Run("missing file yields an empty ledger", func(t *testing.T) {
		l, err := store.Read(clk)
		require.NoError(t, err)
		assert.Empty(t, l.EventLog())
	})

	l := fullLedger(t)
	require.NoError(t, store.Write(l))

	reloaded, err := store.Read(clk)
	require.NoError(t, err)

	want, err := l.Serialize()
	require.NoError(t, err)
	got, err := reloaded.Serialize()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	t.Run("rewrite replaces the file", func(t *testing.T) {
		require.NoError(t, reloaded.RenameIdentity(mustIdentityByName(t, reloaded, "bobby").ID, "robert"))
		require.NoError(t, store.Write(reloaded))
		final, err := store.Read(clk)
		require.NoError(t, err)
		_, ok := final.IdentityByName("robert")
		assert.True(t, ok)
	})
}

func mustIdentityByName(t *testing.T, l *Ledger, name string) identity.Identity {
	t.Helper()
	ident, ok := l.IdentityByName(name)
	require.True(t, ok)
	return ident
}
