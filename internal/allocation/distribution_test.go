package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
)

func TestComputeDistribution(t *testing.T) {
	a, b := identity.NewId(), identity.NewId()
	history := CredHistory{
		IntervalEndsMs: []int64{1000, 2000},
		Participants: []ParticipantCred{
			{ID: a, Cred: []float64{0, 9}},
			{ID: b, Cred: []float64{0, 1}},
		},
	}
	paid := map[identity.Id]grain.Grain{a: grain.Zero()}

	dist, err := ComputeDistribution(
		[]Policy{{Type: Immediate, Budget: budget(10)}},
		history,
		paid,
	)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), dist.CredTimestamp)
	require.Len(t, dist.Allocations, 1)
	assert.True(t, dist.Allocations[0].Receipts[0].Amount.Eq(whole(9)))
	assert.True(t, dist.Allocations[0].Receipts[1].Amount.Eq(whole(1)))
}

func TestComputeDistributionErrors(t *testing.T) {
	a := identity.NewId()

	t.Run("empty history", func(t *testing.T) {
		_, err := ComputeDistribution(nil, CredHistory{}, nil)
		assert.ErrorIs(t, err, ErrEmptyCredHistory)
	})

	t.Run("invalid timestamp", func(t *testing.T) {
		history := CredHistory{
			IntervalEndsMs: []int64{-5},
			Participants:   []ParticipantCred{{ID: a, Cred: []float64{1}}},
		}
		_, err := ComputeDistribution(nil, history, nil)
		assert.ErrorIs(t, err, ErrInvalidCredTimestamp)
	})

	t.Run("misaligned participant", func(t *testing.T) {
		history := CredHistory{
			IntervalEndsMs: []int64{1000, 2000},
			Participants:   []ParticipantCred{{ID: a, Cred: []float64{1}}},
		}
		_, err := ComputeDistribution(nil, history, nil)
		assert.ErrorIs(t, err, ErrCredLengthMismatch)
	})

	t.Run("failing policy yields no partial allocations", func(t *testing.T) {
		history := CredHistory{
			IntervalEndsMs: []int64{1000},
			Participants:   []ParticipantCred{{ID: a, Cred: []float64{1}}},
		}
		dist, err := ComputeDistribution([]Policy{
			{Type: Immediate, Budget: budget(1)},
			{Type: Special, Budget: budget(1), Recipient: identity.NewId()},
		}, history, nil)
		assert.ErrorIs(t, err, ErrUnknownRecipient)
		assert.Empty(t, dist.Allocations)
	})
}

// Policies in one round all see the same snapshot, so reordering them cannot
// change the total each identity receives.
func TestPolicyOrderingIndependence(t *testing.T) {
	a, b := identity.NewId(), identity.NewId()
	history := CredHistory{
		IntervalEndsMs: []int64{1000},
		Participants: []ParticipantCred{
			{ID: a, Cred: []float64{9}},
			{ID: b, Cred: []float64{1}},
		},
	}
	paid := map[identity.Id]grain.Grain{a: whole(3)}

	balanced := Policy{Type: Balanced, Budget: budget(10)}
	immediate := Policy{Type: Immediate, Budget: budget(10)}

	first, err := ComputeDistribution([]Policy{balanced, immediate}, history, paid)
	require.NoError(t, err)
	second, err := ComputeDistribution([]Policy{immediate, balanced}, history, paid)
	require.NoError(t, err)

	assert.True(t, totalFor(first, a).Eq(totalFor(second, a)))
	assert.True(t, totalFor(first, b).Eq(totalFor(second, b)))
}

func totalFor(d Distribution, id identity.Id) grain.Grain {
	total := grain.Zero()
	for _, alloc := range d.Allocations {
		for _, r := range alloc.Receipts {
			if r.ID == id {
				total = total.Add(r.Amount)
			}
		}
	}
	return total
}
