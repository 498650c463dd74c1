package allocation

import (
	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
)

// ParticipantCred is one identity's cred per interval within a CredHistory.
type ParticipantCred struct {
	ID   identity.Id `json:"id"`
	Cred []float64   `json:"cred"`
}

// CredHistory is the externally computed cred signal a distribution round
// consumes: interval end timestamps and one cred series per participant, all
// series aligned to the intervals.
type CredHistory struct {
	IntervalEndsMs []int64           `json:"intervalEndsMs"`
	Participants   []ParticipantCred `json:"participants"`
}

// Distribution bundles the allocations of one round at one cred timestamp;
// it is what the ledger canonicalizes in a DISTRIBUTE_GRAIN event.
type Distribution struct {
	CredTimestamp int64        `json:"credTimestamp"`
	Allocations   []Allocation `json:"allocations"`
}

// Prefix returns the history truncated to its first n intervals, for
// back-filling distributions one missed interval at a time.
func (h CredHistory) Prefix(n int) CredHistory {
	if n >= len(h.IntervalEndsMs) {
		return h
	}
	out := CredHistory{
		IntervalEndsMs: h.IntervalEndsMs[:n],
		Participants:   make([]ParticipantCred, len(h.Participants)),
	}
	for idx, p := range h.Participants {
		out.Participants[idx] = ParticipantCred{ID: p.ID, Cred: p.Cred[:n]}
	}
	return out
}

// ComputeDistribution applies every policy to the same snapshot of the cred
// history and payout state. Policies within a round do not observe each
// other's receipts; ordering them differently yields the same account
// increments once the distribution is applied.
func ComputeDistribution(
	policies []Policy,
	history CredHistory,
	lifetimePaid map[identity.Id]grain.Grain,
) (Distribution, error) {
	if len(history.IntervalEndsMs) == 0 || len(history.Participants) == 0 {
		return Distribution{}, ErrEmptyCredHistory
	}
	credTimestamp := history.IntervalEndsMs[len(history.IntervalEndsMs)-1]
	if credTimestamp <= 0 {
		return Distribution{}, ErrInvalidCredTimestamp
	}

	rows := make([]IdentityCred, len(history.Participants))
	for idx, p := range history.Participants {
		if len(p.Cred) != len(history.IntervalEndsMs) {
			return Distribution{}, ErrCredLengthMismatch
		}
		paid, ok := lifetimePaid[p.ID]
		if !ok {
			paid = grain.Zero()
		}
		rows[idx] = IdentityCred{ID: p.ID, Cred: p.Cred, Paid: paid}
	}
	processed, err := Process(rows)
	if err != nil {
		return Distribution{}, err
	}

	allocations := make([]Allocation, 0, len(policies))
	for _, policy := range policies {
		alloc, err := ComputeAllocation(policy, processed)
		if err != nil {
			return Distribution{}, err
		}
		allocations = append(allocations, alloc)
	}
	return Distribution{CredTimestamp: credTimestamp, Allocations: allocations}, nil
}
