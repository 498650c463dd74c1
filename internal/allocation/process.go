package allocation

import (
	"math"

	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
)

// IdentityCred is the raw per-identity input to a distribution round: the
// identity's cred per interval and its lifetime grain payout.
type IdentityCred struct {
	ID   identity.Id
	Cred []float64
	Paid grain.Grain
}

// ProcessedIdentity is one validated row of the allocation input, with the
// derived aggregates every policy reads.
type ProcessedIdentity struct {
	ID             identity.Id
	Paid           grain.Grain
	Cred           []float64
	LifetimeCred   float64
	MostRecentCred float64
}

// ProcessedIdentities is the validated snapshot a whole distribution round
// runs against.
type ProcessedIdentities []ProcessedIdentity

// Process validates the raw rows and computes per-identity aggregates.
// Validation failures carry one of the sentinel errors in errors.go and no
// partial result is returned.
func Process(rows []IdentityCred) (ProcessedIdentities, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyIdentities
	}
	credLength := len(rows[0].Cred)
	anyPositive := false
	out := make(ProcessedIdentities, 0, len(rows))
	for _, row := range rows {
		if len(row.Cred) != credLength {
			return nil, ErrCredLengthMismatch
		}
		if row.Paid.Sign() < 0 {
			return nil, ErrInvalidPaid
		}
		lifetime := 0.0
		for _, c := range row.Cred {
			if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, ErrInvalidCred
			}
			if c > 0 {
				anyPositive = true
			}
			lifetime += c
		}
		mostRecent := 0.0
		if credLength > 0 {
			mostRecent = row.Cred[credLength-1]
		}
		out = append(out, ProcessedIdentity{
			ID:             row.ID,
			Paid:           row.Paid,
			Cred:           row.Cred,
			LifetimeCred:   lifetime,
			MostRecentCred: mostRecent,
		})
	}
	if !anyPositive {
		return nil, ErrZeroCred
	}
	return out, nil
}
