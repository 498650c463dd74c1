// Package allocation computes grain allocations from cred histories. All
// functions are pure: they read a snapshot of identity cred and payout state
// and return receipts, never touching the ledger themselves.
package allocation

import (
	"math"

	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
)

// PolicyType tags the allocation policy variants.
type PolicyType string

const (
	// Immediate splits the budget proportional to cred earned in the most
	// recent interval.
	Immediate PolicyType = "IMMEDIATE"
	// Balanced pays down historical underpayment relative to lifetime cred.
	Balanced PolicyType = "BALANCED"
	// Recent splits proportional to exponentially decayed cred.
	Recent PolicyType = "RECENT"
	// Special pays the whole budget to one named recipient.
	Special PolicyType = "SPECIAL"
	// Underpaid is Balanced with a minimum-underpayment threshold and a
	// concavity exponent.
	Underpaid PolicyType = "UNDERPAID"
)

// Policy is a tagged allocation policy. Budget applies to every variant; the
// remaining fields are meaningful only for the variant named by Type.
type Policy struct {
	Type   PolicyType             `json:"policyType"`
	Budget grain.NonnegativeGrain `json:"budget"`

	// Recent only.
	Discount float64 `json:"discount"`

	// Underpaid only.
	Threshold grain.Grain `json:"threshold"`
	Exponent  float64     `json:"exponent"`

	// Special only.
	Memo      string      `json:"memo"`
	Recipient identity.Id `json:"recipient"`
}

// Validate checks the variant-specific parameters. Budget nonnegativity is
// enforced by its type; this catches the rest before any receipt is built.
func (p Policy) Validate() error {
	switch p.Type {
	case Immediate, Balanced, Special:
		return nil
	case Recent:
		if math.IsNaN(p.Discount) || p.Discount < 0 || p.Discount > 1 {
			return ErrInvalidDiscount
		}
		return nil
	case Underpaid:
		if p.Threshold.Sign() < 0 {
			return ErrInvalidThreshold
		}
		if !(p.Exponent > 0 && p.Exponent <= 1) {
			return ErrInvalidExponent
		}
		return nil
	default:
		return ErrUnknownPolicy
	}
}
