package allocation

import (
	"math"

	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
)

// Receipt awards one identity its share of a policy's budget.
type Receipt struct {
	ID     identity.Id `json:"id"`
	Amount grain.Grain `json:"amount"`
}

// Allocation is the outcome of applying one policy to one snapshot.
type Allocation struct {
	Policy   Policy    `json:"policy"`
	Receipts []Receipt `json:"receipts"`
}

// ComputeAllocation applies a single policy to the processed snapshot. The
// receipts sum exactly to the policy budget unless every weight is zero, in
// which case all receipts are zero (the splitter's documented behavior).
func ComputeAllocation(policy Policy, identities ProcessedIdentities) (Allocation, error) {
	if err := policy.Validate(); err != nil {
		return Allocation{}, err
	}
	if len(identities) == 0 {
		return Allocation{}, ErrEmptyIdentities
	}

	if policy.Type == Special {
		return specialAllocation(policy, identities)
	}

	weights, err := policyWeights(policy, identities)
	if err != nil {
		return Allocation{}, err
	}
	shares, err := grain.SplitBudget(policy.Budget, weights)
	if err != nil {
		return Allocation{}, err
	}
	receipts := make([]Receipt, len(identities))
	for idx, ident := range identities {
		receipts[idx] = Receipt{ID: ident.ID, Amount: shares[idx]}
	}
	return Allocation{Policy: policy, Receipts: receipts}, nil
}

func specialAllocation(policy Policy, identities ProcessedIdentities) (Allocation, error) {
	for _, ident := range identities {
		if ident.ID == policy.Recipient {
			return Allocation{
				Policy:   policy,
				Receipts: []Receipt{{ID: policy.Recipient, Amount: policy.Budget.Grain}},
			}, nil
		}
	}
	return Allocation{}, ErrUnknownRecipient
}

func policyWeights(policy Policy, identities ProcessedIdentities) ([]float64, error) {
	switch policy.Type {
	case Immediate:
		weights := make([]float64, len(identities))
		for idx, ident := range identities {
			weights[idx] = ident.MostRecentCred
		}
		return weights, nil
	case Recent:
		return recentWeights(policy.Discount, identities), nil
	case Balanced:
		return underpayments(policy.Budget, identities), nil
	case Underpaid:
		weights := underpayments(policy.Budget, identities)
		threshold := policy.Threshold.Float64()
		for idx := range weights {
			if weights[idx] < threshold {
				weights[idx] = 0
			} else {
				weights[idx] = math.Pow(weights[idx], policy.Exponent)
			}
		}
		return weights, nil
	default:
		return nil, ErrUnknownPolicy
	}
}

// recentWeights decays each interval's cred by (1-discount) per step of age,
// so at discount 1 only the newest interval survives and Recent degenerates
// to Immediate.
func recentWeights(discount float64, identities ProcessedIdentities) []float64 {
	weights := make([]float64, len(identities))
	for idx, ident := range identities {
		total := 0.0
		factor := 1.0
		for t := len(ident.Cred) - 1; t >= 0; t-- {
			total += ident.Cred[t] * factor
			factor *= 1 - discount
		}
		weights[idx] = total
	}
	return weights
}

// underpayments computes, per identity, how far its lifetime payout falls
// short of its fair share of everything that will have been paid once this
// budget lands: target_i = (sum(paid) + budget) * lifetimeCred_i /
// totalCred, floored at zero for the overpaid.
func underpayments(budget grain.NonnegativeGrain, identities ProcessedIdentities) []float64 {
	totalCred := 0.0
	totalPaid := 0.0
	for _, ident := range identities {
		totalCred += ident.LifetimeCred
		totalPaid += ident.Paid.Float64()
	}
	targetTotal := totalPaid + budget.Float64()
	weights := make([]float64, len(identities))
	for idx, ident := range identities {
		target := targetTotal * ident.LifetimeCred / totalCred
		weights[idx] = math.Max(0, target-ident.Paid.Float64())
	}
	return weights
}
