package grain

import (
	"math"
	"math/big"
	"sort"
)

// SplitBudget divides budget among len(weights) recipients in proportion to
// their weights, without losing a single base unit.
//
// If the weights sum to zero, every share is zero and the budget is not
// distributed. Otherwise each share is floor(budget * w_i / sum(w)) plus at
// most one remainder unit; remainder units go to the entries with the largest
// fractional remainders, ties broken by ascending index. Weights are
// interpreted as the exact rationals their float64 encodings denote, so the
// split is deterministic across platforms.
func SplitBudget(budget NonnegativeGrain, weights []float64) ([]Grain, error) {
	shares := make([]Grain, len(weights))
	total := new(big.Rat)
	rats := make([]*big.Rat, len(weights))
	for idx, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, ErrInvalidWeight
		}
		r := new(big.Rat).SetFloat64(w)
		rats[idx] = r
		total.Add(total, r)
	}
	if total.Sign() == 0 {
		for idx := range shares {
			shares[idx] = Zero()
		}
		return shares, nil
	}

	budgetRat := new(big.Rat).SetInt(budget.big())
	distributed := new(big.Int)
	fracs := make([]*big.Rat, len(weights))
	for idx, r := range rats {
		exact := new(big.Rat).Mul(budgetRat, new(big.Rat).Quo(r, total))
		floor := new(big.Int).Div(exact.Num(), exact.Denom())
		fracs[idx] = new(big.Rat).Sub(exact, new(big.Rat).SetInt(floor))
		shares[idx] = Grain{i: floor}
		distributed.Add(distributed, floor)
	}

	// The floors under-spend the budget by fewer than len(weights) units;
	// hand the leftovers to the largest fractional remainders.
	remainder := new(big.Int).Sub(budget.big(), distributed)
	if remainder.Sign() > 0 {
		order := make([]int, len(weights))
		for idx := range order {
			order[idx] = idx
		}
		sort.SliceStable(order, func(a, b int) bool {
			return fracs[order[a]].Cmp(fracs[order[b]]) > 0
		})
		one := big.NewInt(1)
		for _, idx := range order {
			if remainder.Sign() == 0 {
				break
			}
			shares[idx] = Grain{i: new(big.Int).Add(shares[idx].big(), one)}
			remainder.Sub(remainder, one)
		}
	}
	return shares, nil
}
