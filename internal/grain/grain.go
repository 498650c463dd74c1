// Package grain implements the fixed-point integer currency used for
// contributor rewards. One "whole" grain is 10^18 base units; all arithmetic
// is exact integer arithmetic, so no value is ever lost to floating-point
// rounding.
package grain

import (
	"fmt"
	"math/big"
	"strings"
)

// Decimals is the number of base-unit digits per whole grain.
const Decimals = 18

var (
	// oneWhole is 10^18, the number of base units in one whole grain.
	oneWhole = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

	// maxGrain and minGrain bound values to a signed 128-bit range.
	maxGrain = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minGrain = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Grain is an exact fixed-point currency amount. The zero value is usable and
// equals Zero().
type Grain struct {
	i *big.Int
}

// Zero returns the zero grain amount.
func Zero() Grain {
	return Grain{i: new(big.Int)}
}

// FromInteger returns n whole grain (n * 10^18 base units).
func FromInteger(n int64) Grain {
	return Grain{i: new(big.Int).Mul(big.NewInt(n), oneWhole)}
}

// FromUnits returns a grain amount of n base units.
func FromUnits(n int64) Grain {
	return Grain{i: big.NewInt(n)}
}

// FromString parses a decimal base-unit amount, e.g. "5000000000000000000"
// for five whole grain. A leading '-' is accepted.
func FromString(s string) (Grain, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Grain{}, &ParseError{Input: s}
	}
	if !inRange(i) {
		return Grain{}, &ParseError{Input: s, OutOfRange: true}
	}
	return Grain{i: i}, nil
}

// MustParse is FromString for trusted literals; it panics on a bad input.
func MustParse(s string) Grain {
	g, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Grain) big() *big.Int {
	if g.i == nil {
		return new(big.Int)
	}
	return g.i
}

// String renders the amount in base units, e.g. "5000000000000000000".
func (g Grain) String() string {
	return g.big().String()
}

// Format renders the amount as whole grain with the given number of decimal
// places, truncating toward zero: Format(2) of 1.259 whole is "1.25".
func (g Grain) Format(decimals int) string {
	if decimals < 0 || decimals > Decimals {
		decimals = Decimals
	}
	v := g.big()
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	whole, frac := new(big.Int).QuoRem(abs, oneWhole, new(big.Int))
	out := whole.String()
	if neg {
		out = "-" + out
	}
	if decimals == 0 {
		return out
	}
	digits := fmt.Sprintf("%0*s", Decimals, frac.String())
	return out + "." + digits[:decimals]
}

// Add returns g + h. It panics if the result leaves the 128-bit range, which
// indicates a corrupted ledger rather than a recoverable condition.
func (g Grain) Add(h Grain) Grain {
	r := new(big.Int).Add(g.big(), h.big())
	mustInRange(r)
	return Grain{i: r}
}

// Sub returns g - h. The result may be negative; use NonnegativeGrain.Sub
// where underflow must be an error.
func (g Grain) Sub(h Grain) Grain {
	r := new(big.Int).Sub(g.big(), h.big())
	mustInRange(r)
	return Grain{i: r}
}

// Cmp returns -1, 0, or +1 as g is less than, equal to, or greater than h.
func (g Grain) Cmp(h Grain) int { return g.big().Cmp(h.big()) }

func (g Grain) Lt(h Grain) bool { return g.Cmp(h) < 0 }
func (g Grain) Gt(h Grain) bool { return g.Cmp(h) > 0 }
func (g Grain) Eq(h Grain) bool { return g.Cmp(h) == 0 }

// Sign returns -1, 0, or +1 as g is negative, zero, or positive.
func (g Grain) Sign() int { return g.big().Sign() }

// IsZero reports whether g is exactly zero.
func (g Grain) IsZero() bool { return g.big().Sign() == 0 }

// Sum returns the exact sum of the given amounts.
func Sum(amounts []Grain) Grain {
	total := new(big.Int)
	for _, a := range amounts {
		total.Add(total, a.big())
	}
	mustInRange(total)
	return Grain{i: total}
}

// Float64 returns the amount in base units as a float64. Only suitable for
// proportional weight computations, never for accounting.
func (g Grain) Float64() float64 {
	f, _ := new(big.Float).SetInt(g.big()).Float64()
	return f
}

// MultiplyFloat returns g scaled by f, rounded to the nearest base unit with
// ties broken toward the even unit. The multiplication is carried out
// exactly: f is treated as the rational it encodes, so the result is
// deterministic across platforms. Returns ErrInvalidMultiplier for NaN or
// infinite f, ErrOverflow if the result leaves the 128-bit range.
func (g Grain) MultiplyFloat(f float64) (Grain, error) {
	factor := new(big.Rat).SetFloat64(f)
	if factor == nil {
		return Grain{}, ErrInvalidMultiplier
	}
	product := new(big.Rat).Mul(new(big.Rat).SetInt(g.big()), factor)
	rounded := roundHalfEven(product)
	if !inRange(rounded) {
		return Grain{}, ErrOverflow
	}
	return Grain{i: rounded}, nil
}

// roundHalfEven rounds the rational r to the nearest integer, ties to even.
func roundHalfEven(r *big.Rat) *big.Int {
	// floor = num / den rounded toward negative infinity
	num, den := r.Num(), r.Denom()
	floor := new(big.Int).Div(num, den)
	frac := new(big.Rat).Sub(r, new(big.Rat).SetInt(floor))
	half := big.NewRat(1, 2)
	switch frac.Cmp(half) {
	case -1:
		return floor
	case 1:
		return floor.Add(floor, big.NewInt(1))
	default:
		// Exactly halfway: round to the even neighbor.
		if floor.Bit(0) == 0 {
			return floor
		}
		return floor.Add(floor, big.NewInt(1))
	}
}

// MarshalJSON renders the amount as a quoted base-unit decimal string, the
// wire form used throughout the ledger log.
func (g Grain) MarshalJSON() ([]byte, error) {
	return []byte(`"` + g.String() + `"`), nil
}

// UnmarshalJSON parses the quoted base-unit decimal form.
func (g *Grain) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

func inRange(i *big.Int) bool {
	return i.Cmp(minGrain) >= 0 && i.Cmp(maxGrain) <= 0
}

func mustInRange(i *big.Int) {
	if !inRange(i) {
		panic(fmt.Sprintf("grain: value out of 128-bit range: %s", i.String()))
	}
}

// NonnegativeGrain is a grain amount known to be >= 0, used for budgets and
// balances where a negative value would violate a ledger invariant.
type NonnegativeGrain struct {
	Grain
}

// Nonnegative wraps g, returning ErrNegativeAmount if g < 0.
func Nonnegative(g Grain) (NonnegativeGrain, error) {
	if g.Sign() < 0 {
		return NonnegativeGrain{}, ErrNegativeAmount
	}
	return NonnegativeGrain{Grain: g}, nil
}

// MustNonnegative wraps g and panics if g < 0. For trusted literals.
func MustNonnegative(g Grain) NonnegativeGrain {
	ng, err := Nonnegative(g)
	if err != nil {
		panic(err)
	}
	return ng
}

// Sub returns g - h, failing with ErrUnderflow when the result would be
// negative.
func (g NonnegativeGrain) Sub(h NonnegativeGrain) (NonnegativeGrain, error) {
	r := g.Grain.Sub(h.Grain)
	if r.Sign() < 0 {
		return NonnegativeGrain{}, ErrUnderflow
	}
	return NonnegativeGrain{Grain: r}, nil
}

// Add returns g + h; the sum of nonnegative amounts is nonnegative.
func (g NonnegativeGrain) Add(h NonnegativeGrain) NonnegativeGrain {
	return NonnegativeGrain{Grain: g.Grain.Add(h.Grain)}
}

// UnmarshalJSON parses the quoted base-unit decimal form, rejecting negative
// amounts.
func (g *NonnegativeGrain) UnmarshalJSON(data []byte) error {
	var inner Grain
	if err := inner.UnmarshalJSON(data); err != nil {
		return err
	}
	ng, err := Nonnegative(inner)
	if err != nil {
		return err
	}
	*g = ng
	return nil
}
