package allocation

import (
	"fmt"
	"math"

	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/parser"
)

// GrainParser accepts a base-unit decimal string.
func GrainParser() parser.Parser[grain.Grain] {
	return parser.Fmap(parser.String(), grain.FromString)
}

// NonnegativeGrainParser additionally rejects negative amounts; budgets use
// it, so a negative amount surfaces as ErrInvalidBudget.
func NonnegativeGrainParser() parser.Parser[grain.NonnegativeGrain] {
	return parser.Fmap(GrainParser(), func(g grain.Grain) (grain.NonnegativeGrain, error) {
		ng, err := grain.Nonnegative(g)
		if err != nil {
			return grain.NonnegativeGrain{}, fmt.Errorf("%w: %v", ErrInvalidBudget, err)
		}
		return ng, nil
	})
}

// IdentityIdParser accepts a canonical uuid string.
func IdentityIdParser() parser.Parser[identity.Id] {
	return parser.Fmap(parser.String(), identity.ParseId)
}

// finiteNumber rejects NaN and infinities, which have no JSON literal but can
// arrive through sloppy producers as strings or via extension decoders.
func finiteNumber() parser.Parser[float64] {
	return parser.Fmap(parser.Number(), func(n float64) (float64, error) {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, ErrInvalidCred
		}
		return n, nil
	})
}

// PolicyParser decodes the tagged policy union. Variant-specific fields are
// required for their own variant and rejected-by-omission for the others;
// Validate runs as part of parsing so a decoded policy is always usable.
func PolicyParser() parser.Parser[Policy] {
	budget := parser.Key(NonnegativeGrainParser())

	immediate := parser.Object(map[string]parser.Field{
		"policyType": parser.Key(parser.Exactly(string(Immediate))),
		"budget":     budget,
	}, nil)
	balanced := parser.Object(map[string]parser.Field{
		"policyType": parser.Key(parser.Exactly(string(Balanced))),
		"budget":     budget,
	}, nil)
	recent := parser.Object(map[string]parser.Field{
		"policyType": parser.Key(parser.Exactly(string(Recent))),
		"budget":     budget,
		"discount":   parser.Key(parser.Number()),
	}, nil)
	underpaid := parser.Object(map[string]parser.Field{
		"policyType": parser.Key(parser.Exactly(string(Underpaid))),
		"budget":     budget,
		"threshold":  parser.Key(GrainParser()),
		"exponent":   parser.Key(parser.Number()),
	}, nil)
	special := parser.Object(map[string]parser.Field{
		"policyType": parser.Key(parser.Exactly(string(Special))),
		"budget":     budget,
		"memo":       parser.Key(parser.String()),
		"recipient":  parser.Key(IdentityIdParser()),
	}, nil)

	shape := parser.OrElse(immediate, balanced, recent, underpaid, special)
	return parser.Fmap(shape, func(fields map[string]any) (Policy, error) {
		p := Policy{
			Type:   PolicyType(fields["policyType"].(string)),
			Budget: fields["budget"].(grain.NonnegativeGrain),
		}
		switch p.Type {
		case Recent:
			p.Discount = fields["discount"].(float64)
		case Underpaid:
			p.Threshold = fields["threshold"].(grain.Grain)
			p.Exponent = fields["exponent"].(float64)
		case Special:
			p.Memo = fields["memo"].(string)
			p.Recipient = fields["recipient"].(identity.Id)
		}
		if err := p.Validate(); err != nil {
			return Policy{}, err
		}
		return p, nil
	})
}

// CredHistoryParser decodes the cred-history file the grain command reads.
func CredHistoryParser() parser.Parser[CredHistory] {
	timestamp := parser.Fmap(finiteNumber(), func(n float64) (int64, error) {
		if n <= 0 {
			return 0, ErrInvalidCredTimestamp
		}
		return int64(n), nil
	})
	participant := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"id":   parser.Key(IdentityIdParser()),
			"cred": parser.Key(parser.Array(finiteNumber())),
		}, nil),
		func(fields map[string]any) (ParticipantCred, error) {
			return ParticipantCred{
				ID:   fields["id"].(identity.Id),
				Cred: fields["cred"].([]float64),
			}, nil
		},
	)
	return parser.Fmap(
		parser.Object(map[string]parser.Field{
			"intervalEndsMs": parser.Key(parser.Array(timestamp)),
			"participants":   parser.Key(parser.Array(participant)),
		}, nil),
		func(fields map[string]any) (CredHistory, error) {
			return CredHistory{
				IntervalEndsMs: fields["intervalEndsMs"].([]int64),
				Participants:   fields["participants"].([]ParticipantCred),
			}, nil
		},
	)
}
