package config

import (
	"fmt"
	"math"
	"os"

	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/parser"
)

// TimestampedProportion assigns a cred proportion from TimestampMs onward.
type TimestampedProportion struct {
	TimestampMs int64
	Proportion  float64
}

// AttributionRecipient routes a slice of one participant's cred to another.
type AttributionRecipient struct {
	ToParticipantID identity.Id
	Proportions     []TimestampedProportion
}

// PersonalAttribution reroutes part of FromParticipantID's cred to the listed
// recipients, for work done on someone else's behalf.
type PersonalAttribution struct {
	FromParticipantID identity.Id
	Recipients        []AttributionRecipient
}

// PersonalAttributionsConfig is the decoded personalAttributions.json.
type PersonalAttributionsConfig struct {
	Attributions []PersonalAttribution
}

// ParsePersonalAttributionsConfig decodes personalAttributions.json.
func ParsePersonalAttributionsConfig(data []byte) (PersonalAttributionsConfig, error) {
	return personalAttributionsParser().ParseJSON(data)
}

// LoadPersonalAttributionsConfig reads and decodes the attribution file.
func LoadPersonalAttributionsConfig(path string) (PersonalAttributionsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PersonalAttributionsConfig{}, fmt.Errorf("failed to read attribution config: %w", err)
	}
	cfg, err := ParsePersonalAttributionsConfig(data)
	if err != nil {
		return PersonalAttributionsConfig{}, fmt.Errorf("failed to parse attribution config %s: %w", path, err)
	}
	return cfg, nil
}

func timestampedProportionParser() parser.Parser[TimestampedProportion] {
	shape := parser.Object(map[string]parser.Field{
		"timestampMs":     parser.Key(parser.Number()),
		"proportionValue": parser.Key(parser.Number()),
	}, nil)
	return parser.Fmap(shape, func(fields map[string]any) (TimestampedProportion, error) {
		p := fields["proportionValue"].(float64)
		if math.IsNaN(p) || p < 0 || p > 1 {
			return TimestampedProportion{}, ErrInvalidProportion
		}
		return TimestampedProportion{
			TimestampMs: int64(fields["timestampMs"].(float64)),
			Proportion:  p,
		}, nil
	})
}

func attributionRecipientParser() parser.Parser[AttributionRecipient] {
	shape := parser.Object(map[string]parser.Field{
		"toParticipantId": parser.Key(allocationIdParser()),
		"proportions":     parser.Key(parser.Array(timestampedProportionParser())),
	}, nil)
	return parser.Fmap(shape, func(fields map[string]any) (AttributionRecipient, error) {
		proportions := fields["proportions"].([]TimestampedProportion)
		for idx := 1; idx < len(proportions); idx++ {
			if proportions[idx].TimestampMs <= proportions[idx-1].TimestampMs {
				return AttributionRecipient{}, ErrUnorderedProportion
			}
		}
		return AttributionRecipient{
			ToParticipantID: fields["toParticipantId"].(identity.Id),
			Proportions:     proportions,
		}, nil
	})
}

func personalAttributionsParser() parser.Parser[PersonalAttributionsConfig] {
	attribution := parser.Fmap(
		parser.Object(map[string]parser.Field{
			"fromParticipantId": parser.Key(allocationIdParser()),
			"recipients":        parser.Key(parser.Array(attributionRecipientParser())),
		}, nil),
		func(fields map[string]any) (PersonalAttribution, error) {
			return PersonalAttribution{
				FromParticipantID: fields["fromParticipantId"].(identity.Id),
				Recipients:        fields["recipients"].([]AttributionRecipient),
			}, nil
		},
	)
	return parser.Fmap(parser.Array(attribution), func(list []PersonalAttribution) (PersonalAttributionsConfig, error) {
		return PersonalAttributionsConfig{Attributions: list}, nil
	})
}

// ProportionAt returns the proportion in force at ts: the latest entry whose
// timestamp is at or before ts, or zero before the first entry.
func (r AttributionRecipient) ProportionAt(ts int64) float64 {
	p := 0.0
	for _, entry := range r.Proportions {
		if entry.TimestampMs > ts {
			break
		}
		p = entry.Proportion
	}
	return p
}
