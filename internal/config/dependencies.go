package config

import (
	"fmt"
	"math"
	"os"

	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/parser"
)

// MintPeriod is one phase of a dependency's minting schedule: from StartTimeMs
// onward (until the next period begins) the dependency mints Weight times the
// participant total.
type MintPeriod struct {
	StartTimeMs int64
	Weight      float64
}

// Dependency is a project-level recipient that is minted cred alongside
// participants. ID is nil until the dependency's identity has been created in
// the ledger.
type Dependency struct {
	Name         string
	ID           *identity.Id
	AutoActivate bool
	Periods      []MintPeriod
}

// DependencyConfig is the decoded dependencies.json.
type DependencyConfig struct {
	Dependencies []Dependency
}

// ParseDependencyConfig decodes dependencies.json.
func ParseDependencyConfig(data []byte) (DependencyConfig, error) {
	return dependencyConfigParser().ParseJSON(data)
}

// LoadDependencyConfig reads and decodes the dependency configuration file.
func LoadDependencyConfig(path string) (DependencyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DependencyConfig{}, fmt.Errorf("failed to read dependency config: %w", err)
	}
	cfg, err := ParseDependencyConfig(data)
	if err != nil {
		return DependencyConfig{}, fmt.Errorf("failed to parse dependency config %s: %w", path, err)
	}
	return cfg, nil
}

func mintPeriodParser() parser.Parser[MintPeriod] {
	shape := parser.Object(map[string]parser.Field{
		"startTimeMs": parser.Key(parser.Number()),
		"weight":      parser.Key(parser.Number()),
	}, nil)
	return parser.Fmap(shape, func(fields map[string]any) (MintPeriod, error) {
		weight := fields["weight"].(float64)
		if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
			return MintPeriod{}, ErrInvalidMintWeight
		}
		return MintPeriod{
			StartTimeMs: int64(fields["startTimeMs"].(float64)),
			Weight:      weight,
		}, nil
	})
}

func dependencyParser() parser.Parser[Dependency] {
	shape := parser.Object(
		map[string]parser.Field{
			"name":    parser.Key(parser.String()),
			"periods": parser.Key(parser.Array(mintPeriodParser())),
		},
		map[string]parser.Field{
			"id":                             parser.Key(parser.Nullable(allocationIdParser())),
			"autoActivateOnIdentityCreation": parser.Key(parser.Boolean()),
		},
	)
	return parser.Fmap(shape, func(fields map[string]any) (Dependency, error) {
		periods := fields["periods"].([]MintPeriod)
		for idx := 1; idx < len(periods); idx++ {
			if periods[idx].StartTimeMs <= periods[idx-1].StartTimeMs {
				return Dependency{}, ErrUnorderedPeriods
			}
		}
		dep := Dependency{
			Name:    fields["name"].(string),
			Periods: periods,
		}
		if id, ok := fields["id"]; ok {
			dep.ID = id.(*identity.Id)
		}
		if auto, ok := fields["autoActivateOnIdentityCreation"]; ok {
			dep.AutoActivate = auto.(bool)
		}
		return dep, nil
	})
}

func dependencyConfigParser() parser.Parser[DependencyConfig] {
	return parser.Fmap(parser.Array(dependencyParser()), func(deps []Dependency) (DependencyConfig, error) {
		return DependencyConfig{Dependencies: deps}, nil
	})
}

func allocationIdParser() parser.Parser[identity.Id] {
	return parser.Fmap(parser.String(), identity.ParseId)
}

// WeightAt returns the dependency's mint weight at the given time: the weight
// of the latest period whose start is at or before ts, or zero before the
// first period.
func (d Dependency) WeightAt(ts int64) float64 {
	weight := 0.0
	for _, p := range d.Periods {
		if p.StartTimeMs > ts {
			break
		}
		weight = p.Weight
	}
	return weight
}
