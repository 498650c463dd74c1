package config

import (
	"fmt"
	"math"
	"os"

	"github.com/sourcecred/sourcecred-go/internal/allocation"
	"github.com/sourcecred/sourcecred-go/internal/grain"
	"github.com/sourcecred/sourcecred-go/internal/parser"
)

// GrainConfig describes how grain is minted each distribution run.
type GrainConfig struct {
	AllocationPolicies []allocation.Policy

	// MaxSimultaneousDistributions caps how many missed distribution
	// intervals are back-filled in one run. Zero means unlimited.
	MaxSimultaneousDistributions int
}

// ParseGrainConfig decodes grain.json. Two shapes are accepted: the current
// explicit policy list, and the legacy per-week shorthand
// (immediatePerWeek / balancedPerWeek / recentPerWeek /
// recentWeeklyDecayRate), which upgrades to synthetic policies in the order
// immediate, recent, balanced.
func ParseGrainConfig(data []byte) (GrainConfig, error) {
	return grainConfigParser().ParseJSON(data)
}

// LoadGrainConfig reads and decodes the grain configuration file.
func LoadGrainConfig(path string) (GrainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GrainConfig{}, fmt.Errorf("failed to read grain config: %w", err)
	}
	cfg, err := ParseGrainConfig(data)
	if err != nil {
		return GrainConfig{}, fmt.Errorf("failed to parse grain config %s: %w", path, err)
	}
	return cfg, nil
}

// grainConfigParser dispatches on the presence of allocationPolicies rather
// than falling back, so a malformed policy list fails loudly instead of
// decoding as an empty legacy config.
func grainConfigParser() parser.Parser[GrainConfig] {
	current := currentGrainParser()
	legacy := legacyGrainParser()
	return parser.New(func(raw any) (GrainConfig, error) {
		if obj, ok := raw.(map[string]any); ok {
			if _, has := obj["allocationPolicies"]; has {
				return current.Parse(raw)
			}
		}
		return legacy.Parse(raw)
	})
}

func maxDistributionsParser() parser.Parser[int] {
	return parser.Fmap(parser.Number(), func(n float64) (int, error) {
		if math.IsNaN(n) || n < 0 || n != math.Trunc(n) {
			return 0, ErrNegativeMaxParallel
		}
		return int(n), nil
	})
}

func currentGrainParser() parser.Parser[GrainConfig] {
	shape := parser.Object(
		map[string]parser.Field{
			"allocationPolicies": parser.Key(parser.Array(allocation.PolicyParser())),
		},
		map[string]parser.Field{
			"maxSimultaneousDistributions": parser.Key(maxDistributionsParser()),
		},
	)
	return parser.Fmap(shape, func(fields map[string]any) (GrainConfig, error) {
		cfg := GrainConfig{
			AllocationPolicies: fields["allocationPolicies"].([]allocation.Policy),
		}
		if max, ok := fields["maxSimultaneousDistributions"]; ok {
			cfg.MaxSimultaneousDistributions = max.(int)
		}
		return cfg, nil
	})
}

// weeklyBudget converts a whole-grain-per-week number into a budget.
func weeklyBudget(perWeek float64) (grain.NonnegativeGrain, error) {
	if math.IsNaN(perWeek) || math.IsInf(perWeek, 0) || perWeek < 0 {
		return grain.NonnegativeGrain{}, ErrNegativeBudget
	}
	g, err := grain.FromInteger(1).MultiplyFloat(perWeek)
	if err != nil {
		return grain.NonnegativeGrain{}, err
	}
	return grain.Nonnegative(g)
}

func legacyGrainParser() parser.Parser[GrainConfig] {
	num := parser.Key(parser.Number())
	shape := parser.Object(nil, map[string]parser.Field{
		"immediatePerWeek":             num,
		"balancedPerWeek":              num,
		"recentPerWeek":                num,
		"recentWeeklyDecayRate":        num,
		"maxSimultaneousDistributions": parser.Key(maxDistributionsParser()),
	})
	return parser.Fmap(shape, func(fields map[string]any) (GrainConfig, error) {
		perWeek := func(key string) float64 {
			if v, ok := fields[key]; ok {
				return v.(float64)
			}
			return 0
		}

		var cfg GrainConfig
		if max, ok := fields["maxSimultaneousDistributions"]; ok {
			cfg.MaxSimultaneousDistributions = max.(int)
		}

		if immediate := perWeek("immediatePerWeek"); immediate > 0 {
			budget, err := weeklyBudget(immediate)
			if err != nil {
				return GrainConfig{}, err
			}
			cfg.AllocationPolicies = append(cfg.AllocationPolicies, allocation.Policy{
				Type:   allocation.Immediate,
				Budget: budget,
			})
		}
		if recent := perWeek("recentPerWeek"); recent > 0 {
			decayRaw, ok := fields["recentWeeklyDecayRate"]
			if !ok {
				return GrainConfig{}, ErrMissingDecayRate
			}
			decay := decayRaw.(float64)
			if math.IsNaN(decay) || decay < 0 || decay > 1 {
				return GrainConfig{}, ErrInvalidDecayRate
			}
			budget, err := weeklyBudget(recent)
			if err != nil {
				return GrainConfig{}, err
			}
			cfg.AllocationPolicies = append(cfg.AllocationPolicies, allocation.Policy{
				Type:     allocation.Recent,
				Budget:   budget,
				Discount: decay,
			})
		}
		if balanced := perWeek("balancedPerWeek"); balanced > 0 {
			budget, err := weeklyBudget(balanced)
			if err != nil {
				return GrainConfig{}, err
			}
			cfg.AllocationPolicies = append(cfg.AllocationPolicies, allocation.Policy{
				Type:   allocation.Balanced,
				Budget: budget,
			})
		}
		return cfg, nil
	})
}
