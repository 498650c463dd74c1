package config

import "errors"

var (
	ErrNegativeBudget      = errors.New("weekly budget must be nonnegative")
	ErrMissingDecayRate    = errors.New("recentWeeklyDecayRate is required when recentPerWeek is set")
	ErrInvalidDecayRate    = errors.New("recentWeeklyDecayRate must be in [0, 1]")
	ErrNegativeMaxParallel = errors.New("maxSimultaneousDistributions must be nonnegative")
	ErrInvalidMintWeight   = errors.New("mint period weight must be finite and nonnegative")
	ErrUnorderedPeriods    = errors.New("mint periods must have ascending start times")
	ErrInvalidProportion   = errors.New("attribution proportion must be in [0, 1]")
	ErrUnorderedProportion = errors.New("attribution proportions must have ascending timestamps")
	ErrMissingDirectory    = errors.New("instance directory is required")
)
