package genetic

import (
	"fmt"
	"time"
)

// Params are the run parameters of the genetic algorithm.
type Params struct {
	ShortlistSize   int
	PopulationSize  int
	Generations     int
	MutationRate    float64
	TournamentSize  int
	StagnationLimit int // 0 disables early stopping
	Timeout         time.Duration
	MaxRadiusKm     float64
	Seed            int64 // 0 seeds from the clock
	Workers         int   // 0 uses GOMAXPROCS
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		ShortlistSize:   5,
		PopulationSize:  30,
		Generations:     50,
		MutationRate:    0.1,
		TournamentSize:  3,
		StagnationLimit: 10,
		Timeout:         2 * time.Second,
		MaxRadiusKm:     150,
	}
}

// Validate reports parameters that cannot drive a run.
func (p Params) Validate() error {
	if p.PopulationSize < 2 {
		return fmt.Errorf("%w: population size must be at least 2, got %d", ErrInvalidConfig, p.PopulationSize)
	}
	if p.Generations < 1 {
		return fmt.Errorf("%w: generations must be at least 1, got %d", ErrInvalidConfig, p.Generations)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate must be within [0,1], got %v", ErrInvalidConfig, p.MutationRate)
	}
	if p.TournamentSize < 1 {
		return fmt.Errorf("%w: tournament size must be at least 1, got %d", ErrInvalidConfig, p.TournamentSize)
	}
	if p.ShortlistSize < 1 {
		return fmt.Errorf("%w: shortlist size must be at least 1, got %d", ErrInvalidConfig, p.ShortlistSize)
	}
	if p.MaxRadiusKm <= 0 {
		return fmt.Errorf("%w: max radius must be positive, got %v", ErrInvalidConfig, p.MaxRadiusKm)
	}
	if p.StagnationLimit < 0 || p.Timeout < 0 || p.Workers < 0 {
		return fmt.Errorf("%w: negative stagnation limit, timeout or workers", ErrInvalidConfig)
	}
	return nil
}
