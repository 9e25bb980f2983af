package genetic

import (
	"cmp"
	"slices"
	"time"

	"wisata-bali-recommender/internal/models"
)

// RankedDestination is one member of the winning shortlist together with its
// own fitness contribution.
type RankedDestination struct {
	Destination models.Destination
	Score       float64
	Rank        int
}

// RunResult is the outcome of one engine run.
type RunResult struct {
	Shortlist      []RankedDestination
	BestFitness    float64
	Generations    int
	PopulationSize int
	MutationRate   float64
	ExecutionTime  time.Duration
	Converged      bool
	TimedOut       bool
	// History holds the best fitness of each evaluated generation.
	History        []float64
	Excluded       []string
	CandidateCount int
}

// rankShortlist orders the members of best by descending score, breaking
// ties by kode so the order is stable.
func rankShortlist(best Individual, pool []models.Destination, scores []float64) []RankedDestination {
	out := make([]RankedDestination, 0, len(best.Genes))
	for _, g := range best.Genes {
		out = append(out, RankedDestination{Destination: pool[g], Score: scores[g]})
	}
	slices.SortFunc(out, func(a, b RankedDestination) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Destination.Kode, b.Destination.Kode)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
