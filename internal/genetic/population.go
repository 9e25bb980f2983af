package genetic

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Individual is one candidate shortlist. Genes are indices into the engine's
// usable catalog and never repeat within an individual.
type Individual struct {
	Genes     []int
	Fitness   float64
	evaluated bool
}

// Evaluated reports whether Fitness has been computed for the current genes.
func (ind Individual) Evaluated() bool {
	return ind.evaluated
}

// Clone returns a deep copy of ind.
func (ind Individual) Clone() Individual {
	return Individual{Genes: slices.Clone(ind.Genes), Fitness: ind.Fitness, evaluated: ind.evaluated}
}

// Initialize returns n individuals, each a random sample of k distinct
// destinations out of poolSize.
func Initialize(rng *rand.Rand, poolSize, k, n int) ([]Individual, error) {
	switch {
	case poolSize < 1:
		return nil, ErrEmptyCatalog
	case k < 1:
		return nil, fmt.Errorf("%w: shortlist size must be at least 1, got %d", ErrInvalidInput, k)
	case k > poolSize:
		return nil, fmt.Errorf("%w: %d > %d", ErrShortlistTooLarge, k, poolSize)
	case n < 2:
		return nil, fmt.Errorf("%w: population size must be at least 2, got %d", ErrInvalidConfig, n)
	}

	idx := make([]int, poolSize)
	for i := range idx {
		idx[i] = i
	}
	pop := make([]Individual, n)
	for i := range pop {
		// partial Fisher-Yates: the first k slots become the sample
		for j := 0; j < k; j++ {
			r := j + rng.IntN(poolSize-j)
			idx[j], idx[r] = idx[r], idx[j]
		}
		pop[i] = Individual{Genes: slices.Clone(idx[:k])}
	}
	return pop, nil
}

// Select runs two tournaments of the given size and returns the winners.
// Individuals without a computed fitness never take part.
func Select(rng *rand.Rand, pop []Individual, tournamentSize int) (Individual, Individual, error) {
	candidates := make([]int, 0, len(pop))
	for i := range pop {
		if pop[i].evaluated {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return Individual{}, Individual{}, fmt.Errorf("%w: no evaluated individuals to select from", ErrEvaluation)
	}
	if tournamentSize < 1 {
		tournamentSize = 1
	}
	a := pop[tournament(rng, pop, candidates, tournamentSize)]
	b := pop[tournament(rng, pop, candidates, tournamentSize)]
	return a, b, nil
}

func tournament(rng *rand.Rand, pop []Individual, candidates []int, size int) int {
	best := candidates[rng.IntN(len(candidates))]
	for i := 1; i < size; i++ {
		c := candidates[rng.IntN(len(candidates))]
		if pop[c].Fitness > pop[best].Fitness {
			best = c
		}
	}
	return best
}

// Crossover builds a child by taking each gene position from either parent
// at random. A gene already present in the child is swapped for the other
// parent's gene at that position, and if that is taken too, for a random
// destination the child does not hold yet. Crossing a parent with itself
// yields the same genes.
func Crossover(rng *rand.Rand, a, b Individual, poolSize int) Individual {
	k := len(a.Genes)
	genes := make([]int, k)
	used := make(map[int]struct{}, k)
	var holes []int

	for i := 0; i < k; i++ {
		first, second := a.Genes[i], b.Genes[i]
		if rng.IntN(2) == 1 {
			first, second = second, first
		}
		switch {
		case !has(used, first):
			genes[i] = first
		case !has(used, second):
			genes[i] = second
		default:
			holes = append(holes, i)
			continue
		}
		used[genes[i]] = struct{}{}
	}

	for _, i := range holes {
		g, ok := randomUnused(rng, used, poolSize)
		if !ok {
			// cannot happen while k <= poolSize
			panic("genetic: no unused destination left for crossover")
		}
		genes[i] = g
		used[g] = struct{}{}
	}
	return Individual{Genes: genes}
}

// Mutate replaces each gene, with probability rate, by a random destination
// not already in the individual. Genes are left alone when every destination
// is already in use.
func Mutate(rng *rand.Rand, ind Individual, rate float64, poolSize int) Individual {
	out := ind.Clone()
	used := make(map[int]struct{}, len(out.Genes))
	for _, g := range out.Genes {
		used[g] = struct{}{}
	}
	for i := range out.Genes {
		if rng.Float64() >= rate {
			continue
		}
		g, ok := randomUnused(rng, used, poolSize)
		if !ok {
			continue
		}
		delete(used, out.Genes[i])
		out.Genes[i] = g
		used[g] = struct{}{}
		out.evaluated = false
	}
	return out
}

func has(set map[int]struct{}, v int) bool {
	_, ok := set[v]
	return ok
}

func randomUnused(rng *rand.Rand, used map[int]struct{}, poolSize int) (int, bool) {
	free := poolSize - len(used)
	if free <= 0 {
		return 0, false
	}
	n := rng.IntN(free)
	for i := 0; i < poolSize; i++ {
		if has(used, i) {
			continue
		}
		if n == 0 {
			return i, true
		}
		n--
	}
	return 0, false
}
