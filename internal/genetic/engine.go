// Package genetic implements the genetic algorithm that picks a shortlist of
// destinations matching a user's preferences.
package genetic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"wisata-bali-recommender/internal/models"
)

const improvementEpsilon = 1e-12

// Problem is the input of one run.
type Problem struct {
	Catalog    []models.Destination
	Preference models.PreferenceProfile
	// ShortlistSize overrides Params.ShortlistSize when positive.
	ShortlistSize int
}

// Engine runs the genetic algorithm. An Engine holds no per-run state and
// may be shared by concurrent requests.
type Engine struct {
	params Params
	scorer Scorer
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default weighted scorer.
func WithScorer(s Scorer) Option {
	return func(e *Engine) {
		if s != nil {
			e.scorer = s
		}
	}
}

// WithLogger sets the logger used for excluded destinations and run summaries.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine validates params and builds an engine.
func NewEngine(params Params, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{params: params, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.scorer == nil {
		s, err := NewWeightedScorer(DefaultWeights(), params.MaxRadiusKm)
		if err != nil {
			return nil, err
		}
		e.scorer = s
	}
	return e, nil
}

// Params returns the engine parameters.
func (e *Engine) Params() Params {
	return e.params
}

// Run searches for the best shortlist. Input and data errors are returned
// before any generation runs. A deadline or cancellation is not an error:
// the best shortlist found so far is returned with TimedOut set.
func (e *Engine) Run(ctx context.Context, prob Problem) (*RunResult, error) {
	start := time.Now()

	if err := prob.Preference.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	k := prob.ShortlistSize
	if k == 0 {
		k = e.params.ShortlistSize
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: shortlist size must be at least 1, got %d", ErrInvalidInput, k)
	}
	if len(prob.Catalog) == 0 {
		return nil, ErrEmptyCatalog
	}

	pool, excluded := e.screen(prob.Catalog)
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: all %d destinations are malformed", ErrEmptyCatalog, len(prob.Catalog))
	}
	if k > len(pool) {
		return nil, fmt.Errorf("%w: %d > %d", ErrShortlistTooLarge, k, len(pool))
	}

	pool, scores, failed, err := e.scoreAll(pool, prob.Preference)
	if err != nil {
		return nil, err
	}
	excluded = append(excluded, failed...)
	if k > len(pool) {
		return nil, fmt.Errorf("%w: %d > %d after excluding destinations that failed to score", ErrShortlistTooLarge, k, len(pool))
	}

	res := &RunResult{
		PopulationSize: e.params.PopulationSize,
		MutationRate:   e.params.MutationRate,
		Excluded:       excluded,
		CandidateCount: len(pool),
	}

	var best Individual
	if k == len(pool) {
		// every destination is in the shortlist; there is nothing to search
		best = Individual{Genes: make([]int, k)}
		for i := range best.Genes {
			best.Genes[i] = i
		}
		best.Fitness = individualFitness(best.Genes, scores, pool, prob.Preference)
	} else {
		best, err = e.evolve(ctx, pool, scores, prob.Preference, k, res)
		if err != nil {
			return nil, err
		}
	}

	res.Shortlist = rankShortlist(best, pool, scores)
	res.BestFitness = best.Fitness
	res.ExecutionTime = time.Since(start)

	e.logger.Debug("genetic run finished",
		"candidates", len(pool),
		"shortlist_size", k,
		"generations", res.Generations,
		"best_fitness", res.BestFitness,
		"converged", res.Converged,
		"timed_out", res.TimedOut,
		"duration", res.ExecutionTime,
	)
	return res, nil
}

func (e *Engine) evolve(ctx context.Context, pool []models.Destination, scores []float64, pref models.PreferenceProfile, k int, res *RunResult) (Individual, error) {
	if e.params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.params.Timeout)
		defer cancel()
	}

	rng := e.newRand()
	pop, err := Initialize(rng, len(pool), k, e.params.PopulationSize)
	if err != nil {
		return Individual{}, err
	}

	var (
		best     Individual
		stagnant int
	)
	for {
		for i := range pop {
			if !pop[i].evaluated {
				pop[i].Fitness = individualFitness(pop[i].Genes, scores, pool, pref)
				pop[i].evaluated = true
			}
		}
		res.Generations++

		elite := fittest(pop)
		improved := res.Generations == 1 || pop[elite].Fitness > best.Fitness+improvementEpsilon
		if res.Generations == 1 || pop[elite].Fitness > best.Fitness {
			best = pop[elite].Clone()
		}
		if improved {
			stagnant = 0
		} else {
			stagnant++
		}
		res.History = append(res.History, pop[elite].Fitness)

		if res.Generations >= e.params.Generations {
			break
		}
		if e.params.StagnationLimit > 0 && stagnant >= e.params.StagnationLimit {
			res.Converged = true
			break
		}
		if ctx.Err() != nil {
			res.TimedOut = true
			break
		}

		next := make([]Individual, 0, len(pop))
		next = append(next, pop[elite].Clone())
		for len(next) < len(pop) {
			a, b, err := Select(rng, pop, e.params.TournamentSize)
			if err != nil {
				return Individual{}, err
			}
			child := Crossover(rng, a, b, len(pool))
			next = append(next, Mutate(rng, child, e.params.MutationRate, len(pool)))
		}
		pop = next
	}
	return best, nil
}

// screen drops destinations that break the catalog invariants.
func (e *Engine) screen(catalog []models.Destination) ([]models.Destination, []string) {
	pool := make([]models.Destination, 0, len(catalog))
	var excluded []string
	seen := make(map[string]struct{}, len(catalog))
	for _, d := range catalog {
		if err := d.Validate(); err != nil {
			e.logger.Warn("excluding malformed destination", "kode", d.Kode, "error", err)
			excluded = append(excluded, d.Kode)
			continue
		}
		if _, dup := seen[d.Kode]; dup {
			e.logger.Warn("excluding duplicate destination", "kode", d.Kode)
			excluded = append(excluded, d.Kode)
			continue
		}
		seen[d.Kode] = struct{}{}
		pool = append(pool, d)
	}
	return pool, excluded
}

// scoreAll scores every destination in parallel. Destinations whose score
// panics or is not finite are dropped; if none survive the run fails.
func (e *Engine) scoreAll(pool []models.Destination, pref models.PreferenceProfile) ([]models.Destination, []float64, []string, error) {
	raw := make([]float64, len(pool))
	ok := make([]bool, len(pool))

	workers := e.params.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range pool {
		g.Go(func() error {
			raw[i], ok[i] = e.safeScore(pool[i], pref)
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]models.Destination, 0, len(pool))
	scores := make([]float64, 0, len(pool))
	var failed []string
	for i, d := range pool {
		if !ok[i] {
			failed = append(failed, d.Kode)
			continue
		}
		kept = append(kept, d)
		scores = append(scores, raw[i])
	}
	if len(kept) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no destination could be scored", ErrEvaluation)
	}
	return kept, scores, failed, nil
}

func (e *Engine) safeScore(d models.Destination, pref models.PreferenceProfile) (score float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("excluding destination, scoring panicked", "kode", d.Kode, "panic", r)
			score, ok = 0, false
		}
	}()
	s := e.scorer.Score(d, pref)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		e.logger.Warn("excluding destination, score is not finite", "kode", d.Kode, "score", s)
		return 0, false
	}
	return math.Max(0, s), true
}

func (e *Engine) newRand() *rand.Rand {
	seed := uint64(e.params.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// fittest returns the index of the evaluated individual with the highest
// fitness; the earliest wins ties.
func fittest(pop []Individual) int {
	best := -1
	for i := range pop {
		if !pop[i].evaluated {
			continue
		}
		if best < 0 || pop[i].Fitness > pop[best].Fitness {
			best = i
		}
	}
	return best
}
