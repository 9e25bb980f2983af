package genetic

import (
	"fmt"
	"math"
	"strings"

	"wisata-bali-recommender/internal/models"
)

// Fitness component names, as stored in the fitness_weights table.
const (
	ComponentTerrain    = "terrain"
	ComponentActivity   = "activity"
	ComponentDistance   = "distance"
	ComponentDistrict   = "district"
	ComponentPopularity = "popularity"
	ComponentTimeOfDay  = "time_of_day"
)

// neutralDistanceScore is used for every destination when the user sent no
// coordinates, so distance cannot reorder the catalog.
const neutralDistanceScore = 0.5

// repeatedDistrictPenalty is subtracted from an individual's fitness for every
// member that shares a kabupaten with an earlier member.
const repeatedDistrictPenalty = 0.02

// Weights are the coefficients of the fitness components. Normalized weights
// sum to 1 so scores stay in [0,1] and are comparable across requests.
type Weights struct {
	Terrain    float64 `json:"terrain" yaml:"terrain"`
	Activity   float64 `json:"activity" yaml:"activity"`
	Distance   float64 `json:"distance" yaml:"distance"`
	District   float64 `json:"district" yaml:"district"`
	Popularity float64 `json:"popularity" yaml:"popularity"`
	TimeOfDay  float64 `json:"time_of_day" yaml:"time_of_day"`
}

// DefaultWeights returns the built-in weighting.
func DefaultWeights() Weights {
	return Weights{
		Terrain:    0.30,
		Activity:   0.20,
		Distance:   0.20,
		District:   0.15,
		Popularity: 0.10,
		TimeOfDay:  0.05,
	}
}

func (w Weights) sum() float64 {
	return w.Terrain + w.Activity + w.Distance + w.District + w.Popularity + w.TimeOfDay
}

// Normalize scales w so the components sum to 1.
func (w Weights) Normalize() (Weights, error) {
	for _, v := range []float64{w.Terrain, w.Activity, w.Distance, w.District, w.Popularity, w.TimeOfDay} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Weights{}, fmt.Errorf("%w: weights must be finite and non-negative", ErrInvalidConfig)
		}
	}
	total := w.sum()
	if total <= 0 {
		return Weights{}, fmt.Errorf("%w: weights sum to zero", ErrInvalidConfig)
	}
	return Weights{
		Terrain:    w.Terrain / total,
		Activity:   w.Activity / total,
		Distance:   w.Distance / total,
		District:   w.District / total,
		Popularity: w.Popularity / total,
		TimeOfDay:  w.TimeOfDay / total,
	}, nil
}

// WeightsFromRules builds normalized weights from the active stored rules.
// Components without an active rule get weight 0.
func WeightsFromRules(rules []models.FitnessWeightRule) (Weights, error) {
	var w Weights
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		switch strings.ToLower(r.Component) {
		case ComponentTerrain:
			w.Terrain += r.Weight
		case ComponentActivity:
			w.Activity += r.Weight
		case ComponentDistance:
			w.Distance += r.Weight
		case ComponentDistrict:
			w.District += r.Weight
		case ComponentPopularity:
			w.Popularity += r.Weight
		case ComponentTimeOfDay:
			w.TimeOfDay += r.Weight
		default:
			return Weights{}, fmt.Errorf("%w: unknown fitness component %q", ErrInvalidConfig, r.Component)
		}
	}
	return w.Normalize()
}

// Scorer scores one destination against a preference. Implementations must
// be pure and safe for concurrent use; the result is expected to be >= 0.
type Scorer interface {
	Score(d models.Destination, p models.PreferenceProfile) float64
}

// Components is the unweighted per-component breakdown, each in [0,1].
type Components struct {
	Terrain    float64 `json:"terrain"`
	Activity   float64 `json:"activity"`
	Distance   float64 `json:"distance"`
	District   float64 `json:"district"`
	Popularity float64 `json:"popularity"`
	TimeOfDay  float64 `json:"time_of_day"`
}

// WeightedScorer is the default Scorer: a weighted sum of Components.
type WeightedScorer struct {
	weights     Weights
	maxRadiusKm float64
}

// NewWeightedScorer normalizes w and returns a scorer that floors the
// distance component at maxRadiusKm.
func NewWeightedScorer(w Weights, maxRadiusKm float64) (*WeightedScorer, error) {
	nw, err := w.Normalize()
	if err != nil {
		return nil, err
	}
	if maxRadiusKm <= 0 {
		return nil, fmt.Errorf("%w: max radius must be positive", ErrInvalidConfig)
	}
	return &WeightedScorer{weights: nw, maxRadiusKm: maxRadiusKm}, nil
}

// Weights returns the normalized weights in use.
func (s *WeightedScorer) Weights() Weights {
	return s.weights
}

// Score implements Scorer.
func (s *WeightedScorer) Score(d models.Destination, p models.PreferenceProfile) float64 {
	c := s.Components(d, p)
	w := s.weights
	return w.Terrain*c.Terrain +
		w.Activity*c.Activity +
		w.Distance*c.Distance +
		w.District*c.District +
		w.Popularity*c.Popularity +
		w.TimeOfDay*c.TimeOfDay
}

// Components returns the per-component scores of d for p.
func (s *WeightedScorer) Components(d models.Destination, p models.PreferenceProfile) Components {
	return Components{
		Terrain:    terrainScore(d.Terrain, p.Terrain),
		Activity:   activityScore(d.Activity, p.Activity),
		Distance:   s.distanceScore(d, p.Location),
		District:   districtScore(d.Kabupaten, p.District),
		Popularity: popularityScore(d.Popularity),
		TimeOfDay:  timeOfDayScore(d.Terrain, p.TimeOfDay),
	}
}

func terrainScore(have, want models.Terrain) float64 {
	if have == want {
		return 1
	}
	return 0
}

// activityScore grades proximity on relaxed < moderate < extreme:
// same level 1, adjacent 0.5, opposite ends 0.
func activityScore(have, want models.ActivityLevel) float64 {
	a, b := have.Rank(), want.Rank()
	if a < 0 || b < 0 {
		return 0
	}
	switch diff := a - b; {
	case diff == 0:
		return 1
	case diff == 1 || diff == -1:
		return 0.5
	}
	return 0
}

func districtScore(have, want string) float64 {
	if want == "" {
		return 1
	}
	if strings.EqualFold(strings.TrimSpace(have), want) {
		return 1
	}
	return 0
}

func popularityScore(p float64) float64 {
	return math.Min(1, math.Max(0, p/models.MaxPopularity))
}

func (s *WeightedScorer) distanceScore(d models.Destination, user *models.GeoPoint) float64 {
	if user == nil {
		return neutralDistanceScore
	}
	km := HaversineKm(*user, models.GeoPoint{Lat: d.Latitude, Lon: d.Longitude})
	return math.Max(0, 1-km/s.maxRadiusKm)
}

// timeOfDayScore is a soft affinity: mornings favour the highlands, afternoons
// the lowlands, evenings the coast and lowlands.
func timeOfDayScore(t models.Terrain, tod models.TimeOfDay) float64 {
	switch tod {
	case models.TimeMorning:
		if t == models.TerrainHighland {
			return 1
		}
	case models.TimeAfternoon:
		if t == models.TerrainLowland {
			return 1
		}
	case models.TimeEvening:
		if t == models.TerrainWater || t == models.TerrainLowland {
			return 1
		}
	}
	return 0.5
}

// individualFitness combines the member scores of one individual: their mean,
// less a penalty per repeated kabupaten when the user named no district.
func individualFitness(genes []int, scores []float64, pool []models.Destination, p models.PreferenceProfile) float64 {
	if len(genes) == 0 {
		return 0
	}
	var total float64
	for _, g := range genes {
		total += scores[g]
	}
	fitness := total / float64(len(genes))

	if p.District == "" {
		seen := make(map[string]struct{}, len(genes))
		repeats := 0
		for _, g := range genes {
			k := strings.ToLower(pool[g].Kabupaten)
			if _, ok := seen[k]; ok {
				repeats++
				continue
			}
			seen[k] = struct{}{}
		}
		fitness -= repeatedDistrictPenalty * float64(repeats)
	}
	return math.Max(0, fitness)
}
