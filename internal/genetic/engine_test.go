package genetic

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"

	"wisata-bali-recommender/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sixDestinations has two destinations of each terrain.
func sixDestinations() []models.Destination {
	return []models.Destination{
		{Kode: "H1", Nama: "Kintamani", Kabupaten: "Bangli", Latitude: -8.2500, Longitude: 115.4000, Terrain: models.TerrainHighland, Activity: models.ActivityRelaxed, Popularity: 4.6},
		{Kode: "H2", Nama: "Gunung Agung", Kabupaten: "Karangasem", Latitude: -8.3425, Longitude: 115.5030, Terrain: models.TerrainHighland, Activity: models.ActivityExtreme, Popularity: 4.8},
		{Kode: "L1", Nama: "Tegallalang", Kabupaten: "Gianyar", Latitude: -8.4344, Longitude: 115.2792, Terrain: models.TerrainLowland, Activity: models.ActivityRelaxed, Popularity: 4.5},
		{Kode: "L2", Nama: "Monkey Forest", Kabupaten: "Gianyar", Latitude: -8.5186, Longitude: 115.2588, Terrain: models.TerrainLowland, Activity: models.ActivityModerate, Popularity: 4.4},
		{Kode: "W1", Nama: "Pantai Kuta", Kabupaten: "Badung", Latitude: -8.7180, Longitude: 115.1686, Terrain: models.TerrainWater, Activity: models.ActivityModerate, Popularity: 4.7},
		{Kode: "W2", Nama: "Tanah Lot", Kabupaten: "Tabanan", Latitude: -8.6212, Longitude: 115.0868, Terrain: models.TerrainWater, Activity: models.ActivityRelaxed, Popularity: 4.9},
	}
}

func sampleCatalog() []models.Destination {
	out := sixDestinations()
	out = append(out,
		models.Destination{Kode: "H3", Nama: "Bedugul", Kabupaten: "Tabanan", Latitude: -8.2750, Longitude: 115.1667, Terrain: models.TerrainHighland, Activity: models.ActivityRelaxed, Popularity: 4.6},
		models.Destination{Kode: "W3", Nama: "Pantai Lovina", Kabupaten: "Buleleng", Latitude: -8.1580, Longitude: 115.0250, Terrain: models.TerrainWater, Activity: models.ActivityRelaxed, Popularity: 4.3},
		models.Destination{Kode: "W4", Nama: "Nusa Penida", Kabupaten: "Klungkung", Latitude: -8.7275, Longitude: 115.5444, Terrain: models.TerrainWater, Activity: models.ActivityExtreme, Popularity: 4.8},
		models.Destination{Kode: "L3", Nama: "Taman Ujung", Kabupaten: "Karangasem", Latitude: -8.4639, Longitude: 115.6314, Terrain: models.TerrainLowland, Activity: models.ActivityRelaxed, Popularity: 4.2},
	)
	return out
}

func testParams() Params {
	p := DefaultParams()
	p.Seed = 42
	p.Workers = 2
	return p
}

func newTestEngine(t *testing.T, p Params, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	e, err := NewEngine(p, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func codes(r *RunResult) []string {
	out := make([]string, len(r.Shortlist))
	for i, rd := range r.Shortlist {
		out[i] = rd.Destination.Kode
	}
	return out
}

func TestRun_HighlandNearUser(t *testing.T) {
	p := testParams()
	p.PopulationSize = 20
	p.Generations = 30
	e := newTestEngine(t, p)

	catalog := sixDestinations()
	res, err := e.Run(context.Background(), Problem{
		Catalog: catalog,
		Preference: models.PreferenceProfile{
			Terrain:   models.TerrainHighland,
			TimeOfDay: models.TimeMorning,
			Activity:  models.ActivityRelaxed,
			Location:  &models.GeoPoint{Lat: catalog[0].Latitude, Lon: catalog[0].Longitude},
		},
		ShortlistSize: 3,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Shortlist) != 3 {
		t.Fatalf("shortlist has %d entries, want 3", len(res.Shortlist))
	}
	if res.Generations > 30 || res.Generations < 1 {
		t.Errorf("generations = %d, want 1..30", res.Generations)
	}
	first := res.Shortlist[0]
	if first.Destination.Kode != "H1" {
		t.Errorf("first = %s, want H1 (shortlist %v)", first.Destination.Kode, codes(res))
	}
	if first.Destination.Terrain != models.TerrainHighland {
		t.Fatalf("first destination is %s, want highland", first.Destination.Terrain)
	}
	for _, rd := range res.Shortlist[1:] {
		if rd.Destination.Terrain != models.TerrainHighland && rd.Score >= first.Score {
			t.Errorf("%s (%s) scored %v, not below first %v", rd.Destination.Kode, rd.Destination.Terrain, rd.Score, first.Score)
		}
	}
	if !slices.Contains(codes(res), "H2") {
		t.Errorf("shortlist %v should contain the second highland destination", codes(res))
	}
	if res.PopulationSize != 20 || res.MutationRate != p.MutationRate {
		t.Errorf("metadata = (%d, %v), want (20, %v)", res.PopulationSize, res.MutationRate, p.MutationRate)
	}
}

func TestRun_ShortlistInvariants(t *testing.T) {
	e := newTestEngine(t, testParams())
	catalog := sampleCatalog()
	for k := 1; k <= len(catalog); k++ {
		res, err := e.Run(context.Background(), Problem{
			Catalog:       catalog,
			Preference:    models.PreferenceProfile{Terrain: models.TerrainWater, TimeOfDay: models.TimeEvening, Activity: models.ActivityModerate},
			ShortlistSize: k,
		})
		if err != nil {
			t.Fatalf("k=%d: Run: %v", k, err)
		}
		got := codes(res)
		if len(got) != k {
			t.Fatalf("k=%d: shortlist %v has wrong length", k, got)
		}
		seen := map[string]bool{}
		for i, c := range got {
			if seen[c] {
				t.Fatalf("k=%d: duplicate %s in %v", k, c, got)
			}
			seen[c] = true
			if i > 0 && res.Shortlist[i].Score > res.Shortlist[i-1].Score {
				t.Errorf("k=%d: shortlist not sorted by score: %v", k, got)
			}
			if res.Shortlist[i].Rank != i+1 {
				t.Errorf("k=%d: rank of %s = %d, want %d", k, c, res.Shortlist[i].Rank, i+1)
			}
		}
	}
}

func TestRun_ElitismKeepsBestNonDecreasing(t *testing.T) {
	p := testParams()
	p.StagnationLimit = 0
	p.Generations = 40
	p.MutationRate = 0.5
	e := newTestEngine(t, p)

	res, err := e.Run(context.Background(), Problem{
		Catalog:       sampleCatalog(),
		Preference:    models.PreferenceProfile{Terrain: models.TerrainLowland, TimeOfDay: models.TimeAfternoon, Activity: models.ActivityRelaxed},
		ShortlistSize: 4,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.History) != res.Generations || res.Generations != 40 {
		t.Fatalf("history has %d entries for %d generations, want 40", len(res.History), res.Generations)
	}
	for i := 1; i < len(res.History); i++ {
		if res.History[i] < res.History[i-1] {
			t.Fatalf("best fitness dropped at generation %d: %v -> %v", i+1, res.History[i-1], res.History[i])
		}
	}
	if last := res.History[len(res.History)-1]; last != res.BestFitness {
		t.Errorf("BestFitness = %v, want last history entry %v", res.BestFitness, last)
	}
}

func TestRun_Deterministic(t *testing.T) {
	prob := Problem{
		Catalog:       sampleCatalog(),
		Preference:    models.PreferenceProfile{Terrain: models.TerrainWater, TimeOfDay: models.TimeEvening, Activity: models.ActivityRelaxed},
		ShortlistSize: 4,
	}
	a, err := newTestEngine(t, testParams()).Run(context.Background(), prob)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := newTestEngine(t, testParams()).Run(context.Background(), prob)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(codes(a), codes(b)) || a.Generations != b.Generations || !slices.Equal(a.History, b.History) {
		t.Errorf("same seed gave different runs: %v/%d vs %v/%d", codes(a), a.Generations, codes(b), b.Generations)
	}
}

func TestRun_Converges(t *testing.T) {
	p := testParams()
	p.Generations = 500
	p.StagnationLimit = 5
	e := newTestEngine(t, p)

	res, err := e.Run(context.Background(), Problem{
		Catalog:       sampleCatalog(),
		Preference:    models.PreferenceProfile{Terrain: models.TerrainHighland, TimeOfDay: models.TimeMorning, Activity: models.ActivityRelaxed},
		ShortlistSize: 2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Converged || res.Generations >= 500 {
		t.Errorf("converged = %v after %d generations, want early stop", res.Converged, res.Generations)
	}
}

func TestRun_EmptyCatalog(t *testing.T) {
	e := newTestEngine(t, testParams())
	res, err := e.Run(context.Background(), Problem{
		Preference: models.PreferenceProfile{Terrain: models.TerrainWater, TimeOfDay: models.TimeEvening, Activity: models.ActivityRelaxed},
	})
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("err = %v, want ErrEmptyCatalog", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
}

func TestRun_InvalidPreference(t *testing.T) {
	e := newTestEngine(t, testParams())
	_, err := e.Run(context.Background(), Problem{
		Catalog:    sampleCatalog(),
		Preference: models.PreferenceProfile{Terrain: "volcano", TimeOfDay: models.TimeEvening, Activity: models.ActivityRelaxed},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestRun_ShortlistLargerThanCatalog(t *testing.T) {
	e := newTestEngine(t, testParams())
	_, err := e.Run(context.Background(), Problem{
		Catalog:       sixDestinations()[:1],
		Preference:    models.PreferenceProfile{Terrain: models.TerrainWater, TimeOfDay: models.TimeEvening, Activity: models.ActivityRelaxed},
		ShortlistSize: 3,
	})
	if !errors.Is(err, ErrShortlistTooLarge) || !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrShortlistTooLarge", err)
	}
}

func TestRun_ShortlistEqualsCatalog(t *testing.T) {
	e := newTestEngine(t, testParams())
	catalog := sixDestinations()
	res, err := e.Run(context.Background(), Problem{
		Catalog:       catalog,
		Preference:    models.PreferenceProfile{Terrain: models.TerrainWater, TimeOfDay: models.TimeEvening, Activity: models.ActivityRelaxed},
		ShortlistSize: len(catalog),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Generations > 1 {
		t.Errorf("generations = %d, want 0 or 1", res.Generations)
	}
	got := codes(res)
	slices.Sort(got)
	want := []string{"H1", "H2", "L1", "L2", "W1", "W2"}
	if !slices.Equal(got, want) {
		t.Errorf("shortlist = %v, want the whole catalog", got)
	}
	if res.Shortlist[0].Destination.Terrain != models.TerrainWater {
		t.Errorf("first = %s, want a water destination", res.Shortlist[0].Destination.Kode)
	}
}

func TestRun_CancelledContextReturnsBestSoFar(t *testing.T) {
	e := newTestEngine(t, testParams())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.Run(ctx, Problem{
		Catalog:       sampleCatalog(),
		Preference:    models.PreferenceProfile{Terrain: models.TerrainHighland, TimeOfDay: models.TimeMorning, Activity: models.ActivityRelaxed},
		ShortlistSize: 3,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.TimedOut || res.Generations != 1 {
		t.Errorf("timed_out = %v, generations = %d; want true, 1", res.TimedOut, res.Generations)
	}
	if len(res.Shortlist) != 3 {
		t.Errorf("shortlist has %d entries, want 3", len(res.Shortlist))
	}
}

func TestRun_TimeoutParam(t *testing.T) {
	p := testParams()
	p.Generations = 1_000_000
	p.StagnationLimit = 0
	p.Timeout = 50 * time.Millisecond
	e := newTestEngine(t, p)

	res, err := e.Run(context.Background(), Problem{
		Catalog:       sampleCatalog(),
		Preference:    models.PreferenceProfile{Terrain: models.TerrainHighland, TimeOfDay: models.TimeMorning, Activity: models.ActivityRelaxed},
		ShortlistSize: 3,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.TimedOut {
		t.Errorf("expected the run to time out after %d generations", res.Generations)
	}
}

type panickyScorer struct {
	inner Scorer
	bad   string
}

func (s panickyScorer) Score(d models.Destination, p models.PreferenceProfile) float64 {
	if d.Kode == s.bad {
		panic("broken destination")
	}
	return s.inner.Score(d, p)
}

func TestRun_ExcludesMalformedAndFailingDestinations(t *testing.T) {
	inner, err := NewWeightedScorer(DefaultWeights(), 150)
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, testParams(), WithScorer(panickyScorer{inner: inner, bad: "L2"}))

	catalog := sixDestinations()
	catalog = append(catalog,
		models.Destination{Kode: "X1", Nama: "No terrain", Kabupaten: "Badung", Latitude: -8.7, Longitude: 115.2, Activity: models.ActivityRelaxed},
		models.Destination{Kode: "X2", Nama: "Off the map", Kabupaten: "Badung", Latitude: 120, Longitude: 115.2, Terrain: models.TerrainWater, Activity: models.ActivityRelaxed},
	)
	res, err := e.Run(context.Background(), Problem{
		Catalog:       catalog,
		Preference:    models.PreferenceProfile{Terrain: models.TerrainLowland, TimeOfDay: models.TimeAfternoon, Activity: models.ActivityModerate},
		ShortlistSize: 5,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	slices.Sort(res.Excluded)
	if want := []string{"L2", "X1", "X2"}; !slices.Equal(res.Excluded, want) {
		t.Errorf("excluded = %v, want %v", res.Excluded, want)
	}
	if res.CandidateCount != 5 {
		t.Errorf("candidate count = %d, want 5", res.CandidateCount)
	}
	for _, c := range codes(res) {
		if c == "L2" || c == "X1" || c == "X2" {
			t.Errorf("excluded destination %s in shortlist", c)
		}
	}
}

type nanScorer struct{}

func (nanScorer) Score(models.Destination, models.PreferenceProfile) float64 {
	var zero float64
	return zero / zero
}

func TestRun_EvaluatorWideFault(t *testing.T) {
	e := newTestEngine(t, testParams(), WithScorer(nanScorer{}))
	_, err := e.Run(context.Background(), Problem{
		Catalog:       sampleCatalog(),
		Preference:    models.PreferenceProfile{Terrain: models.TerrainLowland, TimeOfDay: models.TimeAfternoon, Activity: models.ActivityModerate},
		ShortlistSize: 2,
	})
	if !errors.Is(err, ErrEvaluation) {
		t.Errorf("err = %v, want ErrEvaluation", err)
	}
}

func TestNewEngine_InvalidParams(t *testing.T) {
	p := DefaultParams()
	p.PopulationSize = 1
	if _, err := NewEngine(p); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("population 1: err = %v, want ErrInvalidConfig", err)
	}
	p = DefaultParams()
	p.MutationRate = 1.5
	if _, err := NewEngine(p); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("mutation 1.5: err = %v, want ErrInvalidConfig", err)
	}
}
