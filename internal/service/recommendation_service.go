package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"wisata-bali-recommender/internal/genetic"
	"wisata-bali-recommender/internal/metrics"
	"wisata-bali-recommender/internal/models"
	"wisata-bali-recommender/internal/repository"
	"wisata-bali-recommender/internal/weather"
)

const (
	destinationCacheTTL = 5 * time.Minute
	enrichConcurrency   = 4
	saveRunTimeout      = 5 * time.Second
)

// CatalogSource provides the destinations a run chooses from.
type CatalogSource interface {
	FetchCatalog(ctx context.Context, region string) ([]models.Destination, error)
}

// WeightStore provides the stored fitness weights.
type WeightStore interface {
	GetActiveWeights(ctx context.Context) ([]models.FitnessWeightRule, error)
}

// RunStore persists recommendation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.RecommendationRun) error
	GetRun(ctx context.Context, id string) (*models.RecommendationRun, error)
}

// WeatherProvider returns a forecast, falling back to an estimate.
type WeatherProvider interface {
	ForecastOrEstimate(ctx context.Context, p models.GeoPoint, tod models.TimeOfDay) weather.Forecast
}

// PhotoProvider returns an image URL for a destination.
type PhotoProvider interface {
	ImageURL(ctx context.Context, d models.Destination) string
}

// RecommendationDeps are the collaborators of a RecommendationService.
// Weights, Runs, Weather, Photos and Redis are optional.
type RecommendationDeps struct {
	Catalog  CatalogSource
	Weights  WeightStore
	Runs     RunStore
	Weather  WeatherProvider
	Photos   PhotoProvider
	Redis    *redis.Client
	Params   genetic.Params
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// RecommendationService turns a preference request into a ranked shortlist.
type RecommendationService struct {
	catalog CatalogSource
	weights WeightStore
	runs    RunStore
	weather WeatherProvider
	photos  PhotoProvider
	cache   cache
	ttl     time.Duration
	params  genetic.Params
	logger  *slog.Logger

	pending sync.WaitGroup
}

// NewRecommendationService validates the engine parameters and builds the service.
func NewRecommendationService(deps RecommendationDeps) (*RecommendationService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("recommendation service needs a catalog source")
	}
	if err := deps.Params.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationService{
		catalog: deps.Catalog,
		weights: deps.Weights,
		runs:    deps.Runs,
		weather: deps.Weather,
		photos:  deps.Photos,
		cache:   cache{redis: deps.Redis},
		ttl:     deps.CacheTTL,
		params:  deps.Params,
		logger:  logger,
	}, nil
}

// Recommend runs the genetic algorithm for req and returns the ranked shortlist.
func (s *RecommendationService) Recommend(ctx context.Context, req models.RecommendRequest) (*models.RecommendationResponse, error) {
	prof, err := req.Profile()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", genetic.ErrInvalidInput, err)
	}
	k := req.Limit
	if k == 0 {
		k = s.params.ShortlistSize
	}

	cacheKey := recommendCacheKey(prof, k)
	if cached, err := s.cache.get(ctx, cacheKey); err == nil {
		var resp models.RecommendationResponse
		if json.Unmarshal(cached, &resp) == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			s.logger.Debug("recommendation cache hit", "key", cacheKey)
			resp.Cached = true
			return &resp, nil
		}
	} else if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	} else if !errors.Is(err, errCacheDisabled) {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("recommendation cache lookup failed", "error", err)
	}

	catalog, err := s.catalog.FetchCatalog(ctx, "bali")
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	engine, err := s.newEngine(ctx)
	if err != nil {
		return nil, err
	}
	res, err := engine.Run(ctx, genetic.Problem{Catalog: catalog, Preference: prof, ShortlistSize: k})
	if err != nil {
		metrics.GARuns.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.GARuns.WithLabelValues(runOutcome(res)).Inc()
	metrics.GAGenerations.Observe(float64(res.Generations))
	metrics.GAExecution.Observe(res.ExecutionTime.Seconds())

	resp, err := s.buildResponse(ctx, prof, res)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	// a timed-out run is a partial answer; only complete runs are reused
	if !res.TimedOut {
		s.cache.set(ctx, cacheKey, data, s.ttl)
	}
	s.saveRun(resp, prof, res, data)

	return resp, nil
}

// GetRun returns a stored response by run ID.
func (s *RecommendationService) GetRun(ctx context.Context, id string) (*models.RecommendationResponse, error) {
	if s.runs == nil {
		return nil, repository.ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("run %q: %w", id, repository.ErrNotFound)
	}
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	var resp models.RecommendationResponse
	if err := json.Unmarshal(run.Response, &resp); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &resp, nil
}

// Weather returns the forecast at p for the given time of day.
func (s *RecommendationService) Weather(ctx context.Context, p models.GeoPoint, tod models.TimeOfDay) (*models.WeatherInfo, error) {
	if _, err := models.ParseTimeOfDay(string(tod)); err != nil {
		return nil, fmt.Errorf("%w: %v", genetic.ErrInvalidInput, err)
	}
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", genetic.ErrInvalidInput)
	}
	f := s.forecast(ctx, p, tod)
	return weatherInfo(f), nil
}

// ActiveWeights returns the stored fitness weights in use.
func (s *RecommendationService) ActiveWeights(ctx context.Context) ([]models.FitnessWeightRule, error) {
	if s.weights == nil {
		return defaultWeightRules(), nil
	}
	rules, err := s.weights.GetActiveWeights(ctx)
	if err != nil {
		return nil, fmt.Errorf("get weights: %w", err)
	}
	return rules, nil
}

// Wait blocks until pending history writes finish.
func (s *RecommendationService) Wait() {
	s.pending.Wait()
}

func (s *RecommendationService) newEngine(ctx context.Context) (*genetic.Engine, error) {
	w := genetic.DefaultWeights()
	if s.weights != nil {
		rules, err := s.weights.GetActiveWeights(ctx)
		switch {
		case err != nil:
			s.logger.Warn("could not load fitness weights, using defaults", "error", err)
		case len(rules) == 0:
			s.logger.Warn("no active fitness weights, using defaults")
		default:
			if stored, err := genetic.WeightsFromRules(rules); err != nil {
				s.logger.Warn("stored fitness weights invalid, using defaults", "error", err)
			} else {
				w = stored
			}
		}
	}
	scorer, err := genetic.NewWeightedScorer(w, s.params.MaxRadiusKm)
	if err != nil {
		return nil, err
	}
	return genetic.NewEngine(s.params, genetic.WithScorer(scorer), genetic.WithLogger(s.logger))
}

type enrichment struct {
	forecast weather.Forecast
	image    string
}

func (s *RecommendationService) buildResponse(ctx context.Context, prof models.PreferenceProfile, res *genetic.RunResult) (*models.RecommendationResponse, error) {
	extra := make([]enrichment, len(res.Shortlist))
	var userWeather *weather.Forecast

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i, rd := range res.Shortlist {
		g.Go(func() error {
			d := rd.Destination
			extra[i].forecast = s.forecast(gctx, models.GeoPoint{Lat: d.Latitude, Lon: d.Longitude}, prof.TimeOfDay)
			extra[i].image = s.image(gctx, d)
			return nil
		})
	}
	if prof.Location != nil {
		g.Go(func() error {
			f := s.forecast(gctx, *prof.Location, prof.TimeOfDay)
			userWeather = &f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]models.RecommendedDestination, 0, len(res.Shortlist))
	for i, rd := range res.Shortlist {
		d := rd.Destination
		var distance float64
		if prof.Location != nil {
			distance = round(genetic.HaversineKm(*prof.Location, models.GeoPoint{Lat: d.Latitude, Lon: d.Longitude}), 1)
		}
		temp := extra[i].forecast.Temperature
		results = append(results, models.RecommendedDestination{
			Kode:             d.Kode,
			Nama:             d.Nama,
			Kabupaten:        d.Kabupaten,
			Distance:         distance,
			Weather:          extra[i].forecast.String(),
			Temperature:      &temp,
			Popularity:       d.Popularity,
			TingkatAktivitas: string(d.Activity),
			Image:            extra[i].image,
			Description:      d.Describe(),
			FitnessScore:     round(rd.Score, 3),
			TipeDataran:      string(d.Terrain),
			TimePreference:   string(prof.TimeOfDay),
			Lat:              d.Latitude,
			Lon:              d.Longitude,
			Kategori:         d.Kategori,
		})
	}

	resp := &models.RecommendationResponse{
		RunID:   uuid.NewString(),
		Results: results,
		AlgorithmInfo: models.AlgorithmInfo{
			Generations:    res.Generations,
			PopulationSize: res.PopulationSize,
			MutationRate:   res.MutationRate,
			ExecutionTime:  round(res.ExecutionTime.Seconds(), 4),
			BestFitness:    round(res.BestFitness, 3),
			Converged:      res.Converged,
			TimedOut:       res.TimedOut,
		},
		TotalDestinationsAnalyzed: res.CandidateCount,
		PreferencesUsed:           prof,
		GeneratedAt:               time.Now().UTC().Format(time.RFC3339),
	}
	if userWeather != nil {
		resp.WeatherInfo = weatherInfo(*userWeather)
	}
	return resp, nil
}

func (s *RecommendationService) forecast(ctx context.Context, p models.GeoPoint, tod models.TimeOfDay) weather.Forecast {
	var f weather.Forecast
	if s.weather == nil {
		f = weather.Estimate(p, tod)
	} else {
		f = s.weather.ForecastOrEstimate(ctx, p, tod)
	}
	if f.Estimated {
		metrics.WeatherFallbacks.Inc()
	}
	return f
}

func (s *RecommendationService) image(ctx context.Context, d models.Destination) string {
	if s.photos == nil {
		return d.ImageURL
	}
	return s.photos.ImageURL(ctx, d)
}

// saveRun persists the response in the background.
func (s *RecommendationService) saveRun(resp *models.RecommendationResponse, prof models.PreferenceProfile, res *genetic.RunResult, data []byte) {
	if s.runs == nil {
		return
	}
	run := &models.RecommendationRun{
		ID:          resp.RunID,
		RequestedAt: time.Now().UTC(),
		Preferences: prof,
		BestFitness: res.BestFitness,
		ExecutionMs: res.ExecutionTime.Milliseconds(),
		Response:    data,
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveRunTimeout)
		defer cancel()
		if err := s.runs.SaveRun(ctx, run); err != nil {
			s.logger.Error("failed to save recommendation run", "run_id", run.ID, "error", err)
		}
	}()
}

func recommendCacheKey(p models.PreferenceProfile, k int) string {
	loc := "-"
	if p.Location != nil {
		loc = fmt.Sprintf("%.4f,%.4f", p.Location.Lat, p.Location.Lon)
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%d", recommendCachePrefix,
		strings.ToLower(p.District), p.Terrain, p.TimeOfDay, p.Activity, loc, k)
}

func runOutcome(res *genetic.RunResult) string {
	switch {
	case res.TimedOut:
		return "timed_out"
	case res.Converged:
		return "converged"
	}
	return "completed"
}

func weatherInfo(f weather.Forecast) *models.WeatherInfo {
	return &models.WeatherInfo{
		TimeOfDay:   string(f.TimeOfDay),
		Condition:   f.Condition,
		Temperature: f.Temperature,
		Estimated:   f.Estimated,
	}
}

func defaultWeightRules() []models.FitnessWeightRule {
	w := genetic.DefaultWeights()
	pairs := []struct {
		name   string
		weight float64
	}{
		{genetic.ComponentActivity, w.Activity},
		{genetic.ComponentDistance, w.Distance},
		{genetic.ComponentDistrict, w.District},
		{genetic.ComponentPopularity, w.Popularity},
		{genetic.ComponentTerrain, w.Terrain},
		{genetic.ComponentTimeOfDay, w.TimeOfDay},
	}
	out := make([]models.FitnessWeightRule, 0, len(pairs))
	for i, p := range pairs {
		out = append(out, models.FitnessWeightRule{ID: i + 1, Component: p.name, Weight: p.weight, IsActive: true})
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
