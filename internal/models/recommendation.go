package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidPreference is returned when a request cannot be turned into a
// PreferenceProfile.
var ErrInvalidPreference = errors.New("invalid preference")

// GeoPoint is a WGS 84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PreferenceProfile is one user's stated travel preferences.
type PreferenceProfile struct {
	District  string        `json:"district,omitempty"`
	Terrain   Terrain       `json:"terrainType"`
	TimeOfDay TimeOfDay     `json:"timeOfDay"`
	Activity  ActivityLevel `json:"activityLevel"`
	Location  *GeoPoint     `json:"location,omitempty"`
}

// Validate checks that every enumerated field is set and known.
func (p PreferenceProfile) Validate() error {
	if !p.Terrain.Valid() {
		return fmt.Errorf("%w: terrainType %q", ErrInvalidPreference, p.Terrain)
	}
	if !p.Activity.Valid() {
		return fmt.Errorf("%w: activityLevel %q", ErrInvalidPreference, p.Activity)
	}
	if _, err := ParseTimeOfDay(string(p.TimeOfDay)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreference, err)
	}
	if p.Location != nil {
		if math.IsNaN(p.Location.Lat) || math.IsNaN(p.Location.Lon) ||
			p.Location.Lat < -90 || p.Location.Lat > 90 ||
			p.Location.Lon < -180 || p.Location.Lon > 180 {
			return fmt.Errorf("%w: coordinates out of range", ErrInvalidPreference)
		}
	}
	return nil
}

// RecommendRequest is the POST /recommend body.
type RecommendRequest struct {
	District      string   `json:"district" validate:"omitempty,max=100"`
	TerrainType   string   `json:"terrainType" validate:"required,oneof=highland lowland water"`
	TimeOfDay     string   `json:"timeOfDay" validate:"required,oneof=morning afternoon evening"`
	ActivityLevel string   `json:"activityLevel" validate:"required,oneof=relaxed moderate extreme"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,longitude"`
	Limit         int      `json:"limit" validate:"omitempty,min=1,max=20"`
}

// Profile converts the request into a validated PreferenceProfile.
func (r RecommendRequest) Profile() (PreferenceProfile, error) {
	terrain, err := ParseTerrain(r.TerrainType)
	if err != nil {
		return PreferenceProfile{}, fmt.Errorf("%w: %v", ErrInvalidPreference, err)
	}
	activity, err := ParseActivityLevel(r.ActivityLevel)
	if err != nil {
		return PreferenceProfile{}, fmt.Errorf("%w: %v", ErrInvalidPreference, err)
	}
	tod, err := ParseTimeOfDay(r.TimeOfDay)
	if err != nil {
		return PreferenceProfile{}, fmt.Errorf("%w: %v", ErrInvalidPreference, err)
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return PreferenceProfile{}, fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidPreference)
	}
	if r.Limit < 0 || r.Limit > 20 {
		return PreferenceProfile{}, fmt.Errorf("%w: limit must be between 1 and 20", ErrInvalidPreference)
	}

	p := PreferenceProfile{
		District:  strings.TrimSpace(r.District),
		Terrain:   terrain,
		TimeOfDay: tod,
		Activity:  activity,
	}
	if r.Latitude != nil {
		p.Location = &GeoPoint{Lat: *r.Latitude, Lon: *r.Longitude}
	}
	if err := p.Validate(); err != nil {
		return PreferenceProfile{}, err
	}
	return p, nil
}

// RecommendedDestination is one ranked entry of the response.
type RecommendedDestination struct {
	Kode             string   `json:"kode"`
	Nama             string   `json:"nama"`
	Kabupaten        string   `json:"kabupaten"`
	Distance         float64  `json:"distance"`
	Weather          string   `json:"weather,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	Popularity       float64  `json:"popularity"`
	TingkatAktivitas string   `json:"tingkat_aktivitas"`
	Image            string   `json:"image,omitempty"`
	Description      string   `json:"description,omitempty"`
	FitnessScore     float64  `json:"fitness_score"`
	TipeDataran      string   `json:"tipe_dataran"`
	TimePreference   string   `json:"time_preference,omitempty"`
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	Kategori         string   `json:"kategori,omitempty"`
}

// AlgorithmInfo describes the genetic algorithm run behind a response.
type AlgorithmInfo struct {
	Generations    int     `json:"generations"`
	PopulationSize int     `json:"population_size"`
	MutationRate   float64 `json:"mutation_rate"`
	ExecutionTime  float64 `json:"execution_time"`
	BestFitness    float64 `json:"best_fitness"`
	Converged      bool    `json:"converged"`
	TimedOut       bool    `json:"timed_out"`
}

// WeatherInfo is the weather at the user's location.
type WeatherInfo struct {
	TimeOfDay   string  `json:"time_of_day"`
	Condition   string  `json:"weather_condition"`
	Temperature float64 `json:"temperature"`
	Estimated   bool    `json:"estimated"`
}

// RecommendationResponse is the POST /recommend response.
type RecommendationResponse struct {
	RunID                     string                   `json:"run_id"`
	Results                   []RecommendedDestination `json:"results"`
	AlgorithmInfo             AlgorithmInfo            `json:"algorithm_info"`
	WeatherInfo               *WeatherInfo             `json:"weather_info,omitempty"`
	TotalDestinationsAnalyzed int                      `json:"total_destinations_analyzed"`
	PreferencesUsed           PreferenceProfile        `json:"preferences_used"`
	Cached                    bool                     `json:"cached"`
	GeneratedAt               string                   `json:"generated_at"`
}

// FitnessWeightRule is one stored fitness component weight.
type FitnessWeightRule struct {
	ID        int       `json:"id"`
	Component string    `json:"component"`
	Weight    float64   `json:"weight"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// RecommendationRun is a persisted recommendation response.
type RecommendationRun struct {
	ID          string            `json:"id"`
	RequestedAt time.Time         `json:"requested_at"`
	Preferences PreferenceProfile `json:"preferences"`
	BestFitness float64           `json:"best_fitness"`
	ExecutionMs int64             `json:"execution_ms"`
	Response    []byte            `json:"-"`
}
