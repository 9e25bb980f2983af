package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Terrain is the landform classification of a destination.
type Terrain string

const (
	TerrainHighland Terrain = "highland"
	TerrainLowland  Terrain = "lowland"
	TerrainWater    Terrain = "water"
)

// ActivityLevel is the physical effort a destination asks for.
type ActivityLevel string

const (
	ActivityRelaxed  ActivityLevel = "relaxed"
	ActivityModerate ActivityLevel = "moderate"
	ActivityExtreme  ActivityLevel = "extreme"
)

// TimeOfDay is the part of the day a visitor plans to go.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
)

// MaxPopularity is the upper bound of the popularity rating.
const MaxPopularity = 5.0

// Kabupaten lists the regencies (and the city of Denpasar) on Bali.
var Kabupaten = []string{
	"Badung", "Bangli", "Buleleng", "Gianyar", "Jembrana",
	"Karangasem", "Klungkung", "Tabanan", "Denpasar",
}

var terrainLabels = map[Terrain]string{
	TerrainHighland: "Dataran Tinggi",
	TerrainLowland:  "Dataran Rendah",
	TerrainWater:    "Perairan",
}

var activityLabels = map[ActivityLevel]string{
	ActivityRelaxed:  "Santai",
	ActivityModerate: "Sedang",
	ActivityExtreme:  "Ekstrem",
}

// ParseTerrain accepts the API codes as well as the Indonesian labels stored
// by older catalog imports.
func ParseTerrain(s string) (Terrain, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "highland", "dataran tinggi":
		return TerrainHighland, nil
	case "lowland", "dataran rendah":
		return TerrainLowland, nil
	case "water", "perairan":
		return TerrainWater, nil
	}
	return "", fmt.Errorf("unknown terrain type %q", s)
}

// ParseActivityLevel accepts the API codes and the Indonesian labels.
func ParseActivityLevel(s string) (ActivityLevel, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "relaxed", "santai", "rendah":
		return ActivityRelaxed, nil
	case "moderate", "sedang":
		return ActivityModerate, nil
	case "extreme", "ekstrem", "tinggi":
		return ActivityExtreme, nil
	}
	return "", fmt.Errorf("unknown activity level %q", s)
}

// ParseTimeOfDay validates a time-of-day code.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch TimeOfDay(strings.ToLower(strings.TrimSpace(s))) {
	case TimeMorning:
		return TimeMorning, nil
	case TimeAfternoon:
		return TimeAfternoon, nil
	case TimeEvening:
		return TimeEvening, nil
	}
	return "", fmt.Errorf("unknown time of day %q", s)
}

// Valid reports whether t is one of the three terrain codes.
func (t Terrain) Valid() bool {
	_, ok := terrainLabels[t]
	return ok
}

// Label returns the Indonesian display label.
func (t Terrain) Label() string {
	return terrainLabels[t]
}

// Valid reports whether a is one of the three activity codes.
func (a ActivityLevel) Valid() bool {
	_, ok := activityLabels[a]
	return ok
}

// Label returns the Indonesian display label.
func (a ActivityLevel) Label() string {
	return activityLabels[a]
}

// Rank places the level on the ordinal relaxed < moderate < extreme scale.
func (a ActivityLevel) Rank() int {
	switch a {
	case ActivityRelaxed:
		return 0
	case ActivityModerate:
		return 1
	case ActivityExtreme:
		return 2
	}
	return -1
}

// Destination is one catalog entry.
type Destination struct {
	Kode        string        `json:"kode"`
	Nama        string        `json:"nama"`
	Kabupaten   string        `json:"kabupaten"`
	Latitude    float64       `json:"lat"`
	Longitude   float64       `json:"lon"`
	Terrain     Terrain       `json:"tipe_dataran"`
	Activity    ActivityLevel `json:"tingkat_aktivitas"`
	Popularity  float64       `json:"popularity"`
	Kategori    string        `json:"kategori,omitempty"`
	Description string        `json:"description,omitempty"`
	ImageURL    string        `json:"image,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Validate checks the catalog invariants: a usable coordinate pair and
// exactly one terrain and activity value from the closed sets.
func (d Destination) Validate() error {
	if strings.TrimSpace(d.Kode) == "" {
		return fmt.Errorf("destination has empty kode")
	}
	if math.IsNaN(d.Latitude) || math.IsNaN(d.Longitude) ||
		d.Latitude < -90 || d.Latitude > 90 || d.Longitude < -180 || d.Longitude > 180 {
		return fmt.Errorf("destination %s has invalid coordinates (%v, %v)", d.Kode, d.Latitude, d.Longitude)
	}
	if !d.Terrain.Valid() {
		return fmt.Errorf("destination %s has invalid terrain %q", d.Kode, d.Terrain)
	}
	if !d.Activity.Valid() {
		return fmt.Errorf("destination %s has invalid activity level %q", d.Kode, d.Activity)
	}
	if math.IsNaN(d.Popularity) {
		return fmt.Errorf("destination %s has invalid popularity", d.Kode)
	}
	return nil
}

// Describe returns the stored description, or a generated one when the
// catalog has none.
func (d Destination) Describe() string {
	if d.Description != "" {
		return d.Description
	}
	var terrain, activity string
	switch d.Terrain {
	case TerrainHighland:
		terrain = " dengan pemandangan pegunungan yang menakjubkan"
	case TerrainLowland:
		terrain = " dengan suasana dataran rendah yang asri"
	case TerrainWater:
		terrain = " dengan keindahan perairan yang memukau"
	}
	switch d.Activity {
	case ActivityRelaxed:
		activity = "Cocok untuk bersantai dan menikmati keindahan alam."
	case ActivityModerate:
		activity = "Menawarkan aktivitas yang menyenangkan dengan tingkat kesulitan sedang."
	case ActivityExtreme:
		activity = "Menantang untuk para petualang dengan aktivitas ekstrem."
	}
	return strings.TrimSpace(fmt.Sprintf("%s adalah destinasi wisata di %s%s. %s", d.Nama, d.Kabupaten, terrain, activity))
}

// DestinationListResponse is the catalog listing shape.
type DestinationListResponse struct {
	Total        int           `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
	Destinations []Destination `json:"destinations"`
}

// DestinationListParams holds catalog listing filters.
type DestinationListParams struct {
	Kabupaten string
	Limit     int
	Offset    int
}

// Validate sets defaults.
func (p *DestinationListParams) Validate() {
	if p.Limit < 1 || p.Limit > 200 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	p.Kabupaten = strings.TrimSpace(p.Kabupaten)
}

// SyncResult summarises one catalog import.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
