package genetic

import (
	"math"
	"testing"

	"wisata-bali-recommender/internal/models"
)

func TestHaversineKm(t *testing.T) {
	kuta := models.GeoPoint{Lat: -8.7180, Lon: 115.1686}
	agung := models.GeoPoint{Lat: -8.3425, Lon: 115.5030}

	if d := HaversineKm(kuta, kuta); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	ab, ba := HaversineKm(kuta, agung), HaversineKm(agung, kuta)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
	// Kuta to Gunung Agung is roughly 55 km as the crow flies.
	if ab < 50 || ab > 60 {
		t.Errorf("Kuta to Agung = %.1f km, want about 55", ab)
	}
}

func TestHaversineKm_Antipodal(t *testing.T) {
	d := HaversineKm(models.GeoPoint{Lat: 0, Lon: 0}, models.GeoPoint{Lat: 0, Lon: 180})
	want := math.Pi * earthRadiusKm
	if math.Abs(d-want) > 1e-6 {
		t.Errorf("antipodal distance = %v, want %v", d, want)
	}
}
