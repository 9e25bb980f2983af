package models

import (
	"errors"
	"strings"
	"testing"
)

func TestParseTerrain(t *testing.T) {
	tests := map[string]Terrain{
		"highland":        TerrainHighland,
		" Dataran Tinggi": TerrainHighland,
		"LOWLAND":         TerrainLowland,
		"perairan":        TerrainWater,
	}
	for in, want := range tests {
		got, err := ParseTerrain(in)
		if err != nil || got != want {
			t.Errorf("ParseTerrain(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseTerrain("coastal"); err == nil {
		t.Error("ParseTerrain(coastal) should fail")
	}
}

func TestParseActivityLevel(t *testing.T) {
	for in, want := range map[string]ActivityLevel{"Santai": ActivityRelaxed, "sedang": ActivityModerate, "extreme": ActivityExtreme} {
		got, err := ParseActivityLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseActivityLevel(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}

func TestDestinationValidate(t *testing.T) {
	ok := Destination{Kode: "D1", Latitude: -8.7, Longitude: 115.2, Terrain: TerrainWater, Activity: ActivityRelaxed}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid destination rejected: %v", err)
	}

	bad := ok
	bad.Terrain = "coastal"
	if err := bad.Validate(); err == nil {
		t.Error("unknown terrain accepted")
	}
	bad = ok
	bad.Latitude = 91
	if err := bad.Validate(); err == nil {
		t.Error("latitude 91 accepted")
	}
	bad = ok
	bad.Kode = " "
	if err := bad.Validate(); err == nil {
		t.Error("blank kode accepted")
	}
}

func TestDestinationDescribe(t *testing.T) {
	d := Destination{Nama: "Pantai Kuta", Kabupaten: "Badung", Terrain: TerrainWater, Activity: ActivityModerate}
	got := d.Describe()
	if !strings.HasPrefix(got, "Pantai Kuta adalah destinasi wisata di Badung") || !strings.Contains(got, "perairan") {
		t.Errorf("unexpected generated description %q", got)
	}
	d.Description = "Pantai berpasir putih."
	if got := d.Describe(); got != d.Description {
		t.Errorf("Describe() = %q, want stored description", got)
	}
}

func TestRecommendRequestProfile(t *testing.T) {
	lat, lon := -8.65, 115.2167
	p, err := RecommendRequest{
		District:      " Badung ",
		TerrainType:   "water",
		TimeOfDay:     "evening",
		ActivityLevel: "relaxed",
		Latitude:      &lat,
		Longitude:     &lon,
	}.Profile()
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.District != "Badung" || p.Location == nil || p.Location.Lat != lat {
		t.Errorf("unexpected profile %+v", p)
	}

	_, err = RecommendRequest{TerrainType: "water", TimeOfDay: "evening", ActivityLevel: "relaxed", Latitude: &lat}.Profile()
	if !errors.Is(err, ErrInvalidPreference) {
		t.Errorf("lone latitude: err = %v, want ErrInvalidPreference", err)
	}
	_, err = RecommendRequest{TerrainType: "water", TimeOfDay: "night", ActivityLevel: "relaxed"}.Profile()
	if !errors.Is(err, ErrInvalidPreference) {
		t.Errorf("time of day night: err = %v, want ErrInvalidPreference", err)
	}
}

func TestDestinationListParamsDefaults(t *testing.T) {
	p := DestinationListParams{Limit: 1000, Offset: -3, Kabupaten: " Gianyar "}
	p.Validate()
	if p.Limit != 50 || p.Offset != 0 || p.Kabupaten != "Gianyar" {
		t.Errorf("unexpected params %+v", p)
	}
}
