package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wisata-bali-recommender/internal/models"
)

func TestClassifyTerrain(t *testing.T) {
	tests := []struct {
		categories []string
		want       models.Terrain
	}{
		{[]string{"natural", "natural.mountain", "natural.mountain.peak"}, models.TerrainHighland},
		{[]string{"leisure", "leisure.park"}, models.TerrainLowland},
		{[]string{"natural", "natural.water"}, models.TerrainWater},
		{[]string{"tourism", "tourism.sights", "tourism.sights.place_of_worship.temple"}, models.TerrainLowland},
	}
	for _, tt := range tests {
		if got := ClassifyTerrain(tt.categories); got != tt.want {
			t.Errorf("ClassifyTerrain(%v) = %s, want %s", tt.categories, got, tt.want)
		}
	}
}

func TestClassifyActivity(t *testing.T) {
	tests := []struct {
		categories []string
		want       models.ActivityLevel
	}{
		{[]string{"tourism.sights.place_of_worship.temple"}, models.ActivityRelaxed},
		{[]string{"natural.forest"}, models.ActivityModerate},
		{[]string{"natural.mountain.peak"}, models.ActivityExtreme},
		{[]string{"beach"}, models.ActivityRelaxed},
	}
	for _, tt := range tests {
		if got := ClassifyActivity(tt.categories); got != tt.want {
			t.Errorf("ClassifyActivity(%v) = %s, want %s", tt.categories, got, tt.want)
		}
	}
}

func TestKabupaten(t *testing.T) {
	if k, ok := Kabupaten("Klungkung Regency"); !ok || k != "Klungkung" {
		t.Errorf("Kabupaten(Klungkung Regency) = %q, %v", k, ok)
	}
	if _, ok := Kabupaten("Lombok Barat"); ok {
		t.Error("county outside Bali accepted")
	}
}

const placesPage = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {
        "place_id": "51a3e7c9d8f1a2b3c4d5e6f708192a3b",
        "name": "Gunung Batur",
        "county": "Bangli",
        "lat": -8.2424,
        "lon": 115.3754,
        "categories": ["natural", "natural.mountain", "natural.mountain.peak"]
      },
      "geometry": {"type": "Point", "coordinates": [115.3754, -8.2424]}
    },
    {
      "type": "Feature",
      "properties": {"place_id": "aa", "name": "Gili Trawangan", "county": "Lombok Utara", "categories": ["beach"]},
      "geometry": {"type": "Point", "coordinates": [116.03, -8.35]}
    }
  ]
}`

func TestGeoapifyFetchBali(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/v2/places" || q.Get("filter") != BaliRect || q.Get("apiKey") != "key" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(placesPage))
	}))
	defer srv.Close()

	c := NewGeoapifyClient("key", srv.URL)
	features, err := c.FetchBali(context.Background())
	if err != nil {
		t.Fatalf("FetchBali: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("got %d features, want 2", len(features))
	}

	d, ok := features[0].ToDestination()
	if !ok {
		t.Fatal("Gunung Batur rejected")
	}
	if d.Kode != "GEO-51a3e7c9d8f1a2b3" || d.Kabupaten != "Bangli" || d.Terrain != models.TerrainHighland || d.Activity != models.ActivityExtreme {
		t.Errorf("unexpected destination %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("converted destination invalid: %v", err)
	}
	if _, ok := features[1].ToDestination(); ok {
		t.Error("place outside Bali accepted")
	}
}

func TestPhotoClient_ImageURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "fsq-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/v3/places/search" && r.URL.Query().Get("query") == "Pantai Kuta":
			_, _ = w.Write([]byte(`{"results":[{"fsq_id":"4b0588"}]}`))
		case r.URL.Path == "/v3/places/search":
			_, _ = w.Write([]byte(`{"results":[]}`))
		case r.URL.Path == "/v3/places/4b0588/photos":
			_, _ = w.Write([]byte(`[{"prefix":"https://fastly.4sqi.net/img/general/","suffix":"/kuta.jpg"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewPhotoClient("fsq-key", srv.URL)
	kuta := models.Destination{Kode: "BALI-001", Nama: "Pantai Kuta", Latitude: -8.718, Longitude: 115.1686, Terrain: models.TerrainLowland}
	if got := c.ImageURL(context.Background(), kuta); got != "https://fastly.4sqi.net/img/general/original/kuta.jpg" {
		t.Errorf("ImageURL = %q", got)
	}

	unknown := models.Destination{Kode: "X", Nama: "Nowhere", Terrain: models.TerrainWater}
	if got := c.ImageURL(context.Background(), unknown); got != FallbackImage(models.TerrainWater) {
		t.Errorf("ImageURL(unknown) = %q, want fallback", got)
	}
}

func TestPhotoClient_NoKey(t *testing.T) {
	c := NewPhotoClient("", "http://127.0.0.1:1")
	got := c.ImageURL(context.Background(), models.Destination{Terrain: models.TerrainHighland})
	if !strings.HasSuffix(got, "?bali,highland") {
		t.Errorf("ImageURL without key = %q, want fallback", got)
	}
}
