// Package places talks to the place data providers: Geoapify for the
// destination catalog and Foursquare for photos.
package places

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"wisata-bali-recommender/internal/models"
)

const (
	// BaliRect is the bounding box of the island as lon1,lat1,lon2,lat2.
	BaliRect       = "rect:114.432,-9.135,115.712,-8.045"
	baliCategories = "natural,tourism.sights"
	pageSize       = 500
	maxPages       = 10
)

// GeoapifyClient is the Geoapify Places API client.
type GeoapifyClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewGeoapifyClient creates a new Geoapify client.
func NewGeoapifyClient(apiKey, baseURL string) *GeoapifyClient {
	return &GeoapifyClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Configured reports whether an API key is set.
func (c *GeoapifyClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

// FeatureCollection is the Places API response.
type FeatureCollection struct {
	Features []Feature `json:"features"`
}

// Feature is one place.
type Feature struct {
	Properties PlaceProperties `json:"properties"`
	Geometry   struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
}

// PlaceProperties are the place attributes we read.
type PlaceProperties struct {
	PlaceID    string   `json:"place_id"`
	Name       string   `json:"name"`
	County     string   `json:"county"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Categories []string `json:"categories"`
	Formatted  string   `json:"formatted"`
}

// FetchBali pages through every natural and sightseeing place on Bali.
func (c *GeoapifyClient) FetchBali(ctx context.Context) ([]Feature, error) {
	var all []Feature
	for page := 0; page < maxPages; page++ {
		q := url.Values{}
		q.Set("categories", baliCategories)
		q.Set("filter", BaliRect)
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(page*pageSize))
		q.Set("apiKey", c.apiKey)

		slog.Debug("fetching Geoapify places", "offset", page*pageSize)
		var fc FeatureCollection
		if err := c.getJSON(ctx, c.baseURL+"/v2/places?"+q.Encode(), &fc); err != nil {
			return nil, err
		}
		all = append(all, fc.Features...)
		if len(fc.Features) < pageSize {
			break
		}
	}
	return all, nil
}

func (c *GeoapifyClient) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Geoapify API returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode places response: %w", err)
	}
	return nil
}

// ToDestination converts a place into a catalog entry. It returns false for
// unnamed places and places outside the nine kabupaten.
func (f Feature) ToDestination() (models.Destination, bool) {
	p := f.Properties
	name := strings.TrimSpace(p.Name)
	if name == "" || p.PlaceID == "" {
		return models.Destination{}, false
	}
	kab, ok := Kabupaten(p.County)
	if !ok {
		return models.Destination{}, false
	}
	lat, lon := p.Lat, p.Lon
	if len(f.Geometry.Coordinates) >= 2 {
		lon, lat = f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	}
	kode := p.PlaceID
	if len(kode) > 16 {
		kode = kode[:16]
	}
	return models.Destination{
		Kode:      "GEO-" + kode,
		Nama:      name,
		Kabupaten: kab,
		Latitude:  lat,
		Longitude: lon,
		Terrain:   ClassifyTerrain(p.Categories),
		Activity:  ClassifyActivity(p.Categories),
		Kategori:  strings.Join(p.Categories, ","),
	}, true
}
