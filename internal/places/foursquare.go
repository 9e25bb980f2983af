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
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"wisata-bali-recommender/internal/models"
)

// FallbackImage is used when no photo can be found for a destination.
func FallbackImage(t models.Terrain) string {
	return "https://source.unsplash.com/featured/?bali," + url.QueryEscape(string(t))
}

// PhotoClient finds a photo for a destination on Foursquare.
type PhotoClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

// NewPhotoClient creates a Foursquare client. Without an API key every
// lookup returns the fallback image.
func NewPhotoClient(apiKey, baseURL string) *PhotoClient {
	return &PhotoClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "foursquare",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// ImageURL returns a photo URL for d, or FallbackImage on any failure.
func (c *PhotoClient) ImageURL(ctx context.Context, d models.Destination) string {
	if d.ImageURL != "" {
		return d.ImageURL
	}
	if c == nil || c.apiKey == "" {
		return FallbackImage(d.Terrain)
	}
	u, err := c.breaker.Execute(func() (string, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		return c.lookup(ctx, d)
	})
	if err != nil || u == "" {
		if err != nil {
			slog.Debug("foursquare photo lookup failed", "kode", d.Kode, "error", err)
		}
		return FallbackImage(d.Terrain)
	}
	return u
}

type searchResponse struct {
	Results []struct {
		FsqID string `json:"fsq_id"`
	} `json:"results"`
}

type photo struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// lookup returns "" without error when the place or photo does not exist.
func (c *PhotoClient) lookup(ctx context.Context, d models.Destination) (string, error) {
	q := url.Values{}
	q.Set("query", d.Nama)
	q.Set("ll", strconv.FormatFloat(d.Latitude, 'f', -1, 64)+","+strconv.FormatFloat(d.Longitude, 'f', -1, 64))
	q.Set("limit", "1")

	var search searchResponse
	if err := c.getJSON(ctx, c.baseURL+"/v3/places/search?"+q.Encode(), &search); err != nil {
		return "", err
	}
	if len(search.Results) == 0 || search.Results[0].FsqID == "" {
		return "", nil
	}

	var photos []photo
	if err := c.getJSON(ctx, c.baseURL+"/v3/places/"+url.PathEscape(search.Results[0].FsqID)+"/photos", &photos); err != nil {
		return "", err
	}
	if len(photos) == 0 || photos[0].Prefix == "" || photos[0].Suffix == "" {
		return "", nil
	}
	return photos[0].Prefix + "original" + photos[0].Suffix, nil
}

func (c *PhotoClient) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Foursquare API returned status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
