// Package weather looks up the forecast for a destination at the visitor's
// chosen time of day using the Open-Meteo API.
package weather

import (
	"context"
	"errors"
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

// Conditions reported to users.
const (
	ConditionClear  = "Cerah"
	ConditionCloudy = "Berawan"
	ConditionRain   = "Hujan"
)

// Forecast is the weather at one place for one time of day.
type Forecast struct {
	TimeOfDay   models.TimeOfDay
	Condition   string
	Temperature float64
	// Estimated is set when the value comes from Estimate rather than the API.
	Estimated bool
}

// String formats the forecast as shown on result cards, e.g. "Cerah, 28°C".
func (f Forecast) String() string {
	return fmt.Sprintf("%s, %s°C", f.Condition, strconv.FormatFloat(f.Temperature, 'f', -1, 64))
}

// Client is the Open-Meteo forecast client.
type Client struct {
	baseURL  string
	timezone string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[*Forecast]
}

// NewClient creates a client that sends at most rps requests per second.
func NewClient(baseURL, timezone string, rps float64) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timezone: timezone,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker: gobreaker.NewCircuitBreaker[*Forecast](gobreaker.Settings{
			Name:        "open-meteo",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

type forecastResponse struct {
	Hourly struct {
		Time        []string  `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
		WeatherCode []int     `json:"weathercode"`
	} `json:"hourly"`
}

// Forecast returns today's forecast at p for the hour matching tod
// (06:00, 12:00 or 18:00 local time).
func (c *Client) Forecast(ctx context.Context, p models.GeoPoint, tod models.TimeOfDay) (*Forecast, error) {
	hour, err := hourFor(tod)
	if err != nil {
		return nil, err
	}
	return c.breaker.Execute(func() (*Forecast, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		return c.fetch(ctx, p, tod, hour)
	})
}

// ForecastOrEstimate returns the API forecast, or Estimate when the lookup
// fails for any reason.
func (c *Client) ForecastOrEstimate(ctx context.Context, p models.GeoPoint, tod models.TimeOfDay) Forecast {
	f, err := c.Forecast(ctx, p, tod)
	if err != nil {
		slog.Warn("weather lookup failed, using estimate", "lat", p.Lat, "lon", p.Lon, "error", err)
		return Estimate(p, tod)
	}
	return *f
}

func (c *Client) fetch(ctx context.Context, p models.GeoPoint, tod models.TimeOfDay, hour string) (*Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(p.Lon, 'f', 4, 64))
	q.Set("hourly", "temperature_2m,weathercode")
	q.Set("timezone", c.timezone)
	q.Set("forecast_days", "1")
	u := c.baseURL + "/v1/forecast?" + q.Encode()

	slog.Debug("fetching forecast", "lat", p.Lat, "lon", p.Lon, "time_of_day", tod)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Open-Meteo returned status %d: %s", resp.StatusCode, string(body))
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("failed to decode forecast: %w", err)
	}
	h := fr.Hourly
	for i, ts := range h.Time {
		if !strings.HasSuffix(ts, "T"+hour) {
			continue
		}
		if i >= len(h.Temperature) || i >= len(h.WeatherCode) {
			break
		}
		return &Forecast{
			TimeOfDay:   tod,
			Condition:   Condition(h.WeatherCode[i]),
			Temperature: h.Temperature[i],
		}, nil
	}
	return nil, errors.New("forecast has no entry for " + hour)
}

// Condition maps a WMO weather code to the reported condition.
func Condition(code int) string {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	}
	return ConditionRain
}

func hourFor(tod models.TimeOfDay) (string, error) {
	switch tod {
	case models.TimeMorning:
		return "06:00", nil
	case models.TimeAfternoon:
		return "12:00", nil
	case models.TimeEvening:
		return "18:00", nil
	}
	return "", fmt.Errorf("unknown time of day %q", tod)
}

// Estimate is a deterministic stand-in used when no forecast is available:
// a base temperature for the time of day plus a small offset derived from
// the coordinates.
func Estimate(p models.GeoPoint, tod models.TimeOfDay) Forecast {
	base := 25.0
	switch tod {
	case models.TimeMorning:
		base = 22
	case models.TimeAfternoon:
		base = 28
	}
	offset := int((p.Lat+p.Lon)*10) % 5
	if offset < 0 {
		offset += 5
	}
	return Forecast{
		TimeOfDay:   tod,
		Condition:   ConditionClear,
		Temperature: base + float64(offset),
		Estimated:   true,
	}
}
