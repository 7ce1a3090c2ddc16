// Package weather fetches current conditions and forecasts from WeatherAPI.com
// and derives trip-level summaries from them.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the WeatherAPI.com v1 endpoint.
const DefaultBaseURL = "https://api.weatherapi.com/v1"

// MaxForecastDays is the longest forecast WeatherAPI.com serves.
const MaxForecastDays = 14

var (
	ErrNotConfigured    = errors.New("weather API key not configured")
	ErrInvalidAPIKey    = errors.New("invalid weather API key")
	ErrLocationNotFound = errors.New("location not found")
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

// Client calls the WeatherAPI.com REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Location identifies the place a response refers to.
type Location struct {
	City      string
	Region    string
	Country   string
	Latitude  float64
	Longitude float64
	Timezone  string
	LocalTime string
}

// Current is the weather right now at a location.
type Current struct {
	Location

	TemperatureC  float64
	FeelsLikeC    float64
	Condition     string
	ConditionCode int
	IconURL       string
	WindKph       float64
	WindDirection string
	WindDegree    int
	Humidity      int
	PressureMb    float64
	VisibilityKm  float64
	Clouds        int
	UVIndex       float64
	LastUpdated   string
	IsDay         bool
}

// Day is one day of a forecast.
type Day struct {
	Date          time.Time
	MinTempC      float64
	MaxTempC      float64
	AvgTempC      float64
	Condition     string
	ConditionCode int
	IconURL       string
	AvgHumidity   float64
	MaxWindKph    float64
	PrecipMm      float64
	SnowCm        float64
	ChanceOfRain  int
	ChanceOfSnow  int
	UVIndex       float64
	Sunrise       string
	Sunset        string
	MoonPhase     string
}

// Forecast is a daily forecast for a location.
type Forecast struct {
	Location
	Days []Day
}

// Current fetches the current weather for destination ("City" or "City, Country").
func (c *Client) Current(ctx context.Context, destination string) (*Current, error) {
	body, err := c.get(ctx, "current.json", url.Values{
		"q":   {destination},
		"aqi": {"no"},
	})
	if err != nil {
		return nil, err
	}

	cur := body.Get("current")
	return &Current{
		Location:      parseLocation(body.Get("location")),
		TemperatureC:  round1(cur.Get("temp_c").Float()),
		FeelsLikeC:    round1(cur.Get("feelslike_c").Float()),
		Condition:     cur.Get("condition.text").String(),
		ConditionCode: int(cur.Get("condition.code").Int()),
		IconURL:       iconURL(cur.Get("condition.icon").String()),
		WindKph:       cur.Get("wind_kph").Float(),
		WindDirection: cur.Get("wind_dir").String(),
		WindDegree:    int(cur.Get("wind_degree").Int()),
		Humidity:      int(cur.Get("humidity").Int()),
		PressureMb:    cur.Get("pressure_mb").Float(),
		VisibilityKm:  cur.Get("vis_km").Float(),
		Clouds:        int(cur.Get("cloud").Int()),
		UVIndex:       cur.Get("uv").Float(),
		LastUpdated:   cur.Get("last_updated").String(),
		IsDay:         cur.Get("is_day").Int() == 1,
	}, nil
}

// Forecast fetches a daily forecast. days is clamped to 1..MaxForecastDays.
func (c *Client) Forecast(ctx context.Context, destination string, days int) (*Forecast, error) {
	days = max(1, min(days, MaxForecastDays))
	body, err := c.get(ctx, "forecast.json", url.Values{
		"q":      {destination},
		"days":   {fmt.Sprint(days)},
		"aqi":    {"no"},
		"alerts": {"no"},
	})
	if err != nil {
		return nil, err
	}

	forecast := &Forecast{Location: parseLocation(body.Get("location"))}
	for _, fd := range body.Get("forecast.forecastday").Array() {
		date, err := time.Parse("2006-01-02", fd.Get("date").String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse forecast date: %w", err)
		}
		day := fd.Get("day")
		forecast.Days = append(forecast.Days, Day{
			Date:          date,
			MinTempC:      round1(day.Get("mintemp_c").Float()),
			MaxTempC:      round1(day.Get("maxtemp_c").Float()),
			AvgTempC:      round1(day.Get("avgtemp_c").Float()),
			Condition:     day.Get("condition.text").String(),
			ConditionCode: int(day.Get("condition.code").Int()),
			IconURL:       iconURL(day.Get("condition.icon").String()),
			AvgHumidity:   day.Get("avghumidity").Float(),
			MaxWindKph:    day.Get("maxwind_kph").Float(),
			PrecipMm:      day.Get("totalprecip_mm").Float(),
			SnowCm:        day.Get("totalsnow_cm").Float(),
			ChanceOfRain:  int(day.Get("daily_chance_of_rain").Int()),
			ChanceOfSnow:  int(day.Get("daily_chance_of_snow").Int()),
			UVIndex:       day.Get("uv").Float(),
			Sunrise:       fd.Get("astro.sunrise").String(),
			Sunset:        fd.Get("astro.sunset").String(),
			MoonPhase:     fd.Get("astro.moon_phase").String(),
		})
	}
	return forecast, nil
}

// get calls an endpoint and returns the parsed JSON body.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (gjson.Result, error) {
	if !c.Configured() {
		return gjson.Result{}, ErrNotConfigured
	}
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to build weather request: %w", err)
	}

	slog.Debug("Fetching weather", "endpoint", endpoint, "q", params.Get("q"))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to reach weather service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusUnauthorized:
		return gjson.Result{}, ErrInvalidAPIKey
	case http.StatusBadRequest:
		return gjson.Result{}, fmt.Errorf("%w: %q", ErrLocationNotFound, params.Get("q"))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read weather response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error.message").String()
		return gjson.Result{}, fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, errors.New("weather API returned invalid JSON")
	}
	return gjson.ParseBytes(data), nil
}

func parseLocation(loc gjson.Result) Location {
	return Location{
		City:      loc.Get("name").String(),
		Region:    loc.Get("region").String(),
		Country:   loc.Get("country").String(),
		Latitude:  loc.Get("lat").Float(),
		Longitude: loc.Get("lon").Float(),
		Timezone:  loc.Get("tz_id").String(),
		LocalTime: loc.Get("localtime").String(),
	}
}

// iconURL turns the protocol-relative icon path into an https URL.
func iconURL(icon string) string {
	if icon == "" || strings.HasPrefix(icon, "http") {
		return icon
	}
	return "https:" + icon
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
