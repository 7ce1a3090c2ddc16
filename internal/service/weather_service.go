package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripwiser/internal/models"
	"github.com/mmynk/tripwiser/internal/rpc"
	"github.com/mmynk/tripwiser/internal/storage"
	"github.com/mmynk/tripwiser/internal/weather"
	"github.com/mmynk/tripwiser/pkg/api"
)

const defaultForecastDays = 5

// WeatherService implements the Connect WeatherService on top of a
// WeatherAPI.com client.
type WeatherService struct {
	store  storage.Store
	client *weather.Client
	now    func() time.Time
}

// NewWeatherService creates a WeatherService. Trips are read from store.
func NewWeatherService(store storage.Store, client *weather.Client) *WeatherService {
	return &WeatherService{store: store, client: client, now: time.Now}
}

// Handler returns the mount path and handler serving this service.
func (s *WeatherService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	m := rpc.NewServiceMux(api.WeatherServiceName, opts...)
	rpc.Handle(m, "GetCurrentWeather", s.GetCurrentWeather)
	rpc.Handle(m, "GetForecast", s.GetForecast)
	rpc.Handle(m, "GetTripWeather", s.GetTripWeather)
	return m.Handler()
}

// GetCurrentWeather returns the weather right now at a destination.
func (s *WeatherService) GetCurrentWeather(ctx context.Context, req *connect.Request[api.GetCurrentWeatherRequest]) (*connect.Response[api.GetCurrentWeatherResponse], error) {
	dest := strings.TrimSpace(req.Msg.Destination)
	slog.Info("GetCurrentWeather request received", "destination", dest)

	if dest == "" {
		return nil, invalidArgument("destination required")
	}
	cur, err := s.client.Current(ctx, dest)
	if err != nil {
		slog.Error("GetCurrentWeather failed", "destination", dest, "error", err)
		return nil, weatherError(err)
	}
	return connect.NewResponse(&api.GetCurrentWeatherResponse{Weather: currentToAPI(cur)}), nil
}

// GetForecast returns a daily forecast; days defaults to 5.
func (s *WeatherService) GetForecast(ctx context.Context, req *connect.Request[api.GetForecastRequest]) (*connect.Response[api.GetForecastResponse], error) {
	dest := strings.TrimSpace(req.Msg.Destination)
	days := req.Msg.Days
	if days == 0 {
		days = defaultForecastDays
	}
	slog.Info("GetForecast request received", "destination", dest, "days", days)

	if dest == "" {
		return nil, invalidArgument("destination required")
	}
	if days < 0 {
		return nil, invalidArgument("days cannot be negative")
	}
	f, err := s.client.Forecast(ctx, dest, days)
	if err != nil {
		slog.Error("GetForecast failed", "destination", dest, "error", err)
		return nil, weatherError(err)
	}
	return connect.NewResponse(&api.GetForecastResponse{Forecast: forecastToAPI(f)}), nil
}

// GetTripWeather summarises the weather outlook for a trip's destination and
// dates. Lookup failures are reported in the result, not as errors.
func (s *WeatherService) GetTripWeather(ctx context.Context, req *connect.Request[api.GetTripWeatherRequest]) (*connect.Response[api.GetTripWeatherResponse], error) {
	slog.Info("GetTripWeather request received", "trip_id", req.Msg.TripID)

	trip, _, err := authorizeTrip(ctx, s.store, req.Msg.TripID, models.RoleViewer)
	if err != nil {
		return nil, err
	}
	if !s.client.Configured() {
		return nil, weatherError(weather.ErrNotConfigured)
	}

	tw := s.client.TripWeather(ctx, trip.Destination, trip.StartDate, trip.EndDate, s.now())
	out := &api.TripWeather{
		Destination:       tw.Destination,
		TripStart:         models.FormatDate(tw.Start),
		TripEnd:           models.FormatDate(tw.End),
		DaysUntilTrip:     tw.DaysUntilTrip,
		TripDuration:      tw.DurationDays,
		ForecastAvailable: tw.ForecastAvailable,
		Message:           tw.Message,
		HistoricalAverage: &api.HistoricalAverage{
			Note:    tw.Historical.Note,
			Season:  tw.Historical.Season,
			AvgMinC: tw.Historical.AvgMinC,
			AvgMaxC: tw.Historical.AvgMaxC,
		},
	}
	if tw.Current != nil {
		out.Current = currentToAPI(tw.Current)
	}
	if tw.CurrentErr != nil {
		out.CurrentError = tw.CurrentErr.Error()
	}
	if tw.Forecast != nil {
		out.Forecast = forecastToAPI(tw.Forecast)
	}
	if tw.ForecastErr != nil {
		out.ForecastError = tw.ForecastErr.Error()
	}
	if r := tw.Recommendations; r != nil {
		out.Recommendations = &api.Recommendations{
			Clothing:    r.Clothing,
			Activities:  r.Activities,
			Precautions: r.Precautions,
		}
	}

	slog.Info("GetTripWeather successful",
		"trip_id", trip.ID,
		"days_until_trip", tw.DaysUntilTrip,
		"forecast_available", tw.ForecastAvailable,
	)

	return connect.NewResponse(&api.GetTripWeatherResponse{Weather: out}), nil
}

// weatherError maps weather client errors to Connect codes.
func weatherError(err error) error {
	switch {
	case errors.Is(err, weather.ErrNotConfigured), errors.Is(err, weather.ErrInvalidAPIKey):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, weather.ErrLocationNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeUnavailable, err)
}

func currentToAPI(c *weather.Current) *api.CurrentWeather {
	return &api.CurrentWeather{
		City:          c.City,
		Region:        c.Region,
		Country:       c.Country,
		Latitude:      c.Latitude,
		Longitude:     c.Longitude,
		Timezone:      c.Timezone,
		LocalTime:     c.LocalTime,
		TemperatureC:  c.TemperatureC,
		FeelsLikeC:    c.FeelsLikeC,
		Condition:     c.Condition,
		ConditionCode: c.ConditionCode,
		IconURL:       c.IconURL,
		WindKph:       c.WindKph,
		WindDirection: c.WindDirection,
		WindDegree:    c.WindDegree,
		Humidity:      c.Humidity,
		PressureMb:    c.PressureMb,
		VisibilityKm:  c.VisibilityKm,
		Clouds:        c.Clouds,
		UVIndex:       c.UVIndex,
		LastUpdated:   c.LastUpdated,
		IsDay:         c.IsDay,
	}
}

func forecastToAPI(f *weather.Forecast) *api.Forecast {
	out := &api.Forecast{
		City:    f.City,
		Region:  f.Region,
		Country: f.Country,
		Days:    make([]*api.ForecastDay, len(f.Days)),
	}
	for i, d := range f.Days {
		out.Days[i] = &api.ForecastDay{
			Date:          models.FormatDate(d.Date),
			DayName:       d.Date.Weekday().String(),
			MinTempC:      d.MinTempC,
			MaxTempC:      d.MaxTempC,
			AvgTempC:      d.AvgTempC,
			Condition:     d.Condition,
			ConditionCode: d.ConditionCode,
			IconURL:       d.IconURL,
			AvgHumidity:   d.AvgHumidity,
			MaxWindKph:    d.MaxWindKph,
			PrecipMm:      d.PrecipMm,
			SnowCm:        d.SnowCm,
			ChanceOfRain:  d.ChanceOfRain,
			ChanceOfSnow:  d.ChanceOfSnow,
			UVIndex:       d.UVIndex,
			Sunrise:       d.Sunrise,
			Sunset:        d.Sunset,
			MoonPhase:     d.MoonPhase,
		}
	}
	return out
}
