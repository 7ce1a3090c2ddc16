package api

type CurrentWeather struct {
	City          string  `json:"city"`
	Region        string  `json:"region,omitempty"`
	Country       string  `json:"country"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Timezone      string  `json:"timezone,omitempty"`
	LocalTime     string  `json:"local_time,omitempty"`
	TemperatureC  float64 `json:"temperature_c"`
	FeelsLikeC    float64 `json:"feels_like_c"`
	Condition     string  `json:"condition"`
	ConditionCode int     `json:"condition_code,omitempty"`
	IconURL       string  `json:"icon_url,omitempty"`
	WindKph       float64 `json:"wind_kph"`
	WindDirection string  `json:"wind_direction,omitempty"`
	WindDegree    int     `json:"wind_degree,omitempty"`
	Humidity      int     `json:"humidity"`
	PressureMb    float64 `json:"pressure_mb,omitempty"`
	VisibilityKm  float64 `json:"visibility_km,omitempty"`
	Clouds        int     `json:"clouds,omitempty"`
	UVIndex       float64 `json:"uv_index,omitempty"`
	LastUpdated   string  `json:"last_updated,omitempty"`
	IsDay         bool    `json:"is_day"`
}

type ForecastDay struct {
	Date          string  `json:"date"`
	DayName       string  `json:"day_name"`
	MinTempC      float64 `json:"min_temp_c"`
	MaxTempC      float64 `json:"max_temp_c"`
	AvgTempC      float64 `json:"avg_temp_c"`
	Condition     string  `json:"condition"`
	ConditionCode int     `json:"condition_code,omitempty"`
	IconURL       string  `json:"icon_url,omitempty"`
	AvgHumidity   float64 `json:"avg_humidity"`
	MaxWindKph    float64 `json:"max_wind_kph"`
	PrecipMm      float64 `json:"precip_mm"`
	SnowCm        float64 `json:"snow_cm"`
	ChanceOfRain  int     `json:"chance_of_rain"`
	ChanceOfSnow  int     `json:"chance_of_snow"`
	UVIndex       float64 `json:"uv_index,omitempty"`
	Sunrise       string  `json:"sunrise,omitempty"`
	Sunset        string  `json:"sunset,omitempty"`
	MoonPhase     string  `json:"moon_phase,omitempty"`
}

type Forecast struct {
	City    string         `json:"city"`
	Region  string         `json:"region,omitempty"`
	Country string         `json:"country"`
	Days    []*ForecastDay `json:"days"`
}

type HistoricalAverage struct {
	Note    string `json:"note"`
	Season  string `json:"season"`
	AvgMinC int    `json:"avg_min_c"`
	AvgMaxC int    `json:"avg_max_c"`
}

type Recommendations struct {
	Clothing    []string `json:"clothing"`
	Activities  []string `json:"activities"`
	Precautions []string `json:"precautions"`
}

type TripWeather struct {
	Destination       string             `json:"destination"`
	TripStart         string             `json:"trip_start"`
	TripEnd           string             `json:"trip_end"`
	DaysUntilTrip     int                `json:"days_until_trip"`
	TripDuration      int                `json:"trip_duration"`
	Current           *CurrentWeather    `json:"current,omitempty"`
	CurrentError      string             `json:"current_error,omitempty"`
	ForecastAvailable bool               `json:"forecast_available"`
	Forecast          *Forecast          `json:"forecast,omitempty"`
	ForecastError     string             `json:"forecast_error,omitempty"`
	Message           string             `json:"message,omitempty"`
	HistoricalAverage *HistoricalAverage `json:"historical_average"`
	Recommendations   *Recommendations   `json:"recommendations,omitempty"`
}

type GetCurrentWeatherRequest struct {
	Destination string `json:"destination"`
}

type GetCurrentWeatherResponse struct {
	Weather *CurrentWeather `json:"weather"`
}

type GetForecastRequest struct {
	Destination string `json:"destination"`

	// Days defaults to 5 and is capped at 14.
	Days int `json:"days,omitempty"`
}

type GetForecastResponse struct {
	Forecast *Forecast `json:"forecast"`
}

type GetTripWeatherRequest struct {
	TripID string `json:"trip_id"`
}

type GetTripWeatherResponse struct {
	Weather *TripWeather `json:"weather"`
}
