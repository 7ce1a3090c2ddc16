package weather

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ForecastWindowDays is how far ahead a trip must start for a forecast to be fetched.
const ForecastWindowDays = 5

// HistoricalAverage is a coarse seasonal temperature range for a month.
type HistoricalAverage struct {
	Note    string
	Season  string
	AvgMinC int
	AvgMaxC int
}

var monthlyAverages = [12]HistoricalAverage{
	{Season: "Winter", AvgMinC: -2, AvgMaxC: 5},
	{Season: "Winter", AvgMinC: 0, AvgMaxC: 7},
	{Season: "Spring", AvgMinC: 3, AvgMaxC: 12},
	{Season: "Spring", AvgMinC: 7, AvgMaxC: 16},
	{Season: "Spring", AvgMinC: 11, AvgMaxC: 21},
	{Season: "Summer", AvgMinC: 15, AvgMaxC: 25},
	{Season: "Summer", AvgMinC: 17, AvgMaxC: 27},
	{Season: "Summer", AvgMinC: 17, AvgMaxC: 27},
	{Season: "Fall", AvgMinC: 13, AvgMaxC: 22},
	{Season: "Fall", AvgMinC: 9, AvgMaxC: 16},
	{Season: "Fall", AvgMinC: 4, AvgMaxC: 10},
	{Season: "Winter", AvgMinC: 0, AvgMaxC: 6},
}

// HistoricalAverageFor returns the Northern Hemisphere seasonal averages for a month.
func HistoricalAverageFor(month time.Month) HistoricalAverage {
	avg := monthlyAverages[month-1]
	avg.Note = "Historical averages based on seasonal patterns (Northern Hemisphere)"
	return avg
}

// Recommendations are packing and activity hints derived from current weather.
type Recommendations struct {
	Clothing    []string
	Activities  []string
	Precautions []string
}

// Recommend derives recommendations from temperature, conditions, wind and humidity.
func Recommend(cur *Current) Recommendations {
	r := Recommendations{Clothing: []string{}, Activities: []string{}, Precautions: []string{}}
	if cur == nil {
		return r
	}
	temp := cur.TemperatureC

	switch {
	case temp < 0:
		r.Clothing = append(r.Clothing, "Heavy winter coat", "Thermal underwear", "Gloves and warm hat", "Insulated boots")
		r.Activities = append(r.Activities, "Indoor activities recommended due to extreme cold")
		r.Precautions = append(r.Precautions, "Dress in layers to stay warm")
	case temp < 10:
		r.Clothing = append(r.Clothing, "Warm jacket", "Sweater or hoodie", "Long pants", "Closed-toe shoes")
		r.Activities = append(r.Activities, "Good for walking tours with warm clothing")
	case temp < 20:
		r.Clothing = append(r.Clothing, "Light jacket or cardigan", "Long sleeves recommended", "Comfortable walking shoes")
		r.Activities = append(r.Activities, "Perfect weather for sightseeing")
	default:
		r.Clothing = append(r.Clothing, "Light, breathable clothes", "Sunglasses", "Sun hat or cap", "Comfortable sandals or shoes")
		r.Activities = append(r.Activities, "Great weather for outdoor activities")
	}

	cond := cur.Condition
	if strings.Contains(cond, "Rain") || strings.Contains(cond, "rain") || strings.Contains(cond, "Drizzle") || strings.Contains(cond, "drizzle") {
		r.Clothing = append(r.Clothing, "Waterproof jacket or raincoat", "Umbrella", "Water-resistant shoes")
		r.Precautions = append(r.Precautions, "Plan for indoor alternatives")
		r.Activities = append(r.Activities, "Visit museums and indoor attractions")
	}
	if strings.Contains(cond, "Snow") || strings.Contains(cond, "snow") {
		r.Clothing = append(r.Clothing, "Waterproof boots with good grip", "Snow gear and warm accessories")
		r.Precautions = append(r.Precautions, "Roads may be slippery, walk carefully", "Check for weather-related closures")
	}
	if strings.Contains(cond, "Clear") || strings.Contains(cond, "Sunny") {
		if temp > 25 {
			r.Clothing = append(r.Clothing, "Sunscreen (SPF 30+)", "UV protection sunglasses", "Water bottle")
			r.Precautions = append(r.Precautions, "Stay hydrated", "Avoid prolonged sun exposure during peak hours (11am-3pm)")
		}
		r.Activities = append(r.Activities, "Perfect for outdoor adventures and exploring")
	}
	if strings.Contains(cond, "Cloud") || strings.Contains(cond, "cloud") {
		r.Activities = append(r.Activities, "Great lighting for photography")
	}

	if cur.WindKph > 10 {
		r.Precautions = append(r.Precautions, "Windy conditions, secure loose items and hats")
		r.Clothing = append(r.Clothing, "Windbreaker or wind-resistant jacket")
	}
	if cur.Humidity > 80 {
		r.Precautions = append(r.Precautions, "High humidity, pack moisture-wicking clothes")
		r.Clothing = append(r.Clothing, "Breathable, quick-dry fabrics")
	}
	if cur.Humidity < 30 {
		r.Precautions = append(r.Precautions, "Low humidity, bring lip balm and moisturizer")
	}
	return r
}

// TripWeather summarizes the weather outlook for a trip. Failures of the
// individual lookups are recorded on the result rather than returned.
type TripWeather struct {
	Destination   string
	Start         time.Time
	End           time.Time
	DaysUntilTrip int
	DurationDays  int

	Current    *Current
	CurrentErr error

	ForecastAvailable bool
	Forecast          *Forecast
	ForecastErr       error
	Message           string

	Historical      HistoricalAverage
	Recommendations *Recommendations
}

// TripWeather gathers current weather, a forecast when the trip starts within
// ForecastWindowDays of now, seasonal averages and recommendations.
func (c *Client) TripWeather(ctx context.Context, destination string, start, end, now time.Time) *TripWeather {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tw := &TripWeather{
		Destination:   destination,
		Start:         start,
		End:           end,
		DaysUntilTrip: int(start.Sub(today).Hours() / 24),
		DurationDays:  int(end.Sub(start).Hours()/24) + 1,
		Historical:    HistoricalAverageFor(start.Month()),
	}

	tw.Current, tw.CurrentErr = c.Current(ctx, destination)
	if tw.CurrentErr != nil {
		slog.Warn("Trip weather: current lookup failed", "destination", destination, "error", tw.CurrentErr)
	} else {
		rec := Recommend(tw.Current)
		tw.Recommendations = &rec
	}

	switch {
	case tw.DaysUntilTrip >= 0 && tw.DaysUntilTrip <= ForecastWindowDays:
		tw.Forecast, tw.ForecastErr = c.Forecast(ctx, destination, min(tw.DurationDays, ForecastWindowDays))
		tw.ForecastAvailable = tw.ForecastErr == nil
	case tw.DaysUntilTrip > ForecastWindowDays:
		tw.Message = "Forecast available up to 5 days in advance. Check back closer to your trip date."
	default:
		tw.Message = "Trip has already started."
	}
	return tw
}
