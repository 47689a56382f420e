package weather

import "time"

// Coordinate is a WGS84 point, immutable once captured for a request.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies in the usual ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Condition is the coarse weather category OpenWeatherMap reports in
// weather[0].main.
type Condition string

const (
	Clear        Condition = "Clear"
	Clouds       Condition = "Clouds"
	Rain         Condition = "Rain"
	Drizzle      Condition = "Drizzle"
	Thunderstorm Condition = "Thunderstorm"
	Snow         Condition = "Snow"
	// Atmosphere covers the haze family: Mist, Smoke, Haze, Fog.
	Atmosphere Condition = "Atmosphere"
	Other      Condition = "Other"
)

// ParseCondition maps the service's main-group string onto a Condition.
func ParseCondition(main string) Condition {
	switch main {
	case "Clear", "Clouds", "Rain", "Drizzle", "Thunderstorm", "Snow":
		return Condition(main)
	case "Mist", "Smoke", "Haze", "Fog":
		return Atmosphere
	default:
		return Other
	}
}

// Current holds the current conditions for a coordinate. Temperatures are
// Celsius, wind is m/s, visibility is meters.
type Current struct {
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Pressure    int       `json:"pressure"`
	Humidity    int       `json:"humidity"`
	Visibility  int       `json:"visibility"`
	WindSpeed   float64   `json:"wind_speed"`
	WindDeg     float64   `json:"wind_deg"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
}

// Sample is one 3-hourly forecast point.
type Sample struct {
	Time      time.Time `json:"time"`
	Temp      float64   `json:"temp"`
	TempMin   float64   `json:"temp_min"`
	TempMax   float64   `json:"temp_max"`
	Condition Condition `json:"condition"`
}

// AirQuality is the latest air-quality sample. Index is the service's
// ordinal 1..5 scale, concentrations are µg/m³.
type AirQuality struct {
	Index int     `json:"index"`
	PM25  float64 `json:"pm2_5"`
	PM10  float64 `json:"pm10"`
	O3    float64 `json:"o3"`
	NO2   float64 `json:"no2"`
	SO2   float64 `json:"so2"`
	CO    float64 `json:"co"`
}

// Bundle is the set of resources fetched for one coordinate. Air is nil
// when the air-quality call failed; renderers must show "unavailable",
// never zero.
type Bundle struct {
	Current   Current     `json:"current"`
	Samples   []Sample    `json:"samples"`
	Air       *AirQuality `json:"air,omitempty"`
	FetchedAt time.Time   `json:"fetched_at"`
}
