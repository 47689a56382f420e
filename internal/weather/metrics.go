package weather

import (
	"math"
	"time"
)

var compassPoints = [16]string{
	"North", "North-Northeast", "Northeast", "East-Northeast",
	"East", "East-Southeast", "Southeast", "South-Southeast",
	"South", "South-Southwest", "Southwest", "West-Southwest",
	"West", "West-Northwest", "Northwest", "North-Northwest",
}

// WindDirection maps degrees onto the 16-point compass rose. Each sector
// spans 22.5° centered on its point, so 359° wraps back to North.
func WindDirection(degrees float64) string {
	idx := int(math.Round(degrees/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// Level is a labelled severity band with a presentation color.
type Level struct {
	Label    string `json:"label"`
	Color    string `json:"color"`
	Advisory string `json:"advisory,omitempty"`
}

var aqiLevels = []Level{
	{Label: "Good", Color: "#27ae60"},
	{Label: "Fair", Color: "#f39c12"},
	{Label: "Moderate", Color: "#e67e22"},
	{Label: "Poor", Color: "#e74c3c"},
	{Label: "Very Poor", Color: "#8e44ad"},
}

// AQILevel maps the service's ordinal 1..5 air-quality index onto a level.
// Anything above 5 clamps to Very Poor.
func AQILevel(index int) Level {
	if index < 1 {
		index = 1
	}
	if index > 5 {
		index = 5
	}
	return aqiLevels[index-1]
}

// DisplayAQI derives the headline air-quality number shown on the
// dashboard from the PM2.5 concentration. This is a presentation
// heuristic, not a standard AQI formula.
func DisplayAQI(pm25 float64) int {
	return int(math.Round(pm25 * 2.5))
}

// UVLevel maps a UV index onto the standard exposure bands.
func UVLevel(index int) Level {
	switch {
	case index <= 2:
		return Level{Label: "Low", Color: "#27ae60", Advisory: "No protection needed"}
	case index <= 5:
		return Level{Label: "Moderate", Color: "#f39c12", Advisory: "Moderate risk from UV rays"}
	case index <= 7:
		return Level{Label: "High", Color: "#e67e22", Advisory: "High risk - protection required"}
	case index <= 10:
		return Level{Label: "Very High", Color: "#e74c3c", Advisory: "Very high risk"}
	default:
		return Level{Label: "Extreme", Color: "#8e44ad", Advisory: "Extreme risk"}
	}
}

// SunProgress returns how far the sun is along its arc as a fraction of
// the sunrise-to-sunset span, clamped to [0,1] so the marker pins to an
// endpoint outside daylight hours.
func SunProgress(now, sunrise, sunset time.Time) float64 {
	total := sunset.Sub(sunrise)
	if total <= 0 {
		return 0
	}
	progress := float64(now.Sub(sunrise)) / float64(total)
	return math.Max(0, math.Min(1, progress))
}
