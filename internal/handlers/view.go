package handlers

import (
	"time"

	"github.com/AnkitRajMaurya/weather-project/internal/dashboard"
	"github.com/AnkitRajMaurya/weather-project/internal/history"
	"github.com/AnkitRajMaurya/weather-project/internal/weather"
)

// WeatherView is the JSON view-model the front end renders its widgets
// from: current conditions plus every derived metric the dashboard shows.
type WeatherView struct {
	Place     dashboard.Place       `json:"place"`
	Loading   bool                  `json:"loading"`
	FetchedAt time.Time             `json:"fetched_at,omitempty"`
	Current   *CurrentView          `json:"current,omitempty"`
	Daily     []weather.DailyBucket `json:"daily,omitempty"`
	DayParts  *weather.DayParts     `json:"day_parts,omitempty"`
	Air       AirView               `json:"air"`
	UV        UVView                `json:"uv"`
	Sun       *SunView              `json:"sun,omitempty"`
	History   []history.Entry       `json:"history"`
}

// CurrentView decorates current conditions with the compass label.
type CurrentView struct {
	weather.Current
	WindLabel string `json:"wind_label"`
}

// AirView carries the display AQI. Available is false when the
// air-quality fetch failed; the front end shows "N/A", never zero.
type AirView struct {
	Available bool          `json:"available"`
	Display   int           `json:"display,omitempty"`
	Index     int           `json:"index,omitempty"`
	Level     weather.Level `json:"level,omitempty"`
	PM25      float64       `json:"pm2_5,omitempty"`
}

// UVView is the synthesized UV index and its exposure band.
type UVView struct {
	Index int           `json:"index"`
	Level weather.Level `json:"level"`
}

// SunView positions the sun marker on its arc.
type SunView struct {
	Sunrise  time.Time `json:"sunrise"`
	Sunset   time.Time `json:"sunset"`
	Progress float64   `json:"progress"`
}

// buildView derives the full view-model from a state snapshot.
func buildView(state dashboard.State, uv weather.UVEstimator, now time.Time) WeatherView {
	view := WeatherView{
		Place:   state.Place,
		Loading: state.Loading,
		History: state.History,
	}
	if view.History == nil {
		view.History = []history.Entry{}
	}

	uvIndex := uv.UVIndex(now.Hour())
	view.UV = UVView{Index: uvIndex, Level: weather.UVLevel(uvIndex)}

	bundle := state.Bundle
	if bundle == nil {
		return view
	}

	view.FetchedAt = bundle.FetchedAt
	view.Current = &CurrentView{
		Current:   bundle.Current,
		WindLabel: weather.WindDirection(bundle.Current.WindDeg),
	}
	view.Daily = weather.BucketByDay(bundle.Samples, time.Local)
	parts := weather.BucketByDayPart(bundle.Samples, now, time.Local)
	view.DayParts = &parts
	view.Sun = &SunView{
		Sunrise:  bundle.Current.Sunrise,
		Sunset:   bundle.Current.Sunset,
		Progress: weather.SunProgress(now, bundle.Current.Sunrise, bundle.Current.Sunset),
	}

	if bundle.Air != nil {
		view.Air = AirView{
			Available: true,
			Display:   weather.DisplayAQI(bundle.Air.PM25),
			Index:     bundle.Air.Index,
			Level:     weather.AQILevel(bundle.Air.Index),
			PM25:      bundle.Air.PM25,
		}
	}

	return view
}
