package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// StatusError reports a non-success HTTP status from the weather API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather API error (status %d): %s", e.StatusCode, e.Body)
}

// Client handles OpenWeatherMap data API interactions.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// NewClient creates a weather API client. The limiter may be shared with
// the geocoding client and may be nil.
func NewClient(apiKey string, limiter *rate.Limiter) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://api.openweathermap.org/data/2.5",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Limiter: limiter,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, coord Coordinate, metric bool) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.6f", coord.Lat))
	params.Set("lon", fmt.Sprintf("%.6f", coord.Lon))
	params.Set("appid", c.APIKey)
	if metric {
		params.Set("units", "metric")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// currentResponse mirrors the /weather payload shape.
type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
	Sys        struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

// Current fetches current conditions for a coordinate.
func (c *Client) Current(ctx context.Context, coord Coordinate) (*Current, error) {
	data, err := c.get(ctx, "/weather", coord, true)
	if err != nil {
		return nil, err
	}

	var resp currentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse current weather: %w", err)
	}

	cur := &Current{
		Temperature: resp.Main.Temp,
		FeelsLike:   resp.Main.FeelsLike,
		Pressure:    resp.Main.Pressure,
		Humidity:    resp.Main.Humidity,
		Visibility:  resp.Visibility,
		WindSpeed:   resp.Wind.Speed,
		WindDeg:     resp.Wind.Deg,
		Sunrise:     time.Unix(resp.Sys.Sunrise, 0),
		Sunset:      time.Unix(resp.Sys.Sunset, 0),
	}
	if len(resp.Weather) > 0 {
		cur.Condition = ParseCondition(resp.Weather[0].Main)
		cur.Description = resp.Weather[0].Description
	} else {
		cur.Condition = Other
	}
	return cur, nil
}

// forecastResponse mirrors the /forecast payload shape: a "list" of
// 3-hourly entries, usually 40 of them.
type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp    float64 `json:"temp"`
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	} `json:"list"`
}

// Forecast fetches the 5-day / 3-hourly forecast for a coordinate. Samples
// keep the service's order.
func (c *Client) Forecast(ctx context.Context, coord Coordinate) ([]Sample, error) {
	data, err := c.get(ctx, "/forecast", coord, true)
	if err != nil {
		return nil, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse forecast: %w", err)
	}

	samples := make([]Sample, 0, len(resp.List))
	for _, item := range resp.List {
		s := Sample{
			Time:    time.Unix(item.Dt, 0),
			Temp:    item.Main.Temp,
			TempMin: item.Main.TempMin,
			TempMax: item.Main.TempMax,
		}
		if len(item.Weather) > 0 {
			s.Condition = ParseCondition(item.Weather[0].Main)
		} else {
			s.Condition = Other
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// airResponse mirrors the /air_pollution payload shape.
type airResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
			O3   float64 `json:"o3"`
			NO2  float64 `json:"no2"`
			SO2  float64 `json:"so2"`
			CO   float64 `json:"co"`
		} `json:"components"`
	} `json:"list"`
}

// AirQuality fetches the current air-quality sample for a coordinate.
func (c *Client) AirQuality(ctx context.Context, coord Coordinate) (*AirQuality, error) {
	data, err := c.get(ctx, "/air_pollution", coord, false)
	if err != nil {
		return nil, err
	}

	var resp airResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse air quality: %w", err)
	}
	if len(resp.List) == 0 {
		return nil, fmt.Errorf("air quality response contained no samples")
	}

	first := resp.List[0]
	return &AirQuality{
		Index: first.Main.AQI,
		PM25:  first.Components.PM25,
		PM10:  first.Components.PM10,
		O3:    first.Components.O3,
		NO2:   first.Components.NO2,
		SO2:   first.Components.SO2,
		CO:    first.Components.CO,
	}, nil
}
