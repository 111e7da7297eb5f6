package gonogo

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"flight-check/internal/models"
	"flight-check/shared/upstream"
)

// WeatherFetcher returns current conditions for a coordinate
type WeatherFetcher interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error)
}

const currentFields = "wind_speed_10m,wind_gusts_10m,precipitation,snowfall,visibility,cloud_base"

// WeatherClient handles interactions with the Open-Meteo API
type WeatherClient struct {
	baseURL string
	client  *upstream.Client
}

// OpenMeteoResponse represents the response from Open-Meteo API. Current
// readings are pointers so a missing value can be told apart from zero.
type OpenMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Current   struct {
		Time          string   `json:"time"`
		WindSpeed     *float64 `json:"wind_speed_10m"`
		WindGusts     *float64 `json:"wind_gusts_10m"`
		Precipitation *float64 `json:"precipitation"`
		Snowfall      *float64 `json:"snowfall"`
		Visibility    *float64 `json:"visibility"`
		CloudBase     *float64 `json:"cloud_base"`
	} `json:"current"`
}

func NewWeatherClient(baseURL string, client *upstream.Client) *WeatherClient {
	return &WeatherClient{baseURL: baseURL, client: client}
}

// CurrentWeather fetches current conditions with wind in m/s.
func (w *WeatherClient) CurrentWeather(ctx context.Context, lat, lon float64) (*models.WeatherSnapshot, error) {
	params := url.Values{
		"latitude":        {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":       {strconv.FormatFloat(lon, 'f', -1, 64)},
		"current":         {currentFields},
		"wind_speed_unit": {"ms"},
		"timezone":        {"auto"},
	}

	var apiResp OpenMeteoResponse
	if err := w.client.GetJSON(ctx, w.baseURL+"?"+params.Encode(), &apiResp); err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}

	location, err := time.LoadLocation(apiResp.Timezone)
	if err != nil {
		log.WithFields(log.Fields{"timezone": apiResp.Timezone, "err": err}).Warn("Failed to load timezone, using UTC")
		location = time.UTC
	}

	var observedAt time.Time
	if apiResp.Current.Time != "" {
		observedAt, err = time.ParseInLocation("2006-01-02T15:04", apiResp.Current.Time, location)
		if err != nil {
			return nil, fmt.Errorf("failed to parse weather time: %w", err)
		}
	}

	return &models.WeatherSnapshot{
		WindSpeed:     valueOrNaN(apiResp.Current.WindSpeed),
		WindGusts:     valueOrNaN(apiResp.Current.WindGusts),
		Precipitation: valueOrNaN(apiResp.Current.Precipitation),
		Snowfall:      valueOrNaN(apiResp.Current.Snowfall),
		Visibility:    valueOrNaN(apiResp.Current.Visibility),
		CloudBase:     valueOrNaN(apiResp.Current.CloudBase),
		ObservedAt:    observedAt,
		Timezone:      apiResp.Timezone,
	}, nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
