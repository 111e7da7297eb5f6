package models

import "time"

// Place is a geocoded location
type Place struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// WeatherSnapshot represents current conditions from Open-Meteo.
// Fields the upstream omitted are NaN.
type WeatherSnapshot struct {
	WindSpeed     float64   `json:"wind_speed"`    // m/s
	WindGusts     float64   `json:"wind_gusts"`    // m/s
	Precipitation float64   `json:"precipitation"` // mm/h
	Snowfall      float64   `json:"snowfall"`      // mm/h
	Visibility    float64   `json:"visibility"`    // m
	CloudBase     float64   `json:"cloud_base"`    // m
	ObservedAt    time.Time `json:"observed_at"`
	Timezone      string    `json:"timezone"` // IANA timezone (e.g., "America/Los_Angeles")
}
