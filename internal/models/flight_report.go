package models

import "time"

// FlightReport represents the outcome of one go/no-go check
type FlightReport struct {
	Query          string           `json:"query"`
	Place          *Place           `json:"place"`
	Weather        *WeatherSnapshot `json:"weather"`
	Aviation       *AviationReport  `json:"aviation"`
	Recommendation *Recommendation  `json:"recommendation"`
	Briefing       string           `json:"briefing,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"` // non-fatal upstream problems
	GeneratedAt    time.Time        `json:"generated_at"`
}
