package models

// ConditionAssessment is the verdict for a single weather factor
type ConditionAssessment struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Level Level  `json:"level"`
}

// Recommendation is the overall verdict plus the per-factor assessments
// that produced it, in display order.
type Recommendation struct {
	Overall Level                 `json:"overall"`
	Checks  []ConditionAssessment `json:"checks"`
}

// NewRecommendation derives the overall level from checks.
func NewRecommendation(checks []ConditionAssessment) *Recommendation {
	r := &Recommendation{Checks: checks}
	r.Overall = r.overall()
	return r
}

// Add appends an assessment and re-derives the overall level.
func (r *Recommendation) Add(c ConditionAssessment) {
	r.Checks = append(r.Checks, c)
	r.Overall = r.overall()
}

func (r *Recommendation) overall() Level {
	levels := make([]Level, len(r.Checks))
	for i, c := range r.Checks {
		levels[i] = c.Level
	}
	return MaxLevel(levels...)
}

// AviationAssessment is the hazard level derived from forecast text.
type AviationAssessment struct {
	Label   string   `json:"label"`
	Level   Level    `json:"level"`
	Reason  string   `json:"reason"`
	Matched []string `json:"matched,omitempty"` // hazard token names that matched
}

// Condition renders the assessment as an entry of a Recommendation.
func (a *AviationAssessment) Condition() ConditionAssessment {
	return ConditionAssessment{
		Label: a.Label,
		Value: a.Reason,
		Level: a.Level,
	}
}

// AviationReport holds the raw aviation texts for the nearest weather.gov
// station. It is fetched per request and never stored.
type AviationReport struct {
	StationID       string              `json:"station_id,omitempty"`
	StationDistance float64             `json:"station_distance_km,omitempty"`
	METAR           string              `json:"metar,omitempty"`
	TAF             string              `json:"taf,omitempty"`
	Assessment      *AviationAssessment `json:"assessment,omitempty"`
}
