package conditions

import (
	"math"
	"strconv"

	"flight-check/internal/models"
)

// rule assigns level when breached reports true for the factor value.
type rule struct {
	level    models.Level
	breached func(v float64) bool
}

func above(limit float64, level models.Level) rule {
	return rule{level: level, breached: func(v float64) bool { return v > limit }}
}

func below(limit float64, level models.Level) rule {
	return rule{level: level, breached: func(v float64) bool { return v < limit }}
}

// factor is one evaluated weather reading. Rules are ordered most severe
// first; the first breached rule decides the level.
type factor struct {
	label string
	field string
	unit  string
	round bool
	value func(models.WeatherSnapshot) float64
	rules []rule
}

func (f factor) assess(v float64) models.ConditionAssessment {
	level := models.LevelGo
	for _, r := range f.rules {
		if r.breached(v) {
			level = r.level
			break
		}
	}
	return models.ConditionAssessment{
		Label: f.label,
		Value: f.format(v),
		Level: level,
	}
}

func (f factor) format(v float64) string {
	if f.round {
		// half-up, so 2.5 displays as 3
		return strconv.FormatFloat(math.Floor(v+0.5), 'f', -1, 64) + " " + f.unit
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + f.unit
}

// factorsFor builds the rule table in display order.
func factorsFor(t ThresholdSet) []factor {
	return []factor{
		{
			label: "Wind speed",
			field: "wind_speed",
			unit:  "m/s",
			value: func(s models.WeatherSnapshot) float64 { return s.WindSpeed },
			rules: []rule{
				above(t.WindNoGo, models.LevelNoGo),
				above(t.WindCaution, models.LevelCaution),
			},
		},
		{
			label: "Wind gusts",
			field: "wind_gusts",
			unit:  "m/s",
			value: func(s models.WeatherSnapshot) float64 { return s.WindGusts },
			rules: []rule{
				above(t.GustNoGo, models.LevelNoGo),
			},
		},
		{
			label: "Precipitation",
			field: "precipitation",
			unit:  "mm/h",
			value: func(s models.WeatherSnapshot) float64 { return s.Precipitation },
			rules: []rule{
				above(t.RainNoGo, models.LevelNoGo),
				above(t.RainCaution, models.LevelCaution),
			},
		},
		{
			label: "Snowfall",
			field: "snowfall",
			unit:  "mm/h",
			value: func(s models.WeatherSnapshot) float64 { return s.Snowfall },
			rules: []rule{
				above(t.SnowNoGo, models.LevelNoGo),
			},
		},
		{
			label: "Visibility",
			field: "visibility",
			unit:  "m",
			round: true,
			value: func(s models.WeatherSnapshot) float64 { return s.Visibility },
			rules: []rule{
				below(t.MinVisibility, models.LevelNoGo),
			},
		},
		{
			label: "Cloud base",
			field: "cloud_base",
			unit:  "m",
			round: true,
			value: func(s models.WeatherSnapshot) float64 { return s.CloudBase },
			rules: []rule{
				below(t.MinCloudBase, models.LevelNoGo),
			},
		},
	}
}
