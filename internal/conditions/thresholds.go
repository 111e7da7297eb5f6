package conditions

import (
	"fmt"
	"math"
)

// ThresholdSet holds the operational limits the evaluator checks against.
// Speeds are m/s, rates mm/h, distances meters.
type ThresholdSet struct {
	WindCaution   float64 `yaml:"wind_caution"`
	WindNoGo      float64 `yaml:"wind_no_go"`
	GustNoGo      float64 `yaml:"gust_no_go"`
	RainCaution   float64 `yaml:"rain_caution"`
	RainNoGo      float64 `yaml:"rain_no_go"`
	SnowNoGo      float64 `yaml:"snow_no_go"`
	MinVisibility float64 `yaml:"min_visibility"`
	MinCloudBase  float64 `yaml:"min_cloud_base"`
}

// DefaultThresholds returns the canonical limits.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		WindCaution:   10,
		WindNoGo:      14,
		GustNoGo:      18,
		RainCaution:   0.5,
		RainNoGo:      2,
		SnowNoGo:      0.5,
		MinVisibility: 3000,
		MinCloudBase:  120,
	}
}

// Validate rejects non-finite limits and caution tiers above their no-go tier.
func (t ThresholdSet) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"wind_caution", t.WindCaution},
		{"wind_no_go", t.WindNoGo},
		{"gust_no_go", t.GustNoGo},
		{"rain_caution", t.RainCaution},
		{"rain_no_go", t.RainNoGo},
		{"snow_no_go", t.SnowNoGo},
		{"min_visibility", t.MinVisibility},
		{"min_cloud_base", t.MinCloudBase},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("threshold %s must be finite, got %v", n.name, n.value)
		}
		if n.value < 0 {
			return fmt.Errorf("threshold %s must not be negative, got %v", n.name, n.value)
		}
	}

	if t.WindCaution > t.WindNoGo {
		return fmt.Errorf("wind_caution (%v) must not exceed wind_no_go (%v)", t.WindCaution, t.WindNoGo)
	}
	if t.RainCaution > t.RainNoGo {
		return fmt.Errorf("rain_caution (%v) must not exceed rain_no_go (%v)", t.RainCaution, t.RainNoGo)
	}
	return nil
}
