// Package conditions turns weather readings and aviation forecast text into
// go/no-go assessments.
//
// Evaluator and Classifier hold no mutable state after construction and are
// safe for concurrent use.
package conditions

import (
	"fmt"
	"math"

	"flight-check/internal/models"
)

// Evaluator checks a WeatherSnapshot against a ThresholdSet.
type Evaluator struct {
	thresholds ThresholdSet
	factors    []factor
}

// NewEvaluator validates thresholds and builds the rule table.
func NewEvaluator(thresholds ThresholdSet) (*Evaluator, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	return &Evaluator{
		thresholds: thresholds,
		factors:    factorsFor(thresholds),
	}, nil
}

// Thresholds returns the limits the evaluator was built with.
func (e *Evaluator) Thresholds() ThresholdSet {
	return e.thresholds
}

// Evaluate assesses every factor in display order. The overall level is the
// most severe factor level. A missing or non-finite reading fails the whole
// evaluation instead of being treated as safe.
func (e *Evaluator) Evaluate(snapshot models.WeatherSnapshot) (*models.Recommendation, error) {
	checks := make([]models.ConditionAssessment, 0, len(e.factors)+1)
	for _, f := range e.factors {
		v := f.value(snapshot)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &InvalidSnapshotError{Field: f.field, Value: v}
		}
		checks = append(checks, f.assess(v))
	}
	return models.NewRecommendation(checks), nil
}
