package gonogo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"flight-check/internal/conditions"
	"flight-check/internal/models"
	"flight-check/shared/config"
	"flight-check/shared/monitoring"
	"flight-check/shared/upstream"
)

var (
	// ErrEmptyQuery is returned for a blank location query.
	ErrEmptyQuery = errors.New("Please enter an address, ZIP, city, or place.")
	// ErrLocationNotFound is returned when the geocoder has no match.
	ErrLocationNotFound = errors.New("No matching location found.")
)

// Checker runs one go/no-go request: geocode, current weather, optional
// aviation data, then evaluation. Geocode and weather failures abort the
// request. Aviation failures only add a warning and the check continues on
// weather alone.
type Checker struct {
	geocoder   Geocoder
	weather    WeatherFetcher
	aviation   AviationFetcher // nil disables aviation data
	evaluator  *conditions.Evaluator
	classifier *conditions.Classifier
	metrics    *monitoring.Metrics
	clock      clockwork.Clock
}

// CheckerOption configures optional Checker collaborators
type CheckerOption func(*Checker)

func WithAviation(a AviationFetcher) CheckerOption {
	return func(c *Checker) { c.aviation = a }
}

func WithMetrics(m *monitoring.Metrics) CheckerOption {
	return func(c *Checker) { c.metrics = m }
}

func WithClock(clock clockwork.Clock) CheckerOption {
	return func(c *Checker) { c.clock = clock }
}

func NewChecker(geocoder Geocoder, weather WeatherFetcher, evaluator *conditions.Evaluator, classifier *conditions.Classifier, opts ...CheckerOption) *Checker {
	c := &Checker{
		geocoder:   geocoder,
		weather:    weather,
		evaluator:  evaluator,
		classifier: classifier,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) Check(ctx context.Context, query string) (*models.FlightReport, error) {
	start := c.clock.Now()
	report, err := c.check(ctx, strings.TrimSpace(query))
	if c.metrics != nil {
		c.metrics.CheckDuration.Observe(c.clock.Since(start).Seconds())
		if err != nil {
			c.metrics.ChecksTotal.WithLabelValues("error").Inc()
		} else {
			c.metrics.ChecksTotal.WithLabelValues(report.Recommendation.Overall.String()).Inc()
			for _, a := range report.Recommendation.Checks {
				c.metrics.FactorLevels.WithLabelValues(a.Label, a.Level.String()).Inc()
			}
		}
	}
	return report, err
}

func (c *Checker) check(ctx context.Context, query string) (*models.FlightReport, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	place, err := c.geocoder.Geocode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode %q: %w", query, err)
	}
	if place == nil {
		return nil, ErrLocationNotFound
	}

	logger := log.WithFields(log.Fields{
		"query": query,
		"place": place.DisplayName,
	})

	weather, err := c.weather.CurrentWeather(ctx, place.Latitude, place.Longitude)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather for %s: %w", place.DisplayName, err)
	}

	report := &models.FlightReport{
		Query:       query,
		Place:       place,
		Weather:     weather,
		GeneratedAt: c.clock.Now(),
	}

	if c.aviation != nil {
		aviation, err := c.aviation.FetchAviation(ctx, place.Latitude, place.Longitude)
		if err != nil {
			logger.WithError(err).Warn("Aviation data unavailable")
			report.Warnings = append(report.Warnings, fmt.Sprintf("aviation data: %v", err))
		}
		report.Aviation = aviation
	}

	recommendation, err := c.evaluator.Evaluate(*weather)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate conditions for %s: %w", place.DisplayName, err)
	}

	if report.Aviation != nil {
		if assessment := c.classifier.Classify(report.Aviation.TAF); assessment != nil {
			report.Aviation.Assessment = assessment
			recommendation.Add(assessment.Condition())
			if len(assessment.Matched) > 0 {
				logger.WithField("tokens", assessment.Matched).Debug("TAF hazard tokens matched")
			}
		}
	}
	report.Recommendation = recommendation

	logger.WithField("verdict", recommendation.Overall.Label()).Info("Go/no-go check complete")
	return report, nil
}

// BuildChecker wires the production clients from configuration. Each
// upstream gets its own HTTP client and circuit breaker.
func BuildChecker(cfg *config.Config, metrics *monitoring.Metrics) (*Checker, error) {
	evaluator, err := conditions.NewEvaluator(cfg.Thresholds)
	if err != nil {
		return nil, err
	}
	mode, err := conditions.ParseMatchMode(cfg.GoNoGo.MatchMode)
	if err != nil {
		return nil, err
	}

	newClient := func(name string) *upstream.Client {
		opts := []upstream.Option{upstream.WithUserAgent(cfg.Upstream.UserAgent)}
		if metrics != nil {
			opts = append(opts, upstream.WithObserver(metrics.ObserveUpstream))
		}
		return upstream.NewClient(name, cfg.Upstream.Timeout, opts...)
	}

	geocoder := NewCachedGeocoder(
		NewNominatimClient(cfg.Upstream.GeocodeURL, newClient("nominatim")),
		cfg.Upstream.GeocodeCacheSize,
		metrics,
	)
	opts := []CheckerOption{WithMetrics(metrics)}
	if cfg.GoNoGo.Aviation() {
		opts = append(opts, WithAviation(NewAviationClient(cfg.Upstream.AviationURL, newClient("weather.gov"))))
	}

	return NewChecker(
		geocoder,
		NewWeatherClient(cfg.Upstream.WeatherURL, newClient("open-meteo")),
		evaluator,
		conditions.NewClassifier(mode),
		opts...,
	), nil
}
