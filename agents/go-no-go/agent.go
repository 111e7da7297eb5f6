package gonogo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"flight-check/internal/models"
	"flight-check/shared/ai"
	"flight-check/shared/config"
	"flight-check/shared/email"
	"flight-check/shared/monitoring"
	"flight-check/shared/scheduler"
	"flight-check/shared/storage"
)

// verdictMaxAge bounds how long a stored verdict is compared against. After
// that a location is treated as newly seen.
const verdictMaxAge = 7 * 24 * time.Hour

// GoNoGoMetrics represents the metrics collected during one agent run
type GoNoGoMetrics struct {
	LocationsChecked int               `json:"locations_checked"`
	LocationsFailed  int               `json:"locations_failed"`
	VerdictsChanged  int               `json:"verdicts_changed"`
	Verdicts         map[string]string `json:"verdicts"`
	Worst            models.Level      `json:"worst"`
	EmailSent        bool              `json:"email_sent"`
}

// GetSummary implements the scheduler.Metrics interface
func (m GoNoGoMetrics) GetSummary() string {
	summary := fmt.Sprintf("%d location(s) checked, worst verdict %s, %d changed",
		m.LocationsChecked, m.Worst.Label(), m.VerdictsChanged)
	if m.LocationsFailed > 0 {
		summary += fmt.Sprintf(", %d failed", m.LocationsFailed)
	}
	if m.EmailSent {
		summary += ", email sent"
	}
	return summary
}

// checker, briefer and mailer are the agent's collaborators, narrowed so
// tests can substitute them.
type checker interface {
	Check(ctx context.Context, query string) (*models.FlightReport, error)
}

type briefer interface {
	Brief(ctx context.Context, report *models.FlightReport) (string, error)
}

type mailer interface {
	SendHTML(subject, body string) error
}

// GoNoGoAgent implements the scheduler.Agent interface
type GoNoGoAgent struct {
	config  *config.Config
	metrics *monitoring.Metrics
	clock   clockwork.Clock

	checker checker
	tracker *storage.VerdictTracker
	briefer briefer
	mailer  mailer
}

func NewGoNoGoAgent(cfg *config.Config, metrics *monitoring.Metrics, clock clockwork.Clock) *GoNoGoAgent {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &GoNoGoAgent{
		config:  cfg,
		metrics: metrics,
		clock:   clock,
	}
}

func (g *GoNoGoAgent) Name() string {
	return "Go/No-Go Agent"
}

func (g *GoNoGoAgent) Initialize() error {
	log.Infof("Initializing %s...", g.Name())

	if err := g.config.ValidateGoNoGo(); err != nil {
		return err
	}

	if g.checker == nil {
		c, err := BuildChecker(g.config, g.metrics)
		if err != nil {
			return fmt.Errorf("failed to build checker: %w", err)
		}
		g.checker = c
		log.WithField("aviation", g.config.GoNoGo.Aviation()).Info("Checker initialized")
	}

	if g.tracker == nil {
		tracker, err := storage.NewVerdictTracker(g.config.Storage.DataDir, verdictMaxAge, g.clock)
		if err != nil {
			return fmt.Errorf("failed to initialize verdict tracker: %w", err)
		}
		g.tracker = tracker
		log.WithField("tracked", tracker.Count()).Info("Verdict tracker initialized")
	}

	if g.briefer == nil && g.config.AI.Enabled() {
		b, err := ai.NewBriefer(g.config)
		if err != nil {
			return fmt.Errorf("failed to initialize briefer: %w", err)
		}
		g.briefer = b
		log.WithField("model", g.config.AI.Model).Info("AI briefer initialized")
	}

	if g.mailer == nil && g.config.Email.Enabled() {
		g.mailer = email.NewSender(&g.config.Email)
		log.Info("Email sender initialized")
	}

	log.Infof("Configured for %d location(s)", len(g.config.GoNoGo.Locations))
	return nil
}

func (g *GoNoGoAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := g.clock.Now()
	metrics := GoNoGoMetrics{Verdicts: make(map[string]string)}

	var entries []reportEntry
	var failures []error
	for _, location := range g.config.GoNoGo.Locations {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry, changed, err := g.checkLocation(ctx, location, events, startTime)
		if err != nil {
			metrics.LocationsFailed++
			failures = append(failures, err)
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(err, g.clock.Since(startTime))
			}
			continue
		}

		overall := entry.Report.Recommendation.Overall
		metrics.LocationsChecked++
		metrics.Verdicts[location] = overall.Label()
		metrics.Worst = models.MaxLevel(metrics.Worst, overall)
		if changed {
			metrics.VerdictsChanged++
		}
		if changed || !g.config.GoNoGo.NotifyOnChange {
			entries = append(entries, entry)
		}
	}

	if metrics.LocationsChecked == 0 {
		err := fmt.Errorf("all %d location checks failed: %w", len(failures), errors.Join(failures...))
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(err, g.clock.Since(startTime))
		}
		return err
	}

	if g.mailer != nil && len(entries) > 0 {
		if err := g.sendEmailReport(entries); err != nil {
			if events != nil && events.OnCriticalFailure != nil {
				events.OnCriticalFailure(fmt.Errorf("failed to send email report: %w", err), g.clock.Since(startTime))
			}
			return fmt.Errorf("failed to send email report: %w", err)
		}
		metrics.EmailSent = true
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, g.clock.Since(startTime))
	}

	log.WithFields(log.Fields{
		"checked": metrics.LocationsChecked,
		"failed":  metrics.LocationsFailed,
		"changed": metrics.VerdictsChanged,
		"email":   metrics.EmailSent,
	}).Info("Go/no-go run complete")
	return nil
}

// checkLocation runs one check, records the verdict and attaches a briefing
// for reported locations. Non-fatal problems go to the partial-failure callback.
func (g *GoNoGoAgent) checkLocation(ctx context.Context, location string, events *scheduler.AgentEvents, startTime time.Time) (reportEntry, bool, error) {
	logger := log.WithField("location", location)

	partial := func(err error) {
		logger.WithError(err).Warn("Partial failure")
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(fmt.Errorf("%s: %w", location, err), g.clock.Since(startTime))
		}
	}

	report, err := g.checker.Check(ctx, location)
	if err != nil {
		logger.WithError(err).Error("Check failed")
		return reportEntry{}, false, fmt.Errorf("%s: %w", location, err)
	}
	for _, warning := range report.Warnings {
		partial(errors.New(warning))
	}

	overall := report.Recommendation.Overall
	prev, known := g.tracker.Previous(location)
	changed, err := g.tracker.Record(location, overall)
	if err != nil {
		partial(fmt.Errorf("failed to record verdict: %w", err))
	}
	if changed {
		if g.metrics != nil {
			g.metrics.VerdictChanges.Inc()
		}
		logger.WithFields(log.Fields{"verdict": overall.Label(), "first": !known}).Info("Verdict changed")
	}

	// briefings only appear in the email, so skip them when nothing will be sent
	if g.briefer != nil && g.mailer != nil && (changed || !g.config.GoNoGo.NotifyOnChange) {
		briefing, err := g.briefer.Brief(ctx, report)
		if err != nil {
			partial(fmt.Errorf("failed to generate briefing: %w", err))
		} else {
			report.Briefing = briefing
		}
	}

	var previous *models.Level
	if known {
		previous = &prev
	}
	return newReportEntry(report, previous), changed, nil
}

// sendEmailReport sends the go/no-go report via email
func (g *GoNoGoAgent) sendEmailReport(entries []reportEntry) error {
	body, err := generateEmailBody(g.clock.Now(), entries)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}
	return g.mailer.SendHTML(emailSubject(entries), body)
}
