package gonogo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flight-check/internal/models"
	"flight-check/shared/config"
	"flight-check/shared/monitoring"
	"flight-check/shared/scheduler"
	"flight-check/shared/storage"
)

func TestGoNoGoMetricsGetSummary(t *testing.T) {
	tests := []struct {
		name     string
		metrics  GoNoGoMetrics
		expected string
	}{
		{
			name:     "All clear",
			metrics:  GoNoGoMetrics{LocationsChecked: 2, Worst: models.LevelGo},
			expected: "2 location(s) checked, worst verdict GO, 0 changed",
		},
		{
			name:     "Changed with email",
			metrics:  GoNoGoMetrics{LocationsChecked: 1, VerdictsChanged: 1, Worst: models.LevelNoGo, EmailSent: true},
			expected: "1 location(s) checked, worst verdict NO-GO, 1 changed, email sent",
		},
		{
			name:     "Some failed",
			metrics:  GoNoGoMetrics{LocationsChecked: 1, LocationsFailed: 2, Worst: models.LevelCaution},
			expected: "1 location(s) checked, worst verdict CAUTION, 0 changed, 2 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.metrics.GetSummary())
		})
	}
}

// stubChecker returns a canned verdict or error per location.
type stubChecker struct {
	levels map[string]models.Level
	errs   map[string]error
	warn   map[string]string
}

func (s *stubChecker) Check(_ context.Context, query string) (*models.FlightReport, error) {
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	report := &models.FlightReport{
		Query: query,
		Place: &models.Place{DisplayName: query},
		Recommendation: models.NewRecommendation([]models.ConditionAssessment{
			{Label: "Wind speed", Value: "5 m/s", Level: s.levels[query]},
		}),
	}
	if w := s.warn[query]; w != "" {
		report.Warnings = []string{w}
	}
	return report, nil
}

type stubMailer struct {
	subjects []string
	bodies   []string
	err      error
}

func (m *stubMailer) SendHTML(subject, body string) error {
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return m.err
}

type stubBriefer struct {
	calls int
	err   error
}

func (b *stubBriefer) Brief(_ context.Context, report *models.FlightReport) (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return "Briefing for " + report.Query, nil
}

type eventLog struct {
	successes []string
	partials  []error
	criticals []error
}

func (e *eventLog) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess:         func(m scheduler.Metrics, _ time.Duration) { e.successes = append(e.successes, m.GetSummary()) },
		OnPartialFailure:  func(err error, _ time.Duration) { e.partials = append(e.partials, err) },
		OnCriticalFailure: func(err error, _ time.Duration) { e.criticals = append(e.criticals, err) },
	}
}

type agentFixture struct {
	agent   *GoNoGoAgent
	checker *stubChecker
	mailer  *stubMailer
	briefer *stubBriefer
	metrics *monitoring.Metrics
	clock   *clockwork.FakeClock
}

func newAgentFixture(t *testing.T, notifyOnChange bool, locations ...string) *agentFixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 7, 0, 0, 0, time.UTC))
	tracker, err := storage.NewVerdictTracker(t.TempDir(), verdictMaxAge, clock)
	require.NoError(t, err)

	cfg := &config.Config{GoNoGo: config.GoNoGoConfig{Locations: locations, NotifyOnChange: notifyOnChange}}
	metrics := monitoring.NewMetrics()
	f := &agentFixture{
		checker: &stubChecker{levels: map[string]models.Level{}, errs: map[string]error{}, warn: map[string]string{}},
		mailer:  &stubMailer{},
		briefer: &stubBriefer{},
		metrics: metrics,
		clock:   clock,
	}
	f.agent = NewGoNoGoAgent(cfg, metrics, clock)
	f.agent.checker = f.checker
	f.agent.tracker = tracker
	f.agent.mailer = f.mailer
	f.agent.briefer = f.briefer
	return f
}

func TestRunOnceNotifiesOnChange(t *testing.T) {
	f := newAgentFixture(t, true, "Boulder", "Denver")
	f.checker.levels["Boulder"] = models.LevelGo
	f.checker.levels["Denver"] = models.LevelCaution

	// first run: everything is new
	log := &eventLog{}
	require.NoError(t, f.agent.RunOnce(context.Background(), log.events()))
	require.Len(t, f.mailer.subjects, 1)
	assert.Equal(t, "Flight conditions changed at 2 locations (worst: CAUTION)", f.mailer.subjects[0])
	assert.Equal(t, 2, f.briefer.calls)
	require.Len(t, log.successes, 1)
	assert.Equal(t, "2 location(s) checked, worst verdict CAUTION, 2 changed, email sent", log.successes[0])

	// second run: unchanged, no email
	f.clock.Advance(time.Hour)
	log = &eventLog{}
	require.NoError(t, f.agent.RunOnce(context.Background(), log.events()))
	assert.Len(t, f.mailer.subjects, 1)
	assert.Equal(t, 2, f.briefer.calls)
	assert.Equal(t, "2 location(s) checked, worst verdict CAUTION, 0 changed", log.successes[0])

	// third run: Boulder turns NO-GO
	f.checker.levels["Boulder"] = models.LevelNoGo
	f.clock.Advance(time.Hour)
	require.NoError(t, f.agent.RunOnce(context.Background(), (&eventLog{}).events()))
	require.Len(t, f.mailer.subjects, 2)
	assert.Equal(t, "NO-GO for flying at Boulder", f.mailer.subjects[1])
	assert.Contains(t, f.mailer.bodies[1], "Previously GO")
	assert.Contains(t, f.mailer.bodies[1], "Briefing for Boulder")
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.VerdictChanges))
}

func TestRunOnceReportsEveryLocationWithoutNotifyOnChange(t *testing.T) {
	f := newAgentFixture(t, false, "Boulder")

	require.NoError(t, f.agent.RunOnce(context.Background(), nil))
	require.NoError(t, f.agent.RunOnce(context.Background(), nil))
	assert.Len(t, f.mailer.subjects, 2)
	assert.Equal(t, "GO for flying at Boulder", f.mailer.subjects[1])
}

func TestRunOnceWithoutMailer(t *testing.T) {
	f := newAgentFixture(t, false, "Boulder")
	f.agent.mailer = nil
	f.agent.briefer = nil

	log := &eventLog{}
	require.NoError(t, f.agent.RunOnce(context.Background(), log.events()))
	assert.Equal(t, "1 location(s) checked, worst verdict GO, 1 changed", log.successes[0])
}

func TestRunOncePartialFailures(t *testing.T) {
	f := newAgentFixture(t, true, "Boulder", "Atlantis")
	f.checker.errs["Atlantis"] = ErrLocationNotFound
	f.checker.warn["Boulder"] = "aviation data: point lookup failed"
	f.briefer.err = errors.New("quota exceeded")

	log := &eventLog{}
	require.NoError(t, f.agent.RunOnce(context.Background(), log.events()))

	require.Len(t, log.partials, 3)
	assert.ErrorContains(t, log.partials[0], "point lookup failed")
	assert.ErrorContains(t, log.partials[1], "quota exceeded")
	assert.ErrorIs(t, log.partials[2], ErrLocationNotFound)
	assert.Empty(t, log.criticals)
	assert.Equal(t, "1 location(s) checked, worst verdict GO, 1 changed, 1 failed, email sent", log.successes[0])
}

func TestRunOnceAllLocationsFail(t *testing.T) {
	f := newAgentFixture(t, true, "Boulder")
	f.checker.errs["Boulder"] = errors.New("open-meteo down")

	log := &eventLog{}
	err := f.agent.RunOnce(context.Background(), log.events())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 location checks failed")
	assert.Len(t, log.criticals, 1)
	assert.Empty(t, log.successes)
	assert.Empty(t, f.mailer.subjects)
}

func TestRunOnceEmailFailure(t *testing.T) {
	f := newAgentFixture(t, true, "Boulder")
	f.mailer.err = errors.New("connection refused")

	log := &eventLog{}
	err := f.agent.RunOnce(context.Background(), log.events())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email report")
	assert.Len(t, log.criticals, 1)
	assert.Empty(t, log.successes)
}

func TestRunOnceStopsOnCancelledContext(t *testing.T) {
	f := newAgentFixture(t, true, "Boulder")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.agent.RunOnce(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.mailer.subjects)
}

func TestInitializeValidatesLocations(t *testing.T) {
	agent := NewGoNoGoAgent(&config.Config{}, nil, nil)
	assert.Error(t, agent.Initialize())
	assert.Equal(t, "Go/No-Go Agent", agent.Name())
}

func TestInitializeBuildsCollaborators(t *testing.T) {
	cfg, err := config.Parse([]byte(`
go_no_go:
  locations: ["Boulder, CO"]
  match_mode: word
storage:
  data_dir: ` + t.TempDir() + `
`))
	require.NoError(t, err)

	agent := NewGoNoGoAgent(cfg, monitoring.NewMetrics(), clockwork.NewFakeClock())
	require.NoError(t, agent.Initialize())
	assert.NotNil(t, agent.checker)
	assert.NotNil(t, agent.tracker)
	if !cfg.AI.Enabled() {
		assert.Nil(t, agent.briefer)
	}
	assert.Nil(t, agent.mailer)
}
