package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"flight-check/internal/models"
	"flight-check/shared/config"
)

// generator is the subset of genai.Models the briefer uses
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Briefer writes a short plain-language briefing for a flight report. The
// briefing is commentary only; it never changes the computed verdict.
type Briefer struct {
	models generator
	model  string
}

// ErrEmptyBriefing is returned when the model produced no text.
var ErrEmptyBriefing = errors.New("empty briefing response")

const maxBriefingLength = 1200

func NewBriefer(cfg *config.Config) (*Briefer, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.AI.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Briefer{
		models: client.Models,
		model:  cfg.AI.Model,
	}, nil
}

func (b *Briefer) Brief(ctx context.Context, report *models.FlightReport) (string, error) {
	if report == nil || report.Recommendation == nil {
		return "", fmt.Errorf("report with a recommendation is required")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buildBriefingPrompt(report)),
		}, genai.RoleUser),
	}

	result, err := b.models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate briefing for %s: %w", report.Query, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		log.WithField("query", report.Query).Warn("Empty briefing from AI, possibly filtered")
		return "", ErrEmptyBriefing
	}

	return truncateString(text, maxBriefingLength), nil
}

func buildBriefingPrompt(report *models.FlightReport) string {
	var checks strings.Builder
	for _, c := range report.Recommendation.Checks {
		fmt.Fprintf(&checks, "- %s: %s (%s)\n", c.Label, c.Value, c.Level.Label())
	}

	location := report.Query
	if report.Place != nil && report.Place.DisplayName != "" {
		location = report.Place.DisplayName
	}

	metar, taf := "unavailable", "unavailable"
	if report.Aviation != nil {
		if report.Aviation.METAR != "" {
			metar = report.Aviation.METAR
		}
		if report.Aviation.TAF != "" {
			taf = report.Aviation.TAF
		}
	}

	return fmt.Sprintf(`You are assisting a drone or light-aircraft operator with a go/no-go decision.

LOCATION: %s
OVERALL VERDICT: %s

FACTOR ASSESSMENTS:
%s
METAR: %s
TAF: %s

INSTRUCTIONS:
1. Write 2-4 sentences in plain language explaining the verdict.
2. Name the factors that drove the verdict first.
3. Do not contradict or soften the verdict; it is final.
4. Do not invent readings that are not listed above.
5. Reply with plain text only, no markdown.`,
		location,
		report.Recommendation.Overall.Label(),
		checks.String(),
		metar,
		taf,
	)
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "..."
}
