package gonogo

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"flight-check/internal/models"
)

const (
	stationUnavailable = "Unavailable"
	metarUnavailable   = "METAR unavailable from selected station."
	tafUnavailable     = "TAF unavailable for selected station."
	aviationNote       = "Raw METAR/TAF shown below are the exact source texts used for aviation-context scoring."
	genericFailure     = "Unable to fetch data right now. Please try again."
)

// UserMessage maps a Check error to the message shown to the operator.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrLocationNotFound):
		return err.Error()
	default:
		return genericFailure
	}
}

// RenderText writes a plain-text report for terminal output.
func RenderText(w io.Writer, report *models.FlightReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", report.Recommendation.Overall.Label())
	fmt.Fprintf(&b, "Location: %s\n", placeName(report))
	fmt.Fprintf(&b, "Observed at: %s\n", observedAt(report.Weather))
	fmt.Fprintf(&b, "Nearest weather.gov station: %s\n", stationID(report.Aviation))

	b.WriteString("\nConditions\n")
	for _, c := range report.Recommendation.Checks {
		fmt.Fprintf(&b, "  %s: %s - %s\n", c.Label, c.Value, c.Level.Label())
	}

	metar, taf := rawTexts(report.Aviation)
	fmt.Fprintf(&b, "\nAviation\n  %s\n", aviationNote)
	fmt.Fprintf(&b, "  METAR: %s\n", metar)
	fmt.Fprintf(&b, "  TAF:\n%s\n", indent(taf, "    "))

	if report.Briefing != "" {
		fmt.Fprintf(&b, "\nBriefing\n%s\n", indent(report.Briefing, "  "))
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(&b, "\nWarning: %s\n", warning)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func placeName(report *models.FlightReport) string {
	if report.Place != nil && report.Place.DisplayName != "" {
		return report.Place.DisplayName
	}
	return report.Query
}

func observedAt(weather *models.WeatherSnapshot) string {
	if weather == nil || weather.ObservedAt.IsZero() {
		return "unknown"
	}
	return weather.ObservedAt.Format("2006-01-02 15:04 MST")
}

func stationID(aviation *models.AviationReport) string {
	if aviation == nil || aviation.StationID == "" {
		return stationUnavailable
	}
	return aviation.StationID
}

func rawTexts(aviation *models.AviationReport) (metar, taf string) {
	metar, taf = metarUnavailable, tafUnavailable
	if aviation == nil {
		return metar, taf
	}
	if aviation.METAR != "" {
		metar = aviation.METAR
	}
	if aviation.TAF != "" {
		taf = aviation.TAF
	}
	return metar, taf
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + strings.TrimRight(line, " \r")
	}
	return strings.Join(lines, "\n")
}
