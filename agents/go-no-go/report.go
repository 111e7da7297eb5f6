package gonogo

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"flight-check/internal/models"
)

// reportEntry is one location in the email, with fallbacks already applied
type reportEntry struct {
	Report   *models.FlightReport
	Place    string
	Observed string
	Station  string
	Distance float64
	METAR    string
	TAF      string
	Previous string // previous verdict label, empty on first sighting
}

type emailData struct {
	Date    time.Time
	Entries []reportEntry
	Note    string
}

var emailTemplate = template.Must(template.New("email").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Go/No-Go Report</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2196F3; color: white; padding: 20px; border-radius: 8px; margin-bottom: 20px; text-align: center; }
        .location { background-color: #f8f9fa; padding: 15px; border-radius: 8px; margin-bottom: 20px; }
        .pill { display: inline-block; padding: 4px 12px; border-radius: 12px; color: white; font-weight: bold; }
        .go { background-color: #4CAF50; }
        .caution { background-color: #FF9800; }
        .no-go { background-color: #F44336; }
        .level-go { color: #4CAF50; font-weight: bold; }
        .level-caution { color: #FF9800; font-weight: bold; }
        .level-no-go { color: #F44336; font-weight: bold; }
        .meta { color: #666; font-size: 14px; }
        pre { background-color: #fff; border: 1px solid #ddd; padding: 10px; white-space: pre-wrap; font-size: 13px; }
        .briefing { border-left: 4px solid #2196F3; padding-left: 10px; font-style: italic; }
        .footer { text-align: center; color: #666; font-size: 12px; margin-top: 30px; border-top: 1px solid #ddd; padding-top: 15px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Go/No-Go Report</h1>
        <p>{{.Date.Format "Monday, January 2, 2006 at 3:04 PM MST"}}</p>
    </div>

    {{range .Entries}}
    <div class="location">
        <h2>{{.Place}} <span class="pill {{.Report.Recommendation.Overall.String}}">{{.Report.Recommendation.Overall.Label}}</span></h2>
        {{if .Previous}}<p class="meta">Previously {{.Previous}}</p>{{end}}
        <p class="meta">Observed at: {{.Observed}}<br>
        Nearest weather.gov station: {{.Station}}{{if gt .Distance 0.0}} ({{printf "%.0f" .Distance}} km){{end}}</p>

        <ul>
        {{range .Report.Recommendation.Checks}}
            <li><strong>{{.Label}}:</strong> {{.Value}} - <span class="level-{{.Level.String}}">{{.Level.Label}}</span></li>
        {{end}}
        </ul>

        {{if .Report.Briefing}}<p class="briefing">{{.Report.Briefing}}</p>{{end}}

        <p class="meta">{{$.Note}}</p>
        <p><strong>METAR</strong></p>
        <pre>{{.METAR}}</pre>
        <p><strong>TAF</strong></p>
        <pre>{{.TAF}}</pre>
    </div>
    {{end}}

    <div class="footer">
        <p>Generated by Go/No-Go Agent • Weather data from Open-Meteo and weather.gov</p>
        <p style="font-style: italic; color: #888;">"The verdict is advisory. The pilot in command makes the final call."</p>
    </div>
</body>
</html>
`))

func newReportEntry(report *models.FlightReport, previous *models.Level) reportEntry {
	entry := reportEntry{
		Report:   report,
		Place:    placeName(report),
		Observed: observedAt(report.Weather),
		Station:  stationID(report.Aviation),
	}
	if report.Aviation != nil {
		entry.Distance = report.Aviation.StationDistance
	}
	entry.METAR, entry.TAF = rawTexts(report.Aviation)
	if previous != nil {
		entry.Previous = previous.Label()
	}
	return entry
}

// generateEmailBody renders the HTML report for the given entries
func generateEmailBody(date time.Time, entries []reportEntry) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, emailData{Date: date, Entries: entries, Note: aviationNote}); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// emailSubject summarises the worst verdict among the entries
func emailSubject(entries []reportEntry) string {
	if len(entries) == 1 {
		r := entries[0]
		return fmt.Sprintf("%s for flying at %s", r.Report.Recommendation.Overall.Label(), r.Place)
	}
	levels := make([]models.Level, len(entries))
	for i, e := range entries {
		levels[i] = e.Report.Recommendation.Overall
	}
	return fmt.Sprintf("Flight conditions changed at %d locations (worst: %s)", len(entries), models.MaxLevel(levels...).Label())
}
