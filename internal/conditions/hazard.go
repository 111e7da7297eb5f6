package conditions

import (
	"fmt"
	"regexp"
	"strings"

	"flight-check/internal/models"
)

// MatchMode selects how hazard tokens are located in forecast text.
type MatchMode string

const (
	// MatchSubstring looks for each token as a plain substring of the
	// upper-cased text. Anchored tokens need a preceding space. The bare
	// gust token "G" matches inside any word containing a G, which is a
	// known false-positive source kept for parity with published results.
	MatchSubstring MatchMode = "substring"

	// MatchWord splits the text on whitespace and matches tokens against
	// the start of each word. The gust token only matches a wind group.
	MatchWord MatchMode = "word"
)

// ParseMatchMode accepts "substring", "word" or "" (substring).
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchWord:
		return MatchWord, nil
	}
	return "", fmt.Errorf("unknown match mode %q (want %q or %q)", s, MatchSubstring, MatchWord)
}

// HazardToken is a coded weather group presumed to indicate a hazard.
type HazardToken struct {
	Name     string
	Code     string
	Anchored bool           // substring mode requires a space before Code
	Word     *regexp.Regexp // word mode matcher; nil means prefix match on Code
}

func (t HazardToken) matchSubstring(upper string) bool {
	needle := t.Code
	if t.Anchored {
		needle = " " + needle
	}
	return strings.Contains(upper, needle)
}

func (t HazardToken) matchWord(words []string) bool {
	for _, w := range words {
		if t.Word != nil {
			if t.Word.MatchString(w) {
				return true
			}
			continue
		}
		if strings.HasPrefix(w, t.Code) {
			return true
		}
	}
	return false
}

var windGroup = regexp.MustCompile(`^(\d{3}|VRB)\d{2,3}G\d{2,3}(KT|MPS)$`)

// SevereTokens are checked first; any match is no-go.
func SevereTokens() []HazardToken {
	return []HazardToken{
		{Name: "thunderstorm", Code: "TS", Anchored: true},
		{Name: "heavy thunderstorm", Code: "+TS", Anchored: true},
		{Name: "freezing rain", Code: "FZRA", Anchored: true},
		{Name: "heavy rain", Code: "+RA", Anchored: true},
		{Name: "snow", Code: "SN", Anchored: true},
		{Name: "fog", Code: "FG", Anchored: true},
		{Name: "squall", Code: "SQ", Anchored: true},
	}
}

// CautionTokens are checked only when no severe token matched.
func CautionTokens() []HazardToken {
	return []HazardToken{
		{Name: "rain", Code: "RA", Anchored: true},
		{Name: "mist", Code: "BR", Anchored: true},
		{Name: "haze", Code: "HZ", Anchored: true},
		{Name: "gust", Code: "G", Word: windGroup},
		{Name: "broken cloud", Code: "BKN", Anchored: true},
		{Name: "overcast", Code: "OVC", Anchored: true},
	}
}

const (
	tafLabel      = "TAF hazards"
	reasonSevere  = "TAF includes significant hazard tokens (e.g. TS/SN/FG/FZRA)."
	reasonCaution = "TAF includes potential reduced-operations indicators."
	reasonClear   = "TAF does not include configured hazard tokens."
)

// Classifier grades forecast text by the hazard tokens it contains.
type Classifier struct {
	mode    MatchMode
	severe  []HazardToken
	caution []HazardToken
}

// NewClassifier uses the default token lists.
func NewClassifier(mode MatchMode) *Classifier {
	return NewClassifierWithTokens(mode, SevereTokens(), CautionTokens())
}

func NewClassifierWithTokens(mode MatchMode, severe, caution []HazardToken) *Classifier {
	if mode == "" {
		mode = MatchSubstring
	}
	return &Classifier{mode: mode, severe: severe, caution: caution}
}

func (c *Classifier) Mode() MatchMode {
	return c.mode
}

// Classify returns nil when there is no forecast text; absence is not a
// hazard. Severe tokens take precedence over caution tokens regardless of
// where they appear in the text.
func (c *Classifier) Classify(text string) *models.AviationAssessment {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	upper := strings.ToUpper(text)
	words := strings.Fields(upper)

	if matched := c.matches(c.severe, upper, words); len(matched) > 0 {
		return &models.AviationAssessment{Label: tafLabel, Level: models.LevelNoGo, Reason: reasonSevere, Matched: matched}
	}
	if matched := c.matches(c.caution, upper, words); len(matched) > 0 {
		return &models.AviationAssessment{Label: tafLabel, Level: models.LevelCaution, Reason: reasonCaution, Matched: matched}
	}
	return &models.AviationAssessment{Label: tafLabel, Level: models.LevelGo, Reason: reasonClear}
}

func (c *Classifier) matches(tokens []HazardToken, upper string, words []string) []string {
	var matched []string
	for _, t := range tokens {
		var ok bool
		if c.mode == MatchWord {
			ok = t.matchWord(words)
		} else {
			ok = t.matchSubstring(upper)
		}
		if ok {
			matched = append(matched, t.Name)
		}
	}
	return matched
}
