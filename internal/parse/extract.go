package parse

import (
	"regexp"
	"strconv"
	"strings"

	"wbtracker/internal/domain"
	"wbtracker/internal/lexicon"
)

// resourceWindow is how much of the stripped text is searched for supplies.
const resourceWindow = 40

var (
	locationPattern = regexp.MustCompile(alternation(locationTerms(), false))
	statusPattern   = regexp.MustCompile(alternation(lexicon.StatusPhrases(), true))
	hostilePattern  = regexp.MustCompile(alternation(lexicon.Hostility, false))
	alliancePattern = regexp.MustCompile(alternation(lexicon.Alliance, false))

	// Matches "2:30" or "2 min 30 seg" style countdowns.
	// Captures: (1,2) colon minutes/seconds, (3,4) unit-word minutes/seconds.
	timePattern = regexp.MustCompile(
		`(?:(\d{1,2})\s*:\s*(\d{2}))|(?:(\d{1,2})\s*(?:min|mins)?\s*(?::|\s+)(\d{2})\s*(?:s|seg|segs)?)`,
	)

	// The world scan is narrower than the grammar's 4-digit token on purpose.
	worldPattern = regexp.MustCompile(`\d{1,3}`)

	locationByTerm = func() map[string]domain.Location {
		m := make(map[string]domain.Location, len(lexicon.Locations))
		for _, l := range lexicon.Locations {
			m[l.Term] = l.Value
		}
		return m
	}()
)

func locationTerms() []string {
	out := make([]string, 0, len(lexicon.Locations))
	for _, l := range lexicon.Locations {
		out = append(out, l.Term)
	}
	return out
}

// alternation joins terms into a leftmost-first regexp alternation. With
// flexible set, internal whitespace in a term matches any run, including none.
func alternation(terms []string, flexible bool) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if flexible {
			words := strings.Fields(t)
			for i, w := range words {
				words[i] = regexp.QuoteMeta(w)
			}
			parts = append(parts, strings.Join(words, `\s*`))
			continue
		}
		parts = append(parts, regexp.QuoteMeta(t))
	}
	return "(?:" + strings.Join(parts, "|") + ")"
}

// ExtractLocation returns the canonical code of the first location synonym.
func ExtractLocation(text string) *domain.Location {
	term := locationPattern.FindString(text)
	if term == "" {
		return nil
	}
	loc, ok := locationByTerm[term]
	if !ok {
		return nil
	}
	return &loc
}

// ExtractStatus returns the first status category, in priority order, with
// any phrase contained in text.
func ExtractStatus(text string) domain.Status {
	for _, g := range lexicon.Statuses {
		if containsAny(text, g.Phrases) {
			return g.Status
		}
	}
	return domain.StatusUnknown
}

func ExtractHostile(text string) bool { return containsAny(text, lexicon.Hostility) }

func ExtractAlliance(text string) bool { return containsAny(text, lexicon.Alliance) }

// ExtractResources strips every other known term first so letters inside
// them are not read as supply abbreviations, then scans the first 40
// characters of what remains. Single letters still collide with unrelated
// words; that is accepted.
func ExtractResources(text string) []domain.Resource {
	rest := locationPattern.ReplaceAllString(text, "")
	rest = statusPattern.ReplaceAllString(rest, "")
	rest = hostilePattern.ReplaceAllString(rest, "")
	rest = alliancePattern.ReplaceAllString(rest, "")
	rest = strings.TrimSpace(rest)
	if len(rest) > resourceWindow {
		rest = rest[:resourceWindow]
	}
	var found []domain.Resource
	for _, g := range lexicon.ResourceTerms {
		if containsAny(rest, g.Terms) {
			found = append(found, g.Resource)
		}
	}
	return found
}

// ExtractRemaining parses the first countdown notation. Out of range values
// (minutes > 99, seconds > 59) yield nil.
func ExtractRemaining(text string) *domain.Duration {
	m := timePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	minText, secText := m[1], m[2]
	if minText == "" {
		minText, secText = m[3], m[4]
	}
	minutes, err := strconv.Atoi(minText)
	if err != nil {
		return nil
	}
	seconds, err := strconv.Atoi(secText)
	if err != nil {
		return nil
	}
	if minutes < 0 || minutes > 99 || seconds < 0 || seconds > 59 {
		return nil
	}
	return &domain.Duration{Minutes: minutes, Seconds: seconds}
}

// ExtractWorld returns the first run of up to three digits.
func ExtractWorld(text string) (int, bool) {
	digits := worldPattern.FindString(text)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
