// Package parse turns free-text chat lines into structured world reports.
package parse

import "wbtracker/internal/domain"

var defaultGrammar = Compile()

// Admit reports whether a sanitized line passes the default grammar.
func Admit(text string) bool { return defaultGrammar.Admit(text) }

// Line sanitizes raw and extracts a report from it. ok is false when the
// line is not made only of recognised tokens. A report without a world
// number has HasWorld unset and cannot be stored.
func Line(raw string) (domain.Report, bool) {
	text := Sanitize(raw)
	if text == "" || !defaultGrammar.Admit(text) {
		return domain.Report{Status: domain.StatusUnknown}, false
	}
	return Extract(text), true
}

// Extract runs every extractor independently over sanitized text.
func Extract(text string) domain.Report {
	r := domain.Report{
		Location:  ExtractLocation(text),
		Status:    ExtractStatus(text),
		Hostile:   ExtractHostile(text),
		Alliance:  ExtractAlliance(text),
		Resources: ExtractResources(text),
		Remaining: ExtractRemaining(text),
	}
	r.World, r.HasWorld = ExtractWorld(text)
	return r
}
