// Package render formats registry snapshots and schedules as chat text.
// Every function here is pure: callers pass the records and the clock.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"wbtracker/internal/domain"
	"wbtracker/internal/registry"
)

// DefaultHostileMarker suffixes hostile worlds when no custom emoji is set.
const DefaultHostileMarker = "☠️"

const emptyLocation = "No worlds reported..."

// GroupedList renders one line per location. filter, when set, keeps only
// records carrying that resource and prefixes a header naming it.
func GroupedList(records []domain.WorldRecord, filter *domain.Resource, marker string) string {
	byLoc := make(map[domain.Location][]domain.WorldRecord, len(domain.Locations))
	for _, rec := range records {
		if filter != nil && !rec.HasResource(*filter) {
			continue
		}
		byLoc[rec.At()] = append(byLoc[rec.At()], rec)
	}

	lines := make([]string, 0, len(domain.Locations)+1)
	if filter != nil {
		lines = append(lines, fmt.Sprintf("Showing only worlds with **%s** supplies:", filter.Label()))
	}
	for _, loc := range domain.Locations {
		group := byLoc[loc]
		registry.Sort(group)
		body := emptyLocation
		if len(group) > 0 {
			parts := make([]string, 0, len(group))
			for _, rec := range group {
				parts = append(parts, listEntry(rec, marker))
			}
			body = strings.Join(parts, ", ")
		}
		lines = append(lines, fmt.Sprintf("**%s**: %s", strings.ToUpper(string(loc)), body))
	}
	return strings.Join(lines, "\n")
}

func listEntry(rec domain.WorldRecord, marker string) string {
	n := strconv.Itoa(rec.World)
	var out string
	switch registry.Bucket(rec.Status) {
	case 0:
		out = "**__" + n + "__**"
	case 2:
		out = "~~" + n + "~~"
	default:
		out = n
	}
	if rec.Hostile {
		out += marker
	}
	return out
}
