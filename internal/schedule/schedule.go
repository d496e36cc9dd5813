// Package schedule models the weekly event timetable, kept in UTC.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EventLength is how long an event lasts after its start.
const EventLength = 30 * time.Minute

// weekdayKeys accepts Portuguese and English day names.
var weekdayKeys = map[string]time.Weekday{
	"domingo": time.Sunday,
	"segunda": time.Monday,
	"terca":   time.Tuesday,
	"terça":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
	"sabado":  time.Saturday,
	"sábado":  time.Saturday,

	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday resolves a configured day name.
func ParseWeekday(key string) (time.Weekday, bool) {
	d, ok := weekdayKeys[strings.ToLower(strings.TrimSpace(key))]
	return d, ok
}

// Entry is one weekly event start, in UTC.
type Entry struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// Clock formats the start as HH:MM.
func (e Entry) Clock() string { return fmt.Sprintf("%02d:%02d", e.Hour, e.Minute) }

func (e Entry) minuteOfWeek() int {
	return int(e.Weekday)*24*60 + e.Hour*60 + e.Minute
}

// shift moves the entry by d, rolling the weekday across midnight.
func (e Entry) shift(d time.Duration) Entry {
	const week = 7 * 24 * 60
	m := (e.minuteOfWeek() + int(d/time.Minute)) % week
	if m < 0 {
		m += week
	}
	return Entry{
		Weekday: time.Weekday(m / (24 * 60)),
		Hour:    m % (24 * 60) / 60,
		Minute:  m % 60,
	}
}

// ParseClock parses HH:MM.
func ParseClock(s string) (hour, minute int, err error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hour, err = strconv.Atoi(hs)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(ms)
	if err != nil || minute < 0 || minute > 59 || len(ms) != 2 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// Schedule is the sorted set of weekly event starts.
type Schedule struct {
	entries []Entry
}

// Parse builds a schedule from day name -> ["HH:MM"] in UTC.
func Parse(days map[string][]string) (Schedule, error) {
	var entries []Entry
	for key, times := range days {
		wd, ok := ParseWeekday(key)
		if !ok {
			return Schedule{}, fmt.Errorf("unknown weekday %q", key)
		}
		for _, t := range times {
			h, m, err := ParseClock(t)
			if err != nil {
				return Schedule{}, fmt.Errorf("%s: %w", key, err)
			}
			entries = append(entries, Entry{Weekday: wd, Hour: h, Minute: m})
		}
	}
	return New(entries), nil
}

// New sorts entries by position in the week.
func New(entries []Entry) Schedule {
	out := append([]Entry(nil), entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].minuteOfWeek() < out[j].minuteOfWeek() })
	return Schedule{entries: out}
}

func (s Schedule) Entries() []Entry { return append([]Entry(nil), s.entries...) }

func (s Schedule) Len() int { return len(s.entries) }

// Times returns HH:MM starts per weekday (Sunday first) shifted into a zone
// offsetHours from UTC.
func (s Schedule) Times(offsetHours int) [7][]string {
	var byDay [7][]Entry
	for _, e := range s.entries {
		shifted := e.shift(time.Duration(offsetHours) * time.Hour)
		byDay[shifted.Weekday] = append(byDay[shifted.Weekday], shifted)
	}
	var out [7][]string
	for d, list := range byDay {
		sort.Slice(list, func(i, j int) bool { return list[i].minuteOfWeek() < list[j].minuteOfWeek() })
		for _, e := range list {
			out[d] = append(out[d], e.Clock())
		}
	}
	return out
}

// Next returns the first event start strictly after now.
func (s Schedule) Next(now time.Time) (time.Time, bool) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var best time.Time
	for i := 0; i <= 7; i++ {
		day := midnight.AddDate(0, 0, i)
		for _, e := range s.entries {
			if e.Weekday != day.Weekday() {
				continue
			}
			at := day.Add(time.Duration(e.Hour)*time.Hour + time.Duration(e.Minute)*time.Minute)
			if at.After(now) && (best.IsZero() || at.Before(best)) {
				best = at
			}
		}
		if !best.IsZero() {
			return best, true
		}
	}
	return time.Time{}, false
}

// UntilReset returns the time left until the next 00:00 UTC.
func UntilReset(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}

// InEvent reports whether now falls within [start, start+window] of an
// event. Starts from the previous UTC day count, so a late event keeps
// running past midnight.
func (s Schedule) InEvent(now time.Time, window time.Duration) bool {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, day := range []time.Time{today, today.AddDate(0, 0, -1)} {
		for _, e := range s.entries {
			if e.Weekday != day.Weekday() {
				continue
			}
			start := day.Add(time.Duration(e.Hour)*time.Hour + time.Duration(e.Minute)*time.Minute)
			if d := now.Sub(start); d >= 0 && d <= window {
				return true
			}
		}
	}
	return false
}

// Trigger is a cron expression firing lead before an event start.
type Trigger struct {
	Spec  string
	Event Entry
}

// CronSpecs returns one standard five-field expression per entry, fired
// lead before the start. The weekday rolls back across midnight.
func (s Schedule) CronSpecs(lead time.Duration) []Trigger {
	out := make([]Trigger, 0, len(s.entries))
	for _, e := range s.entries {
		at := e.shift(-lead)
		out = append(out, Trigger{
			Spec:  fmt.Sprintf("%d %d * * %d", at.Minute, at.Hour, int(at.Weekday)),
			Event: e,
		})
	}
	return out
}

// FormatHM renders a duration as 3h07.
func FormatHM(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	return fmt.Sprintf("%dh%02d", h, m)
}
