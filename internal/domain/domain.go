package domain

import (
	"sort"
	"strings"
	"time"
)

// Location is one of the canonical event locations.
type Location string

const (
	LocationDWF Location = "dwf"
	LocationELM Location = "elm"
	LocationRDI Location = "rdi"
)

// Locations lists the canonical locations in display order.
var Locations = []Location{LocationDWF, LocationELM, LocationRDI}

// Status is the event state of a world.
type Status string

const (
	StatusBeamActive Status = "BEAM_ACTIVE"
	StatusBeamed     Status = "BEAMED"
	StatusBroken     Status = "BROKEN"
	StatusEmpty      Status = "EMPTY"
	StatusDown       Status = "DOWN"
	StatusUnknown    Status = "UNKNOWN"
)

// Resource is a supply category carried by a world.
type Resource string

const (
	ResourceConstruction Resource = "CONSTRUCTION"
	ResourceFarming      Resource = "FARMING"
	ResourceHerblore     Resource = "HERBLORE"
	ResourceSmithing     Resource = "SMITHING"
	ResourceMining       Resource = "MINING"
)

// Resources lists the supply categories in declaration order.
var Resources = []Resource{
	ResourceConstruction,
	ResourceFarming,
	ResourceHerblore,
	ResourceSmithing,
	ResourceMining,
}

// Letter returns the single-letter abbreviation used by the tables.
func (r Resource) Letter() string {
	switch r {
	case ResourceConstruction:
		return "C"
	case ResourceFarming:
		return "F"
	case ResourceHerblore:
		return "H"
	case ResourceSmithing:
		return "S"
	case ResourceMining:
		return "M"
	default:
		return "?"
	}
}

// Label is the human-facing name of the resource.
func (r Resource) Label() string {
	switch r {
	case ResourceConstruction:
		return "Construction"
	case ResourceFarming:
		return "Farming"
	case ResourceHerblore:
		return "Herblore"
	case ResourceSmithing:
		return "Smithing"
	case ResourceMining:
		return "Mining"
	default:
		return string(r)
	}
}

// ParseResource accepts a canonical name or its letter, case-insensitively.
func ParseResource(s string) (Resource, bool) {
	for _, r := range Resources {
		if strings.EqualFold(s, string(r)) || strings.EqualFold(s, r.Letter()) {
			return r, true
		}
	}
	return "", false
}

// Duration is a reported minutes:seconds pair.
type Duration struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// TotalSeconds returns the duration in seconds.
func (d Duration) TotalSeconds() int { return d.Minutes*60 + d.Seconds }

// RemainingTime is a countdown observed at a given instant.
type RemainingTime struct {
	ObservedAt time.Time `json:"observed_at" format:"date-time"`
	Initial    Duration  `json:"initial"`
}

// Left returns the whole seconds still on the clock at now. Values <= 0 mean expired.
func (rt RemainingTime) Left(now time.Time) int {
	elapsed := int(now.Sub(rt.ObservedAt) / time.Second)
	return rt.Initial.TotalSeconds() - elapsed
}

// Reporter identifies who sent a report.
type Reporter struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// DisplayName prefers the nickname over the username.
func (r Reporter) DisplayName() string {
	if r.Nickname != "" {
		return r.Nickname
	}
	return r.Username
}

// Origin identifies the community a report came from.
type Origin struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Report is the structured result of parsing one chat line.
type Report struct {
	World     int        `json:"world"`
	HasWorld  bool       `json:"-"`
	Location  *Location  `json:"location,omitempty"`
	Status    Status     `json:"status" enum:"BEAM_ACTIVE,BEAMED,BROKEN,EMPTY,DOWN,UNKNOWN"`
	Hostile   bool       `json:"hostile"`
	Alliance  bool       `json:"alliance"`
	Resources []Resource `json:"resources,omitempty"`
	Remaining *Duration  `json:"remaining,omitempty"`
}

// HasSignal reports whether any category beyond the world number was extracted.
func (r Report) HasSignal() bool {
	return r.Location != nil ||
		r.Status != StatusUnknown ||
		len(r.Resources) > 0 ||
		r.Hostile ||
		r.Alliance ||
		r.Remaining != nil
}

// FirstReport is captured once when a world record is created.
type FirstReport struct {
	Reporter Reporter  `json:"reporter"`
	Origin   Origin    `json:"origin"`
	At       time.Time `json:"at" format:"date-time"`
	Location Location  `json:"location"`
}

// WorldRecord is the merged state of one world.
type WorldRecord struct {
	World       int            `json:"world"`
	Location    *Location      `json:"location,omitempty"`
	Status      Status         `json:"status" enum:"BEAM_ACTIVE,BEAMED,BROKEN,EMPTY,DOWN,UNKNOWN"`
	Resources   []Resource     `json:"resources,omitempty"`
	Hostile     bool           `json:"hostile"`
	Alliance    bool           `json:"alliance"`
	Remaining   *RemainingTime `json:"remaining,omitempty"`
	ReportedBy  []Reporter     `json:"reported_by"`
	ReportedIn  []Origin       `json:"reported_in"`
	FirstReport FirstReport    `json:"first_report"`
	UpdatedAt   time.Time      `json:"updated_at" format:"date-time"`
}

// At returns the record location or the empty string.
func (w WorldRecord) At() Location {
	if w.Location == nil {
		return ""
	}
	return *w.Location
}

// HasResource reports whether the record carries the resource tag.
func (w WorldRecord) HasResource(r Resource) bool {
	for _, have := range w.Resources {
		if have == r {
			return true
		}
	}
	return false
}

// ResourceLetters returns sorted single-letter abbreviations.
func (w WorldRecord) ResourceLetters() []string {
	out := make([]string, 0, len(w.Resources))
	for _, r := range w.Resources {
		out = append(out, r.Letter())
	}
	sort.Strings(out)
	return out
}

// Clone returns a deep copy.
func (w WorldRecord) Clone() WorldRecord {
	c := w
	if w.Location != nil {
		loc := *w.Location
		c.Location = &loc
	}
	if w.Remaining != nil {
		rt := *w.Remaining
		c.Remaining = &rt
	}
	c.Resources = append([]Resource(nil), w.Resources...)
	c.ReportedBy = append([]Reporter(nil), w.ReportedBy...)
	c.ReportedIn = append([]Origin(nil), w.ReportedIn...)
	return c
}

// Outcome is the result of submitting a report.
type Outcome string

const (
	OutcomeIgnored                 Outcome = "ignored"
	OutcomeAccepted                Outcome = "accepted"
	OutcomeRejectedInvalidWorld    Outcome = "rejected_invalid_world"
	OutcomeRejectedNoSignal        Outcome = "rejected_no_signal"
	OutcomeRejectedUnknownLocation Outcome = "rejected_unknown_location"
)

// Player is the persisted statistics row of a community member.
type Player struct {
	ID               string         `json:"id"`
	Username         string         `json:"username"`
	RSN              string         `json:"rsn,omitempty"`
	RSNHistory       []string       `json:"rsn_history"`
	Clan             string         `json:"clan,omitempty"`
	ClanHistory      []string       `json:"clan_history"`
	Alts             []string       `json:"alts"`
	TotalEvents      int            `json:"total_events"`
	EventDates       []string       `json:"event_dates"`
	EventSeconds     int            `json:"event_seconds"`
	WorldsReported   int            `json:"worlds_reported"`
	SuppliesReported map[string]int `json:"supplies_reported"`
	Warnings         int            `json:"warnings"`
	WarningDates     []string       `json:"warning_dates"`
	Suspensions      int            `json:"suspensions"`
	SuspensionDates  []string       `json:"suspension_dates"`
	Notes            string         `json:"notes,omitempty"`
}

// BotStatus summarises the tracker and its process.
type BotStatus struct {
	StoredWorlds int              `json:"stored_worlds"`
	PerLocation  map[Location]int `json:"per_location"`
	Beamed       int              `json:"beamed"`
	Hostile      int              `json:"hostile"`
	WithTime     int              `json:"with_time"`
	Uptime       time.Duration    `json:"uptime_ns"`
	HeapAlloc    uint64           `json:"heap_alloc"`
	HeapSys      uint64           `json:"heap_sys"`
	Goroutines   int              `json:"goroutines"`
	NumCPU       int              `json:"num_cpu"`
	GoVersion    string           `json:"go_version"`
	Platform     string           `json:"platform"`
	PID          int              `json:"pid"`
}
