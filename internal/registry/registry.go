// Package registry owns the in-memory world records for the current event
// cycle and the rules for merging successive reports into them.
package registry

import (
	"sync"
	"time"

	"wbtracker/internal/domain"
	"wbtracker/internal/lexicon"
)

// Submission is one parsed report plus who sent it and when.
type Submission struct {
	Report   domain.Report
	Reporter domain.Reporter
	Origin   domain.Origin
	At       time.Time
}

// Result describes what ReportWorld did.
type Result struct {
	Outcome domain.Outcome
	Created bool
	Record  *domain.WorldRecord
}

// Registry is the sole owner of world records. All methods are safe for
// concurrent use; no method blocks while holding the lock.
type Registry struct {
	mu     sync.Mutex
	worlds map[int]*domain.WorldRecord
}

func New() *Registry {
	return &Registry{worlds: make(map[int]*domain.WorldRecord)}
}

// ReportWorld validates and merges a submission.
func (r *Registry) ReportWorld(s Submission) Result {
	rep := s.Report
	if !lexicon.ValidWorld(rep.World) {
		return Result{Outcome: domain.OutcomeRejectedInvalidWorld}
	}
	if !rep.HasSignal() {
		return Result{Outcome: domain.OutcomeRejectedNoSignal}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.worlds[rep.World]; ok {
		merge(rec, s)
		out := rec.Clone()
		return Result{Outcome: domain.OutcomeAccepted, Record: &out}
	}
	if rep.Location == nil {
		return Result{Outcome: domain.OutcomeRejectedUnknownLocation}
	}
	rec := create(s)
	r.worlds[rep.World] = rec
	out := rec.Clone()
	return Result{Outcome: domain.OutcomeAccepted, Created: true, Record: &out}
}

func create(s Submission) *domain.WorldRecord {
	rep := s.Report
	loc := *rep.Location
	rec := &domain.WorldRecord{
		World:      rep.World,
		Location:   &loc,
		Status:     rep.Status,
		Resources:  append([]domain.Resource(nil), rep.Resources...),
		Hostile:    rep.Hostile,
		Alliance:   rep.Alliance,
		Remaining:  remainingFrom(rep, s.At),
		ReportedBy: []domain.Reporter{s.Reporter},
		ReportedIn: []domain.Origin{s.Origin},
		FirstReport: domain.FirstReport{
			Reporter: s.Reporter,
			Origin:   s.Origin,
			At:       s.At,
			Location: loc,
		},
		UpdatedAt: s.At,
	}
	if rec.Status == "" {
		rec.Status = domain.StatusUnknown
	}
	return rec
}

// fieldMerge applies one category of a submission onto a record.
type fieldMerge func(rec *domain.WorldRecord, s Submission)

// mergeRules: overwrite-if-present for location, status (UNKNOWN never
// clobbers), resources (wholesale) and remaining time; monotonic OR for
// hostile and alliance; append for provenance.
var mergeRules = []fieldMerge{
	func(rec *domain.WorldRecord, s Submission) {
		if s.Report.Location != nil {
			loc := *s.Report.Location
			rec.Location = &loc
		}
	},
	func(rec *domain.WorldRecord, s Submission) {
		if s.Report.Status != "" && s.Report.Status != domain.StatusUnknown {
			rec.Status = s.Report.Status
		}
	},
	func(rec *domain.WorldRecord, s Submission) {
		if len(s.Report.Resources) > 0 {
			rec.Resources = append([]domain.Resource(nil), s.Report.Resources...)
		}
	},
	func(rec *domain.WorldRecord, s Submission) {
		rec.Hostile = rec.Hostile || s.Report.Hostile
	},
	func(rec *domain.WorldRecord, s Submission) {
		rec.Alliance = rec.Alliance || s.Report.Alliance
	},
	func(rec *domain.WorldRecord, s Submission) {
		if rt := remainingFrom(s.Report, s.At); rt != nil {
			rec.Remaining = rt
		}
	},
	func(rec *domain.WorldRecord, s Submission) {
		rec.ReportedBy = append(rec.ReportedBy, s.Reporter)
		rec.ReportedIn = append(rec.ReportedIn, s.Origin)
		rec.UpdatedAt = s.At
	},
}

func merge(rec *domain.WorldRecord, s Submission) {
	for _, apply := range mergeRules {
		apply(rec, s)
	}
}

func remainingFrom(rep domain.Report, at time.Time) *domain.RemainingTime {
	if rep.Remaining == nil {
		return nil
	}
	return &domain.RemainingTime{ObservedAt: at, Initial: *rep.Remaining}
}

// SweepExpired marks every world whose countdown ran out as DOWN and clears
// its remaining time. It returns the affected world numbers, ascending.
func (r *Registry) SweepExpired(now time.Time) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var downed []int
	for _, rec := range r.worlds {
		if rec.Remaining == nil || rec.Remaining.Left(now) > 0 {
			continue
		}
		rec.Status = domain.StatusDown
		rec.Remaining = nil
		rec.UpdatedAt = now
		downed = append(downed, rec.World)
	}
	sortInts(downed)
	return downed
}

// Clear drops every record. Called once per event cycle.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.worlds = make(map[int]*domain.WorldRecord)
	r.mu.Unlock()
}

// Len returns the number of tracked worlds.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.worlds)
}

// Get returns a copy of the record for world.
func (r *Registry) Get(world int) (domain.WorldRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.worlds[world]
	if !ok {
		return domain.WorldRecord{}, false
	}
	return rec.Clone(), true
}

// Filter selects records for a snapshot.
type Filter struct {
	Resource *domain.Resource
	Location *domain.Location
}

func (f Filter) match(rec *domain.WorldRecord) bool {
	if f.Resource != nil && !rec.HasResource(*f.Resource) {
		return false
	}
	if f.Location != nil && rec.At() != *f.Location {
		return false
	}
	return true
}

// Snapshot returns copies of the matching records in display order.
func (r *Registry) Snapshot(f Filter) []domain.WorldRecord {
	r.mu.Lock()
	out := make([]domain.WorldRecord, 0, len(r.worlds))
	for _, rec := range r.worlds {
		if f.match(rec) {
			out = append(out, rec.Clone())
		}
	}
	r.mu.Unlock()
	Sort(out)
	return out
}
