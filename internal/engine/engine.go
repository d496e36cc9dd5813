package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"wbtracker/internal/config"
	"wbtracker/internal/domain"
	"wbtracker/internal/events"
	"wbtracker/internal/logging"
	"wbtracker/internal/parse"
	"wbtracker/internal/registry"
	"wbtracker/internal/render"
	"wbtracker/internal/repo"
	"wbtracker/internal/schedule"
)

// Journal records report outcomes. events.Writer satisfies it.
type Journal interface {
	Append(events.Entry) error
}

// Engine ties the parser, the world registry, the player store and the
// journal together. The zero Repo (nil DB) disables player statistics.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Registry *registry.Registry
	Journal  Journal
	Config   *config.Config
	Schedule schedule.Schedule
	Log      *zap.Logger
	Now      func() time.Time
	Started  time.Time
}

func New(db *sql.DB, cfg *config.Config, log *zap.Logger) (Engine, error) {
	sched, err := cfg.ParsedSchedule()
	if err != nil {
		return Engine{}, fmt.Errorf("schedule: %w", err)
	}
	return Engine{
		DB:       db,
		Repo:     repo.Repo{DB: db},
		Registry: registry.New(),
		Config:   cfg,
		Schedule: sched,
		Log:      logging.OrNop(log),
		Now:      time.Now,
		Started:  time.Now(),
	}, nil
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) log() *zap.Logger { return logging.OrNop(e.Log) }

func (e Engine) statsEnabled() bool { return e.Repo.DB != nil }

// ChatResult is what OnChatLine did with one line.
type ChatResult struct {
	Outcome domain.Outcome
	Created bool
	Report  *domain.Report
	Record  *domain.WorldRecord
}

// HasTime reports whether the line carried a countdown.
func (r ChatResult) HasTime() bool { return r.Report != nil && r.Report.Remaining != nil }

// OnChatLine parses raw and submits it to the registry. Lines that fail the
// grammar or carry no world number are Ignored and leave no trace.
func (e Engine) OnChatLine(ctx context.Context, raw string, who domain.Reporter, origin domain.Origin) ChatResult {
	rep, ok := parse.Line(raw)
	if !ok || !rep.HasWorld {
		return ChatResult{Outcome: domain.OutcomeIgnored}
	}
	now := e.now()
	res := e.Registry.ReportWorld(registry.Submission{Report: rep, Reporter: who, Origin: origin, At: now})
	out := ChatResult{Outcome: res.Outcome, Created: res.Created, Report: &rep, Record: res.Record}

	fields := []zap.Field{
		zap.Int("world", rep.World),
		zap.String("reporter", who.DisplayName()),
		zap.String("outcome", string(res.Outcome)),
	}
	if res.Outcome == domain.OutcomeAccepted {
		e.log().Info("world report", append(fields, zap.Bool("created", res.Created))...)
	} else {
		e.log().Debug("world report rejected", fields...)
	}

	if e.Journal != nil {
		entry := events.Entry{At: now, Line: raw, Reporter: who, Origin: origin, Outcome: res.Outcome, Created: res.Created, Report: &rep}
		if err := e.Journal.Append(entry); err != nil {
			e.log().Warn("journal append failed", zap.Error(err))
		}
	}
	if res.Outcome == domain.OutcomeAccepted {
		e.recordReportStats(ctx, who, rep, res.Created)
	}
	return out
}

func (e Engine) recordReportStats(ctx context.Context, who domain.Reporter, rep domain.Report, created bool) {
	if !e.statsEnabled() {
		return
	}
	warn := func(step string, err error) {
		e.log().Warn("player stats", zap.String("step", step), zap.String("player", who.ID), zap.Error(err))
	}
	if err := e.Repo.RegisterPlayer(ctx, who.ID, who.Username, e.now()); err != nil {
		warn("register", err)
		return
	}
	if created {
		if err := e.Repo.IncrementWorldsReported(ctx, who.ID); err != nil {
			warn("worlds_reported", err)
		}
	}
	for _, r := range rep.Resources {
		if err := e.Repo.IncrementSupplyReported(ctx, who.ID, r); err != nil {
			warn("supplies_reported", err)
		}
	}
}

// HostileMarker is the configured skull emoji or the default marker.
func (e Engine) HostileMarker() string {
	if e.Config != nil {
		if m := e.Config.Emoji("skull"); m != "" {
			return m
		}
	}
	return render.DefaultHostileMarker
}

// Emoji resolves a configured emoji name, "" when unknown.
func (e Engine) Emoji(name string) string {
	if e.Config == nil {
		return ""
	}
	return e.Config.Emoji(name)
}

// Worlds returns the ordered snapshot, optionally filtered by resource.
func (e Engine) Worlds(filter *domain.Resource) []domain.WorldRecord {
	return e.Registry.Snapshot(registry.Filter{Resource: filter})
}

// List renders the grouped list.
func (e Engine) List(filter *domain.Resource) string {
	out := render.GroupedList(e.Worlds(nil), filter, e.HostileMarker())
	if filter != nil {
		if icon := e.Emoji(strings.ToLower(filter.Label())); icon != "" {
			out = icon + " " + out
		}
	}
	return out
}

// Table renders the resource-by-location matrix.
func (e Engine) Table() string { return render.Matrix(e.Worlds(nil)) }

// Timelist renders the live countdown table.
func (e Engine) Timelist() string { return render.Countdown(e.Worlds(nil), e.now()) }

// Sweep flips expired countdowns to DOWN.
func (e Engine) Sweep() []int {
	downed := e.Registry.SweepExpired(e.now())
	for _, w := range downed {
		e.log().Info("world countdown expired", zap.Int("world", w))
	}
	return downed
}

// Clear drops every tracked world.
func (e Engine) Clear() {
	n := e.Registry.Len()
	e.Registry.Clear()
	e.log().Info("world list cleared", zap.Int("dropped", n))
}

// DisplayOffset is the configured display zone in hours from UTC.
func (e Engine) DisplayOffset() int {
	if e.Config == nil {
		return 0
	}
	return e.Config.TimezoneOffsetHours
}

// ScheduleText renders the weekly table for a display offset plus the
// next-event and reset sentences.
func (e Engine) ScheduleText(offsetHours int) string {
	now := e.now()
	table := render.ScheduleTable(e.Schedule.Times(offsetHours), render.ScheduleHeader(offsetHours))
	next, ok := e.Schedule.Next(now)
	return strings.Join([]string{
		"```" + table + "```",
		render.NextEvent(next.Sub(now), ok, e.Emoji("notify")),
		render.UntilReset(schedule.UntilReset(now), e.Emoji("loop2")),
	}, "\n")
}

// Status summarises the registry and the process.
func (e Engine) Status() domain.BotStatus {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := domain.BotStatus{
		PerLocation: map[domain.Location]int{},
		Uptime:      e.now().Sub(e.Started),
		HeapAlloc:   ms.HeapAlloc,
		HeapSys:     ms.HeapSys,
		Goroutines:  runtime.NumGoroutine(),
		NumCPU:      runtime.NumCPU(),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		PID:         os.Getpid(),
	}
	for _, rec := range e.Worlds(nil) {
		s.StoredWorlds++
		if loc := rec.At(); loc != "" {
			s.PerLocation[loc]++
		}
		if rec.Status == domain.StatusBeamed {
			s.Beamed++
		}
		if rec.Hostile {
			s.Hostile++
		}
		if rec.Remaining != nil {
			s.WithTime++
		}
	}
	return s
}

// RecordParticipants registers every member and counts one event for each.
func (e Engine) RecordParticipants(ctx context.Context, members []domain.Reporter) {
	if !e.statsEnabled() {
		return
	}
	now := e.now()
	for _, m := range members {
		if err := e.Repo.RegisterPlayer(ctx, m.ID, m.Username, now); err != nil {
			e.log().Warn("register participant", zap.String("player", m.ID), zap.Error(err))
			continue
		}
		if err := e.Repo.RecordParticipation(ctx, m.ID, now); err != nil {
			e.log().Warn("record participation", zap.String("player", m.ID), zap.Error(err))
		}
	}
}

// AddPresence credits seconds of in-event time to every member.
func (e Engine) AddPresence(ctx context.Context, members []domain.Reporter, seconds int) {
	if !e.statsEnabled() {
		return
	}
	now := e.now()
	for _, m := range members {
		if err := e.Repo.RegisterPlayer(ctx, m.ID, m.Username, now); err != nil {
			e.log().Warn("register participant", zap.String("player", m.ID), zap.Error(err))
			continue
		}
		if err := e.Repo.AddParticipationTime(ctx, m.ID, seconds); err != nil {
			e.log().Warn("add participation time", zap.String("player", m.ID), zap.Error(err))
		}
	}
}

// SetRSN registers the player if needed and sets the in-game name.
func (e Engine) SetRSN(ctx context.Context, player domain.Reporter, rsn string) (domain.Player, error) {
	return e.updatePlayer(ctx, player, func() error { return e.Repo.SetRSN(ctx, player.ID, rsn) })
}

// SetClan registers the player if needed and sets the clan.
func (e Engine) SetClan(ctx context.Context, player domain.Reporter, clan string) (domain.Player, error) {
	return e.updatePlayer(ctx, player, func() error { return e.Repo.SetClan(ctx, player.ID, clan) })
}

// SetNotes registers the player if needed and replaces the moderator notes.
func (e Engine) SetNotes(ctx context.Context, player domain.Reporter, notes string) (domain.Player, error) {
	return e.updatePlayer(ctx, player, func() error { return e.Repo.SetNotes(ctx, player.ID, notes) })
}

// Warn records a warning against an existing player.
func (e Engine) Warn(ctx context.Context, id string) (domain.Player, error) {
	if err := e.Repo.ApplyWarning(ctx, id, e.now()); err != nil {
		return domain.Player{}, err
	}
	return e.Repo.GetPlayer(ctx, id)
}

// Suspend records a suspension against an existing player.
func (e Engine) Suspend(ctx context.Context, id string) (domain.Player, error) {
	if err := e.Repo.ApplySuspension(ctx, id, e.now()); err != nil {
		return domain.Player{}, err
	}
	return e.Repo.GetPlayer(ctx, id)
}

func (e Engine) updatePlayer(ctx context.Context, player domain.Reporter, apply func() error) (domain.Player, error) {
	if err := e.Repo.RegisterPlayer(ctx, player.ID, player.Username, e.now()); err != nil {
		return domain.Player{}, fmt.Errorf("register player: %w", err)
	}
	if err := apply(); err != nil {
		return domain.Player{}, err
	}
	return e.Repo.GetPlayer(ctx, player.ID)
}
