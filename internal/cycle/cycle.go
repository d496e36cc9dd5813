package cycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wbtracker/internal/config"
	"wbtracker/internal/domain"
	"wbtracker/internal/engine"
	"wbtracker/internal/logging"
	"wbtracker/internal/schedule"
)

const (
	// Lead is how long before an event start the cycle fires.
	Lead          = 15 * time.Minute
	SweepInterval = 15 * time.Second
	PresenceStep  = 60

	AlertText = "**WB IN 15 MINUTES!**"
)

var reminders = []string{
	"Turn off private chat",
	"Leave your clan and guest clan chats",
	"Leave any boss or reef group",
	"Make sure you are in the announced friends chat",
	"Wear your full gear set",
	"Bring a suitable beast of burden familiar",
	"Turn off auto retaliate",
	"Check that your prayer points are full",
	"Every time you hop worlds, check that Protect Item is on",
}

// Platform is what the cycle needs from the chat platform.
type Platform interface {
	Send(ctx context.Context, channelID, text string) error
	VoiceMembers(ctx context.Context, channelID string) ([]domain.Reporter, error)
	MoveMember(ctx context.Context, memberID, channelID string) error
}

// Runner drives the per-event actions, the presence tick and the sweep.
type Runner struct {
	Engine   engine.Engine
	Platform Platform
	Channels config.Channels
	Log      *zap.Logger
	Now      func() time.Time

	// Sleep waits d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error

	ClearAfter  time.Duration
	BannerAfter time.Duration
}

func New(e engine.Engine, p Platform, log *zap.Logger) *Runner {
	r := &Runner{
		Engine:      e,
		Platform:    p,
		Log:         logging.OrNop(log),
		Now:         e.Now,
		ClearAfter:  10 * time.Minute,
		BannerAfter: time.Minute,
	}
	if e.Config != nil {
		r.Channels = e.Config.Channels
	}
	return r
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) log() *zap.Logger { return logging.OrNop(r.Log) }

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RunEvent performs the pre-event actions for one scheduled event. Platform
// failures are logged and the remaining steps still run.
func (r *Runner) RunEvent(ctx context.Context, event schedule.Entry) error {
	log := r.log().With(zap.String("event", event.Clock()))
	for _, ch := range r.Channels.Alerts {
		if err := r.Platform.Send(ctx, ch, AlertText); err != nil {
			log.Warn("send alert", zap.String("channel", ch), zap.Error(err))
		}
	}

	if err := r.sleep(ctx, r.ClearAfter); err != nil {
		return err
	}
	r.Engine.Clear()

	if r.Channels.PreVoice != "" && r.Channels.Voice != "" {
		r.moveMembers(ctx, log)
	}
	if r.Channels.Voice != "" {
		members, err := r.Platform.VoiceMembers(ctx, r.Channels.Voice)
		if err != nil {
			log.Warn("list voice members", zap.Error(err))
		} else if len(members) > 0 {
			r.Engine.RecordParticipants(ctx, members)
			log.Info("participation recorded", zap.Int("members", len(members)))
		}
	}

	if err := r.sleep(ctx, r.BannerAfter); err != nil {
		return err
	}
	banner := Banner(event, r.now())
	for _, ch := range r.Channels.Warbands {
		if err := r.Platform.Send(ctx, ch, banner); err != nil {
			log.Warn("send reminders", zap.String("channel", ch), zap.Error(err))
		}
	}
	return nil
}

func (r *Runner) moveMembers(ctx context.Context, log *zap.Logger) {
	members, err := r.Platform.VoiceMembers(ctx, r.Channels.PreVoice)
	if err != nil {
		log.Warn("list pre-event voice members", zap.Error(err))
		return
	}
	moved := 0
	for _, m := range members {
		if err := r.Platform.MoveMember(ctx, m.ID, r.Channels.Voice); err != nil {
			log.Warn("move member", zap.String("member", m.ID), zap.Error(err))
			continue
		}
		moved++
	}
	if moved > 0 {
		log.Info("members moved to event voice", zap.Int("moved", moved))
	}
}

// TrackPresence credits one minute to every event voice member while an
// event is running. It reports whether anything was credited.
func (r *Runner) TrackPresence(ctx context.Context) bool {
	if r.Channels.Voice == "" || !r.Engine.Schedule.InEvent(r.now(), schedule.EventLength) {
		return false
	}
	members, err := r.Platform.VoiceMembers(ctx, r.Channels.Voice)
	if err != nil {
		r.log().Warn("list voice members", zap.Error(err))
		return false
	}
	if len(members) == 0 {
		return false
	}
	r.Engine.AddPresence(ctx, members, PresenceStep)
	r.log().Debug("presence credited", zap.Int("members", len(members)))
	return true
}

// Start schedules every event trigger and the presence tick, runs the sweep
// loop, and blocks until ctx is done.
func (r *Runner) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	for _, trig := range r.Engine.Schedule.CronSpecs(Lead) {
		event := trig.Event
		if _, err := c.AddFunc(trig.Spec, func() {
			if err := r.RunEvent(ctx, event); err != nil && ctx.Err() == nil {
				r.log().Error("event cycle", zap.String("event", event.Clock()), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule %q: %w", trig.Spec, err)
		}
	}
	if _, err := c.AddFunc("@every 1m", func() { r.TrackPresence(ctx) }); err != nil {
		return fmt.Errorf("schedule presence: %w", err)
	}
	c.Start()
	r.log().Info("event cycle started", zap.Int("triggers", r.Engine.Schedule.Len()))

	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()
			return nil
		case <-ticker.C:
			r.Engine.Sweep()
		}
	}
}

// Banner is the reminders message posted shortly before an event.
func Banner(event schedule.Entry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "```\n══════════ WARBANDS %s %s ══════════```\n", event.Clock(), now.UTC().Format("2006-01-02"))
	b.WriteString("**Final reminders:**\n")
	for _, line := range reminders {
		b.WriteString(":small_orange_diamond: " + line + "\n")
	}
	b.WriteString("\nSEND YOUR WORLD'S LOCATION IN THIS CHANNEL!")
	return b.String()
}
