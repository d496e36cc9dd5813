package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/config"
	"wbtracker/internal/db"
	"wbtracker/internal/domain"
	"wbtracker/internal/engine"
	"wbtracker/internal/events"
	"wbtracker/internal/migrate"
)

type memJournal struct {
	mu      sync.Mutex
	entries []events.Entry
}

func (j *memJournal) Append(e events.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
	return nil
}

type testEnv struct {
	Engine  engine.Engine
	Journal *memJournal
	Clock   *time.Time
	Ctx     context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(context.Background(), conn)
	require.NoError(t, err)

	cfg, err := config.Default("chan-1")
	require.NoError(t, err)
	eng, err := engine.New(conn, cfg, nil)
	require.NoError(t, err)
	clock := time.Date(2024, 3, 6, 18, 5, 0, 0, time.UTC)
	eng.Now = func() time.Time { return clock }
	eng.Started = clock.Add(-time.Hour)
	j := &memJournal{}
	eng.Journal = j
	return testEnv{Engine: eng, Journal: j, Clock: &clock, Ctx: context.Background()}
}

var alice = domain.Reporter{ID: "u1", Username: "alice"}
var guild = domain.Origin{ID: "g1", Name: "Guild"}

func TestOnChatLineOutcomes(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine

	assert.Equal(t, domain.OutcomeIgnored, e.OnChatLine(env.Ctx, "anyone at 24?", alice, guild).Outcome)
	assert.Equal(t, domain.OutcomeIgnored, e.OnChatLine(env.Ctx, "dwf beamed", alice, guild).Outcome)
	assert.Equal(t, domain.OutcomeRejectedInvalidWorld, e.OnChatLine(env.Ctx, "3 dwf", alice, guild).Outcome)
	assert.Equal(t, domain.OutcomeRejectedNoSignal, e.OnChatLine(env.Ctx, "24", alice, guild).Outcome)
	assert.Equal(t, domain.OutcomeRejectedUnknownLocation, e.OnChatLine(env.Ctx, "45 c", alice, guild).Outcome)

	res := e.OnChatLine(env.Ctx, "24 DWF Beamed PK 2:30", alice, guild)
	assert.Equal(t, domain.OutcomeAccepted, res.Outcome)
	assert.True(t, res.Created)
	assert.True(t, res.HasTime())

	// ignored lines are not journaled
	require.Len(t, env.Journal.entries, 4)
	assert.Equal(t, "24 DWF Beamed PK 2:30", env.Journal.entries[3].Line)
	assert.True(t, env.Journal.entries[3].Created)
}

func TestOnChatLineRecordsStats(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	e.OnChatLine(env.Ctx, "24 dwf cm", alice, guild)
	e.OnChatLine(env.Ctx, "24 m", alice, guild)
	e.OnChatLine(env.Ctx, "45 c", alice, guild)

	p, err := e.Repo.GetPlayer(env.Ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.WorldsReported)
	assert.Equal(t, map[string]int{"CONSTRUCTION": 1, "MINING": 2}, p.SuppliesReported)
}

func TestStatsDisabledWithoutDB(t *testing.T) {
	cfg, err := config.Default("chan-1")
	require.NoError(t, err)
	eng, err := engine.New(nil, cfg, nil)
	require.NoError(t, err)
	res := eng.OnChatLine(context.Background(), "24 dwf", alice, guild)
	assert.Equal(t, domain.OutcomeAccepted, res.Outcome)
	eng.RecordParticipants(context.Background(), []domain.Reporter{alice})
}

func TestRendersAndSweep(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	e.OnChatLine(env.Ctx, "24 dwf beamed pk", alice, guild)
	e.OnChatLine(env.Ctx, "52 rdi 0:30", alice, guild)

	assert.Contains(t, e.List(nil), "**__24__**"+e.HostileMarker())
	assert.Contains(t, e.Table(), "B24 PK")
	assert.Contains(t, e.Timelist(), "0:30")

	*env.Clock = env.Clock.Add(31 * time.Second)
	assert.Equal(t, []int{52}, e.Sweep())
	assert.Contains(t, e.List(nil), "~~52~~")
	assert.NotContains(t, e.Timelist(), "0:30")

	s := e.Status()
	assert.Equal(t, 2, s.StoredWorlds)
	assert.Equal(t, 1, s.Beamed)
	assert.Equal(t, 1, s.Hostile)
	assert.Equal(t, 0, s.WithTime)
	assert.Equal(t, 1, s.PerLocation[domain.LocationRDI])

	e.Clear()
	assert.Equal(t, 0, e.Status().StoredWorlds)
}

func TestHostileMarkerUsesConfiguredEmoji(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, "☠️", env.Engine.HostileMarker())
	env.Engine.Config.Emojis.Static = map[string]string{"skull": "42"}
	assert.Equal(t, "<:skull:42>", env.Engine.HostileMarker())
}

func TestListFilterHeader(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.OnChatLine(env.Ctx, "24 dwf s", alice, guild)
	s := domain.ResourceSmithing
	out := env.Engine.List(&s)
	assert.Contains(t, out, "Smithing")
	assert.Contains(t, out, "**DWF**: 24")
}

func TestScheduleText(t *testing.T) {
	env := newTestEnv(t)
	out := env.Engine.ScheduleText(0)
	assert.Contains(t, out, "Wednesday")
	// clock is Wednesday 18:05; the next start in the default schedule is 21:00
	assert.Contains(t, out, "`2h55` left until the next **event**")
	assert.Contains(t, out, "`5h55` left until the daily **reset**")
}

func TestParticipationAndAdmin(t *testing.T) {
	env := newTestEnv(t)
	e := env.Engine
	bob := domain.Reporter{ID: "u2", Username: "bob"}
	e.RecordParticipants(env.Ctx, []domain.Reporter{alice, bob})
	e.AddPresence(env.Ctx, []domain.Reporter{alice}, 60)

	p, err := e.SetRSN(env.Ctx, alice, "Zezima")
	require.NoError(t, err)
	assert.Equal(t, "Zezima", p.RSN)
	assert.Equal(t, 1, p.TotalEvents)
	assert.Equal(t, 60, p.EventSeconds)

	p, err = e.SetClan(env.Ctx, domain.Reporter{ID: "u3", Username: "carol"}, "Clan")
	require.NoError(t, err)
	assert.Equal(t, "Clan", p.Clan)

	p, err = e.SetNotes(env.Ctx, bob, "calls worlds late")
	require.NoError(t, err)
	assert.Equal(t, "calls worlds late", p.Notes)

	p, err = e.Warn(env.Ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Warnings)
	p, err = e.Suspend(env.Ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Suspensions)
}
