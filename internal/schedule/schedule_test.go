package schedule_test

import (
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/schedule"
)

func mustParse(t *testing.T, days map[string][]string) schedule.Schedule {
	t.Helper()
	s, err := schedule.Parse(days)
	require.NoError(t, err)
	return s
}

func TestParseRejectsBadInput(t *testing.T) {
	_, err := schedule.Parse(map[string][]string{"funday": {"01:00"}})
	assert.Error(t, err)
	_, err = schedule.Parse(map[string][]string{"monday": {"25:00"}})
	assert.Error(t, err)
	_, err = schedule.Parse(map[string][]string{"monday": {"1:5"}})
	assert.Error(t, err)
}

func TestTimesShiftAcrossMidnight(t *testing.T) {
	s := mustParse(t, map[string][]string{
		"segunda": {"02:00", "14:00"},
		"domingo": {"23:30"},
	})
	utc := s.Times(0)
	assert.Equal(t, []string{"02:00", "14:00"}, utc[time.Monday])
	assert.Equal(t, []string{"23:30"}, utc[time.Sunday])

	br := s.Times(-3)
	assert.Equal(t, []string{"20:30", "23:00"}, br[time.Sunday])
	assert.Equal(t, []string{"11:00"}, br[time.Monday])

	east := s.Times(3)
	assert.Equal(t, []string{"02:30", "05:00", "17:00"}, east[time.Monday])
	assert.Empty(t, east[time.Sunday])
}

func TestNext(t *testing.T) {
	s := mustParse(t, map[string][]string{"wednesday": {"18:00"}})
	// Wednesday 2024-03-06
	now := time.Date(2024, 3, 6, 17, 0, 0, 0, time.UTC)
	next, ok := s.Next(now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC), next)

	next, ok = s.Next(time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 13, 18, 0, 0, 0, time.UTC), next)

	_, ok = schedule.New(nil).Next(now)
	assert.False(t, ok)
}

func TestUntilReset(t *testing.T) {
	now := time.Date(2024, 3, 6, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, 2*time.Hour+30*time.Minute, schedule.UntilReset(now))
	assert.Equal(t, "2h30", schedule.FormatHM(schedule.UntilReset(now)))
}

func TestInEvent(t *testing.T) {
	s := mustParse(t, map[string][]string{"wednesday": {"18:00"}})
	start := time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC)
	assert.True(t, s.InEvent(start, schedule.EventLength))
	assert.True(t, s.InEvent(start.Add(30*time.Minute), schedule.EventLength))
	assert.False(t, s.InEvent(start.Add(31*time.Minute), schedule.EventLength))
	assert.False(t, s.InEvent(start.Add(-time.Minute), schedule.EventLength))
	assert.False(t, s.InEvent(start.AddDate(0, 0, 1), schedule.EventLength))
}

func TestInEventAcrossMidnight(t *testing.T) {
	s := mustParse(t, map[string][]string{"sabado": {"23:50"}})
	start := time.Date(2024, 3, 9, 23, 50, 0, 0, time.UTC)
	assert.True(t, s.InEvent(start.Add(10*time.Minute), schedule.EventLength))
	assert.True(t, s.InEvent(start.Add(25*time.Minute), schedule.EventLength))
	assert.False(t, s.InEvent(start.Add(31*time.Minute), schedule.EventLength))
	// Sunday 23:55 is a day too late
	assert.False(t, s.InEvent(start.AddDate(0, 0, 1).Add(5*time.Minute), schedule.EventLength))
}

func TestCronSpecsRollBackAcrossMidnight(t *testing.T) {
	s := mustParse(t, map[string][]string{
		"monday":  {"00:10"},
		"tuesday": {"18:00"},
	})
	triggers := s.CronSpecs(15 * time.Minute)
	require.Len(t, triggers, 2)
	assert.Equal(t, "55 23 * * 0", triggers[0].Spec)
	assert.Equal(t, "00:10", triggers[0].Event.Clock())
	assert.Equal(t, "45 17 * * 2", triggers[1].Spec)

	for _, tr := range triggers {
		_, err := cron.ParseStandard(tr.Spec)
		assert.NoError(t, err, tr.Spec)
	}
}
