package render_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbtracker/internal/domain"
	"wbtracker/internal/render"
)

var now = time.Date(2024, 3, 2, 21, 0, 0, 0, time.UTC)

func rec(world int, loc domain.Location, status domain.Status, res ...domain.Resource) domain.WorldRecord {
	l := loc
	return domain.WorldRecord{World: world, Location: &l, Status: status, Resources: res}
}

func timed(r domain.WorldRecord, secs int, observed time.Time) domain.WorldRecord {
	r.Remaining = &domain.RemainingTime{
		ObservedAt: observed,
		Initial:    domain.Duration{Minutes: secs / 60, Seconds: secs % 60},
	}
	return r
}

func TestGroupedList(t *testing.T) {
	hostile := rec(9, domain.LocationDWF, domain.StatusUnknown)
	hostile.Hostile = true
	records := []domain.WorldRecord{
		rec(5, domain.LocationDWF, domain.StatusDown),
		hostile,
		rec(2, domain.LocationDWF, domain.StatusBeamed),
		rec(40, domain.LocationRDI, domain.StatusEmpty, domain.ResourceFarming),
	}
	got := render.GroupedList(records, nil, "X")
	want := "**DWF**: **__2__**, 9X, ~~5~~\n" +
		"**ELM**: No worlds reported...\n" +
		"**RDI**: ~~40~~"
	assert.Equal(t, want, got)
}

func TestGroupedListFiltered(t *testing.T) {
	records := []domain.WorldRecord{
		rec(5, domain.LocationDWF, domain.StatusUnknown, domain.ResourceMining),
		rec(6, domain.LocationDWF, domain.StatusUnknown, domain.ResourceFarming),
	}
	m := domain.ResourceMining
	got := render.GroupedList(records, &m, render.DefaultHostileMarker)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Mining")
	assert.Equal(t, "**DWF**: 5", lines[1])
}

func TestMatrixEmpty(t *testing.T) {
	cells := render.MatrixCells(nil)
	require.Len(t, cells, 6)
	n := 0
	for _, row := range cells {
		require.Len(t, row, 3)
		for _, c := range row {
			assert.Equal(t, "---", c)
			n++
		}
	}
	assert.Equal(t, 18, n)
	assert.Equal(t, 18, strings.Count(render.Matrix(nil), "---"))
}

func TestMatrixCells(t *testing.T) {
	hostile := rec(24, domain.LocationDWF, domain.StatusBeamed, domain.ResourceConstruction)
	hostile.Hostile = true
	records := []domain.WorldRecord{
		hostile,
		rec(1, domain.LocationDWF, domain.StatusDown, domain.ResourceConstruction, domain.ResourceMining),
		rec(30, domain.LocationDWF, domain.StatusUnknown, domain.ResourceConstruction),
		rec(45, domain.LocationELM, domain.StatusUnknown),
	}
	cells := render.MatrixCells(records)
	// rows: C F H M S ?; columns: DWF ELM RDI
	assert.Equal(t, "B24 PK - 30 - !1", cells[0][0])
	assert.Equal(t, "!1", cells[3][0])
	assert.Equal(t, "45", cells[5][1])
	assert.Equal(t, "---", cells[5][0])
	assert.Equal(t, "---", cells[0][2])
}

func TestCountdownRows(t *testing.T) {
	var records []domain.WorldRecord
	for i := 1; i <= 12; i++ {
		records = append(records, timed(rec(i, domain.LocationELM, domain.StatusUnknown), i*60, now))
	}
	records = append(records, timed(rec(50, domain.LocationELM, domain.StatusUnknown), 30, now.Add(-time.Minute)))
	records = append(records, rec(60, domain.LocationELM, domain.StatusUnknown))

	rows := render.CountdownRows(records, now.Add(10*time.Second))
	require.Len(t, rows, render.CountdownLimit)
	assert.Equal(t, 12, rows[0].World)
	assert.Equal(t, 710, rows[0].SecondsLeft)
	assert.Equal(t, "11:50", rows[0].Clock())
	assert.Equal(t, 3, rows[9].World)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].SecondsLeft, rows[i].SecondsLeft)
	}
}

func TestCountdownTable(t *testing.T) {
	r := timed(rec(24, domain.LocationDWF, domain.StatusBeamed, domain.ResourceSmithing, domain.ResourceConstruction), 65, now)
	r.Hostile = true
	out := render.Countdown([]domain.WorldRecord{r}, now)
	assert.Contains(t, out, "1:05")
	assert.Contains(t, out, "DWF")
	assert.Contains(t, out, "C, S")
	assert.Contains(t, out, "Yes")
	assert.Contains(t, out, "No")

	bare := render.Countdown([]domain.WorldRecord{timed(rec(2, domain.LocationRDI, domain.StatusUnknown), 5, now)}, now)
	assert.Contains(t, bare, " - ")
}

func TestScheduleTable(t *testing.T) {
	var days [7][]string
	days[1] = []string{"02:00", "14:00"}
	days[3] = []string{"18:00"}
	out := render.ScheduleTable(days, render.ScheduleHeader(-3))
	assert.Contains(t, out, "UTC-03:00")
	assert.Contains(t, out, "Monday")
	assert.Contains(t, out, "14:00")
	assert.Contains(t, render.ScheduleHeader(0), "UTC")
}

func TestSentences(t *testing.T) {
	assert.Equal(t, "@ `2h05` left until the next **event**", render.NextEvent(2*time.Hour+5*time.Minute, true, "@"))
	assert.NotContains(t, render.NextEvent(0, false, "@"), "@")
	assert.Equal(t, "@ `0h30` left until the daily **reset**", render.UntilReset(30*time.Minute, "@"))
}

func TestStatusFormatting(t *testing.T) {
	assert.Equal(t, "1.50 KB", render.Bytes(1536))
	assert.Equal(t, "12.00 B", render.Bytes(12))
	assert.Equal(t, "1d 1h 1m 1s", render.Uptime(90061*time.Second))

	out := render.Status(domain.BotStatus{
		StoredWorlds: 3,
		PerLocation:  map[domain.Location]int{domain.LocationDWF: 2, domain.LocationRDI: 1},
		Beamed:       1,
	})
	assert.Contains(t, out, "Stored: `3`")
	assert.Contains(t, out, "• DWF: `2`")
	assert.Contains(t, out, "• ELM: `0`")
}
