package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"wbtracker/internal/domain"
)

// CountdownLimit caps the countdown table.
const CountdownLimit = 10

// CountdownRow is one live countdown line.
type CountdownRow struct {
	SecondsLeft int
	World       int
	Location    domain.Location
	Status      domain.Status
	Resources   []string
	Hostile     bool
	Alliance    bool
}

// Clock formats the remaining time as m:ss.
func (r CountdownRow) Clock() string {
	return fmt.Sprintf("%d:%02d", r.SecondsLeft/60, r.SecondsLeft%60)
}

// CountdownRows recomputes every countdown at now, drops the expired ones
// and keeps the ten longest.
func CountdownRows(records []domain.WorldRecord, now time.Time) []CountdownRow {
	var rows []CountdownRow
	for _, rec := range records {
		if rec.Remaining == nil {
			continue
		}
		left := rec.Remaining.Left(now)
		if left <= 0 {
			continue
		}
		rows = append(rows, CountdownRow{
			SecondsLeft: left,
			World:       rec.World,
			Location:    rec.At(),
			Status:      rec.Status,
			Resources:   rec.ResourceLetters(),
			Hostile:     rec.Hostile,
			Alliance:    rec.Alliance,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].SecondsLeft > rows[j].SecondsLeft })
	if len(rows) > CountdownLimit {
		rows = rows[:CountdownLimit]
	}
	return rows
}

// Countdown renders CountdownRows as a table.
func Countdown(records []domain.WorldRecord, now time.Time) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Time Left", "World", "Loc", "Status", "Supplies", "PK?", "Ally?"})
	for _, r := range CountdownRows(records, now) {
		supplies := "-"
		if len(r.Resources) > 0 {
			supplies = strings.Join(r.Resources, ", ")
		}
		tw.AppendRow(table.Row{
			r.Clock(),
			r.World,
			strings.ToUpper(string(r.Location)),
			r.Status,
			supplies,
			yesNo(r.Hostile),
			yesNo(r.Alliance),
		})
	}
	configs := make([]table.ColumnConfig, 0, 7)
	for i := 1; i <= 7; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignCenter, AlignHeader: text.AlignCenter})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
