package render

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"wbtracker/internal/schedule"
)

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ScheduleHeader names the display zone of a schedule table.
func ScheduleHeader(offsetHours int) string {
	if offsetHours == 0 {
		return "Event schedule (official game time, UTC)"
	}
	return fmt.Sprintf("Event schedule (UTC%+03d:00)", offsetHours)
}

// ScheduleTable lays the week out in seven columns, Sunday first.
func ScheduleTable(days [7][]string, header string) string {
	tw := newTable()
	tw.SetTitle(header)
	tw.Style().Title.Align = text.AlignCenter

	head := table.Row{}
	for _, name := range weekdayNames {
		head = append(head, name)
	}
	tw.AppendHeader(head)

	rows := 0
	for _, d := range days {
		rows = max(rows, len(d))
	}
	for i := 0; i < rows; i++ {
		row := make(table.Row, 7)
		for d := range days {
			if i < len(days[d]) {
				row[d] = days[d][i]
			} else {
				row[d] = ""
			}
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

// NextEvent is the "time to next event" sentence.
func NextEvent(d time.Duration, ok bool, icon string) string {
	if !ok {
		return "Could not work out the time to the next event"
	}
	return fmt.Sprintf("%s `%s` left until the next **event**", icon, schedule.FormatHM(d))
}

// UntilReset is the "time to daily reset" sentence.
func UntilReset(d time.Duration, icon string) string {
	return fmt.Sprintf("%s `%s` left until the daily **reset**", icon, schedule.FormatHM(d))
}
