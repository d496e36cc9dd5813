package render

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"wbtracker/internal/domain"
	"wbtracker/internal/registry"
)

const emptyCell = "---"

// matrixRows are the row labels in display order; "?" holds untagged worlds.
var matrixRows = []struct {
	label    string
	resource domain.Resource
}{
	{"C", domain.ResourceConstruction},
	{"F", domain.ResourceFarming},
	{"H", domain.ResourceHerblore},
	{"M", domain.ResourceMining},
	{"S", domain.ResourceSmithing},
	{"?", ""},
}

// MatrixCells returns the cell text indexed by row then location column.
func MatrixCells(records []domain.WorldRecord) [][]string {
	cells := make([][]string, len(matrixRows))
	for i, row := range matrixRows {
		cells[i] = make([]string, len(domain.Locations))
		for j, loc := range domain.Locations {
			var hit []domain.WorldRecord
			for _, rec := range records {
				if rec.At() != loc {
					continue
				}
				if row.resource == "" && len(rec.Resources) == 0 ||
					row.resource != "" && rec.HasResource(row.resource) {
					hit = append(hit, rec)
				}
			}
			cells[i][j] = matrixCell(hit)
		}
	}
	return cells
}

func matrixCell(records []domain.WorldRecord) string {
	if len(records) == 0 {
		return emptyCell
	}
	registry.Sort(records)
	parts := make([]string, 0, len(records))
	for _, rec := range records {
		var b strings.Builder
		switch registry.Bucket(rec.Status) {
		case 0:
			b.WriteString("B")
		case 2:
			b.WriteString("!")
		}
		b.WriteString(strconv.Itoa(rec.World))
		if rec.Hostile {
			b.WriteString(" PK")
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, " - ")
}

// Matrix renders the resource-by-location table.
func Matrix(records []domain.WorldRecord) string {
	tw := newTable()
	header := table.Row{""}
	for _, loc := range domain.Locations {
		header = append(header, strings.ToUpper(string(loc)))
	}
	tw.AppendHeader(header)
	for i, cells := range MatrixCells(records) {
		row := table.Row{matrixRows[i].label}
		for _, c := range cells {
			row = append(row, c)
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignCenter, WidthMin: 3},
		{Number: 2, Align: text.AlignCenter, AlignHeader: text.AlignCenter, WidthMin: 16},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter, WidthMin: 16},
		{Number: 4, Align: text.AlignCenter, AlignHeader: text.AlignCenter, WidthMin: 16},
	})
	return tw.Render()
}

// newTable returns a writer with the box style shared by every table.
func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = true
	tw.Style().Format.Header = text.FormatDefault
	return tw
}
