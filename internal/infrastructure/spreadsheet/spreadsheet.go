package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CellKind classifies a grid cell.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
	KindDate
)

// Cell is one spreadsheet cell. Number carries the parsed value when Kind
// is KindNumber, Time the parsed value when Kind is KindDate; Text always
// carries the display string.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// Grid is a rectangular view of one sheet, rows of cells.
type Grid [][]Cell

// Load reads the first sheet of an xlsx file into a Grid. Numeric-looking
// cells get a parsed Number alongside their text, native date cells a
// parsed Time; everything else stays text. Rows are not padded to equal
// width, callers index defensively.
func Load(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	grid := make(Grid, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, raw := range row {
			cell := classify(raw)
			if cell.Kind == KindText {
				if t, ok := dateValue(f, sheet, i+1, j+1, cell.Text); ok {
					cell = Cell{Kind: KindDate, Text: cell.Text, Time: t}
				}
			}
			cells[j] = cell
		}
		grid[i] = cells
	}
	return grid, nil
}

func classify(raw string) Cell {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Cell{Kind: KindEmpty}
	}
	if n, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64); err == nil {
		return Cell{Kind: KindNumber, Text: text, Number: n}
	}
	return Cell{Kind: KindText, Text: text}
}

// dateValue detects native date cells. GetRows renders them through their
// number format ("8/5/26 00:00" and friends), which only the raw serial
// can disambiguate: a cell whose formatted text is not numeric but whose
// stored value is a serial inside the plausible calendar window is a date.
func dateValue(f *excelize.File, sheet string, row, col int, formatted string) (time.Time, bool) {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return time.Time{}, false
	}
	raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil || raw == formatted {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil || t.Year() < 1950 || t.Year() > 2200 {
		return time.Time{}, false
	}
	return t, true
}
