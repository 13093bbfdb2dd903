// Package spreadsheet reads quarterly yields from workbooks laid out with a
// year header row, a period label row and one yield row per area.
package spreadsheet

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/sartorproj/riceyield/yield"
)

var (
	ErrNoSheet     = errors.New("sheet not found")
	ErrLayout      = errors.New("workbook does not match the layout")
	ErrPeriodLabel = errors.New("unrecognised period label")
	ErrYieldValue  = errors.New("unparseable yield value")
)

var yearRe = regexp.MustCompile(`\b(1[89]\d{2}|2\d{3})\b`)

// Markers publishers use for a missing observation.
var missingMarkers = map[string]bool{
	"":    true,
	"..":  true,
	"...": true,
	"-":   true,
	"na":  true,
	"n/a": true,
}

// Layout locates the rows of interest. Row numbers are 1-based as in the
// spreadsheet. YieldRow may be left zero, in which case the row whose first
// cell names Province is used.
type Layout struct {
	Sheet     string // empty selects the first sheet
	YearRow   int
	PeriodRow int
	YieldRow  int
	Province  string
}

// Stats counts what the reader did with the cells of the yield row.
type Stats struct {
	Cells      int // data columns inspected
	Records    int // records kept
	Missing    int // cells holding a missing marker
	Skipped    int // annual or total columns
	Duplicates int // repeated quarters replaced by a later column
}

// Read opens the workbook at path and extracts the yield table.
func Read(path string, layout Layout) (*yield.Table, Stats, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return Parse(f, layout)
}

// Parse extracts the yield table from an open workbook.
func Parse(f *excelize.File, layout Layout) (*yield.Table, Stats, error) {
	var stats Stats

	sheet := layout.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, stats, ErrNoSheet
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, stats, fmt.Errorf("%w: %q", ErrNoSheet, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, stats, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	yieldRow := layout.YieldRow
	if yieldRow == 0 && layout.Province != "" {
		yieldRow = findProvinceRow(rows, layout.Province)
		if yieldRow == 0 {
			return nil, stats, fmt.Errorf("%w: no row labelled %q in sheet %q", ErrLayout, layout.Province, sheet)
		}
	}
	for _, r := range []struct {
		name string
		row  int
	}{{"year", layout.YearRow}, {"period", layout.PeriodRow}, {"yield", yieldRow}} {
		if r.row < 1 || r.row > len(rows) {
			return nil, stats, fmt.Errorf("%w: %s row %d outside sheet %q with %d rows", ErrLayout, r.name, r.row, sheet, len(rows))
		}
	}

	years := rows[layout.YearRow-1]
	periods := rows[layout.PeriodRow-1]
	values := rows[yieldRow-1]

	first := -1
	for col, cell := range years {
		if yearRe.MatchString(cell) {
			first = col
			break
		}
	}
	if first < 0 {
		return nil, stats, fmt.Errorf("%w: no year in row %d", ErrLayout, layout.YearRow)
	}

	table := &yield.Table{Name: provinceName(values, first, layout.Province)}

	last := max(len(years), len(periods))
	year := 0
	for col := first; col < last; col++ {
		// Merged year headers only carry a value in their first cell.
		if y, ok := parseYear(cellAt(years, col)); ok {
			year = y
		}

		label := cellAt(periods, col)
		quarter, skip, ok := parsePeriod(label)
		if !ok {
			return nil, stats, fmt.Errorf("%w: %q at %s", ErrPeriodLabel, label, cellName(col, layout.PeriodRow))
		}
		if skip {
			if strings.TrimSpace(label) != "" {
				stats.Skipped++
			}
			continue
		}

		stats.Cells++
		raw := cellAt(values, col)
		if missingMarkers[strings.ToLower(strings.TrimSpace(raw))] {
			stats.Missing++
			continue
		}
		value, err := parseYield(raw)
		if err != nil {
			return nil, stats, fmt.Errorf("%w: %q at %s", ErrYieldValue, raw, cellName(col, yieldRow))
		}

		rec, err := yield.NewRecord(year, quarter, value)
		if err != nil {
			return nil, stats, fmt.Errorf("%s: %w", cellName(col, yieldRow), err)
		}
		table.Records = append(table.Records, rec)
	}

	stats.Duplicates = table.Dedupe()
	stats.Records = table.Len()
	if err := table.Validate(); err != nil {
		return nil, stats, err
	}
	return table, stats, nil
}

func cellAt(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Sprintf("R%dC%d", row, col+1)
	}
	return name
}

func parseYear(cell string) (int, bool) {
	m := yearRe.FindString(cell)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	return y, err == nil
}

func parseYield(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return decimal.NewFromString(s)
}

// trimLabel strips the indentation dots some publishers prefix to sub-areas.
func trimLabel(s string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "."))
}

func findProvinceRow(rows [][]string, province string) int {
	for i, row := range rows {
		if len(row) > 0 && strings.EqualFold(trimLabel(row[0]), trimLabel(province)) {
			return i + 1
		}
	}
	return 0
}

// provinceName takes the first non-blank label cell of the yield row.
func provinceName(row []string, labelCols int, fallback string) string {
	for col := 0; col < labelCols && col < len(row); col++ {
		if name := trimLabel(row[col]); name != "" {
			return name
		}
	}
	return fallback
}
