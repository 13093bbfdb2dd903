package yield

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
)

// DateLayout is the date format of the Date column.
const DateLayout = "2006-01-02"

// Columns of the tidy CSV, in order.
var Columns = []string{"Date", "Year", "Quarter", "Yield"}

// ErrFormat is returned for a CSV that does not have the tidy layout.
var ErrFormat = errors.New("malformed yield csv")

// Frame returns the table as a DataFrame with yields fixed to precision
// decimal places.
func Frame(t *Table, precision int32) dataframe.DataFrame {
	n := len(t.Records)
	dates := make([]string, n)
	years := make([]int, n)
	quarters := make([]int, n)
	yields := make([]string, n)
	for i, r := range t.Records {
		dates[i] = r.Date.Format(DateLayout)
		years[i] = r.Year
		quarters[i] = r.Quarter
		yields[i] = r.Yield.StringFixed(precision)
	}

	return dataframe.New(
		series.New(dates, series.String, Columns[0]),
		series.New(years, series.Int, Columns[1]),
		series.New(quarters, series.Int, Columns[2]),
		series.New(yields, series.String, Columns[3]),
	)
}

// WriteCSV writes the table with the columns Date, Year, Quarter, Yield.
func WriteCSV(w io.Writer, t *Table, precision int32) error {
	df := Frame(t, precision)
	if df.Err != nil {
		return fmt.Errorf("build frame: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadCSV reads a tidy CSV back into a validated table.
func ReadCSV(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, df.Err)
	}

	have := make(map[string]bool)
	for _, name := range df.Names() {
		have[name] = true
	}
	for _, name := range Columns {
		if !have[name] {
			return nil, fmt.Errorf("%w: missing column %q", ErrFormat, name)
		}
	}

	dates := df.Col("Date").Records()
	years := df.Col("Year").Records()
	quarters := df.Col("Quarter").Records()
	yields := df.Col("Yield").Records()

	t := &Table{Records: make([]Record, 0, len(dates))}
	for i := range dates {
		line := i + 2
		date, err := time.Parse(DateLayout, dates[i])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: date %q", ErrFormat, line, dates[i])
		}
		year, err := strconv.Atoi(years[i])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: year %q", ErrFormat, line, years[i])
		}
		quarter, err := strconv.Atoi(quarters[i])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: quarter %q", ErrFormat, line, quarters[i])
		}
		value, err := decimal.NewFromString(yields[i])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: yield %q", ErrFormat, line, yields[i])
		}
		t.Records = append(t.Records, Record{Date: date, Year: year, Quarter: quarter, Yield: value})
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
