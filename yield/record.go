// Package yield holds the tidy quarterly yield table produced by cleaning and
// consumed by modelling and plotting.
package yield

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sartorproj/riceyield/timeseries"
)

var (
	ErrUnordered     = errors.New("records are not in chronological order")
	ErrQuarter       = errors.New("quarter must be between 1 and 4")
	ErrNegativeYield = errors.New("yield must not be negative")
	ErrDuplicate     = errors.New("duplicate quarter")
	ErrDate          = errors.New("date does not match year and quarter")
	ErrGap           = errors.New("missing quarters")
	ErrEmpty         = errors.New("table has no records")
)

// Record is one quarterly observation.
type Record struct {
	Date    time.Time // first day of the quarter, UTC
	Year    int
	Quarter int
	Yield   decimal.Decimal
}

// QuarterStart returns the first day of the given quarter.
func QuarterStart(year, quarter int) time.Time {
	return time.Date(year, time.Month(3*(quarter-1)+1), 1, 0, 0, 0, 0, time.UTC)
}

// NewRecord validates quarter and yield and derives the date.
func NewRecord(year, quarter int, value decimal.Decimal) (Record, error) {
	r := Record{Date: QuarterStart(year, quarter), Year: year, Quarter: quarter, Yield: value}
	if err := r.validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (r Record) validate() error {
	if r.Quarter < 1 || r.Quarter > 4 {
		return fmt.Errorf("%d Q%d: %w", r.Year, r.Quarter, ErrQuarter)
	}
	if r.Yield.IsNegative() {
		return fmt.Errorf("%d Q%d: %w: %s", r.Year, r.Quarter, ErrNegativeYield, r.Yield)
	}
	if !r.Date.Equal(QuarterStart(r.Year, r.Quarter)) {
		return fmt.Errorf("%d Q%d: %w: %s", r.Year, r.Quarter, ErrDate, r.Date.Format(DateLayout))
	}
	return nil
}

// Label formats the record's period as "2019 Q3".
func (r Record) Label() string {
	return fmt.Sprintf("%d Q%d", r.Year, r.Quarter)
}

// Table is an ordered run of quarterly records for one series.
type Table struct {
	Name    string
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Validate checks every record and the ordering, returning the first violation.
func (t *Table) Validate() error {
	for i, r := range t.Records {
		if err := r.validate(); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		prev := t.Records[i-1].Date
		switch {
		case r.Date.Equal(prev):
			return fmt.Errorf("%s: %w", r.Label(), ErrDuplicate)
		case r.Date.Before(prev):
			return fmt.Errorf("%s after %s: %w", r.Label(), t.Records[i-1].Label(), ErrUnordered)
		}
	}
	return nil
}

// Sort orders the records by date. The sort is stable so that Dedupe keeps
// the value that appeared last in the input.
func (t *Table) Sort() {
	sort.SliceStable(t.Records, func(i, j int) bool {
		return t.Records[i].Date.Before(t.Records[j].Date)
	})
}

// Dedupe sorts the table and keeps the last record of every repeated quarter.
// It returns the number of records removed.
func (t *Table) Dedupe() int {
	t.Sort()
	out := t.Records[:0]
	for _, r := range t.Records {
		if n := len(out); n > 0 && out[n-1].Date.Equal(r.Date) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	removed := len(t.Records) - len(out)
	t.Records = out
	return removed
}

// Gaps lists the start dates of quarters missing between the first and last
// record. The table must be sorted.
func (t *Table) Gaps() []time.Time {
	var gaps []time.Time
	for i := 1; i < len(t.Records); i++ {
		next := t.Records[i-1].Date.AddDate(0, 3, 0)
		for next.Before(t.Records[i].Date) {
			gaps = append(gaps, next)
			next = next.AddDate(0, 3, 0)
		}
	}
	return gaps
}

// First and Last return the bounding records. They panic on an empty table.
func (t *Table) First() Record { return t.Records[0] }
func (t *Table) Last() Record  { return t.Records[len(t.Records)-1] }

// Series converts the table to a quarterly series. Missing quarters are an
// error unless interpolate is set, in which case they are filled linearly
// between the neighbouring observations.
func (t *Table) Series(interpolate bool) (*timeseries.Series, error) {
	if len(t.Records) == 0 {
		return nil, ErrEmpty
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if gaps := t.Gaps(); len(gaps) > 0 && !interpolate {
		return nil, fmt.Errorf("%w: %d between %s and %s, first %s",
			ErrGap, len(gaps), t.First().Label(), t.Last().Label(), gaps[0].Format(DateLayout))
	}

	values := []float64{t.Records[0].Yield.InexactFloat64()}
	for i := 1; i < len(t.Records); i++ {
		prev, cur := t.Records[i-1], t.Records[i]
		steps := quartersBetween(prev.Date, cur.Date)
		a, b := prev.Yield.InexactFloat64(), cur.Yield.InexactFloat64()
		for k := 1; k < steps; k++ {
			values = append(values, a+(b-a)*float64(k)/float64(steps))
		}
		values = append(values, b)
	}

	s := timeseries.Quarterly(t.First().Date, values)
	s.Name = t.Name
	return s, nil
}

func quartersBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*4 + (int(b.Month())-int(a.Month()))/3
}
