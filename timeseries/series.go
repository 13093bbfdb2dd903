// Package timeseries provides the series type shared by the statistics and
// modelling packages.
package timeseries

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when timestamps and values disagree in length.
var ErrLengthMismatch = errors.New("timestamps and values must have the same length")

// Series represents a regularly spaced time series.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
	Frequency  int // observations per year; 4 for quarterly data, 0 if unknown
}

// New creates a series from values without timestamps.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewWithTimestamps creates a series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, ErrLengthMismatch
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Quarterly creates a quarterly series whose first observation falls on start.
// start should be the first day of a quarter.
func Quarterly(start time.Time, values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	for i := range timestamps {
		timestamps[i] = start.AddDate(0, 3*i, 0)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Frequency:  4,
	}
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// HasTimestamps reports whether every value carries a timestamp.
func (s *Series) HasTimestamps() bool {
	return len(s.Values) > 0 && len(s.Timestamps) == len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.lagDiff(1, "_diff")
}

// DiffN applies first differencing n times.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 {
		return s.Copy()
	}
	out := s
	for i := 0; i < n; i++ {
		out = out.Diff()
	}
	return out
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.lagDiff(m, "_sdiff")
}

func (s *Series) lagDiff(lag int, suffix string) *Series {
	if lag <= 0 || len(s.Values) <= lag {
		return &Series{Values: []float64{}, Name: s.Name + suffix, Frequency: s.Frequency}
	}

	result := make([]float64, len(s.Values)-lag)
	for i := lag; i < len(s.Values); i++ {
		result[i-lag] = s.Values[i] - s.Values[i-lag]
	}

	var timestamps []time.Time
	if s.HasTimestamps() {
		timestamps = make([]time.Time, len(result))
		copy(timestamps, s.Timestamps[lag:])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     result,
		Name:       s.Name + suffix,
		Frequency:  s.Frequency,
	}
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name, Frequency: s.Frequency}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	var timestamps []time.Time
	if s.HasTimestamps() {
		timestamps = make([]time.Time, len(values))
		copy(timestamps, s.Timestamps[start:end])
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Frequency:  s.Frequency,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	var timestamps []time.Time
	if s.Timestamps != nil {
		timestamps = make([]time.Time, len(s.Timestamps))
		copy(timestamps, s.Timestamps)
	}

	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       s.Name,
		Frequency:  s.Frequency,
	}
}

// Last returns the timestamp of the final observation, or the zero time.
func (s *Series) Last() time.Time {
	if !s.HasTimestamps() {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// NextTimestamps returns h timestamps continuing the series calendar.
// Frequencies that divide a year evenly step by whole months; anything else
// repeats the spacing of the last two observations. Returns nil when the
// series carries no timestamps.
func (s *Series) NextTimestamps(h int) []time.Time {
	if h <= 0 || !s.HasTimestamps() {
		return nil
	}
	last := s.Last()
	out := make([]time.Time, h)

	if s.Frequency > 0 && 12%s.Frequency == 0 {
		months := 12 / s.Frequency
		for i := range out {
			out[i] = last.AddDate(0, months*(i+1), 0)
		}
		return out
	}

	step := time.Duration(0)
	if n := len(s.Timestamps); n >= 2 {
		step = s.Timestamps[n-1].Sub(s.Timestamps[n-2])
	}
	for i := range out {
		out[i] = last.Add(step * time.Duration(i+1))
	}
	return out
}
