package stats

import (
	"fmt"
	"math"

	"github.com/sartorproj/riceyield/timeseries"
)

// Decomposition types.
const (
	DecompositionAdditive       = "additive"
	DecompositionMultiplicative = "multiplicative"
)

// DecompositionResult represents the decomposition of a time series.
type DecompositionResult struct {
	Original *timeseries.Series
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	Period   int
	Type     string
}

// Decompose performs classical seasonal decomposition of a time series with a
// centred moving-average trend. Trend and residual are NaN where the moving
// average is undefined.
func Decompose(series *timeseries.Series, period int, decompositionType string) (*DecompositionResult, error) {
	n := series.Len()
	if period < 2 || n < 2*period {
		return nil, fmt.Errorf("decompose: %w: %d observations for period %d", ErrInsufficientData, n, period)
	}

	multiplicative := decompositionType == DecompositionMultiplicative
	if !multiplicative {
		decompositionType = DecompositionAdditive
	}

	trend := centredMovingAverage(series.Values, period)

	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case multiplicative:
			if trend[i] == 0 {
				detrended[i] = math.NaN()
			} else {
				detrended[i] = series.Values[i] / trend[i]
			}
		default:
			detrended[i] = series.Values[i] - trend[i]
		}
	}

	// Average each season, then centre the pattern.
	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range detrended {
		if !math.IsNaN(v) {
			pattern[i%period] += v
			counts[i%period]++
		}
	}
	mean := 0.0
	for i := range pattern {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
		mean += pattern[i]
	}
	mean /= float64(period)
	for i := range pattern {
		if multiplicative {
			pattern[i] /= mean
		} else {
			pattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = pattern[i%period]
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case multiplicative:
			if trend[i] == 0 || seasonal[i] == 0 {
				residual[i] = math.NaN()
			} else {
				residual[i] = series.Values[i] / (trend[i] * seasonal[i])
			}
		default:
			residual[i] = series.Values[i] - trend[i] - seasonal[i]
		}
	}

	component := func(values []float64, name string) *timeseries.Series {
		return &timeseries.Series{
			Values:     values,
			Timestamps: series.Timestamps,
			Name:       name,
			Frequency:  series.Frequency,
		}
	}

	return &DecompositionResult{
		Original: series,
		Trend:    component(trend, "trend"),
		Seasonal: component(seasonal, "seasonal"),
		Residual: component(residual, "residual"),
		Period:   period,
		Type:     decompositionType,
	}, nil
}

// centredMovingAverage uses a 2xm moving average for even periods.
func centredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += values[i-half] * 0.5
			sum += values[i+half] * 0.5
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(period)
	}

	return trend
}
