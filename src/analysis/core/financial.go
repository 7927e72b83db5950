package core

import "math"

// OHLCV is the summary of one bucket of values.
type OHLCV struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// -----------------------------------------------------------------------------

// ComputeOHLCV summarizes time-ordered values and their volumes.
func ComputeOHLCV(values []float64, volumes []float64) OHLCV {
	if len(values) == 0 {
		return OHLCV{}
	}

	out := OHLCV{
		Open:  values[0],
		Close: values[len(values)-1],
		High:  math.Inf(-1),
		Low:   math.Inf(1),
	}

	for i, v := range values {
		if v > out.High {
			out.High = v
		}
		if v < out.Low {
			out.Low = v
		}
		if i < len(volumes) {
			out.Volume += volumes[i]
		}
	}

	return out
}

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates percentage change (in percent, not ratio).
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous * 100
}
