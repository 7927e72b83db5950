package analysis

import (
	"sort"

	"crypto-indices/src/analysis/core"
	"crypto-indices/src/models"
)

// Window is one aligned bucket of a sorted timestamp slice.
type Window struct {
	Indices   []int
	StartTime int64
	EndTime   int64
}

// TimeSeriesResampler handles time-based bucketing and candle building.
type TimeSeriesResampler struct{}

// -----------------------------------------------------------------------------

// ResampleIndices groups sorted timestamps into windows aligned to multiples
// of windowSeconds. Empty windows are omitted.
func (r *TimeSeriesResampler) ResampleIndices(timestamps []int64, windowSeconds int64) []Window {
	if len(timestamps) == 0 || windowSeconds <= 0 {
		return []Window{}
	}

	var results []Window
	for i := 0; i < len(timestamps); {
		start, end := CalculateWindowBoundaries(timestamps[i], windowSeconds)

		// First index at or past the window end
		endIdx := i + sort.Search(len(timestamps)-i, func(j int) bool {
			return timestamps[i+j] >= end
		})

		indices := make([]int, endIdx-i)
		for idx := i; idx < endIdx; idx++ {
			indices[idx-i] = idx
		}
		results = append(results, Window{Indices: indices, StartTime: start, EndTime: end})
		i = endIdx
	}

	return results
}

// -----------------------------------------------------------------------------

// AggregateCandles buckets levels into OHLCV candles of periodSeconds width.
// When minCandles > 0 and the input holds fewer than half that many points,
// it is first interpolated to minCandles*2 points. Candles that fail
// validation are dropped. Output is in ascending time order.
func (r *TimeSeriesResampler) AggregateCandles(levels []models.MIndexLevel, periodSeconds int64, minCandles int) []models.MCandle {
	if len(levels) == 0 || periodSeconds <= 0 {
		return []models.MCandle{}
	}

	if minCandles > 0 && float64(len(levels)) < float64(minCandles)*InterpolationThreshold {
		levels = Interpolate(levels, minCandles*2)
	}

	sorted := make([]models.MIndexLevel, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	timestamps := make([]int64, len(sorted))
	for i, l := range sorted {
		timestamps[i] = l.Timestamp
	}

	candles := make([]models.MCandle, 0)
	for _, w := range r.ResampleIndices(timestamps, periodSeconds) {
		values := make([]float64, len(w.Indices))
		volumes := make([]float64, len(w.Indices))
		for i, idx := range w.Indices {
			values[i] = sorted[idx].Value
			volumes[i] = sorted[idx].Volume
		}

		ohlcv := core.ComputeOHLCV(values, volumes)
		candle, err := models.NewCandle(w.StartTime, ohlcv.Open, ohlcv.High, ohlcv.Low, ohlcv.Close, ohlcv.Volume)
		if err != nil {
			continue
		}
		candles = append(candles, candle)
	}

	return candles
}

// -----------------------------------------------------------------------------

// CalculateWindowBoundaries returns the aligned [start, end) window holding ts.
// Negative timestamps floor toward minus infinity.
func CalculateWindowBoundaries(ts int64, window int64) (int64, int64) {
	start := ts - (ts % window)
	if ts%window < 0 {
		start -= window
	}
	return start, start + window
}
