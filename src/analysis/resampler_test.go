package analysis

import (
	"math/rand"
	"testing"

	"crypto-indices/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateWindowBoundaries(t *testing.T) {
	start, end := CalculateWindowBoundaries(3700, 1800)
	assert.Equal(t, int64(3600), start)
	assert.Equal(t, int64(5400), end)

	start, end = CalculateWindowBoundaries(3600, 1800)
	assert.Equal(t, int64(3600), start)
	assert.Equal(t, int64(5400), end)

	start, _ = CalculateWindowBoundaries(-1, 1800)
	assert.Equal(t, int64(-1800), start)
}

func TestResampleIndicesSkipsEmptyWindows(t *testing.T) {
	r := &TimeSeriesResampler{}

	windows := r.ResampleIndices([]int64{0, 100, 5000, 5100, 5399}, 1800)
	require.Len(t, windows, 2)
	assert.Equal(t, []int{0, 1}, windows[0].Indices)
	assert.Equal(t, int64(0), windows[0].StartTime)
	assert.Equal(t, []int{2, 3, 4}, windows[1].Indices)
	assert.Equal(t, int64(3600), windows[1].StartTime)

	assert.Empty(t, r.ResampleIndices(nil, 1800))
	assert.Empty(t, r.ResampleIndices([]int64{1}, 0))
}

func TestAggregateCandlesDaily(t *testing.T) {
	r := &TimeSeriesResampler{}
	base := int64(1_700_000_100)

	var levels []models.MIndexLevel
	for i := 0; i < 96; i++ {
		levels = append(levels, models.MIndexLevel{
			Timestamp: base + int64(i)*900,
			Value:     1000 + float64(i),
			Volume:    10,
		})
	}

	candles := r.AggregateCandles(levels, 1800, 48)
	require.NotEmpty(t, candles)
	for i, c := range candles {
		assert.Zero(t, c.Time%1800)
		assert.True(t, c.Valid())
		if i > 0 {
			assert.Greater(t, c.Time, candles[i-1].Time)
		}
	}

	total := 0.0
	for _, c := range candles {
		total += c.VolumeUsd
	}
	assert.InDelta(t, 960.0, total, 1e-9)
}

func TestAggregateCandlesInterpolatesSparseInput(t *testing.T) {
	r := &TimeSeriesResampler{}
	levels := []models.MIndexLevel{
		{Timestamp: 0, Value: 100},
		{Timestamp: 43200, Value: 200},
		{Timestamp: 86400, Value: 150},
	}

	candles := r.AggregateCandles(levels, 1800, 48)
	assert.GreaterOrEqual(t, len(candles), 48)
	for _, c := range candles {
		assert.True(t, c.Valid())
	}
}

func TestAggregateCandlesEmpty(t *testing.T) {
	r := &TimeSeriesResampler{}
	candles := r.AggregateCandles(nil, 3600, 720)
	require.NotNil(t, candles)
	assert.Empty(t, candles)
}

func TestAggregateCandlesEnvelopeHolds(t *testing.T) {
	r := &TimeSeriesResampler{}
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(400)
		levels := make([]models.MIndexLevel, n)
		for i := range levels {
			levels[i] = models.MIndexLevel{
				Timestamp: rng.Int63n(30 * 86400),
				Value:     rng.Float64() * 5000,
				Volume:    rng.Float64() * 1e6,
			}
		}

		for _, c := range r.AggregateCandles(levels, 3600, 720) {
			require.True(t, c.Valid(), "run %d candle %+v", run, c)
			assert.GreaterOrEqual(t, c.High, c.Open)
			assert.GreaterOrEqual(t, c.High, c.Close)
			assert.LessOrEqual(t, c.Low, c.Open)
			assert.LessOrEqual(t, c.Low, c.Close)
			assert.GreaterOrEqual(t, c.VolumeUsd, 0.0)
		}
	}
}
