package analysis

import (
	"testing"
	"time"

	"crypto-indices/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyCandles(start time.Time, closes ...float64) []models.MCandle {
	out := make([]models.MCandle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		high, low := c, c
		if open > high {
			high = open
		}
		if open < low {
			low = open
		}
		out[i] = models.MCandle{
			Time:  start.AddDate(0, 0, i).Unix(),
			Open:  open,
			High:  high,
			Low:   low,
			Close: c,
		}
	}
	return out
}

func TestComputePerformanceEmpty(t *testing.T) {
	perf := ComputePerformance(nil, time.Now())
	require.NotNil(t, perf)
	assert.Zero(t, perf.YTD)
	assert.Zero(t, perf.High52Week)
}

func TestComputePerformanceHorizons(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	days := int(now.Sub(start).Hours()/24) + 1
	closes := make([]float64, days)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	candles := dailyCandles(start, closes...)
	current := closes[len(closes)-1]

	closeOn := func(d time.Time) float64 {
		idx := int(d.Sub(start).Hours() / 24)
		return closes[idx]
	}

	perf := ComputePerformance(candles, now)
	ytdBase := closeOn(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.InDelta(t, (current-ytdBase)/ytdBase*100, perf.YTD, 1e-9)

	monthBase := closeOn(now.AddDate(0, -1, 0))
	assert.InDelta(t, (current-monthBase)/monthBase*100, perf.OneMonth, 1e-9)

	yearBase := closeOn(now.AddDate(-1, 0, 0))
	assert.InDelta(t, (current-yearBase)/yearBase*100, perf.OneYear, 1e-9)

	assert.InDelta(t, (current-100)/100*100, perf.SinceInception, 1e-9)
	assert.Equal(t, current, perf.High52Week)
	assert.Greater(t, perf.Low52Week, 100.0)
}

func TestComputePerformanceShortHistoryFallsBackToInception(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	candles := dailyCandles(now.AddDate(0, 0, -3), 50, 55, 60, 66)

	perf := ComputePerformance(candles, now)
	assert.InDelta(t, 32.0, perf.OneYear, 1e-9)
	assert.InDelta(t, 32.0, perf.ThreeMonth, 1e-9)
	assert.InDelta(t, 32.0, perf.SinceInception, 1e-9)
	assert.Equal(t, 66.0, perf.High52Week)
	assert.Equal(t, 50.0, perf.Low52Week)
}

func TestComputeRiskDrawdown(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	candles := dailyCandles(start, 100, 120, 60, 90)

	risk := ComputeRisk(candles)
	assert.InDelta(t, 50.0, risk.MaxDrawdown, 1e-9)
	assert.Equal(t, "2024-03-03", risk.MaxDrawdownDate)
	assert.Greater(t, risk.Volatility30d, 0.0)
	assert.Equal(t, risk.Volatility30d, risk.Volatility90d)
}

func TestComputeRiskFlatSeries(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	risk := ComputeRisk(dailyCandles(start, 10, 10, 10, 10))

	assert.Zero(t, risk.Volatility30d)
	assert.Zero(t, risk.SharpeRatio)
	assert.Zero(t, risk.MaxDrawdown)
	assert.Empty(t, risk.MaxDrawdownDate)
}

func TestComputeRiskTooShort(t *testing.T) {
	risk := ComputeRisk(dailyCandles(time.Now(), 10))
	assert.Equal(t, &models.MRiskMetrics{}, risk)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "1970-01-02", FormatDate(86400))
}
