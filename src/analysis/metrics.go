package analysis

import (
	"math"
	"time"

	"crypto-indices/src/analysis/core"
	"crypto-indices/src/models"
)

const (
	periodsPerYear = 365
	dateLayout     = "2006-01-02"
)

// -----------------------------------------------------------------------------

// ComputePerformance derives return figures from ascending candles, measured
// at now. A horizon the candles do not reach falls back to the first open.
func ComputePerformance(candles []models.MCandle, now time.Time) *models.MPerformanceMetrics {
	if len(candles) == 0 {
		return &models.MPerformanceMetrics{}
	}

	now = now.UTC()
	current := candles[len(candles)-1].Close
	inception := candles[0].Open

	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	perf := &models.MPerformanceMetrics{
		YTD:            core.CalculateChangePercent(current, closeAt(candles, yearStart.Unix())),
		OneMonth:       core.CalculateChangePercent(current, closeAt(candles, now.AddDate(0, -1, 0).Unix())),
		ThreeMonth:     core.CalculateChangePercent(current, closeAt(candles, now.AddDate(0, -3, 0).Unix())),
		OneYear:        core.CalculateChangePercent(current, closeAt(candles, now.AddDate(-1, 0, 0).Unix())),
		SinceInception: core.CalculateChangePercent(current, inception),
		High52Week:     current,
		Low52Week:      current,
	}

	cutoff := now.AddDate(0, 0, -52*7).Unix()
	for _, c := range candles {
		if c.Time < cutoff {
			continue
		}
		perf.High52Week = math.Max(perf.High52Week, c.High)
		perf.Low52Week = math.Min(perf.Low52Week, c.Low)
	}

	return perf
}

// -----------------------------------------------------------------------------

// closeAt returns the close of the last candle at or before ts.
func closeAt(candles []models.MCandle, ts int64) float64 {
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].Time <= ts {
			return candles[i].Close
		}
	}
	return candles[0].Open
}

// -----------------------------------------------------------------------------

// ComputeRisk derives volatility, Sharpe and drawdown from candle closes.
// Volatility and drawdown are in percent.
func ComputeRisk(candles []models.MCandle) *models.MRiskMetrics {
	risk := &models.MRiskMetrics{}
	if len(candles) < 2 {
		return risk
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	returns := core.SimpleReturns(closes)

	annualize := math.Sqrt(periodsPerYear)
	_, std30 := core.CalculateMeanStd(core.Tail(returns, 30))
	_, std90 := core.CalculateMeanStd(core.Tail(returns, 90))
	risk.Volatility30d = std30 * annualize * 100
	risk.Volatility90d = std90 * annualize * 100

	mean, std := core.CalculateMeanStd(returns)
	if std > 0 {
		risk.SharpeRatio = (mean * periodsPerYear) / (std * annualize)
	}

	peak := closes[0]
	for i, v := range closes {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - v) / peak * 100
		if dd > risk.MaxDrawdown {
			risk.MaxDrawdown = dd
			risk.MaxDrawdownDate = time.Unix(candles[i].Time, 0).UTC().Format(dateLayout)
		}
	}

	return risk
}

// -----------------------------------------------------------------------------

// FormatDate renders a unix timestamp as a UTC calendar date.
func FormatDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(dateLayout)
}
