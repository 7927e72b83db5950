package models

import "strings"

// MTimePeriod is the request-level time period selector.
type MTimePeriod string

const (
	PeriodDaily MTimePeriod = "daily"
	PeriodMonth MTimePeriod = "month"
	PeriodYear  MTimePeriod = "year"
	PeriodAll   MTimePeriod = "all"

	DefaultPeriod = PeriodYear
)

// MGranularity is one row of the fixed period -> candle policy table.
type MGranularity struct {
	BucketSeconds   int64
	Timeframe       string
	MinCandles      int
	LookbackSeconds int64
}

var granularities = map[MTimePeriod]MGranularity{
	PeriodDaily: {BucketSeconds: 1800, Timeframe: "15m", MinCandles: 48, LookbackSeconds: 86400},
	PeriodMonth: {BucketSeconds: 3600, Timeframe: "1h", MinCandles: 720, LookbackSeconds: 30 * 86400},
	PeriodYear:  {BucketSeconds: 86400, Timeframe: "1d", MinCandles: 365, LookbackSeconds: 365 * 86400},
	PeriodAll:   {BucketSeconds: 604800, Timeframe: "1w", MinCandles: 52, LookbackSeconds: 730 * 86400},
}

// -----------------------------------------------------------------------------

// ParseTimePeriod normalizes a raw selector. Empty means the default period;
// anything unknown collapses to PeriodAll so it shares that cache slot.
func ParseTimePeriod(raw string) MTimePeriod {
	p := MTimePeriod(strings.ToLower(strings.TrimSpace(raw)))
	if p == "" {
		return DefaultPeriod
	}
	if _, ok := granularities[p]; !ok {
		return PeriodAll
	}
	return p
}

// -----------------------------------------------------------------------------

// Granularity returns the bucket policy for the period.
func (p MTimePeriod) Granularity() MGranularity {
	if g, ok := granularities[p]; ok {
		return g
	}
	return granularities[PeriodAll]
}

// -----------------------------------------------------------------------------

// AllPeriods lists the named periods in ascending span.
func AllPeriods() []MTimePeriod {
	return []MTimePeriod{PeriodDaily, PeriodMonth, PeriodYear, PeriodAll}
}
