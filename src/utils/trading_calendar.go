package utils

import (
	"math"
	"strings"
	"time"

	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"github.com/scmhub/calendar"
)

// maxRollDays bounds the business-day search over long holiday stretches.
const maxRollDays = 14

// TradingCalendar schedules index rebalances on exchange business days using
// scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// GetCalendar loads the calendar for an ISO 10383 MIC (e.g. "xnys").
func GetCalendar(mic string) *TradingCalendar {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		mic = "xnys"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		// Fallback to xnys if not found
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		logger.NewLogger(nil, "TradingCalendar").Warning("Failed to load calendar for MIC '%s' and fallback 'xnys'. Using Mon-Fri fallback.", mic)
		return &TradingCalendar{Fallback: true, Timezone: time.UTC}
	}

	return &TradingCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsBusinessDay(date time.Time) bool {
	// Same calendar date in the exchange zone; midday avoids offset spill-over
	if tc.Timezone != nil {
		date = time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, tc.Timezone)
	}

	if tc.Fallback || tc.Calendar == nil {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// NextBusinessDay returns date itself when it is a business day, otherwise the
// first business day after it.
func (tc *TradingCalendar) NextBusinessDay(date time.Time) time.Time {
	d := date
	for i := 0; i < maxRollDays; i++ {
		if tc.IsBusinessDay(d) {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return date
}

// -----------------------------------------------------------------------------

// RebalanceWindow returns the start of the current rebalance period and the
// start of the next one (before business-day rolling), in UTC.
func RebalanceWindow(frequency string, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	month := now.Month()
	if frequency == models.FrequencyQuarterly {
		month = time.Month(((int(month)-1)/3)*3 + 1)
	}

	last := time.Date(now.Year(), month, 1, 0, 0, 0, 0, time.UTC)
	step := 1
	if frequency == models.FrequencyQuarterly {
		step = 3
	}
	return last, last.AddDate(0, step, 0)
}

// -----------------------------------------------------------------------------

// RebalanceSchedule describes the informational rebalance cadence of an index.
type RebalanceSchedule struct {
	Last      time.Time
	Next      time.Time
	DaysUntil int
	Frequency string
}

// Schedule computes the last and next rebalance dates for frequency at now.
// The next date is rolled forward onto a business day.
func (tc *TradingCalendar) Schedule(frequency string, now time.Time) RebalanceSchedule {
	last, next := RebalanceWindow(frequency, now)
	next = tc.NextBusinessDay(next)

	days := int(math.Ceil(next.Sub(now.UTC()).Hours() / 24))
	if days < 0 {
		days = 0
	}

	return RebalanceSchedule{Last: last, Next: next, DaysUntil: days, Frequency: frequency}
}
