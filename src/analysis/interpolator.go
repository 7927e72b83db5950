package analysis

import (
	"sort"

	"crypto-indices/src/models"
)

// InterpolationThreshold is the fraction of the target count below which a
// series counts as too sparse and gets upsampled.
const InterpolationThreshold = 0.5

// -----------------------------------------------------------------------------

// Interpolate upsamples a sparse level series to target points evenly spaced
// over [min timestamp, max timestamp]. Output timestamps are whole seconds and
// strictly increasing, so a span shorter than target-1 seconds yields one point
// per second instead. A series that already holds at least
// InterpolationThreshold*target points is returned unchanged.
func Interpolate(series []models.MIndexLevel, target int) []models.MIndexLevel {
	if len(series) == 0 {
		return []models.MIndexLevel{}
	}
	if float64(len(series)) >= float64(target)*InterpolationThreshold {
		return series
	}

	sorted := make([]models.MIndexLevel, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	minTs := sorted[0].Timestamp
	maxTs := sorted[len(sorted)-1].Timestamp
	span := float64(maxTs - minTs)
	if maxTs-minTs+1 < int64(target) {
		target = int(maxTs-minTs) + 1
	}

	out := make([]models.MIndexLevel, target)
	j := 0
	for i := 0; i < target; i++ {
		t := minTs
		if target > 1 {
			t = minTs + int64(span*float64(i)/float64(target-1)+0.5)
		}

		// Advance to the last point at or before t
		for j+1 < len(sorted) && sorted[j+1].Timestamp <= t {
			j++
		}
		before := sorted[j]
		after := before
		if j+1 < len(sorted) {
			after = sorted[j+1]
		}

		ratio := 0.0
		if after.Timestamp != before.Timestamp {
			ratio = float64(t-before.Timestamp) / float64(after.Timestamp-before.Timestamp)
		}

		out[i] = models.MIndexLevel{
			Timestamp: t,
			Value:     before.Value + (after.Value-before.Value)*ratio,
			Volume:    before.Volume + (after.Volume-before.Volume)*ratio,
		}
	}

	return out
}
