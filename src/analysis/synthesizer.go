package analysis

import (
	"sort"

	"crypto-indices/src/models"
)

// MatchToleranceSeconds is the widest gap between a candidate timestamp and a
// constituent's historical point for the point to count as a match.
const MatchToleranceSeconds int64 = 1800

// LevelScale maps a weighted price sum onto the index's level range.
type LevelScale func(weightedSum float64) float64

// -----------------------------------------------------------------------------

// DivideBy returns a scale that divides the weighted sum by divisor.
func DivideBy(divisor float64) LevelScale {
	return func(sum float64) float64 {
		if divisor == 0 {
			return sum
		}
		return sum / divisor
	}
}

// -----------------------------------------------------------------------------

// MultiplyBy returns a scale that multiplies the weighted sum by factor.
func MultiplyBy(factor float64) LevelScale {
	return func(sum float64) float64 { return sum * factor }
}

// -----------------------------------------------------------------------------
// Contributions
// -----------------------------------------------------------------------------

// ContributionKind tags where a constituent's price at a timestamp came from.
type ContributionKind int

const (
	// ContributionActual is a matched historical observation.
	ContributionActual ContributionKind = iota
	// ContributionFallback is the constituent's snapshot price held flat.
	ContributionFallback
)

func (k ContributionKind) String() string {
	if k == ContributionFallback {
		return "fallback"
	}
	return "actual"
}

// Contribution is one constituent's input to one synthesized level.
type Contribution struct {
	Kind   ContributionKind
	Price  float64
	volume float64
}

// -----------------------------------------------------------------------------

func Actual(price, volume float64) Contribution {
	return Contribution{Kind: ContributionActual, Price: price, volume: volume}
}

// -----------------------------------------------------------------------------

// Fallback carries no volume; it can only ever add zero to a level's volume.
func Fallback(price float64) Contribution {
	return Contribution{Kind: ContributionFallback, Price: price}
}

// -----------------------------------------------------------------------------

func (c Contribution) Volume() float64 {
	if c.Kind == ContributionFallback {
		return 0
	}
	return c.volume
}

// -----------------------------------------------------------------------------
// Synthesis
// -----------------------------------------------------------------------------

// ContributionAt resolves a constituent's contribution at ts: the nearest
// historical point within MatchToleranceSeconds, otherwise its snapshot price.
// series must be sorted by timestamp.
func ContributionAt(series []models.MPricePoint, ts int64, snapshotPrice float64) Contribution {
	if len(series) == 0 {
		return Fallback(snapshotPrice)
	}

	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Timestamp >= ts
	})

	best := -1
	bestGap := MatchToleranceSeconds + 1
	for _, cand := range []int{idx - 1, idx} {
		if cand < 0 || cand >= len(series) {
			continue
		}
		gap := series[cand].Timestamp - ts
		if gap < 0 {
			gap = -gap
		}
		if gap < bestGap {
			best, bestGap = cand, gap
		}
	}

	if best < 0 || bestGap > MatchToleranceSeconds {
		return Fallback(snapshotPrice)
	}
	return Actual(series[best].Price, series[best].Volume)
}

// -----------------------------------------------------------------------------

// CandidateTimestamps returns the sorted union of all series timestamps.
func CandidateTimestamps(series [][]models.MPricePoint) []int64 {
	seen := make(map[int64]struct{})
	for _, s := range series {
		for _, p := range s {
			seen[p.Timestamp] = struct{}{}
		}
	}

	out := make([]int64, 0, len(seen))
	for ts := range seen {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// -----------------------------------------------------------------------------

// SynthesizeLevels merges per-constituent histories into one composite level
// series. series[i] belongs to constituents[i]; a missing or empty entry makes
// that constituent contribute its snapshot price flat. A timestamp is emitted
// only when at least one constituent had an actual observation there.
func SynthesizeLevels(constituents []models.MConstituent, series [][]models.MPricePoint, scale LevelScale) []models.MIndexLevel {
	if scale == nil {
		scale = MultiplyBy(1)
	}

	sorted := make([][]models.MPricePoint, len(constituents))
	for i := range constituents {
		if i >= len(series) {
			continue
		}
		s := make([]models.MPricePoint, len(series[i]))
		copy(s, series[i])
		sort.SliceStable(s, func(a, b int) bool { return s[a].Timestamp < s[b].Timestamp })
		sorted[i] = s
	}

	candidates := CandidateTimestamps(sorted)
	levels := make([]models.MIndexLevel, 0, len(candidates))

	for _, ts := range candidates {
		weighted := 0.0
		volume := 0.0
		validCount := 0

		for i, c := range constituents {
			contrib := ContributionAt(sorted[i], ts, c.Asset.CurrentPrice)
			if contrib.Kind == ContributionActual {
				validCount++
			}
			weighted += c.Weight * contrib.Price
			volume += contrib.Volume()
		}

		if validCount == 0 {
			continue
		}

		levels = append(levels, models.MIndexLevel{
			Timestamp: ts,
			Value:     scale(weighted),
			Volume:    volume,
		})
	}

	return levels
}
