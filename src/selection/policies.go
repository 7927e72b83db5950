package selection

import (
	"math"
	"sort"

	"crypto-indices/src/interfaces"
	"crypto-indices/src/models"
)

// Index wire names.
const (
	Anchor5 = "anchor5"
	Vibe20  = "vibe20"
	Wave100 = "wave100"
)

const (
	anchor5Size    = 5
	anchor5MaxRank = 50
	anchor5Divisor = 10.0

	vibe20Size = 20

	wave100Size         = 100
	wave100HistoryLimit = 20
	wave100Weight       = 1.0 / wave100Size

	levelMultiplier = 1000.0
)

// -----------------------------------------------------------------------------

// NewSelectors returns the three index policies in response order.
func NewSelectors(filter StablecoinFilter) []interfaces.IConstituentSelector {
	return []interfaces.IConstituentSelector{
		&Anchor5Selector{Filter: filter},
		&Vibe20Selector{Filter: filter},
		&Wave100Selector{Filter: filter},
	}
}

// -----------------------------------------------------------------------------
// Policy A: score-ranked large caps, price weighted
// -----------------------------------------------------------------------------

type Anchor5Selector struct {
	Filter StablecoinFilter
}

func (s *Anchor5Selector) Name() string { return Anchor5 }

// -----------------------------------------------------------------------------

// Anchor5Score rates an asset for Policy A. Lower price tiers, better rank,
// calmer 30d change and larger cap all score higher.
func Anchor5Score(a models.MAssetSnapshot) float64 {
	var tier float64
	switch {
	case a.CurrentPrice >= 10000:
		tier = 25
	case a.CurrentPrice >= 1000:
		tier = 50
	case a.CurrentPrice >= 100:
		tier = 75
	default:
		tier = 100
	}

	rankScore := math.Max(0, 100-float64(a.MarketCapRank))
	stability := math.Max(0, 100-math.Abs(a.PriceChangePercentage30d))
	capScore := math.Min(100, a.MarketCap/1e9)

	return tier + rankScore + stability + capScore
}

// -----------------------------------------------------------------------------

func (s *Anchor5Selector) Select(assets []models.MAssetSnapshot, _ models.MTimePeriod) models.MSelection {
	var eligible []models.MAssetSnapshot
	for _, a := range s.Filter.Exclude(assets) {
		if a.MarketCapRank >= 1 && a.MarketCapRank <= anchor5MaxRank {
			eligible = append(eligible, a)
		}
	}

	scores := make(map[string]float64, len(eligible))
	for _, a := range eligible {
		scores[a.ID] = Anchor5Score(a)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		si, sj := scores[eligible[i].ID], scores[eligible[j].ID]
		if si != sj {
			return si > sj
		}
		return eligible[i].MarketCapRank < eligible[j].MarketCapRank
	})
	top := head(eligible, anchor5Size)

	prices := make([]float64, len(top))
	for i, a := range top {
		prices[i] = a.CurrentPrice
	}

	return models.MSelection{
		Index:              Anchor5,
		Constituents:       weighted(top, normalize(prices)),
		RebalanceFrequency: models.FrequencyQuarterly,
		Divisor:            anchor5Divisor,
	}
}

// -----------------------------------------------------------------------------
// Policy B: most traded, volume x cap weighted
// -----------------------------------------------------------------------------

type Vibe20Selector struct {
	Filter StablecoinFilter
}

func (s *Vibe20Selector) Name() string { return Vibe20 }

// -----------------------------------------------------------------------------

func (s *Vibe20Selector) Select(assets []models.MAssetSnapshot, _ models.MTimePeriod) models.MSelection {
	eligible := s.Filter.Exclude(assets)
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].TotalVolume > eligible[j].TotalVolume
	})
	top := head(eligible, vibe20Size)

	raw := make([]float64, len(top))
	for i, a := range top {
		raw[i] = a.TotalVolume * a.MarketCap
	}

	return models.MSelection{
		Index:              Vibe20,
		Constituents:       weighted(top, normalize(raw)),
		RebalanceFrequency: models.FrequencyMonthly,
		Multiplier:         levelMultiplier,
	}
}

// -----------------------------------------------------------------------------
// Policy C: momentum ranked, fixed equal weight
// -----------------------------------------------------------------------------

type Wave100Selector struct {
	Filter StablecoinFilter
}

func (s *Wave100Selector) Name() string { return Wave100 }

// -----------------------------------------------------------------------------

// Momentum returns the period-appropriate percentage change used by Policy C.
func Momentum(a models.MAssetSnapshot, period models.MTimePeriod) float64 {
	switch period {
	case models.PeriodDaily:
		return a.PriceChangePercentage24h
	case models.PeriodMonth:
		if a.PriceChangePercentage30d != 0 {
			return a.PriceChangePercentage30d
		}
		return a.PriceChangePercentage7d
	default:
		return a.PriceChangePercentage30d
	}
}

// -----------------------------------------------------------------------------

// Select weights every member at exactly 1/100, even when fewer qualify.
// Only the first twenty by momentum receive a history fetch.
func (s *Wave100Selector) Select(assets []models.MAssetSnapshot, period models.MTimePeriod) models.MSelection {
	var eligible []models.MAssetSnapshot
	for _, a := range s.Filter.Exclude(assets) {
		if a.CurrentPrice > 0 && a.MarketCap > 0 {
			eligible = append(eligible, a)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return Momentum(eligible[i], period) > Momentum(eligible[j], period)
	})
	top := head(eligible, wave100Size)

	weights := make([]float64, len(top))
	for i := range weights {
		weights[i] = wave100Weight
	}

	return models.MSelection{
		Index:              Wave100,
		Constituents:       weighted(top, weights),
		HistoryLimit:       wave100HistoryLimit,
		RebalanceFrequency: models.FrequencyMonthly,
		Multiplier:         levelMultiplier,
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func head(assets []models.MAssetSnapshot, n int) []models.MAssetSnapshot {
	if len(assets) > n {
		return assets[:n]
	}
	return assets
}

// -----------------------------------------------------------------------------

// normalize scales raw to sum to 1; a zero or negative total gives equal weights.
func normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}

	total := 0.0
	for _, v := range raw {
		total += v
	}

	for i, v := range raw {
		if total > 0 {
			out[i] = v / total
		} else {
			out[i] = 1 / float64(len(raw))
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func weighted(assets []models.MAssetSnapshot, weights []float64) []models.MConstituent {
	out := make([]models.MConstituent, len(assets))
	for i, a := range assets {
		out[i] = models.MConstituent{Asset: a, Weight: weights[i]}
	}
	return out
}
