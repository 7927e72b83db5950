package models

// MAssetSnapshot is one row of the ranked market snapshot.
// The 7d/30d change fields are nullable upstream and decode as 0 when absent.
type MAssetSnapshot struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  float64 `json:"price_change_percentage_7d"`
	PriceChangePercentage30d float64 `json:"price_change_percentage_30d"`
}

// MPricePoint is one historical observation for a single asset.
type MPricePoint struct {
	Timestamp int64   `json:"timestamp"` // seconds
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
}

// MConstituent is an asset admitted into an index for one request.
type MConstituent struct {
	Asset  MAssetSnapshot
	Weight float64
}

// Rebalance frequency labels.
const (
	FrequencyMonthly   = "Monthly"
	FrequencyQuarterly = "Quarterly"
)

// MSelection is the outcome of one constituent selector for one request.
// Exactly one of Divisor or Multiplier scales the weighted price sum.
type MSelection struct {
	Index              string
	Constituents       []MConstituent
	HistoryLimit       int // 0 means every constituent gets a history fetch
	RebalanceFrequency string
	Divisor            float64
	Multiplier         float64
}

// HistoryConstituents returns the constituents whose history is fetched.
func (s MSelection) HistoryConstituents() []MConstituent {
	if s.HistoryLimit <= 0 || len(s.Constituents) <= s.HistoryLimit {
		return s.Constituents
	}
	return s.Constituents[:s.HistoryLimit]
}
