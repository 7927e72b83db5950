package models

// -----------------------------------------------------------------------------
// Response Structure (wire format consumed by the web client)
// -----------------------------------------------------------------------------

// MTokenComposition is one constituent as exposed in the response meta.
type MTokenComposition struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Weight                   float64 `json:"weight"`
	Price                    float64 `json:"price"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage7d  float64 `json:"price_change_percentage_7d"`
	PriceChangePercentage30d float64 `json:"price_change_percentage_30d"`
}

type MPerformanceMetrics struct {
	YTD            float64 `json:"ytd"`
	OneMonth       float64 `json:"one_month"`
	ThreeMonth     float64 `json:"three_month"`
	OneYear        float64 `json:"one_year"`
	SinceInception float64 `json:"since_inception"`
	High52Week     float64 `json:"high_52_week"`
	Low52Week      float64 `json:"low_52_week"`
}

type MRiskMetrics struct {
	Volatility30d   float64 `json:"volatility_30d"`
	Volatility90d   float64 `json:"volatility_90d"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	MaxDrawdownDate string  `json:"max_drawdown_date,omitempty"`
}

type MRebalanceInfo struct {
	LastRebalance      string `json:"last_rebalance"`
	NextRebalance      string `json:"next_rebalance"`
	DaysUntilRebalance int    `json:"days_until_rebalance"`
	Frequency          string `json:"frequency"`
}

type MIndexMetadata struct {
	BaseValue          float64        `json:"base_value"`
	BaseDate           string         `json:"base_date"`
	Divisor            float64        `json:"divisor"`
	MethodologyVersion string         `json:"methodology_version"`
	TotalConstituents  int            `json:"total_constituents"`
	RebalanceInfo      MRebalanceInfo `json:"rebalance_info"`
}

type MIndexMeta struct {
	TZ                 string               `json:"tz"`
	Constituents       []MTokenComposition  `json:"constituents"`
	RebalanceFrequency string               `json:"rebalanceFrequency"`
	Metadata           *MIndexMetadata      `json:"metadata,omitempty"`
	Performance        *MPerformanceMetrics `json:"performance,omitempty"`
	Risk               *MRiskMetrics        `json:"risk,omitempty"`
}

// MIndexResponse is the externally visible result for one index.
type MIndexResponse struct {
	Index               string     `json:"index"`
	BaseValue           float64    `json:"baseValue"`
	Timeframe           string     `json:"timeframe"`
	Candles             []MCandle  `json:"candles"`
	CurrentValue        float64    `json:"currentValue"`
	Change24hPercentage float64    `json:"change_24h_percentage"`
	Change7dPercentage  float64    `json:"change_7d_percentage"`
	Meta                MIndexMeta `json:"meta"`
}

// MIndicesPayload is the full response body of one compute.
type MIndicesPayload struct {
	Anchor5     *MIndexResponse `json:"anchor5"`
	Vibe20      *MIndexResponse `json:"vibe20"`
	Wave100     *MIndexResponse `json:"wave100"`
	LastUpdated string          `json:"lastUpdated"`
}

// Indices returns the three responses keyed by wire name.
func (p *MIndicesPayload) Indices() map[string]*MIndexResponse {
	return map[string]*MIndexResponse{
		"anchor5": p.Anchor5,
		"vibe20":  p.Vibe20,
		"wave100": p.Wave100,
	}
}

// -----------------------------------------------------------------------------
// Push / Persistence Structures
// -----------------------------------------------------------------------------

// MIndexUpdate is the websocket envelope.
type MIndexUpdate struct {
	Type       string           `json:"type"` // "INITIAL" or "UPDATE"
	TimePeriod string           `json:"timePeriod"`
	Payload    *MIndicesPayload `json:"payload"`
	Timestamp  int64            `json:"timestamp"`
}

// MSubscribeCommand for client messages
type MSubscribeCommand struct {
	Command    string `json:"command"`
	TimePeriod string `json:"timePeriod"`
}

// MIndexSnapshotRecord is one persisted index value.
type MIndexSnapshotRecord struct {
	IndexName    string  `json:"index_name"`
	TimePeriod   string  `json:"time_period"`
	ComputedAt   int64   `json:"computed_at"`
	CurrentValue float64 `json:"current_value"`
	Change24h    float64 `json:"change_24h"`
	Constituents string  `json:"constituents"` // comma separated symbols
	CandleCount  int     `json:"candle_count"`
}
