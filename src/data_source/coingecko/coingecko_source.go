package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"crypto-indices/src/helpers"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"
)

const (
	// SnapshotSize is the fixed number of assets requested per snapshot.
	SnapshotSize = 250

	demoKeyHeader = "x-cg-demo-api-key"
	proKeyHeader  = "x-cg-pro-api-key"
)

type CoinGeckoSource struct {
	Config       *models.MConfig
	SourceConfig models.MDataSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCoinGeckoSource(cfg *models.MConfig, netMgr interfaces.INetworkManager) *CoinGeckoSource {
	return &CoinGeckoSource{
		Config:       cfg,
		SourceConfig: cfg.DataSource,
		Network:      netMgr,
		Logger:       logger.NewLogger(nil, "CoinGeckoSource-"+cfg.DataSource.Name),
	}
}

// -----------------------------------------------------------------------------

func (s *CoinGeckoSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

func (s *CoinGeckoSource) authHeaders() (map[string]string, error) {
	if s.SourceConfig.APIKey == "" {
		return nil, helpers.NewConfigurationError("CoinGecko API key not configured")
	}
	header := demoKeyHeader
	if s.SourceConfig.Pro {
		header = proKeyHeader
	}
	return map[string]string{header: s.SourceConfig.APIKey}, nil
}

// -----------------------------------------------------------------------------

func (s *CoinGeckoSource) endpoint(path string) string {
	return strings.TrimRight(s.SourceConfig.BaseURL, "/") + path
}

// -----------------------------------------------------------------------------

// FetchMarketSnapshot fetches the top assets by market cap in a single call.
func (s *CoinGeckoSource) FetchMarketSnapshot(ctx context.Context) ([]models.MAssetSnapshot, error) {
	headers, err := s.authHeaders()
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"vs_currency":             "usd",
		"order":                   "market_cap_desc",
		"per_page":                strconv.Itoa(SnapshotSize),
		"page":                    "1",
		"sparkline":               "false",
		"price_change_percentage": "24h,7d,30d",
	}

	respBytes, err := s.Network.Get(ctx, s.endpoint("/coins/markets"), params, headers)
	if err != nil {
		return nil, helpers.NewDataSourceError("CoinGecko API error", err)
	}

	assets, err := ParseMarketsResponse(respBytes)
	if err != nil {
		return nil, helpers.NewDataSourceError("CoinGecko markets payload", err)
	}

	s.Logger.Info("CoinGecko: snapshot with %d assets", len(assets))
	return assets, nil
}

// -----------------------------------------------------------------------------

// FetchHistoricalSeries fetches one asset's range chart. It never fails: an
// upstream error is logged and an empty series is returned.
func (s *CoinGeckoSource) FetchHistoricalSeries(ctx context.Context, assetID string, from, to int64) []models.MPricePoint {
	headers, err := s.authHeaders()
	if err != nil {
		s.Logger.Warning("History for %s skipped: %v", assetID, err)
		return []models.MPricePoint{}
	}

	params := map[string]string{
		"vs_currency": "usd",
		"from":        strconv.FormatInt(from, 10),
		"to":          strconv.FormatInt(to, 10),
	}

	url := s.endpoint(fmt.Sprintf("/coins/%s/market_chart/range", assetID))
	respBytes, err := s.Network.Get(ctx, url, params, headers)
	if err != nil {
		s.Logger.Warning("History fetch failed for %s: %v", assetID, err)
		return []models.MPricePoint{}
	}

	points, err := ParseMarketChartResponse(respBytes)
	if err != nil {
		s.Logger.Warning("History payload invalid for %s: %v", assetID, err)
		return []models.MPricePoint{}
	}

	if len(points) > 0 {
		s.Logger.Debug("Fetched %s: %d points [%d -> %d]", assetID, len(points), points[0].Timestamp, points[len(points)-1].Timestamp)
	}
	return points
}

// -----------------------------------------------------------------------------
// Wire formats
// -----------------------------------------------------------------------------

type marketsRow struct {
	ID                             string   `json:"id"`
	Symbol                         string   `json:"symbol"`
	Name                           string   `json:"name"`
	CurrentPrice                   *float64 `json:"current_price"`
	MarketCap                      *float64 `json:"market_cap"`
	MarketCapRank                  *int     `json:"market_cap_rank"`
	TotalVolume                    *float64 `json:"total_volume"`
	PriceChangePercentage24h       *float64 `json:"price_change_percentage_24h"`
	PriceChangePercentage7d        *float64 `json:"price_change_percentage_7d"`
	PriceChangePercentage30d       *float64 `json:"price_change_percentage_30d"`
	PriceChangePercentage24hInCurr *float64 `json:"price_change_percentage_24h_in_currency"`
	PriceChangePercentage7dInCurr  *float64 `json:"price_change_percentage_7d_in_currency"`
	PriceChangePercentage30dInCurr *float64 `json:"price_change_percentage_30d_in_currency"`
}

type marketChartResponse struct {
	Prices       [][]float64 `json:"prices"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// -----------------------------------------------------------------------------

// ParseMarketsResponse decodes /coins/markets. Null numeric fields decode as 0.
func ParseMarketsResponse(data []byte) ([]models.MAssetSnapshot, error) {
	var rows []marketsRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	assets := make([]models.MAssetSnapshot, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		rank := 0
		if r.MarketCapRank != nil {
			rank = *r.MarketCapRank
		}
		assets = append(assets, models.MAssetSnapshot{
			ID:                       r.ID,
			Symbol:                   r.Symbol,
			Name:                     r.Name,
			CurrentPrice:             deref(r.CurrentPrice),
			MarketCap:                deref(r.MarketCap),
			MarketCapRank:            rank,
			TotalVolume:              deref(r.TotalVolume),
			PriceChangePercentage24h: firstOf(r.PriceChangePercentage24h, r.PriceChangePercentage24hInCurr),
			PriceChangePercentage7d:  firstOf(r.PriceChangePercentage7d, r.PriceChangePercentage7dInCurr),
			PriceChangePercentage30d: firstOf(r.PriceChangePercentage30d, r.PriceChangePercentage30dInCurr),
		})
	}
	return assets, nil
}

// -----------------------------------------------------------------------------

// ParseMarketChartResponse joins prices and volumes by timestamp (ms -> s).
func ParseMarketChartResponse(data []byte) ([]models.MPricePoint, error) {
	var resp marketChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	volumes := make(map[int64]float64, len(resp.TotalVolumes))
	for _, v := range resp.TotalVolumes {
		if len(v) < 2 {
			continue
		}
		volumes[int64(v[0])/1000] = v[1]
	}

	points := make([]models.MPricePoint, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		if len(p) < 2 || p[1] < 0 {
			continue
		}
		ts := int64(p[0]) / 1000
		points = append(points, models.MPricePoint{
			Timestamp: ts,
			Price:     p[1],
			Volume:    volumes[ts],
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
	return points, nil
}

// -----------------------------------------------------------------------------

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// -----------------------------------------------------------------------------

func firstOf(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}
