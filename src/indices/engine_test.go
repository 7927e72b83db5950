package indices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"crypto-indices/src/logger"
	"crypto-indices/src/models"
	"crypto-indices/src/selection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a fixed snapshot and synthetic 5-minute histories.
type fakeSource struct {
	assets      []models.MAssetSnapshot
	snapshotErr error
	failing     map[string]bool

	mu    sync.Mutex
	calls map[string]int
}

func newFakeSource(assets []models.MAssetSnapshot) *fakeSource {
	return &fakeSource{assets: assets, failing: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchMarketSnapshot(context.Context) ([]models.MAssetSnapshot, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.assets, nil
}

func (f *fakeSource) FetchHistoricalSeries(_ context.Context, assetID string, from, to int64) []models.MPricePoint {
	f.mu.Lock()
	f.calls[assetID]++
	f.mu.Unlock()

	if f.failing[assetID] {
		return []models.MPricePoint{}
	}

	var price float64
	for _, a := range f.assets {
		if a.ID == assetID {
			price = a.CurrentPrice
		}
	}

	var points []models.MPricePoint
	for ts, i := from, 0; ts <= to; ts, i = ts+300, i+1 {
		points = append(points, models.MPricePoint{
			Timestamp: ts,
			Price:     price * (1 + 0.001*float64(i%10)),
			Volume:    1e6,
		})
	}
	return points
}

func (f *fakeSource) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func marketAssets(n int) []models.MAssetSnapshot {
	out := make([]models.MAssetSnapshot, n)
	for i := 0; i < n; i++ {
		out[i] = models.MAssetSnapshot{
			ID:                       fmt.Sprintf("asset-%02d", i),
			Symbol:                   fmt.Sprintf("a%02d", i),
			Name:                     fmt.Sprintf("Asset %d", i),
			CurrentPrice:             float64(5 + 3*i),
			MarketCap:                float64(n-i) * 1e9,
			MarketCapRank:            i + 1,
			TotalVolume:              float64(n-i) * 1e7,
			PriceChangePercentage24h: float64(i%9) - 4,
			PriceChangePercentage7d:  float64(i%5) - 2,
			PriceChangePercentage30d: float64(i%13) - 6,
		}
	}
	return out
}

var fixedNow = time.Date(2024, 5, 20, 12, 7, 30, 0, time.UTC)

func newTestEngine(src *fakeSource) *IndexEngine {
	cfg := &models.MConfig{
		Network: models.MNetworkConfig{ConcurrentRequests: 4},
		Indices: models.MIndicesConfig{CalendarMIC: "xnys", Timezone: "UTC"},
	}
	e := NewIndexEngine(cfg, src, logger.NewLogger(nil, "test"))
	e.Now = func() time.Time { return fixedNow }
	return e
}

func TestComputeDailyScenario(t *testing.T) {
	src := newFakeSource(marketAssets(60))
	e := newTestEngine(src)

	payload, err := e.Compute(context.Background(), models.PeriodDaily)
	require.NoError(t, err)
	require.NotNil(t, payload.Anchor5)
	require.NotNil(t, payload.Vibe20)
	require.NotNil(t, payload.Wave100)
	assert.Equal(t, "2024-05-20T12:07:30.000Z", payload.LastUpdated)

	for _, resp := range []*models.MIndexResponse{payload.Anchor5, payload.Vibe20, payload.Wave100} {
		assert.Equal(t, "15m", resp.Timeframe, resp.Index)
		assert.Equal(t, BaseValue, resp.BaseValue)
		require.NotEmpty(t, resp.Candles, resp.Index)
		for _, c := range resp.Candles {
			assert.Zero(t, c.Time%1800)
			assert.True(t, c.Valid())
		}
		assert.Equal(t, "UTC", resp.Meta.TZ)
		require.NotNil(t, resp.Meta.Metadata)
		assert.Equal(t, "1.0", resp.Meta.Metadata.MethodologyVersion)
		require.NotNil(t, resp.Meta.Performance)
		require.NotNil(t, resp.Meta.Risk)
	}

	assert.Len(t, payload.Anchor5.Meta.Constituents, 5)
	assert.Equal(t, models.FrequencyQuarterly, payload.Anchor5.Meta.RebalanceFrequency)
	assert.Len(t, payload.Vibe20.Meta.Constituents, 20)
	assert.Len(t, payload.Wave100.Meta.Constituents, 20, "only tracked wave100 members are listed")
	assert.Equal(t, 60, payload.Wave100.Meta.Metadata.TotalConstituents)

	assert.Equal(t, 45, src.totalCalls())
	m := e.LastMetrics()
	assert.Equal(t, 60, m.SnapshotAssets)
	assert.Equal(t, 45, m.HistoryFetches)
	assert.Zero(t, m.HistoryFailures)
}

func TestComputeCurrentValueScaling(t *testing.T) {
	src := newFakeSource(marketAssets(60))
	e := newTestEngine(src)

	payload, err := e.Compute(context.Background(), models.PeriodYear)
	require.NoError(t, err)

	sels := selection.NewSelectors(selection.NewStablecoinFilter(nil))
	anchor := sels[0].Select(src.assets, models.PeriodYear)
	sum := 0.0
	for _, c := range anchor.Constituents {
		sum += c.Weight * c.Asset.CurrentPrice
	}
	assert.Equal(t, Round2(sum/10), payload.Anchor5.CurrentValue)
	assert.Equal(t, "1d", payload.Anchor5.Timeframe)

	wave := sels[2].Select(src.assets, models.PeriodYear)
	sum = 0.0
	for _, c := range wave.Constituents {
		sum += c.Weight * c.Asset.CurrentPrice
	}
	assert.Equal(t, Round2(sum*1000), payload.Wave100.CurrentValue)
}

func TestComputeHistoryFailuresDegrade(t *testing.T) {
	src := newFakeSource(marketAssets(10))
	for _, a := range src.assets {
		src.failing[a.ID] = true
	}
	e := newTestEngine(src)

	payload, err := e.Compute(context.Background(), models.PeriodDaily)
	require.NoError(t, err)

	// No matched observation anywhere: no levels, no candles, but values stand
	assert.Empty(t, payload.Anchor5.Candles)
	assert.NotZero(t, payload.Anchor5.CurrentValue)
	assert.Equal(t, e.LastMetrics().HistoryFetches, e.LastMetrics().HistoryFailures)
}

func TestComputeSnapshotFailureIsFatal(t *testing.T) {
	src := newFakeSource(nil)
	src.snapshotErr = errors.New("upstream down")

	_, err := newTestEngine(src).Compute(context.Background(), models.PeriodDaily)
	assert.EqualError(t, err, "upstream down")
	assert.Zero(t, src.totalCalls())
}

func TestComputeAllStablecoinsGivesPlaceholders(t *testing.T) {
	assets := marketAssets(3)
	assets[0].Symbol, assets[1].Symbol, assets[2].Symbol = "usdt", "USDC", "dai"
	src := newFakeSource(assets)

	payload, err := newTestEngine(src).Compute(context.Background(), models.PeriodMonth)
	require.NoError(t, err)

	for _, resp := range []*models.MIndexResponse{payload.Anchor5, payload.Vibe20, payload.Wave100} {
		assert.Equal(t, BaseValue, resp.CurrentValue, resp.Index)
		require.NotNil(t, resp.Candles)
		assert.Empty(t, resp.Candles)
		assert.Equal(t, "1h", resp.Timeframe)
		assert.Empty(t, resp.Meta.Constituents)
		assert.Equal(t, 1.0, resp.Meta.Metadata.Divisor)
	}
	assert.Zero(t, src.totalCalls())
}

func TestMetadataRebalanceInfo(t *testing.T) {
	e := newTestEngine(newFakeSource(nil))
	sel := models.MSelection{
		RebalanceFrequency: models.FrequencyQuarterly,
		Constituents: []models.MConstituent{
			{Asset: models.MAssetSnapshot{MarketCap: 4000}},
		},
	}

	md := e.metadata(sel, nil, fixedNow)
	assert.Equal(t, 4.0, md.Divisor)
	assert.Equal(t, "2024-05-20", md.BaseDate)
	assert.Equal(t, "2024-04-01", md.RebalanceInfo.LastRebalance)
	assert.Equal(t, "2024-07-01", md.RebalanceInfo.NextRebalance)
	assert.Equal(t, 42, md.RebalanceInfo.DaysUntilRebalance)
	assert.Equal(t, models.FrequencyQuarterly, md.RebalanceInfo.Frequency)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, -1.24, Round2(-1.235))
	assert.Equal(t, 1000.0, Round2(999.999))
}

func TestScaleFor(t *testing.T) {
	assert.Equal(t, 5.0, ScaleFor(models.MSelection{Divisor: 10})(50))
	assert.Equal(t, 50000.0, ScaleFor(models.MSelection{Multiplier: 1000})(50))
	assert.Equal(t, 50.0, ScaleFor(models.MSelection{})(50))
}
