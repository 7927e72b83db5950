package indices

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"crypto-indices/src/analysis"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"
	"crypto-indices/src/selection"
	"crypto-indices/src/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	// BaseValue is the level every index is normalized around and the
	// placeholder value of an index with no constituents.
	BaseValue = 1000.0

	methodologyVersion = "1.0"
	lastUpdatedLayout  = "2006-01-02T15:04:05.000Z07:00"
)

// IndexEngine runs the full compute pipeline for one request: snapshot,
// selection, history fan-out, synthesis and candle aggregation.
type IndexEngine struct {
	Config    *models.MConfig
	Source    interfaces.IMarketDataSource
	Selectors []interfaces.IConstituentSelector
	Calendar  *utils.TradingCalendar
	Resampler *analysis.TimeSeriesResampler
	Logger    *logger.Logger
	Now       func() time.Time

	metricsMu   sync.Mutex
	lastMetrics models.MProcessingMetrics
}

// -----------------------------------------------------------------------------

func NewIndexEngine(cfg *models.MConfig, source interfaces.IMarketDataSource, log *logger.Logger) *IndexEngine {
	return &IndexEngine{
		Config:    cfg,
		Source:    source,
		Selectors: selection.NewSelectors(selection.NewStablecoinFilter(cfg.Indices.Stablecoins)),
		Calendar:  utils.GetCalendar(cfg.Indices.CalendarMIC),
		Resampler: &analysis.TimeSeriesResampler{},
		Logger:    log,
		Now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// Compute builds all three indices for period. Only a snapshot failure is
// fatal; per-asset history failures degrade to flat snapshot prices.
func (e *IndexEngine) Compute(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, error) {
	start := time.Now()
	now := e.Now().UTC()

	assets, err := e.Source.FetchMarketSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	gran := period.Granularity()
	to := now.Unix()
	from := to - gran.LookbackSeconds

	concurrency := e.Config.Network.ConcurrentRequests
	if concurrency <= 0 {
		concurrency = 1
	}
	run := &fanOut{sem: make(chan struct{}, concurrency)}

	responses := make([]*models.MIndexResponse, len(e.Selectors))
	g, gctx := errgroup.WithContext(ctx)
	for i, sel := range e.Selectors {
		g.Go(func() error {
			responses[i] = e.buildIndex(gctx, run, sel, assets, period, from, to, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	payload := &models.MIndicesPayload{LastUpdated: now.Format(lastUpdatedLayout)}
	for _, resp := range responses {
		switch resp.Index {
		case selection.Anchor5:
			payload.Anchor5 = resp
		case selection.Vibe20:
			payload.Vibe20 = resp
		case selection.Wave100:
			payload.Wave100 = resp
		}
	}

	metrics := models.MProcessingMetrics{
		ComputeTimeSeconds: time.Since(start).Seconds(),
		SnapshotAssets:     len(assets),
		HistoryFetches:     int(run.fetches.Load()),
		HistoryFailures:    int(run.empty.Load()),
	}
	e.metricsMu.Lock()
	e.lastMetrics = metrics
	e.metricsMu.Unlock()

	e.Logger.Info("Computed %s indices from %d assets in %.2fs (%d history fetches, %d empty)",
		period, metrics.SnapshotAssets, metrics.ComputeTimeSeconds, metrics.HistoryFetches, metrics.HistoryFailures)

	return payload, nil
}

// -----------------------------------------------------------------------------

// LastMetrics returns the figures of the latest successful compute.
func (e *IndexEngine) LastMetrics() models.MProcessingMetrics {
	e.metricsMu.Lock()
	defer e.metricsMu.Unlock()
	return e.lastMetrics
}

// -----------------------------------------------------------------------------

// fanOut bounds concurrent history calls across all selectors of a compute.
type fanOut struct {
	sem     chan struct{}
	fetches atomic.Int64
	empty   atomic.Int64
}

// -----------------------------------------------------------------------------

// fetchHistories fetches one series per constituent concurrently. The result
// is index-aligned with constituents.
func (e *IndexEngine) fetchHistories(ctx context.Context, run *fanOut, constituents []models.MConstituent, from, to int64) [][]models.MPricePoint {
	series := make([][]models.MPricePoint, len(constituents))

	var wg sync.WaitGroup
	for i, c := range constituents {
		wg.Add(1)
		go func(idx int, assetID string) {
			defer wg.Done()
			run.sem <- struct{}{}
			defer func() { <-run.sem }()

			points := e.Source.FetchHistoricalSeries(ctx, assetID, from, to)
			run.fetches.Add(1)
			if len(points) == 0 {
				run.empty.Add(1)
			}
			series[idx] = points
		}(i, c.Asset.ID)
	}
	wg.Wait()

	return series
}

// -----------------------------------------------------------------------------

func (e *IndexEngine) buildIndex(
	ctx context.Context,
	run *fanOut,
	sel interfaces.IConstituentSelector,
	assets []models.MAssetSnapshot,
	period models.MTimePeriod,
	from, to int64,
	now time.Time,
) *models.MIndexResponse {
	gran := period.Granularity()
	chosen := sel.Select(assets, period)
	if len(chosen.Constituents) == 0 {
		e.Logger.Warning("%s: no eligible constituents, returning placeholder", sel.Name())
		return e.placeholder(chosen, gran, now)
	}

	scale := ScaleFor(chosen)
	tracked := chosen.HistoryConstituents()

	histories := e.fetchHistories(ctx, run, tracked, from, to)
	levels := analysis.SynthesizeLevels(tracked, histories, scale)
	candles := e.Resampler.AggregateCandles(levels, gran.BucketSeconds, gran.MinCandles)

	e.Logger.Debug("%s: %d constituents, %d tracked, %d levels, %d candles",
		chosen.Index, len(chosen.Constituents), len(tracked), len(levels), len(candles))

	weightedPrice := 0.0
	for _, c := range chosen.Constituents {
		weightedPrice += c.Weight * c.Asset.CurrentPrice
	}

	return &models.MIndexResponse{
		Index:               chosen.Index,
		BaseValue:           BaseValue,
		Timeframe:           gran.Timeframe,
		Candles:             candles,
		CurrentValue:        Round2(scale(weightedPrice)),
		Change24hPercentage: Round2(weightedMean(chosen.Constituents, func(a models.MAssetSnapshot) float64 { return a.PriceChangePercentage24h })),
		Change7dPercentage:  Round2(weightedMean(chosen.Constituents, func(a models.MAssetSnapshot) float64 { return a.PriceChangePercentage7d })),
		Meta: models.MIndexMeta{
			TZ:                 e.Config.Indices.Timezone,
			Constituents:       composition(tracked),
			RebalanceFrequency: chosen.RebalanceFrequency,
			Metadata:           e.metadata(chosen, candles, now),
			Performance:        analysis.ComputePerformance(candles, now),
			Risk:               analysis.ComputeRisk(candles),
		},
	}
}

// -----------------------------------------------------------------------------

// placeholder is the degenerate response of an index with no constituents.
func (e *IndexEngine) placeholder(chosen models.MSelection, gran models.MGranularity, now time.Time) *models.MIndexResponse {
	return &models.MIndexResponse{
		Index:        chosen.Index,
		BaseValue:    BaseValue,
		Timeframe:    gran.Timeframe,
		Candles:      []models.MCandle{},
		CurrentValue: BaseValue,
		Meta: models.MIndexMeta{
			TZ:                 e.Config.Indices.Timezone,
			Constituents:       []models.MTokenComposition{},
			RebalanceFrequency: chosen.RebalanceFrequency,
			Metadata:           e.metadata(chosen, nil, now),
		},
	}
}

// -----------------------------------------------------------------------------

func (e *IndexEngine) metadata(chosen models.MSelection, candles []models.MCandle, now time.Time) *models.MIndexMetadata {
	totalCap := 0.0
	for _, c := range chosen.Constituents {
		totalCap += c.Asset.MarketCap
	}
	divisor := totalCap / BaseValue
	if divisor == 0 {
		divisor = 1
	}

	baseDate := now.Format("2006-01-02")
	if len(candles) > 0 {
		baseDate = analysis.FormatDate(candles[0].Time)
	}

	sched := e.Calendar.Schedule(chosen.RebalanceFrequency, now)

	return &models.MIndexMetadata{
		BaseValue:          BaseValue,
		BaseDate:           baseDate,
		Divisor:            divisor,
		MethodologyVersion: methodologyVersion,
		TotalConstituents:  len(chosen.Constituents),
		RebalanceInfo: models.MRebalanceInfo{
			LastRebalance:      sched.Last.Format("2006-01-02"),
			NextRebalance:      sched.Next.Format("2006-01-02"),
			DaysUntilRebalance: sched.DaysUntil,
			Frequency:          sched.Frequency,
		},
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// ScaleFor returns the level scale of a selection.
func ScaleFor(s models.MSelection) analysis.LevelScale {
	if s.Divisor > 0 {
		return analysis.DivideBy(s.Divisor)
	}
	if s.Multiplier != 0 {
		return analysis.MultiplyBy(s.Multiplier)
	}
	return analysis.MultiplyBy(1)
}

// -----------------------------------------------------------------------------

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// -----------------------------------------------------------------------------

func weightedMean(constituents []models.MConstituent, field func(models.MAssetSnapshot) float64) float64 {
	sum, weights := 0.0, 0.0
	for _, c := range constituents {
		sum += c.Weight * field(c.Asset)
		weights += c.Weight
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// -----------------------------------------------------------------------------

func composition(constituents []models.MConstituent) []models.MTokenComposition {
	out := make([]models.MTokenComposition, len(constituents))
	for i, c := range constituents {
		out[i] = models.MTokenComposition{
			ID:                       c.Asset.ID,
			Symbol:                   c.Asset.Symbol,
			Name:                     c.Asset.Name,
			Weight:                   c.Weight,
			Price:                    c.Asset.CurrentPrice,
			MarketCap:                c.Asset.MarketCap,
			TotalVolume:              c.Asset.TotalVolume,
			PriceChangePercentage24h: c.Asset.PriceChangePercentage24h,
			PriceChangePercentage7d:  c.Asset.PriceChangePercentage7d,
			PriceChangePercentage30d: c.Asset.PriceChangePercentage30d,
		}
	}
	return out
}
