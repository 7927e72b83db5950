package indices

import (
	"context"
	"strings"
	"sync"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"
	"crypto-indices/src/selection"

	"golang.org/x/sync/singleflight"
)

// DefaultComputeTimeout bounds one shared compute when ComputeTimeout is unset.
const DefaultComputeTimeout = 2 * time.Minute

// IndexService fronts the engine with the response cache and publishes
// fresh payloads to the snapshot store and websocket listeners.
type IndexService struct {
	Engine    *IndexEngine
	Cache     interfaces.IResponseCache
	Store     interfaces.IDatabase
	Exchanger interfaces.IDataExchanger
	Logger    *logger.Logger
	Errors    *helpers.ErrorHandler

	// ComputeTimeout bounds a compute; callers cannot cancel one in flight.
	ComputeTimeout time.Duration

	group singleflight.Group

	mu          sync.RWMutex
	lastPeriod  models.MTimePeriod
	lastPayload *models.MIndicesPayload
	lastUpdate  time.Time
}

// -----------------------------------------------------------------------------

func NewIndexService(engine *IndexEngine, cache interfaces.IResponseCache, store interfaces.IDatabase, log *logger.Logger) *IndexService {
	return &IndexService{
		Engine: engine,
		Cache:  cache,
		Store:  store,
		Logger: log,
		Errors: helpers.NewErrorHandler(log),

		ComputeTimeout: DefaultComputeTimeout,
	}
}

// -----------------------------------------------------------------------------

// SetExchanger attaches the push channel once the server exists.
func (s *IndexService) SetExchanger(ex interfaces.IDataExchanger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Exchanger = ex
}

// -----------------------------------------------------------------------------

// GetIndices serves period from cache when fresh, otherwise recomputes.
// The bool reports a cache hit.
func (s *IndexService) GetIndices(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, bool, error) {
	if payload, ok := s.Cache.Get(ctx, period); ok {
		return payload, true, nil
	}

	payload, err := s.Refresh(ctx, period)
	if err != nil {
		return nil, false, err
	}
	return payload, false, nil
}

// -----------------------------------------------------------------------------

// Cached returns the cached payload for period without computing.
func (s *IndexService) Cached(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, bool) {
	return s.Cache.Get(ctx, period)
}

// -----------------------------------------------------------------------------

// Refresh always recomputes. Concurrent refreshes of one period share a
// single compute, which runs to completion even if the caller goes away.
func (s *IndexService) Refresh(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, error) {
	v, err, _ := s.group.Do(string(period), func() (interface{}, error) {
		timeout := s.ComputeTimeout
		if timeout <= 0 {
			timeout = DefaultComputeTimeout
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		payload, err := s.Engine.Compute(cctx, period)
		if err != nil {
			return nil, err
		}
		s.publish(cctx, period, payload)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.MIndicesPayload), nil
}

// -----------------------------------------------------------------------------

// publish runs the post-compute side effects. Failures are logged only.
func (s *IndexService) publish(ctx context.Context, period models.MTimePeriod, payload *models.MIndicesPayload) {
	s.Errors.Handle(s.Cache.Set(ctx, period, payload), "cache write "+string(period))

	now := s.Engine.Now().UTC()

	s.mu.Lock()
	s.lastPeriod = period
	s.lastPayload = payload
	s.lastUpdate = now
	ex := s.Exchanger
	s.mu.Unlock()

	if s.Store != nil {
		s.Errors.Handle(s.Store.SaveIndexSnapshots(SnapshotRecords(period, payload, now)), "snapshot persist "+string(period))
	}

	if ex != nil {
		ex.Broadcast(&models.MIndexUpdate{
			Type:       "UPDATE",
			TimePeriod: string(period),
			Payload:    payload,
			Timestamp:  now.Unix(),
		})
	}
}

// -----------------------------------------------------------------------------

// Invalidate drops every cached payload.
func (s *IndexService) Invalidate(ctx context.Context) error {
	return s.Cache.Invalidate(ctx)
}

// -----------------------------------------------------------------------------

// Latest returns the most recently computed payload, if any.
func (s *IndexService) Latest() (models.MTimePeriod, *models.MIndicesPayload, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPeriod, s.lastPayload, s.lastUpdate
}

// -----------------------------------------------------------------------------

// SnapshotRecords flattens a payload into one store row per index.
func SnapshotRecords(period models.MTimePeriod, payload *models.MIndicesPayload, at time.Time) []models.MIndexSnapshotRecord {
	var records []models.MIndexSnapshotRecord
	byName := payload.Indices()
	for _, name := range []string{selection.Anchor5, selection.Vibe20, selection.Wave100} {
		resp := byName[name]
		if resp == nil {
			continue
		}

		symbols := make([]string, len(resp.Meta.Constituents))
		for i, c := range resp.Meta.Constituents {
			symbols[i] = c.Symbol
		}

		records = append(records, models.MIndexSnapshotRecord{
			IndexName:    resp.Index,
			TimePeriod:   string(period),
			ComputedAt:   at.Unix(),
			CurrentValue: resp.CurrentValue,
			Change24h:    resp.Change24hPercentage,
			Constituents: strings.Join(symbols, ","),
			CandleCount:  len(resp.Candles),
		})
	}
	return records
}
