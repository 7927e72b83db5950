package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"github.com/robfig/cron/v3"
)

const defaultRefreshTimeout = 2 * time.Minute

// RefreshFunc recomputes and publishes the indices for one period.
type RefreshFunc func(ctx context.Context, period models.MTimePeriod) error

// RefreshScheduler periodically warms the response cache.
type RefreshScheduler struct {
	Cron    *cron.Cron
	Periods []models.MTimePeriod
	Refresh RefreshFunc
	Timeout time.Duration
	Logger  *logger.Logger

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// -----------------------------------------------------------------------------

func NewRefreshScheduler(periods []string, refresh RefreshFunc, timeout time.Duration, l *logger.Logger) *RefreshScheduler {
	parsed := make([]models.MTimePeriod, 0, len(periods))
	for _, p := range periods {
		parsed = append(parsed, models.ParseTimePeriod(p))
	}

	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}

	return &RefreshScheduler{
		Cron:    cron.New(),
		Periods: parsed,
		Refresh: refresh,
		Timeout: timeout,
		Logger:  l,
	}
}

// -----------------------------------------------------------------------------

// Register adds the refresh job under a standard cron spec or descriptor
// such as "@every 2m".
func (rs *RefreshScheduler) Register(spec string) error {
	if _, err := rs.Cron.AddFunc(spec, rs.RunOnce); err != nil {
		return fmt.Errorf("register refresh job %q: %w", spec, err)
	}
	rs.Logger.Info("RefreshScheduler: registered %q for %d periods", spec, len(rs.Periods))
	return nil
}

// -----------------------------------------------------------------------------

func (rs *RefreshScheduler) Start() {
	rs.Cron.Start()
	rs.Logger.Info("RefreshScheduler started")
}

// -----------------------------------------------------------------------------

// Stop waits for a running job to finish.
func (rs *RefreshScheduler) Stop() {
	ctx := rs.Cron.Stop()
	<-ctx.Done()
	rs.Logger.Info("RefreshScheduler stopped")
}

// -----------------------------------------------------------------------------

// RunOnce refreshes every configured period in order. Overlapping runs are
// skipped.
func (rs *RefreshScheduler) RunOnce() {
	rs.mu.Lock()
	if rs.running {
		rs.mu.Unlock()
		rs.Logger.Warning("RefreshScheduler: previous run still active, skipping")
		return
	}
	rs.running = true
	rs.mu.Unlock()

	defer func() {
		rs.mu.Lock()
		rs.running = false
		rs.lastRun = time.Now().UTC()
		rs.mu.Unlock()
	}()

	for _, period := range rs.Periods {
		ctx, cancel := context.WithTimeout(context.Background(), rs.Timeout)
		if err := rs.Refresh(ctx, period); err != nil {
			rs.Logger.Error("RefreshScheduler: period %s failed: %v", period, err)
		}
		cancel()
	}
}

// -----------------------------------------------------------------------------

// LastRun returns the completion time of the latest run (zero if none).
func (rs *RefreshScheduler) LastRun() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.lastRun
}
