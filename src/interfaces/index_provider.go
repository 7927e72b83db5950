package interfaces

import (
	"context"
	"time"

	"crypto-indices/src/models"
)

// -----------------------------------------------------------------------------
// IIndexProvider serves computed index payloads to the transport layers.
// -----------------------------------------------------------------------------

type IIndexProvider interface {
	// GetIndices returns the payload for period and whether it came from cache.
	GetIndices(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, bool, error)

	// -----------------------------------------------------------------------------
	// Cached returns the cached payload without computing.
	Cached(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, bool)

	// -----------------------------------------------------------------------------
	// Refresh recomputes period regardless of the cache.
	Refresh(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, error)

	// -----------------------------------------------------------------------------
	// Invalidate drops every cached payload.
	Invalidate(ctx context.Context) error

	// -----------------------------------------------------------------------------
	// Latest returns the most recent computed payload and when it was built.
	Latest() (models.MTimePeriod, *models.MIndicesPayload, time.Time)
}
