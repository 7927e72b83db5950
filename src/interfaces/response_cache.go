package interfaces

import (
	"context"

	"crypto-indices/src/models"
)

// -----------------------------------------------------------------------------
// IResponseCache is the read-through cache in front of the index pipeline.
// Implementations must be safe for concurrent use.
// -----------------------------------------------------------------------------

type IResponseCache interface {

	// Get returns the cached payload for the period if it is still fresh.
	Get(ctx context.Context, period models.MTimePeriod) (*models.MIndicesPayload, bool)

	// -----------------------------------------------------------------------------

	// Set stores a complete payload (last writer wins).
	Set(ctx context.Context, period models.MTimePeriod, payload *models.MIndicesPayload) error

	// -----------------------------------------------------------------------------

	// Invalidate drops every entry.
	Invalidate(ctx context.Context) error
}
