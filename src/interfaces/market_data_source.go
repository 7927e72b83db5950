package interfaces

import (
	"context"

	"crypto-indices/src/models"
)

// -----------------------------------------------------------------------------
// IMarketDataSource fetches the ranked snapshot and per-asset history.
// -----------------------------------------------------------------------------

type IMarketDataSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchMarketSnapshot returns up to 250 assets ordered by market cap.
	// Any failure aborts the calling request.
	FetchMarketSnapshot(ctx context.Context) ([]models.MAssetSnapshot, error)

	// -----------------------------------------------------------------------------

	// FetchHistoricalSeries returns the ordered price series of one asset over
	// [from, to] (unix seconds). Failures are logged and yield an empty series.
	FetchHistoricalSeries(ctx context.Context, assetID string, from, to int64) []models.MPricePoint
}
