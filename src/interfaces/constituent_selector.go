package interfaces

import "crypto-indices/src/models"

// -----------------------------------------------------------------------------
// IConstituentSelector picks and weights the members of one index.
// -----------------------------------------------------------------------------

type IConstituentSelector interface {
	// Name returns the wire name of the index (e.g. "anchor5").
	Name() string

	// -----------------------------------------------------------------------------
	// Select ranks the snapshot and returns the weighted constituents. An empty
	// selection is valid and yields a placeholder index downstream.
	Select(assets []models.MAssetSnapshot, period models.MTimePeriod) models.MSelection
}
