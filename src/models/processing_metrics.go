package models

// MProcessingMetrics represents the performance metrics for the index pipeline.
type MProcessingMetrics struct {
	ComputeTimeSeconds float64 `json:"compute_time_seconds"`
	SnapshotAssets     int     `json:"snapshot_assets"`
	HistoryFetches     int     `json:"history_fetches"`
	HistoryFailures    int     `json:"history_failures"`
}
