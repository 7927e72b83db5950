package interfaces

import "context"

// -----------------------------------------------------------------------------
// INetworkManager defines the contract for outbound HTTP requests.
// -----------------------------------------------------------------------------

type INetworkManager interface {

	// -----------------------------------------------------------------------------

	// Get performs a single GET request to the specified URL with query parameters
	// and extra headers. Non-2xx responses are returned as errors; there is no retry.
	Get(ctx context.Context, url string, params map[string]string, headers map[string]string) ([]byte, error)
}
