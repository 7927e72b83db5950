package grpc_control

import (
	"context"
	"net"
	"testing"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeProvider struct {
	refreshErr  error
	refreshed   []models.MTimePeriod
	invalidated int
	latest      *models.MIndicesPayload
}

func (f *fakeProvider) GetIndices(ctx context.Context, p models.MTimePeriod) (*models.MIndicesPayload, bool, error) {
	payload, err := f.Refresh(ctx, p)
	return payload, false, err
}

func (f *fakeProvider) Cached(context.Context, models.MTimePeriod) (*models.MIndicesPayload, bool) {
	return nil, false
}

func (f *fakeProvider) Refresh(_ context.Context, p models.MTimePeriod) (*models.MIndicesPayload, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	f.refreshed = append(f.refreshed, p)
	f.latest = &models.MIndicesPayload{
		Anchor5:     &models.MIndexResponse{Index: "anchor5", CurrentValue: 1234.56},
		LastUpdated: "2024-05-20T12:00:00.000Z",
	}
	return f.latest, nil
}

func (f *fakeProvider) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

func (f *fakeProvider) Latest() (models.MTimePeriod, *models.MIndicesPayload, time.Time) {
	if f.latest == nil {
		return "", nil, time.Time{}
	}
	return models.PeriodDaily, f.latest, time.Unix(1_716_206_400, 0)
}

func dialControl(t *testing.T, provider *fakeProvider) *IndexControlClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	metrics := func() models.MProcessingMetrics {
		return models.MProcessingMetrics{SnapshotAssets: 250, HistoryFetches: 45, HistoryFailures: 2}
	}
	RegisterIndexControlServer(srv, NewControlService(provider, metrics, logger.NewLogger(nil, "test")))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewIndexControlClient(conn)
}

func TestGetStatusBeforeAnyCompute(t *testing.T) {
	client := dialControl(t, &fakeProvider{})

	resp, err := client.GetStatus(context.Background())
	require.NoError(t, err)

	fields := resp.AsMap()
	assert.Equal(t, "ok", fields["status"])
	assert.Equal(t, "", fields["latest_period"])
	assert.Equal(t, float64(0), fields["latest_update"])
	assert.Equal(t, float64(250), fields["snapshot_assets"])
	assert.Equal(t, float64(45), fields["history_fetches"])
	assert.NotContains(t, fields, "current_values")
}

func TestRefreshAndStatus(t *testing.T) {
	provider := &fakeProvider{}
	client := dialControl(t, provider)
	ctx := context.Background()

	resp, err := client.Refresh(ctx, "DAILY")
	require.NoError(t, err)
	fields := resp.AsMap()
	assert.Equal(t, true, fields["success"])
	assert.Equal(t, "daily", fields["timePeriod"])
	assert.Equal(t, map[string]interface{}{"anchor5": 1234.56}, fields["current_values"])
	assert.Equal(t, []models.MTimePeriod{models.PeriodDaily}, provider.refreshed)

	resp, err = client.Refresh(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "year", resp.AsMap()["timePeriod"])

	status, err := client.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, "daily", status.AsMap()["latest_period"])
	assert.Equal(t, float64(1_716_206_400), status.AsMap()["latest_update"])
}

func TestRefreshErrorCodes(t *testing.T) {
	provider := &fakeProvider{refreshErr: helpers.NewConfigurationError("CoinGecko API key not configured")}
	client := dialControl(t, provider)

	_, err := client.Refresh(context.Background(), "daily")
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	provider.refreshErr = helpers.NewNetworkError("bad status: 429", nil)
	_, err = client.Refresh(context.Background(), "daily")
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestInvalidateCache(t *testing.T) {
	provider := &fakeProvider{}
	client := dialControl(t, provider)

	resp, err := client.InvalidateCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, resp.AsMap()["success"])
	assert.Equal(t, 1, provider.invalidated)
}
