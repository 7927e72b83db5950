package grpc_control

import (
	"context"
	"fmt"
	"net"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "indices.control.v1.IndexControl"

// IndexControlServer is the server API of the control service. Messages use
// the protobuf well-known types so no generated code is required.
type IndexControlServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	InvalidateCache(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ControlService implements IndexControlServer on top of the index service.
type ControlService struct {
	Provider interfaces.IIndexProvider
	Metrics  func() models.MProcessingMetrics
	Logger   *logger.Logger
	Started  time.Time
}

// -----------------------------------------------------------------------------

func NewControlService(provider interfaces.IIndexProvider, metrics func() models.MProcessingMetrics, log *logger.Logger) *ControlService {
	return &ControlService{
		Provider: provider,
		Metrics:  metrics,
		Logger:   log,
		Started:  time.Now().UTC(),
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	period, payload, updated := s.Provider.Latest()

	fields := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": time.Since(s.Started).Seconds(),
		"latest_period":  string(period),
		"latest_update":  float64(0),
	}
	if !updated.IsZero() {
		fields["latest_update"] = float64(updated.Unix())
	}
	if payload != nil {
		values := map[string]interface{}{}
		for name, resp := range payload.Indices() {
			if resp != nil {
				values[name] = resp.CurrentValue
			}
		}
		fields["current_values"] = values
	}
	if s.Metrics != nil {
		m := s.Metrics()
		fields["compute_time_seconds"] = m.ComputeTimeSeconds
		fields["snapshot_assets"] = float64(m.SnapshotAssets)
		fields["history_fetches"] = float64(m.HistoryFetches)
		fields["history_failures"] = float64(m.HistoryFailures)
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (s *ControlService) InvalidateCache(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.Provider.Invalidate(ctx); err != nil {
		s.Logger.Error("Cache invalidation failed: %v", err)
		return nil, status.Errorf(codes.Internal, "invalidate cache: %v", err)
	}

	s.Logger.Info("Cache invalidated via control API")
	return structpb.NewStruct(map[string]interface{}{"success": true})
}

// -----------------------------------------------------------------------------

// Refresh recomputes one period; {"timePeriod": "daily"}. Missing means year.
func (s *ControlService) Refresh(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := ""
	if req != nil {
		if v, ok := req.GetFields()["timePeriod"]; ok {
			raw = v.GetStringValue()
		}
	}
	period := models.ParseTimePeriod(raw)

	payload, err := s.Provider.Refresh(ctx, period)
	if err != nil {
		code := codes.Internal
		if helpers.IsConfigurationError(err) {
			code = codes.FailedPrecondition
		}
		return nil, status.Error(code, err.Error())
	}

	values := map[string]interface{}{}
	for name, resp := range payload.Indices() {
		if resp != nil {
			values[name] = resp.CurrentValue
		}
	}

	return structpb.NewStruct(map[string]interface{}{
		"success":        true,
		"timePeriod":     string(period),
		"lastUpdated":    payload.LastUpdated,
		"current_values": values,
	})
}

// -----------------------------------------------------------------------------
// Service registration
// -----------------------------------------------------------------------------

// RegisterIndexControlServer attaches srv to a gRPC server.
func RegisterIndexControlServer(s grpc.ServiceRegistrar, srv IndexControlServer) {
	s.RegisterService(&IndexControl_ServiceDesc, srv)
}

// -----------------------------------------------------------------------------

func unaryHandler[Req any](method string, call func(IndexControlServer, context.Context, *Req) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IndexControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(IndexControlServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// IndexControl_ServiceDesc describes the control service for grpc.Server.
var IndexControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IndexControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler: unaryHandler("GetStatus", func(s IndexControlServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return s.GetStatus(ctx, in)
			}),
		},
		{
			MethodName: "InvalidateCache",
			Handler: unaryHandler("InvalidateCache", func(s IndexControlServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
				return s.InvalidateCache(ctx, in)
			}),
		},
		{
			MethodName: "Refresh",
			Handler: unaryHandler("Refresh", func(s IndexControlServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Refresh(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "indices/control/v1/control.proto",
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// IndexControlClient is a thin client for the control service.
type IndexControlClient struct {
	cc grpc.ClientConnInterface
}

func NewIndexControlClient(cc grpc.ClientConnInterface) *IndexControlClient {
	return &IndexControlClient{cc: cc}
}

// -----------------------------------------------------------------------------

func (c *IndexControlClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetStatus", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (c *IndexControlClient) InvalidateCache(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/InvalidateCache", &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (c *IndexControlClient) Refresh(ctx context.Context, period string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"timePeriod": period})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Refresh", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Server lifecycle
// -----------------------------------------------------------------------------

// Serve listens on host:port and blocks until the server stops.
func Serve(grpcServer *grpc.Server, host string, port int, log *logger.Logger) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen on %s: %w", addr, err)
	}
	log.Info("gRPC control server listening on %s", addr)
	return grpcServer.Serve(lis)
}
