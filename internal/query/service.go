package query

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// serviceName is the gRPC service name CoreQueryService registers under.
const serviceName = "corehub.query.v1.CoreQueryService"

// GRPCServer implements the three CoreQueryService RPCs directly against a
// Server, encoding results as google.protobuf.Struct.
type GRPCServer struct {
	s *Server
}

// NewGRPCServer wraps s for gRPC registration.
func NewGRPCServer(s *Server) *GRPCServer {
	return &GRPCServer{s: s}
}

func (g *GRPCServer) listEndpoints(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	eps, err := g.s.ListEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, 0, len(eps))
	for _, ep := range eps {
		items = append(items, map[string]interface{}{
			"name":  ep.Name,
			"type":  ep.Type,
			"owner": float64(ep.Owner),
		})
	}
	return structpb.NewStruct(map[string]interface{}{"endpoints": items})
}

func (g *GRPCServer) listFilters(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	names, err := g.s.ListFilters(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]interface{}, 0, len(names))
	for _, n := range names {
		items = append(items, n)
	}
	return structpb.NewStruct(map[string]interface{}{"filtered_endpoints": items})
}

func (g *GRPCServer) brokerStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := g.s.BrokerStatus(ctx)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]interface{}{
		"federate_id":      float64(st.FederateID),
		"state":            st.State,
		"pending_async":    float64(st.PendingAsync),
		"action_queue_len": float64(st.ActionQueueLen),
	})
}

func decodeEmpty(dec func(interface{}) error) (*emptypb.Empty, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	return in, nil
}

func listEndpointsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in, err := decodeEmpty(dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*GRPCServer).listEndpoints(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListEndpoints"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*GRPCServer).listEndpoints(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listFiltersHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in, err := decodeEmpty(dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*GRPCServer).listFilters(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListFilters"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*GRPCServer).listFilters(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func brokerStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in, err := decodeEmpty(dec)
	if err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*GRPCServer).brokerStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/BrokerStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*GRPCServer).brokerStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is CoreQueryService's grpc.ServiceDesc, the same shape
// protoc-gen-go-grpc emits for a generated stub.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GRPCServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListEndpoints", Handler: listEndpointsHandler},
		{MethodName: "ListFilters", Handler: listFiltersHandler},
		{MethodName: "BrokerStatus", Handler: brokerStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "corehub/query/v1/query.proto",
}

// RegisterCoreQueryServiceServer registers g against sr, the same call
// shape a generated pb.RegisterCoreQueryServiceServer would offer.
func RegisterCoreQueryServiceServer(sr grpc.ServiceRegistrar, g *GRPCServer) {
	sr.RegisterService(&ServiceDesc, g)
}
