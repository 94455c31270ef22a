// Package query implements the read-only query/status surface: a gRPC
// CoreQueryService (ListFilters, ListEndpoints, BrokerStatus), multiplexed
// on the same TCP port as an HTTP/JSON gateway via cmux (see Serve). It
// never touches filtering semantics — only introspects a running core.
//
// CoreQueryService's request/response messages are google.protobuf.Struct
// (a schema-free, already-generated protobuf message shipped by the
// protobuf runtime itself) rather than a bespoke generated .pb.go type: the
// service is small and purely introspective, and hand-authoring a
// wire-compatible generated stub without running protoc would be exactly
// the kind of fabricated-by-hand code this project avoids. The
// grpc.ServiceDesc in service.go is the same shape protoc-gen-go-grpc would emit;
// only the per-field accessors a .proto message gives you are missing.
package query

import (
	"context"

	"go.helics.dev/corehub/internal/handles"
)

// EndpointInfo is one registered interface, exported for introspection
// independent of handles.Info's internal field layout.
type EndpointInfo struct {
	Name  string
	Type  string
	Owner int32
}

// Status is a read-only snapshot of the core this service reports on.
type Status struct {
	FederateID     int32
	State          string
	PendingAsync   int
	ActionQueueLen int
}

// Source is the minimal read-only contract CoreQueryService needs from a
// running core. *corert.Core implements this via its Endpoints,
// FilterEndpoints, and Status methods.
type Source interface {
	Endpoints() []*handles.Info
	FilterEndpoints() []string
	Status() Status
}

// Server implements CoreQueryServer against a Source.
type Server struct {
	src Source
}

// NewServer returns a Server reporting on src.
func NewServer(src Source) *Server {
	return &Server{src: src}
}

// ListEndpoints returns every registered endpoint.
func (s *Server) ListEndpoints(ctx context.Context) ([]EndpointInfo, error) {
	infos := s.src.Endpoints()
	out := make([]EndpointInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, EndpointInfo{
			Name:  info.Name,
			Type:  info.Type,
			Owner: info.Owner.BaseValue(),
		})
	}
	return out, nil
}

// ListFilters returns the endpoint names that currently have a filter
// coordinator attached.
func (s *Server) ListFilters(ctx context.Context) ([]string, error) {
	return s.src.FilterEndpoints(), nil
}

// BrokerStatus returns a snapshot of the core's current state.
func (s *Server) BrokerStatus(ctx context.Context) (Status, error) {
	return s.src.Status(), nil
}
