package query

import (
	"encoding/json"
	"net/http"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// NewGatewayMux returns a grpc-gateway ServeMux exposing the same three
// read-only RPCs over HTTP/JSON, registered by hand via HandlePath rather
// than a generated .pb.gw.go reverse proxy (see the package doc for why).
// It answers requests directly from s, without an intermediate gRPC hop —
// the same shape a generated gateway takes when it is collocated with the
// gRPC server it forwards to.
func NewGatewayMux(s *Server) *gwruntime.ServeMux {
	mux := gwruntime.NewServeMux()

	mux.HandlePath(http.MethodGet, "/v1/endpoints", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		eps, err := s.ListEndpoints(r.Context())
		writeJSON(w, map[string]interface{}{"endpoints": eps}, err)
	})

	mux.HandlePath(http.MethodGet, "/v1/filters", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		names, err := s.ListFilters(r.Context())
		writeJSON(w, map[string]interface{}{"filtered_endpoints": names}, err)
	})

	mux.HandlePath(http.MethodGet, "/v1/status", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		st, err := s.BrokerStatus(r.Context())
		writeJSON(w, st, err)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v interface{}, err error) {
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
