package query

import (
	"net"
	"net/http"

	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
)

// Serve multiplexes CoreQueryService's gRPC server and its HTTP/JSON
// gateway on a single listener, routing by content-type the way cmux's own
// README recommends for a collocated gRPC+HTTP/1.1 service. It blocks until
// the multiplexer or one of its sub-listeners returns an error (including a
// clean Close).
func Serve(l net.Listener, grpcSrv *grpc.Server, gatewayMux http.Handler) error {
	m := cmux.New(l)
	grpcL := m.MatchWithWriters(cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"))
	httpL := m.Match(cmux.HTTP1Fast())

	errCh := make(chan error, 3)
	go func() { errCh <- grpcSrv.Serve(grpcL) }()
	go func() { errCh <- (&http.Server{Handler: gatewayMux}).Serve(httpL) }()
	go func() { errCh <- m.Serve() }()

	return <-errCh
}
