package main

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"go.helics.dev/corehub/internal/action"
	"go.helics.dev/corehub/internal/buildinfo"
	"go.helics.dev/corehub/internal/corert"
	"go.helics.dev/corehub/internal/crypto"
	"go.helics.dev/corehub/internal/filterfed"
	"go.helics.dev/corehub/internal/ident"
	"go.helics.dev/corehub/internal/metrics"
	"go.helics.dev/corehub/internal/netbroker"
	"go.helics.dev/corehub/internal/query"
	"go.helics.dev/corehub/internal/tcppeer"
	"go.helics.dev/corehub/internal/tlsconf"
)

// noopTimeCoordinator satisfies filterfed.TimeCoordinator for a standalone
// core/broker process: time coordination (I-TIME) is out of scope, so
// every minReturnTime publication is simply discarded.
type noopTimeCoordinator struct{}

func (noopTimeCoordinator) SetMinReturnTime(ident.FederateID, float64, bool) {}

// nodeConfig is the resolved, viper-bound configuration for one running
// node (broker or core).
type nodeConfig struct {
	id           ident.FederateID
	separator    string
	tickInterval time.Duration
	listenAddr   string
	queryAddr    string
	token        string
	brokerAddr   string // core only: upstream to dial; empty for a root broker
	protocol     string
	dumpLog      bool
}

// runNode brings up one corert.Core, its peer-link transport, its query
// surface, and its Prometheus metrics, then blocks until SIGINT/SIGTERM or
// a fatal transport error.
func runNode(cfg nodeConfig) error {
	log := slog.With("role", roleName(cfg), "id", cfg.id)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	core := corert.New(corert.Config{
		ID:           cfg.id,
		Separator:    cfg.separator,
		TickInterval: cfg.tickInterval,
		TimeCoord:    noopTimeCoordinator{},
	})
	core.SetLogger(func(format string, args ...any) {
		log.Warn(fmt.Sprintf(format, args...))
	})
	core.Federate().Transition(filterfed.Initializing)
	core.Federate().Transition(filterfed.Executing)

	router := tcppeer.NewRouter()
	core.SetRouter(router)

	push := core.Push
	if cfg.dumpLog {
		push = func(m action.Message) {
			log.Debug("action frame", "frame", m.String())
			core.Push(m)
		}
	}

	var key *[32]byte
	if cfg.token != "" {
		k, err := crypto.DeriveKey(cfg.token)
		if err != nil {
			return fmt.Errorf("deriving peer-link key: %w", err)
		}
		key = k
	}

	if cfg.brokerAddr != "" {
		if err := buildinfo.RequireCompatible(cfg.protocol); err != nil {
			return fmt.Errorf("protocol handshake: %w", err)
		}
		upstream, err := tcppeer.Dial(cfg.brokerAddr, key)
		if err != nil {
			return fmt.Errorf("dialing broker %s: %w", cfg.brokerAddr, err)
		}
		router.SetUpstream(upstream)
		go func() {
			if err := upstream.Serve(push); err != nil {
				log.Error("upstream link closed", "err", err)
			}
		}()
		log.Info("connected to broker", "addr", cfg.brokerAddr)
	}

	iface, err := netbroker.Parse(cfg.listenAddr)
	if err != nil {
		return fmt.Errorf("parsing --addr %s: %w", cfg.listenAddr, err)
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", iface.Host, iface.Port))
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.listenAddr, err)
	}
	defer ln.Close()
	log.Info("peer-link listening", "addr", ln.Addr())

	go acceptPeers(ln, push, router, key, log)

	stopMetrics := make(chan struct{})
	defer close(stopMetrics)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stopMetrics:
				return
			case <-ticker.C:
				m.SetAsyncPending(core.Federate().PendingProcessCount())
			}
		}
	}()

	go core.Run()
	defer core.JoinAllThreads()

	if cfg.queryAddr != "" {
		passphrase := cfg.token
		if passphrase == "" {
			passphrase = tlsconf.DefaultPassphrase
		}
		if err := serveQuery(cfg.queryAddr, passphrase, core, reg); err != nil {
			return fmt.Errorf("query surface: %w", err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	return nil
}

func roleName(cfg nodeConfig) string {
	if cfg.brokerAddr == "" {
		return "broker"
	}
	return "core"
}

// acceptPeers runs the listener's accept loop: every inbound connection
// becomes a tcppeer.Peer attached to router once its first frame reveals
// its SourceID, and every decoded frame is handed to push.
func acceptPeers(ln net.Listener, push func(action.Message), router *tcppeer.Router, key *[32]byte, log *slog.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Warn("accept failed", "err", err)
			return
		}
		peer := tcppeer.Accept(conn, key)
		go func() {
			attached := false
			err := peer.Serve(func(m action.Message) {
				if !attached {
					router.Attach(m.SourceID, peer)
					attached = true
				}
				push(m)
			})
			if err != nil {
				log.Debug("peer link ended", "peer", peer.ID(), "err", err)
			}
		}()
	}
}

// serveQuery starts the gRPC + HTTP/JSON query surface, multiplexed with
// the Prometheus /metrics endpoint, listening on addr in the background.
// The listener is wrapped in tlsconf's passphrase-derived TLS before cmux
// ever sees it, so both the gRPC and HTTP/JSON sides are encrypted and
// reject a peer that doesn't know passphrase.
func serveQuery(addr, passphrase string, core *corert.Core, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	serverCfg, _, err := tlsconf.ServerConfig(passphrase)
	if err != nil {
		ln.Close()
		return fmt.Errorf("query surface TLS: %w", err)
	}
	ln = tls.NewListener(ln, serverCfg)

	src := query.NewServer(core)
	grpcSrv := grpc.NewServer()
	query.RegisterCoreQueryServiceServer(grpcSrv, query.NewGRPCServer(src))

	httpMux := http.NewServeMux()
	httpMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpMux.Handle("/", query.NewGatewayMux(src))

	go func() {
		if err := query.Serve(ln, grpcSrv, httpMux); err != nil {
			slog.Error("query surface stopped", "err", err)
		}
	}()
	slog.Info("query surface listening", "addr", ln.Addr())
	return nil
}
