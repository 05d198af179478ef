package master

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"

	"driftfs/internal/rpc/masterrpc"
)

// ipLimiter tracks the rate limiter and last-seen time for a single peer.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter tracks per-address request limiters for the master's RPC
// surface, the same shape as internal/server/ratelimit.go adapted from
// per-IP HTTP middleware to a gRPC unary interceptor.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rate     rate.Limit
	burst    int
}

func newRateLimiter(r rate.Limit, burst int) *rateLimiter {
	return &rateLimiter{limiters: make(map[string]*ipLimiter), rate: r, burst: burst}
}

func (rl *rateLimiter) getLimiter(addr string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[addr]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[addr] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *rateLimiter) cleanup(staleAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-staleAfter)
	for addr, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, addr)
		}
	}
}

func (rl *rateLimiter) unaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		addr := "unknown"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			addr = p.Addr.String()
		}
		if !rl.getLimiter(addr).Allow() {
			return nil, errTooManyRequests(info.FullMethod)
		}
		return handler(ctx, req)
	}
}

// RPCServer wraps the grpc.Server that exposes a Master over the network,
// plus a small HTTP server for the Prometheus metrics endpoint.
type RPCServer struct {
	m          *Master
	grpcServer *grpc.Server
	rl         *rateLimiter
	rlCancel   context.CancelFunc

	metricsSrv *http.Server
}

// NewRPCServer builds the gRPC server for m. metricsAddr may be empty to
// disable the metrics endpoint.
func NewRPCServer(m *Master, metricsAddr string) *RPCServer {
	rl := newRateLimiter(20, 40)

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(rl.unaryInterceptor(), errorMappingInterceptor()))
	masterrpc.Register(gs, m)

	rs := &RPCServer{m: m, grpcServer: gs, rl: rl}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/metrics", m.ServeMetrics)
		rs.metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	}

	return rs
}

// ServeTCP binds addr and blocks serving gRPC until Stop is called.
func (rs *RPCServer) ServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	rlCtx, cancel := context.WithCancel(context.Background())
	rs.rlCancel = cancel
	go func() {
		ticker := time.NewTicker(3 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-rlCtx.Done():
				return
			case <-ticker.C:
				rs.rl.cleanup(5 * time.Minute)
			}
		}
	}()

	if rs.metricsSrv != nil {
		go func() {
			if err := rs.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				rs.m.logger.Warn("metrics server error", "error", err)
			}
		}()
	}

	rs.m.logger.Info("master rpc server listening", "addr", addr)
	return rs.grpcServer.Serve(ln)
}

// Stop gracefully stops the gRPC server and the metrics server.
func (rs *RPCServer) Stop(ctx context.Context) error {
	if rs.rlCancel != nil {
		rs.rlCancel()
	}
	if rs.metricsSrv != nil {
		_ = rs.metricsSrv.Shutdown(ctx)
	}
	rs.grpcServer.GracefulStop()
	return nil
}
