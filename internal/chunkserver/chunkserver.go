// Package chunkserver implements the ChunkServer storage node described in
// spec.md §4.1: chunk upload/read/append/delete, OTP-gated authorization,
// transfer-on-repair, and the heartbeat sender that reports its held-set to
// the current master.
package chunkserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustinkirkland/golang-petname"
	"github.com/go-co-op/gocron/v2"

	"driftfs/internal/auth"
	"driftfs/internal/chunkserverconfig"
	"driftfs/internal/chunkstore"
	"driftfs/internal/logging"
	"driftfs/internal/rpc"
	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

// dialChunkClient opens a fresh connection to another chunkserver. Transfers
// are infrequent enough (only on repair) that a cache isn't worth the
// complexity the master's clientCache carries for its much hotter path.
func dialChunkClient(addr string) (*chunkrpc.Client, error) {
	cc, err := rpc.Dial(addr)
	if err != nil {
		return nil, err
	}
	return chunkrpc.NewClient(cc), nil
}

// Server is a single ChunkServer node.
type Server struct {
	cfg      chunkserverconfig.Config
	selfAddr string
	logger   *slog.Logger
	nickname string

	store    chunkstore.Store
	otpTable *auth.OtpTable

	masterMu  sync.Mutex
	masterIdx int

	scheduler    gocron.Scheduler
	heartbeatJob gocron.Job
	otpSweepJob  gocron.Job
}

// New constructs a ChunkServer bound to selfAddr, building the configured
// chunkstore backend.
func New(ctx context.Context, selfAddr string, cfg chunkserverconfig.Config, logger *slog.Logger) (*Server, error) {
	logger = logging.Default(logger).With("component", "chunkserver")

	store, err := buildStore(ctx, selfAddr, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("chunkserver: build store: %w", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("chunkserver: new scheduler: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		selfAddr:  selfAddr,
		logger:    logger,
		nickname:  petname.Generate(2, "-"),
		store:     store,
		otpTable:  auth.NewOtpTable(),
		scheduler: sched,
	}

	logger.Info("chunkserver constructed", "node", s.nickname, "addr", selfAddr, "backend", cfg.Backend)
	return s, nil
}

// Start registers with the current master and begins the heartbeat-sender
// and OTP-sweep background loops.
func (s *Server) Start(ctx context.Context) error {
	if err := s.registerWithMaster(ctx); err != nil {
		s.logger.Warn("initial registration failed, heartbeat loop will retry", "error", err)
	}

	if err := s.startHeartbeatSender(); err != nil {
		return fmt.Errorf("chunkserver: start heartbeat sender: %w", err)
	}
	if err := s.startOtpSweeper(); err != nil {
		return fmt.Errorf("chunkserver: start otp sweeper: %w", err)
	}

	s.scheduler.Start()
	return nil
}

// Stop shuts down background loops and releases the chunkstore.
func (s *Server) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return err
	}
	return s.store.Close()
}

// currentMasterClient dials the master address currently believed active,
// rotating through cfg.MasterAddrs on dial failure (spec.md §7: a
// chunkserver retries forever, cycling through every configured address).
func (s *Server) currentMasterClient() (*masterrpc.Client, string, error) {
	s.masterMu.Lock()
	defer s.masterMu.Unlock()

	if len(s.cfg.MasterAddrs) == 0 {
		return nil, "", fmt.Errorf("chunkserver: no masterAddrs configured")
	}

	tried := 0
	for tried < len(s.cfg.MasterAddrs) {
		addr := s.cfg.MasterAddrs[s.masterIdx]
		cc, err := rpc.Dial(addr)
		if err == nil {
			return masterrpc.NewClient(cc), addr, nil
		}
		s.logger.Debug("dial master failed, rotating", "addr", addr, "error", err)
		s.masterIdx = (s.masterIdx + 1) % len(s.cfg.MasterAddrs)
		tried++
	}
	return nil, "", fmt.Errorf("chunkserver: no reachable master among %v", s.cfg.MasterAddrs)
}

func (s *Server) registerWithMaster(ctx context.Context) error {
	cl, addr, err := s.currentMasterClient()
	if err != nil {
		return err
	}
	_, err = cl.RegisterChunkServer(ctx, &masterrpc.RegisterChunkServerRequest{Address: s.selfAddr})
	if err != nil {
		return fmt.Errorf("chunkserver: register with %s: %w", addr, err)
	}
	s.logger.Info("registered with master", "master", addr)
	return nil
}
