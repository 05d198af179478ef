// Package master implements the Master / Shadow Master metadata
// coordinator described in spec.md §4.2: chunk placement, chunkserver
// liveness tracking, re-replication, leader election and failover, OTP
// minting, and metadata propagation to shadows.
package master

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustinkirkland/golang-petname"
	"github.com/go-co-op/gocron/v2"

	"driftfs/internal/auth"
	"driftfs/internal/gfs"
	"driftfs/internal/logging"
	"driftfs/internal/masterconfig"
	"driftfs/internal/rpc"
	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

var (
	ErrUnknownFile            = errors.New("master: unknown file")
	ErrNoChunkServer          = errors.New("master: no chunkserver available")
	ErrAuthenticationDisabled = errors.New("master: authentication is not enabled on this master")
)

// Master is a single node of the Master/Shadow set. One instance acts as
// leader (spec.md §4.2's leader-lease scheme) and every other configured
// address is a passive shadow. The lease is not quorum-based: a network
// partition can leave two nodes that each consider themselves leader.
type Master struct {
	cfg      masterconfig.Config
	selfAddr string
	logger   *slog.Logger
	nickname string

	// Metadata maps. Each has its own guard, per spec.md §5's
	// "single-writer/many-readers guard per map". Multi-map mutations
	// (AssignChunks, DeleteFile, repair) take FileChunks, then
	// ChunkServerLoad, then ChunkMap, in that order, to avoid deadlock.
	fileChunksMu sync.RWMutex
	fileChunks   map[string][]gfs.ChunkInfo

	loadMu sync.RWMutex
	load   map[string][]string // chunkserver address -> held chunk ids

	chunkMapMu sync.RWMutex
	chunkMap   map[string]gfs.ChunkInfo

	heartbeatMu   sync.RWMutex
	lastHeartbeat map[string]time.Time

	shadowMu  sync.RWMutex
	shadowSet map[string]bool

	leaderMu   sync.RWMutex
	isLeader   bool
	leaderAddr string

	otpMinter   *auth.OtpMinter
	credentials *auth.CredentialsStore

	chunkClients clientCache

	scheduler  gocron.Scheduler
	checkerJob gocron.Job
	pingerJob  gocron.Job

	metrics *metricsRegistry
}

// New constructs a Master bound to selfAddr. Call Start to run leader
// election and the background loops.
func New(selfAddr string, cfg masterconfig.Config, logger *slog.Logger) (*Master, error) {
	logger = logging.Default(logger).With("component", "master")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("master: new scheduler: %w", err)
	}

	m := &Master{
		cfg:           cfg,
		selfAddr:      selfAddr,
		logger:        logger,
		nickname:      petname.Generate(2, "-"),
		fileChunks:    make(map[string][]gfs.ChunkInfo),
		load:          make(map[string][]string),
		chunkMap:      make(map[string]gfs.ChunkInfo),
		lastHeartbeat: make(map[string]time.Time),
		shadowSet:     make(map[string]bool),
		otpMinter:     auth.NewOtpMinter([]byte(selfAddr + "|otp-signing")),
		chunkClients:  newClientCache(),
		scheduler:     sched,
	}

	if cfg.UseAuthentication {
		creds, err := auth.LoadCredentialsStore(cfg.AuthenticationFilePath)
		if err != nil {
			return nil, fmt.Errorf("master: load credentials: %w", err)
		}
		m.credentials = creds
	}

	metrics, err := newMetricsRegistry(m)
	if err != nil {
		return nil, fmt.Errorf("master: metrics registry: %w", err)
	}
	m.metrics = metrics

	logger.Info("master constructed", "node", m.nickname, "addr", selfAddr)
	return m, nil
}

// Start runs bootstrap leader election and begins whichever background
// loop follows from the result: the heartbeat checker if this node became
// leader, or the shadow ping loop otherwise.
func (m *Master) Start(ctx context.Context) error {
	m.electOnBoot(ctx)
	m.scheduler.Start()

	m.leaderMu.RLock()
	leader := m.isLeader
	m.leaderMu.RUnlock()

	if leader {
		return m.startHeartbeatChecker()
	}
	return m.startShadowPinger()
}

// Stop shuts down background loops. RPC server lifecycle is managed
// separately by cmd/master.
func (m *Master) Stop() error {
	return m.scheduler.Shutdown()
}

func (m *Master) IsLeader() bool {
	m.leaderMu.RLock()
	defer m.leaderMu.RUnlock()
	return m.isLeader
}

// clientCache dials chunkservers lazily and reuses the connection.
type clientCache struct {
	mu    sync.Mutex
	conns map[string]*chunkrpc.Client
}

func newClientCache() clientCache {
	return clientCache{conns: make(map[string]*chunkrpc.Client)}
}

func (c *clientCache) get(addr string) (*chunkrpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.conns[addr]; ok {
		return cl, nil
	}
	cc, err := rpc.Dial(addr)
	if err != nil {
		return nil, err
	}
	cl := chunkrpc.NewClient(cc)
	c.conns[addr] = cl
	return cl, nil
}

// masterClient dials another master by address, used for both bootstrap
// election pings and shadow metadata propagation.
func masterClient(addr string) (*masterrpc.Client, error) {
	cc, err := rpc.Dial(addr)
	if err != nil {
		return nil, err
	}
	return masterrpc.NewClient(cc), nil
}
