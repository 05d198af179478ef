// Package client implements the driftc Client library (spec.md §4.3):
// translating file-level operations into Master metadata calls plus direct
// ChunkServer RPCs.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"driftfs/internal/logging"
	"driftfs/internal/rpc"
	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

// Config configures a Client instance.
type Config struct {
	MasterAddrs []string
	ChunkSize   int64
	LogLevel    string
}

// Client is not required to be safe for concurrent use by multiple callers
// (spec.md §5).
type Client struct {
	cfg    Config
	logger *slog.Logger

	masterIdx int
	otp       string

	chunkMu sync.Mutex
	chunks  map[string]*chunkrpc.Client
}

func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logging.Default(logger).With("component", "client"),
		chunks: make(map[string]*chunkrpc.Client),
	}
}

// masterClient dials the current master, rotating through cfg.MasterAddrs
// on failure and returning on the first reachable one (spec.md §5).
func (c *Client) masterClient() (*masterrpc.Client, error) {
	if len(c.cfg.MasterAddrs) == 0 {
		return nil, fmt.Errorf("client: no masterAddrs configured")
	}
	tried := 0
	for tried < len(c.cfg.MasterAddrs) {
		addr := c.cfg.MasterAddrs[c.masterIdx]
		cc, err := rpc.Dial(addr)
		if err == nil {
			return masterrpc.NewClient(cc), nil
		}
		c.logger.Debug("dial master failed, rotating", "addr", addr, "error", err)
		c.masterIdx = (c.masterIdx + 1) % len(c.cfg.MasterAddrs)
		tried++
	}
	return nil, fmt.Errorf("client: no reachable master among %v", c.cfg.MasterAddrs)
}

func (c *Client) chunkClient(addr string) (*chunkrpc.Client, error) {
	c.chunkMu.Lock()
	defer c.chunkMu.Unlock()
	if cl, ok := c.chunks[addr]; ok {
		return cl, nil
	}
	cc, err := rpc.Dial(addr)
	if err != nil {
		return nil, err
	}
	cl := chunkrpc.NewClient(cc)
	c.chunks[addr] = cl
	return cl, nil
}

// Authenticate calls Master.Authenticate and stores the returned OTP for
// every subsequent chunkserver call.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	cl, err := c.masterClient()
	if err != nil {
		return err
	}
	resp, err := cl.Authenticate(ctx, &masterrpc.AuthenticateRequest{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("client: authenticate: %w", err)
	}
	c.otp = resp.Otp
	return nil
}

// randomAddress picks one address out of addrs for load-balanced reads.
func randomAddress(addrs []string) string {
	return addrs[rand.IntN(len(addrs))]
}
