package master

import (
	"context"
	"time"

	"driftfs/internal/rpc/chunkrpc"
	"driftfs/internal/rpc/masterrpc"
)

var _ masterrpc.Server = (*Master)(nil)

// RegisterChunkServer inserts an empty load entry. Idempotent.
func (m *Master) RegisterChunkServer(ctx context.Context, req *masterrpc.RegisterChunkServerRequest) (*masterrpc.MessageResponse, error) {
	m.loadMu.Lock()
	if _, ok := m.load[req.Address]; !ok {
		m.load[req.Address] = []string{}
	}
	m.loadMu.Unlock()

	m.heartbeatMu.Lock()
	m.lastHeartbeat[req.Address] = time.Now()
	m.heartbeatMu.Unlock()

	m.logger.Info("chunkserver registered", "address", req.Address)
	return &masterrpc.MessageResponse{Message: "registered"}, nil
}

// Heartbeat stamps lastHeartbeat and reconciles the reported held-set
// against ChunkMap. Entries absent from ChunkMap are logged and skipped —
// the heartbeat itself is never rejected (spec.md §4.2, and the orphaned-
// chunk caveat in §9).
func (m *Master) Heartbeat(ctx context.Context, req *masterrpc.HeartbeatRequest) (*masterrpc.MessageResponse, error) {
	m.heartbeatMu.Lock()
	m.lastHeartbeat[req.Address] = time.Now()
	m.heartbeatMu.Unlock()

	m.chunkMapMu.RLock()
	reconciled := make([]string, 0, len(req.Chunks))
	for _, chunkID := range req.Chunks {
		if _, ok := m.chunkMap[chunkID]; ok {
			reconciled = append(reconciled, chunkID)
		} else {
			m.logger.Warn("heartbeat reports unknown chunk, skipping", "address", req.Address, "chunk", chunkID)
		}
	}
	m.chunkMapMu.RUnlock()

	m.loadMu.Lock()
	m.load[req.Address] = reconciled
	m.loadMu.Unlock()

	return &masterrpc.MessageResponse{Message: "ok"}, nil
}

// Authenticate validates credentials, mints an OTP, and pushes it
// synchronously to every chunkserver currently in the load map (spec.md
// §4.2). A chunkserver registered after this call will reject the OTP —
// the reference "refuse" policy from spec.md §9.
func (m *Master) Authenticate(ctx context.Context, req *masterrpc.AuthenticateRequest) (*masterrpc.AuthenticateResponse, error) {
	if m.credentials == nil {
		return nil, ErrAuthenticationDisabled
	}
	if err := m.credentials.Verify(req.Username, req.Password); err != nil {
		return nil, err
	}

	otp, expiresAt, err := m.otpMinter.Mint(m.cfg.OtpValidDuration)
	if err != nil {
		return nil, err
	}

	m.loadMu.RLock()
	addrs := make([]string, 0, len(m.load))
	for addr := range m.load {
		addrs = append(addrs, addr)
	}
	m.loadMu.RUnlock()

	for _, addr := range addrs {
		cl, err := m.chunkClients.get(addr)
		if err != nil {
			m.logger.Warn("otp push: dial failed", "chunkserver", addr, "error", err)
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err = cl.RegisterOtp(callCtx, &chunkrpc.RegisterOtpRequest{Otp: otp, Expiry: expiresAt.Unix()})
		cancel()
		if err != nil {
			m.logger.Warn("otp push: register failed", "chunkserver", addr, "error", err)
		}
	}

	return &masterrpc.AuthenticateResponse{Otp: otp}, nil
}

// PingMaster always reports isLeader; if this node is leader, the caller
// is recorded as a shadow.
func (m *Master) PingMaster(ctx context.Context, req *masterrpc.PingMasterRequest) (*masterrpc.PingMasterResponse, error) {
	leader := m.IsLeader()
	if leader {
		m.shadowMu.Lock()
		m.shadowSet[req.SenderAddress] = true
		m.shadowMu.Unlock()
	}
	return &masterrpc.PingMasterResponse{IsLeader: leader}, nil
}
