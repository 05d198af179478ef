package master

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"driftfs/internal/rpc/masterrpc"
)

// electOnBoot implements spec.md §4.2's bootstrap election: ping every
// other configured master address; if any answers isLeader=true, become a
// shadow recording that address as the current leader. If none do,
// become leader.
func (m *Master) electOnBoot(ctx context.Context) {
	for _, addr := range m.cfg.MasterAddrs {
		if addr == m.selfAddr {
			continue
		}
		cl, err := masterClient(addr)
		if err != nil {
			m.logger.Debug("election: dial failed", "addr", addr, "error", err)
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		resp, err := cl.PingMaster(callCtx, &masterrpc.PingMasterRequest{SenderAddress: m.selfAddr})
		cancel()
		if err != nil {
			m.logger.Debug("election: ping failed", "addr", addr, "error", err)
			continue
		}
		if resp.IsLeader {
			m.becomeShadow(addr)
			return
		}
	}
	m.becomeLeader()
}

func (m *Master) becomeLeader() {
	m.leaderMu.Lock()
	defer m.leaderMu.Unlock()
	m.isLeader = true
	m.leaderAddr = m.selfAddr
	m.logger.Info("became leader", "node", m.nickname)
}

func (m *Master) becomeShadow(leaderAddr string) {
	m.leaderMu.Lock()
	defer m.leaderMu.Unlock()
	m.isLeader = false
	m.leaderAddr = leaderAddr
	m.logger.Info("became shadow", "node", m.nickname, "leader", leaderAddr)
}

// startShadowPinger runs the shadow ping loop (spec.md §4.2): on the first
// failed ping to the current leader, this node promotes itself and starts
// the heartbeat checker. Not safe against split brain across partitions —
// see SPEC_FULL.md §11 / DESIGN.md.
func (m *Master) startShadowPinger() error {
	job, err := m.scheduler.NewJob(
		gocron.DurationJob(m.cfg.ShadowMasterPingInterval),
		gocron.NewTask(m.pingLeaderOnce),
	)
	if err != nil {
		return err
	}
	m.pingerJob = job
	return nil
}

func (m *Master) pingLeaderOnce() {
	if m.IsLeader() {
		return
	}

	m.leaderMu.RLock()
	leaderAddr := m.leaderAddr
	m.leaderMu.RUnlock()

	cl, err := masterClient(leaderAddr)
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err = cl.PingMaster(ctx, &masterrpc.PingMasterRequest{SenderAddress: m.selfAddr})
		cancel()
	}
	if err == nil {
		return
	}

	m.logger.Warn("leader unreachable, promoting to leader", "node", m.nickname, "previous_leader", leaderAddr, "error", err)
	m.becomeLeader()
	if m.pingerJob != nil {
		_ = m.scheduler.RemoveJob(m.pingerJob.ID())
		m.pingerJob = nil
	}
	if err := m.startHeartbeatChecker(); err != nil {
		m.logger.Error("failed to start heartbeat checker after promotion", "error", err)
	}
}
