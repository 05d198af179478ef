package master

import (
	"container/heap"
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"driftfs/internal/rpc/chunkrpc"
)

// startHeartbeatChecker starts the leader-only background loop that
// detects dead chunkservers and drives re-replication (spec.md §4.2).
func (m *Master) startHeartbeatChecker() error {
	job, err := m.scheduler.NewJob(
		gocron.DurationJob(m.cfg.CronInterval),
		gocron.NewTask(m.runHeartbeatCheck),
	)
	if err != nil {
		return err
	}
	m.checkerJob = job
	return nil
}

// runHeartbeatCheck is one pass of the heartbeat-checker loop.
func (m *Master) runHeartbeatCheck() {
	ctx := context.Background()
	failed := m.detectFailedServers()
	if len(failed) == 0 {
		return
	}

	lostChunks := m.evictFailedServers(failed)

	for _, chunkID := range lostChunks {
		m.repairChunk(ctx, chunkID, failed)
	}

	m.heartbeatMu.Lock()
	for addr := range failed {
		delete(m.lastHeartbeat, addr)
	}
	m.heartbeatMu.Unlock()

	m.propagateMetadata(ctx)
}

// detectFailedServers snapshots lastHeartbeat and returns the set of
// addresses whose liveness window has elapsed.
func (m *Master) detectFailedServers() map[string]bool {
	threshold := time.Duration(m.cfg.HeartbeatFailureThreshold) * m.cfg.HeartbeatInterval
	now := time.Now()

	m.heartbeatMu.RLock()
	defer m.heartbeatMu.RUnlock()

	failed := make(map[string]bool)
	for addr, last := range m.lastHeartbeat {
		if now.Sub(last) > threshold {
			failed[addr] = true
		}
	}
	return failed
}

// evictFailedServers removes each failed server's load entry and returns
// the distinct chunk ids it held.
func (m *Master) evictFailedServers(failed map[string]bool) []string {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	seen := make(map[string]bool)
	var lost []string
	for addr := range failed {
		for _, chunkID := range m.load[addr] {
			if !seen[chunkID] {
				seen[chunkID] = true
				lost = append(lost, chunkID)
			}
		}
		delete(m.load, addr)
		m.logger.Warn("chunkserver declared dead", "address", addr)
	}
	return lost
}

// repairChunk runs steps 3a-3f of the heartbeat-checker loop for a single
// lost chunk.
func (m *Master) repairChunk(ctx context.Context, chunkID string, failed map[string]bool) {
	m.chunkMapMu.RLock()
	info, ok := m.chunkMap[chunkID]
	m.chunkMapMu.RUnlock()
	if !ok {
		return
	}

	var survivors []string
	for _, addr := range info.ServerAddresses {
		if !failed[addr] {
			survivors = append(survivors, addr)
		}
	}
	if len(survivors) == 0 {
		m.logger.Error("data loss: no surviving replica", "chunk", chunkID)
		return
	}

	needed := m.cfg.ReplicationFactor - len(survivors)
	if needed <= 0 {
		return
	}

	targets := m.pickRepairTargets(chunkID, needed)
	if len(targets) == 0 {
		m.logger.Warn("no repair target available", "chunk", chunkID)
		return
	}

	finalAddrs := append([]string{}, survivors...)
	for i, target := range targets {
		source := survivors[i%len(survivors)]
		if err := m.transferChunk(ctx, chunkID, source, target); err != nil {
			m.logger.Warn("repair transfer failed, skipping target", "chunk", chunkID, "source", source, "target", target, "error", err)
			continue
		}
		finalAddrs = append(finalAddrs, target)
	}

	// Version bumps once per repair attempt regardless of per-target
	// failures — see spec.md §9's open question on this.
	m.commitRepair(chunkID, finalAddrs)
}

// pickRepairTargets selects up to `needed` distinct servers whose load is
// below maxAllowedChunks and that don't already hold chunkID, ascending by
// load (step 3c-3d).
func (m *Master) pickRepairTargets(chunkID string, needed int) []string {
	m.loadMu.RLock()
	h := &loadHeap{}
	heap.Init(h)
	for addr, held := range m.load {
		if len(held) >= m.cfg.MaxAllowedChunks {
			continue
		}
		if containsString(held, chunkID) {
			continue
		}
		heap.Push(h, serverLoad{addr: addr, count: len(held)})
	}
	m.loadMu.RUnlock()

	if needed > h.Len() {
		needed = h.Len()
	}
	targets := make([]string, 0, needed)
	for i := 0; i < needed; i++ {
		targets = append(targets, heap.Pop(h).(serverLoad).addr)
	}
	return targets
}

func containsString(s []string, target string) bool {
	for _, v := range s {
		if v == target {
			return true
		}
	}
	return false
}

func (m *Master) transferChunk(ctx context.Context, chunkID, source, target string) error {
	cl, err := m.chunkClients.get(source)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err = cl.TransferChunk(callCtx, &chunkrpc.TransferChunkRequest{ChunkName: chunkID, TargetAddress: target})
	return err
}

// commitRepair bumps the chunk's version by one and updates ChunkMap, the
// FileChunks entry referencing it, and per-server load. The three write
// locks are taken FileChunks, then ChunkServerLoad, then ChunkMap, per
// spec.md §5's lock ordering.
func (m *Master) commitRepair(chunkID string, finalAddrs []string) {
	m.fileChunksMu.Lock()
	m.loadMu.Lock()
	m.chunkMapMu.Lock()
	defer m.chunkMapMu.Unlock()
	defer m.loadMu.Unlock()
	defer m.fileChunksMu.Unlock()

	info, ok := m.chunkMap[chunkID]
	if !ok {
		return
	}
	info.ServerAddresses = finalAddrs
	info.Version++
	m.chunkMap[chunkID] = info

	fileName := fileNameForChunk(chunkID)
	for i, existing := range m.fileChunks[fileName] {
		if existing.ChunkID == chunkID {
			m.fileChunks[fileName][i] = info
			break
		}
	}

	for _, addr := range finalAddrs {
		if !containsString(m.load[addr], chunkID) {
			m.load[addr] = append(m.load[addr], chunkID)
		}
	}
}
