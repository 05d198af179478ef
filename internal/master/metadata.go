package master

import (
	"context"
	"strings"
	"time"

	"driftfs/internal/gfs"
	"driftfs/internal/rpc/masterrpc"
)

// GetFileChunks returns the recorded placement for fileName.
func (m *Master) GetFileChunks(ctx context.Context, req *masterrpc.GetFileChunksRequest) (*masterrpc.GetFileChunksResponse, error) {
	m.fileChunksMu.RLock()
	defer m.fileChunksMu.RUnlock()

	infos, ok := m.fileChunks[req.FileName]
	if !ok {
		return nil, ErrUnknownFile
	}
	out := make([]gfs.ChunkInfo, len(infos))
	for i, info := range infos {
		out[i] = info.Copy()
	}
	return &masterrpc.GetFileChunksResponse{FileName: req.FileName, Chunks: out}, nil
}

// DeleteFile implements spec.md §4.2: removes the FileChunks entry, and
// every referenced chunkId from ChunkMap and from the load of every
// server that held it. Missing file yields success=false, not an error.
func (m *Master) DeleteFile(ctx context.Context, req *masterrpc.DeleteFileRequest) (*masterrpc.DeleteFileResponse, error) {
	m.fileChunksMu.Lock()
	infos, ok := m.fileChunks[req.FileName]
	if !ok {
		m.fileChunksMu.Unlock()
		return &masterrpc.DeleteFileResponse{Success: false, Message: "file not found"}, nil
	}
	delete(m.fileChunks, req.FileName)
	m.fileChunksMu.Unlock()

	m.loadMu.Lock()
	m.chunkMapMu.Lock()
	for _, info := range infos {
		for _, addr := range info.ServerAddresses {
			m.load[addr] = removeString(m.load[addr], info.ChunkID)
		}
		delete(m.chunkMap, info.ChunkID)
	}
	m.chunkMapMu.Unlock()
	m.loadMu.Unlock()

	m.propagateMetadata(ctx)

	return &masterrpc.DeleteFileResponse{Success: true, Message: "deleted"}, nil
}

func removeString(s []string, target string) []string {
	out := s[:0]
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// UpdateMetadata is the shadow-side inbound call: replaces the three
// metadata maps wholesale (spec.md §4.2). Idempotent and atomic with
// respect to concurrent readers.
func (m *Master) UpdateMetadata(ctx context.Context, req *masterrpc.UpdateMetadataRequest) (*masterrpc.MessageResponse, error) {
	snap := req.Metadata.Clone()

	m.fileChunksMu.Lock()
	m.loadMu.Lock()
	m.chunkMapMu.Lock()
	m.fileChunks = snap.FileChunks
	m.load = snap.ChunkServerLoad
	m.chunkMap = snap.ChunkMap
	m.chunkMapMu.Unlock()
	m.loadMu.Unlock()
	m.fileChunksMu.Unlock()

	return &masterrpc.MessageResponse{Message: "ok"}, nil
}

// snapshotMetadata takes a consistent-enough snapshot under read locks, in
// FileChunks -> ChunkServerLoad -> ChunkMap order, per spec.md §5.
func (m *Master) snapshotMetadata() gfs.Metadata {
	m.fileChunksMu.RLock()
	fc := make(map[string][]gfs.ChunkInfo, len(m.fileChunks))
	for name, infos := range m.fileChunks {
		cp := make([]gfs.ChunkInfo, len(infos))
		for i, info := range infos {
			cp[i] = info.Copy()
		}
		fc[name] = cp
	}
	m.fileChunksMu.RUnlock()

	m.loadMu.RLock()
	load := make(map[string][]string, len(m.load))
	for addr, ids := range m.load {
		cp := make([]string, len(ids))
		copy(cp, ids)
		load[addr] = cp
	}
	m.loadMu.RUnlock()

	m.chunkMapMu.RLock()
	cm := make(map[string]gfs.ChunkInfo, len(m.chunkMap))
	for id, info := range m.chunkMap {
		cm[id] = info.Copy()
	}
	m.chunkMapMu.RUnlock()

	return gfs.Metadata{FileChunks: fc, ChunkServerLoad: load, ChunkMap: cm}
}

// propagateMetadata snapshots state under read locks, releases them, and
// only then performs outbound RPCs — handlers must never hold a write
// lock across a network call (spec.md §5).
func (m *Master) propagateMetadata(ctx context.Context) {
	snap := m.snapshotMetadata()

	m.shadowMu.RLock()
	shadows := make([]string, 0, len(m.shadowSet))
	for addr := range m.shadowSet {
		shadows = append(shadows, addr)
	}
	m.shadowMu.RUnlock()

	for _, addr := range shadows {
		cl, err := masterClient(addr)
		if err != nil {
			m.logger.Warn("propagate metadata: dial failed", "shadow", addr, "error", err)
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err = cl.UpdateMetadata(callCtx, &masterrpc.UpdateMetadataRequest{Metadata: snap})
		cancel()
		if err != nil {
			m.logger.Warn("propagate metadata: update failed", "shadow", addr, "error", err)
		}
	}
}

// fileNameForChunk returns the file name a chunkId was derived from,
// stripping the "_chunk_<index>" suffix.
func fileNameForChunk(chunkID string) string {
	idx := strings.LastIndex(chunkID, "_chunk_")
	if idx < 0 {
		return chunkID
	}
	return chunkID[:idx]
}
