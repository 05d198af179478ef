package master

import (
	"container/heap"
	"context"
	"fmt"

	"driftfs/internal/gfs"
	"driftfs/internal/rpc/masterrpc"
)

// serverLoad is one entry of the planning min-heap: a candidate server and
// its chunk count, ascending.
type serverLoad struct {
	addr  string
	count int
}

type loadHeap []serverLoad

func (h loadHeap) Len() int            { return len(h) }
func (h loadHeap) Less(i, j int) bool  { return h[i].count < h[j].count }
func (h loadHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *loadHeap) Push(x any)         { *h = append(*h, x.(serverLoad)) }
func (h *loadHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// AssignChunks implements spec.md §4.2's placement algorithm for a
// brand-new file.
func (m *Master) AssignChunks(ctx context.Context, req *masterrpc.AssignChunksRequest) (*masterrpc.AssignChunksResponse, error) {
	m.fileChunksMu.Lock()
	m.loadMu.Lock()
	m.chunkMapMu.Lock()

	finalName := req.FileName
	if _, exists := m.fileChunks[finalName]; exists {
		for k := 1; ; k++ {
			candidate := fmt.Sprintf("%s-%d", req.FileName, k)
			if _, taken := m.fileChunks[candidate]; !taken {
				finalName = candidate
				break
			}
		}
	}

	numChunks := int((req.FileSize + m.cfg.ChunkSize - 1) / m.cfg.ChunkSize)
	if numChunks == 0 {
		numChunks = 1
	}

	localCount := make(map[string]int, len(m.load))
	var avail []string
	for addr, held := range m.load {
		localCount[addr] = len(held)
		if len(held) < m.cfg.MaxAllowedChunks {
			avail = append(avail, addr)
		}
	}
	if len(avail) == 0 {
		m.chunkMapMu.Unlock()
		m.loadMu.Unlock()
		m.fileChunksMu.Unlock()
		return nil, fmt.Errorf("%w: no chunkserver under maxAllowedChunks", ErrNoChunkServer)
	}

	infos := make([]gfs.ChunkInfo, numChunks)
	for i := 0; i < numChunks; i++ {
		h := &loadHeap{}
		heap.Init(h)
		for _, addr := range avail {
			heap.Push(h, serverLoad{addr: addr, count: localCount[addr]})
		}

		n := m.cfg.ReplicationFactor
		if n > h.Len() {
			n = h.Len()
		}
		selected := make([]string, 0, n)
		for j := 0; j < n; j++ {
			s := heap.Pop(h).(serverLoad)
			selected = append(selected, s.addr)
			localCount[s.addr]++
		}

		chunkID := gfs.ChunkID(finalName, i)
		info := gfs.ChunkInfo{ChunkID: chunkID, ServerAddresses: selected, Version: 0}
		infos[i] = info

		for _, addr := range selected {
			m.load[addr] = append(m.load[addr], chunkID)
		}
		m.chunkMap[chunkID] = info
	}

	m.fileChunks[finalName] = infos

	m.chunkMapMu.Unlock()
	m.loadMu.Unlock()
	m.fileChunksMu.Unlock()

	m.propagateMetadata(ctx)

	resp := &masterrpc.AssignChunksResponse{FileName: finalName, ChunkInfoList: make([]gfs.ChunkInfo, len(infos))}
	for i, info := range infos {
		resp.ChunkInfoList[i] = info.Copy()
	}
	return resp, nil
}
