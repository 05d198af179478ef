// Package gfs holds the data model shared across the master, chunkserver,
// client, and RPC layers: chunk identity, placement records, and the
// metadata snapshot pushed from leader to shadows.
package gfs

import "fmt"

// ChunkID returns the canonical chunk identifier for the i-th chunk of
// fileName: "<fileName>_chunk_<index>".
func ChunkID(fileName string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", fileName, index)
}

// ChunkInfo is the master's record of a single chunk's placement.
type ChunkInfo struct {
	ChunkID         string
	ServerAddresses []string
	Version         uint64
}

// Copy returns a deep copy, so callers that hand out a ChunkInfo outside a
// lock never share the backing ServerAddresses slice.
func (c ChunkInfo) Copy() ChunkInfo {
	addrs := make([]string, len(c.ServerAddresses))
	copy(addrs, c.ServerAddresses)
	return ChunkInfo{ChunkID: c.ChunkID, ServerAddresses: addrs, Version: c.Version}
}

// HasServer reports whether addr is among the chunk's replicas.
func (c ChunkInfo) HasServer(addr string) bool {
	for _, a := range c.ServerAddresses {
		if a == addr {
			return true
		}
	}
	return false
}

// Metadata is the wholesale snapshot the leader pushes to every shadow via
// UpdateMetadata. All three maps are duplicated by value. ChunkMap, not
// FileChunks or ChunkServerLoad, is the source of truth for a chunk's
// version; the copies in FileChunks are updated alongside it on mutation.
type Metadata struct {
	FileChunks      map[string][]ChunkInfo
	ChunkServerLoad map[string][]string // address -> chunk ids held
	ChunkMap        map[string]ChunkInfo
}

// Clone deep-copies a Metadata snapshot.
func (m Metadata) Clone() Metadata {
	out := Metadata{
		FileChunks:      make(map[string][]ChunkInfo, len(m.FileChunks)),
		ChunkServerLoad: make(map[string][]string, len(m.ChunkServerLoad)),
		ChunkMap:        make(map[string]ChunkInfo, len(m.ChunkMap)),
	}
	for name, infos := range m.FileChunks {
		cp := make([]ChunkInfo, len(infos))
		for i, ci := range infos {
			cp[i] = ci.Copy()
		}
		out.FileChunks[name] = cp
	}
	for addr, ids := range m.ChunkServerLoad {
		cp := make([]string, len(ids))
		copy(cp, ids)
		out.ChunkServerLoad[addr] = cp
	}
	for id, ci := range m.ChunkMap {
		out.ChunkMap[id] = ci.Copy()
	}
	return out
}
