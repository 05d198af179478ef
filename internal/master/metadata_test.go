package master

import (
	"context"
	"testing"

	"driftfs/internal/gfs"
	"driftfs/internal/masterconfig"
	"driftfs/internal/rpc/masterrpc"
)

func TestGetFileChunksUnknownFile(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})

	_, err := m.GetFileChunks(context.Background(), &masterrpc.GetFileChunksRequest{FileName: "missing"})
	if err != ErrUnknownFile {
		t.Fatalf("expected ErrUnknownFile, got %v", err)
	}
}

func TestDeleteFileRemovesFromAllMaps(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})
	info := gfs.ChunkInfo{ChunkID: "f_chunk_0", ServerAddresses: []string{"a", "b"}}
	m.fileChunks["f"] = []gfs.ChunkInfo{info}
	m.chunkMap["f_chunk_0"] = info
	m.load["a"] = []string{"f_chunk_0", "other"}
	m.load["b"] = []string{"f_chunk_0"}

	resp, err := m.DeleteFile(context.Background(), &masterrpc.DeleteFileRequest{FileName: "f"})
	if err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected Success true")
	}
	if _, ok := m.fileChunks["f"]; ok {
		t.Error("expected fileChunks entry removed")
	}
	if _, ok := m.chunkMap["f_chunk_0"]; ok {
		t.Error("expected chunkMap entry removed")
	}
	if len(m.load["a"]) != 1 || m.load["a"][0] != "other" {
		t.Errorf("expected only 'other' left in load[a], got %v", m.load["a"])
	}
	if len(m.load["b"]) != 0 {
		t.Errorf("expected load[b] emptied, got %v", m.load["b"])
	}
}

func TestDeleteFileMissingIsNotAnError(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})

	resp, err := m.DeleteFile(context.Background(), &masterrpc.DeleteFileRequest{FileName: "ghost"})
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if resp.Success {
		t.Error("expected Success false for missing file")
	}
}

func TestUpdateMetadataReplacesAllMaps(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})
	m.fileChunks["stale"] = []gfs.ChunkInfo{{ChunkID: "stale_chunk_0"}}

	fresh := gfs.Metadata{
		FileChunks:      map[string][]gfs.ChunkInfo{"fresh": {{ChunkID: "fresh_chunk_0"}}},
		ChunkServerLoad: map[string][]string{"a": {"fresh_chunk_0"}},
		ChunkMap:        map[string]gfs.ChunkInfo{"fresh_chunk_0": {ChunkID: "fresh_chunk_0"}},
	}

	_, err := m.UpdateMetadata(context.Background(), &masterrpc.UpdateMetadataRequest{Metadata: fresh})
	if err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	if _, ok := m.fileChunks["stale"]; ok {
		t.Error("expected wholesale replace to drop the stale entry")
	}
	if _, ok := m.fileChunks["fresh"]; !ok {
		t.Error("expected the new entry to be present")
	}
}

func TestFileNameForChunk(t *testing.T) {
	cases := map[string]string{
		"report.csv_chunk_0": "report.csv",
		"report.csv_chunk_12": "report.csv",
		"no-suffix":           "no-suffix",
	}
	for in, want := range cases {
		if got := fileNameForChunk(in); got != want {
			t.Errorf("fileNameForChunk(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSnapshotMetadataIsADeepCopy(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})
	m.fileChunks["f"] = []gfs.ChunkInfo{{ChunkID: "f_chunk_0", ServerAddresses: []string{"a"}}}

	snap := m.snapshotMetadata()
	snap.FileChunks["f"][0].ServerAddresses[0] = "mutated"

	if m.fileChunks["f"][0].ServerAddresses[0] != "a" {
		t.Error("snapshot must not alias the live metadata")
	}
}
