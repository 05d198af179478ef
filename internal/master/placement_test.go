package master

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"driftfs/internal/gfs"
	"driftfs/internal/masterconfig"
	"driftfs/internal/rpc/masterrpc"
)

func newTestMaster(t *testing.T, cfg masterconfig.Config) *Master {
	t.Helper()
	return &Master{
		cfg:           cfg.WithDefaults(),
		selfAddr:      "127.0.0.1:0",
		logger:        slog.New(slog.DiscardHandler),
		fileChunks:    make(map[string][]gfs.ChunkInfo),
		load:          make(map[string][]string),
		chunkMap:      make(map[string]gfs.ChunkInfo),
		lastHeartbeat: make(map[string]time.Time),
		shadowSet:     make(map[string]bool),
		chunkClients:  newClientCache(),
	}
}

func TestAssignChunksSpreadsAcrossLeastLoaded(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{
		ChunkSize:         10,
		ReplicationFactor: 2,
		MaxAllowedChunks:  100,
	})
	m.load["a"] = nil
	m.load["b"] = nil
	m.load["c"] = []string{"preexisting-1", "preexisting-2", "preexisting-3"}

	resp, err := m.AssignChunks(context.Background(), &masterrpc.AssignChunksRequest{FileName: "report.csv", FileSize: 25})
	if err != nil {
		t.Fatalf("AssignChunks: %v", err)
	}
	if resp.FileName != "report.csv" {
		t.Fatalf("expected name unchanged, got %q", resp.FileName)
	}
	if len(resp.ChunkInfoList) != 3 {
		t.Fatalf("expected 3 chunks for 25 bytes at chunkSize 10, got %d", len(resp.ChunkInfoList))
	}
	for _, info := range resp.ChunkInfoList {
		if len(info.ServerAddresses) != 2 {
			t.Fatalf("expected 2 replicas per chunk, got %d: %v", len(info.ServerAddresses), info.ServerAddresses)
		}
		for _, addr := range info.ServerAddresses {
			if addr == "c" {
				t.Fatalf("expected least-loaded servers a/b to be preferred over already-loaded c, got %v", info.ServerAddresses)
			}
		}
	}
}

func TestAssignChunksRenamesOnCollision(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{ChunkSize: 10, ReplicationFactor: 1, MaxAllowedChunks: 100})
	m.load["a"] = nil

	first, err := m.AssignChunks(context.Background(), &masterrpc.AssignChunksRequest{FileName: "dup.txt", FileSize: 5})
	if err != nil {
		t.Fatalf("first AssignChunks: %v", err)
	}
	if first.FileName != "dup.txt" {
		t.Fatalf("expected first name unchanged, got %q", first.FileName)
	}

	second, err := m.AssignChunks(context.Background(), &masterrpc.AssignChunksRequest{FileName: "dup.txt", FileSize: 5})
	if err != nil {
		t.Fatalf("second AssignChunks: %v", err)
	}
	if second.FileName != "dup.txt-1" {
		t.Fatalf("expected collision rename to dup.txt-1, got %q", second.FileName)
	}
}

func TestAssignChunksNoServerAvailable(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{ChunkSize: 10, ReplicationFactor: 1, MaxAllowedChunks: 1})
	m.load["a"] = []string{"already-full"}

	_, err := m.AssignChunks(context.Background(), &masterrpc.AssignChunksRequest{FileName: "f", FileSize: 5})
	if err == nil {
		t.Fatal("expected error when every chunkserver is at maxAllowedChunks")
	}
}

func TestAssignChunksGrantsFewerThanReplicationFactorWhenShortOfServers(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{ChunkSize: 10, ReplicationFactor: 3, MaxAllowedChunks: 100})
	m.load["only-one"] = nil

	resp, err := m.AssignChunks(context.Background(), &masterrpc.AssignChunksRequest{FileName: "f", FileSize: 5})
	if err != nil {
		t.Fatalf("AssignChunks: %v", err)
	}
	if len(resp.ChunkInfoList[0].ServerAddresses) != 1 {
		t.Fatalf("expected a single replica when only one chunkserver is registered, got %v", resp.ChunkInfoList[0].ServerAddresses)
	}
}
