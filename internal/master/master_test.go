package master

import (
	"context"
	"errors"
	"testing"

	"driftfs/internal/gfs"
	"driftfs/internal/masterconfig"
	"driftfs/internal/rpc/masterrpc"
)

func TestRegisterChunkServerIsIdempotent(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})

	for i := 0; i < 2; i++ {
		if _, err := m.RegisterChunkServer(context.Background(), &masterrpc.RegisterChunkServerRequest{Address: "cs-1"}); err != nil {
			t.Fatalf("RegisterChunkServer call %d: %v", i, err)
		}
	}

	if held := m.load["cs-1"]; held == nil {
		t.Error("expected an (empty, non-nil) load entry for cs-1")
	}
	if _, ok := m.lastHeartbeat["cs-1"]; !ok {
		t.Error("expected RegisterChunkServer to stamp lastHeartbeat")
	}
}

func TestHeartbeatSkipsUnknownChunks(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})
	m.chunkMap["known"] = gfs.ChunkInfo{ChunkID: "known"}

	_, err := m.Heartbeat(context.Background(), &masterrpc.HeartbeatRequest{
		Address: "cs-1",
		Chunks:  []string{"known", "ghost"},
	})
	if err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	held := m.load["cs-1"]
	if len(held) != 1 || held[0] != "known" {
		t.Fatalf("expected only 'known' chunk to survive reconciliation, got %v", held)
	}
}

func TestAuthenticateDisabledWithoutCredentials(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})

	_, err := m.Authenticate(context.Background(), &masterrpc.AuthenticateRequest{Username: "anyone", Password: "anything"})
	if !errors.Is(err, ErrAuthenticationDisabled) {
		t.Fatalf("expected ErrAuthenticationDisabled, got %v", err)
	}
}

func TestPingMasterReportsLeadershipAndRecordsShadow(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})

	resp, err := m.PingMaster(context.Background(), &masterrpc.PingMasterRequest{SenderAddress: "shadow-1"})
	if err != nil {
		t.Fatalf("PingMaster: %v", err)
	}
	if resp.IsLeader {
		t.Error("expected freshly constructed master to not be leader yet")
	}
	if m.shadowSet["shadow-1"] {
		t.Error("a non-leader must not record shadows")
	}

	m.leaderMu.Lock()
	m.isLeader = true
	m.leaderMu.Unlock()

	resp, err = m.PingMaster(context.Background(), &masterrpc.PingMasterRequest{SenderAddress: "shadow-1"})
	if err != nil {
		t.Fatalf("PingMaster: %v", err)
	}
	if !resp.IsLeader {
		t.Error("expected leader to report IsLeader true")
	}
	if !m.shadowSet["shadow-1"] {
		t.Error("expected leader to record the pinging address as a shadow")
	}
}
