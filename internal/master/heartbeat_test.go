package master

import (
	"testing"
	"time"

	"driftfs/internal/gfs"
	"driftfs/internal/masterconfig"
)

func TestDetectFailedServers(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{HeartbeatInterval: time.Second, HeartbeatFailureThreshold: 3})
	m.lastHeartbeat["fresh"] = time.Now()
	m.lastHeartbeat["stale"] = time.Now().Add(-10 * time.Second)

	failed := m.detectFailedServers()
	if failed["fresh"] {
		t.Error("fresh server should not be marked failed")
	}
	if !failed["stale"] {
		t.Error("stale server should be marked failed")
	}
}

func TestEvictFailedServersReturnsDistinctLostChunks(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})
	m.load["dead1"] = []string{"c1", "c2"}
	m.load["dead2"] = []string{"c2", "c3"}
	m.load["alive"] = []string{"c4"}

	lost := m.evictFailedServers(map[string]bool{"dead1": true, "dead2": true})

	if _, ok := m.load["dead1"]; ok {
		t.Error("dead1 should have been evicted from load")
	}
	if _, ok := m.load["alive"]; !ok {
		t.Error("alive server should be untouched")
	}
	seen := map[string]bool{}
	for _, c := range lost {
		if seen[c] {
			t.Errorf("chunk %s reported more than once", c)
		}
		seen[c] = true
	}
	for _, want := range []string{"c1", "c2", "c3"} {
		if !seen[want] {
			t.Errorf("expected lost chunk %s, got %v", want, lost)
		}
	}
}

func TestPickRepairTargetsExcludesOverloadedAndHoldingServers(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{MaxAllowedChunks: 1})
	m.load["holds-it"] = []string{"chunk-1"}
	m.load["full"] = []string{"other-1"} // already at maxAllowedChunks
	m.load["candidate"] = nil

	targets := m.pickRepairTargets("chunk-1", 2)
	if len(targets) != 1 || targets[0] != "candidate" {
		t.Fatalf("expected only 'candidate' to be eligible, got %v", targets)
	}
}

func TestCommitRepairBumpsVersionAndUpdatesMaps(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})
	info := gfs.ChunkInfo{ChunkID: "f_chunk_0", ServerAddresses: []string{"old"}, Version: 4}
	m.chunkMap["f_chunk_0"] = info
	m.fileChunks["f"] = []gfs.ChunkInfo{info}
	m.load["old"] = []string{"f_chunk_0"}

	m.commitRepair("f_chunk_0", []string{"old", "new"})

	got := m.chunkMap["f_chunk_0"]
	if got.Version != 5 {
		t.Errorf("expected version bumped to 5, got %d", got.Version)
	}
	if len(got.ServerAddresses) != 2 {
		t.Errorf("expected 2 server addresses, got %v", got.ServerAddresses)
	}
	if m.fileChunks["f"][0].Version != 5 {
		t.Errorf("fileChunks entry was not updated in lockstep with chunkMap")
	}
	found := false
	for _, c := range m.load["new"] {
		if c == "f_chunk_0" {
			found = true
		}
	}
	if !found {
		t.Error("expected load['new'] to include the repaired chunk")
	}
}

func TestRunHeartbeatCheckNoFailuresIsNoop(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{HeartbeatInterval: time.Minute, HeartbeatFailureThreshold: 3})
	m.lastHeartbeat["alive"] = time.Now()
	m.load["alive"] = []string{"c1"}

	m.runHeartbeatCheck()

	if _, ok := m.load["alive"]; !ok {
		t.Error("live server entry should be untouched when nothing has failed")
	}
}
