package master

import (
	"testing"

	"driftfs/internal/masterconfig"
)

func TestBecomeLeaderSetsSelfAsLeaderAddr(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})
	m.selfAddr = "self:1"

	m.becomeLeader()

	if !m.IsLeader() {
		t.Error("expected IsLeader true after becomeLeader")
	}
	if m.leaderAddr != "self:1" {
		t.Errorf("expected leaderAddr to be selfAddr, got %q", m.leaderAddr)
	}
}

func TestBecomeShadowRecordsLeaderAddr(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{})

	m.becomeShadow("other:2")

	if m.IsLeader() {
		t.Error("expected IsLeader false after becomeShadow")
	}
	if m.leaderAddr != "other:2" {
		t.Errorf("expected leaderAddr to be other:2, got %q", m.leaderAddr)
	}
}

func TestElectOnBootWithNoPeersBecomesLeader(t *testing.T) {
	m := newTestMaster(t, masterconfig.Config{MasterAddrs: []string{"self:1"}})
	m.selfAddr = "self:1"

	m.electOnBoot(nil)

	if !m.IsLeader() {
		t.Error("a single-node masterAddrs list should always elect leader")
	}
}
