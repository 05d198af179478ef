package client

import (
	"log/slog"
	"testing"
)

func TestRandomAddressPicksFromSet(t *testing.T) {
	addrs := []string{"a", "b", "c"}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		addr := randomAddress(addrs)
		found := false
		for _, a := range addrs {
			if a == addr {
				found = true
			}
		}
		if !found {
			t.Fatalf("randomAddress returned %q, not in %v", addr, addrs)
		}
		seen[addr] = true
	}
	if len(seen) == 0 {
		t.Fatal("expected at least one address to be picked")
	}
}

func TestMasterClientWithNoAddrsConfigured(t *testing.T) {
	c := New(Config{}, slog.New(slog.DiscardHandler))
	if _, err := c.masterClient(); err == nil {
		t.Fatal("expected an error when masterAddrs is empty")
	}
}
