package auth

import (
	"testing"
	"time"
)

func TestMintReturnsDistinctOtps(t *testing.T) {
	m := NewOtpMinter([]byte("test-secret-key-for-testing-only"))

	a, expiresA, err := m.Mint(time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if a == "" {
		t.Fatal("expected non-empty otp")
	}
	if expiresA.Before(time.Now()) {
		t.Error("expected expiry in the future")
	}

	b, _, err := m.Mint(time.Minute)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if a == b {
		t.Error("expected two mints to produce distinct otps")
	}
}

func TestMintExpiryReflectsDuration(t *testing.T) {
	m := NewOtpMinter([]byte("test-secret"))

	_, expiresAt, err := m.Mint(-time.Hour)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if !expiresAt.Before(time.Now()) {
		t.Error("expected expiry in the past for a negative duration")
	}
}
