package auth

import (
	"testing"
	"time"
)

func TestOtpTableValid(t *testing.T) {
	tbl := NewOtpTable()
	tbl.Register("abc", time.Now().Add(time.Minute))

	if !tbl.Valid("abc") {
		t.Error("expected abc to be valid")
	}
	if tbl.Valid("unknown") {
		t.Error("expected unknown otp to be invalid")
	}
}

func TestOtpTableExpired(t *testing.T) {
	tbl := NewOtpTable()
	tbl.Register("abc", time.Now().Add(-time.Minute))

	if tbl.Valid("abc") {
		t.Error("expected expired otp to be invalid")
	}
}

func TestOtpTableSweep(t *testing.T) {
	tbl := NewOtpTable()
	tbl.Register("expired", time.Now().Add(-time.Minute))
	tbl.Register("fresh", time.Now().Add(time.Hour))

	removed := tbl.Sweep()
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", tbl.Len())
	}
	if !tbl.Valid("fresh") {
		t.Error("expected fresh otp to survive sweep")
	}
}
