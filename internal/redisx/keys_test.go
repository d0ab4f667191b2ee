package redisx

import "testing"

func TestDedupKey(t *testing.T) {
	got := DedupKey("midtrans", "ORDER-1-2", "settlement")
	if got != "dedup:midtrans:ORDER-1-2:settlement" {
		t.Fatalf("DedupKey = %q", got)
	}
}
