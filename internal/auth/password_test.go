package auth

import "testing"

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(4) // low cost for fast tests

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if !h.Verify("correct horse battery staple", hash) {
		t.Error("expected Verify to succeed for the original password")
	}
	if h.Verify("wrong password", hash) {
		t.Error("expected Verify to fail for a wrong password")
	}
}

func TestPasswordHasher_DefaultCost(t *testing.T) {
	h := NewPasswordHasher(0)
	if h.cost <= 0 {
		t.Errorf("expected a positive default cost, got %d", h.cost)
	}
}

func TestPasswordHasher_DistinctHashesPerCall(t *testing.T) {
	h := NewPasswordHasher(4)
	a, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("expected distinct salts to produce distinct hashes for the same password")
	}
}
