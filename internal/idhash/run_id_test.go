package idhash

import (
	"testing"

	"curve-strategy-lab/internal/domain"
)

func TestComputeRunID_Deterministic(t *testing.T) {
	params := domain.DefaultParams(domain.EntryPriceDip)

	a := ComputeRunID("0xabc", params, 100, 200)
	b := ComputeRunID("0xabc", params, 100, 200)

	if a != b {
		t.Errorf("expected identical run IDs, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex hash, got %d chars", len(a))
	}
}

func TestComputeRunID_SensitiveToInputs(t *testing.T) {
	params := domain.DefaultParams(domain.EntryPriceDip)
	base := ComputeRunID("0xabc", params, 100, 200)

	changed := params
	changed.TakeProfitPercent = 25
	if ComputeRunID("0xabc", changed, 100, 200) == base {
		t.Error("run ID should change when params change")
	}

	if ComputeRunID("0xdef", params, 100, 200) == base {
		t.Error("run ID should change when curve changes")
	}

	if ComputeRunID("0xabc", params, 100, 201) == base {
		t.Error("run ID should change when series window changes")
	}
}

func TestComputeSessionID_Deterministic(t *testing.T) {
	a := ComputeSessionID("0xabc", "0xwallet", 1700000000000)
	b := ComputeSessionID("0xabc", "0xwallet", 1700000000000)

	if a != b {
		t.Errorf("expected identical session IDs, got %s and %s", a, b)
	}
	if a == ComputeSessionID("0xabc", "0xwallet", 1700000000001) {
		t.Error("session ID should change when start time changes")
	}
}
