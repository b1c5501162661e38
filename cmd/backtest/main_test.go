package main

import (
	"testing"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/strategy"
)

func TestBuildParamsDefaultsPassValidation(t *testing.T) {
	// Flag defaults: price_dip, threshold 0 (use entry-type default),
	// lookback 20, TP 20, SL 10, size 0.1.
	params := buildParams(string(domain.EntryPriceDip), 0, 20, 20, 10, 0.1)

	if err := strategy.ValidateParams(params); err != nil {
		t.Fatalf("default flag values rejected: %v", err)
	}
	if params.StopLossPercent != -10 {
		t.Errorf("StopLossPercent = %v, want -10", params.StopLossPercent)
	}
	if params.EntryThresholdPercent == 0 {
		t.Error("entry threshold not filled from entry-type defaults")
	}
}

func TestBuildParamsStopLossSign(t *testing.T) {
	// Both -5 and 5 mean a 5% loss limit.
	for _, in := range []float64{5, -5} {
		params := buildParams(string(domain.EntryMomentum), 3, 10, 15, in, 0.2)
		if params.StopLossPercent != -5 {
			t.Errorf("stop-loss %v: StopLossPercent = %v, want -5", in, params.StopLossPercent)
		}
		if err := strategy.ValidateParams(params); err != nil {
			t.Errorf("stop-loss %v: rejected: %v", in, err)
		}
	}
}
