package analysis

import (
	"math"
	"testing"
)

func TestRoundSig(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{30.1234, 30.1},
		{0.012346, 0.0123},
		{1234.5, 1230},
		{-7.777, -7.78},
		{99.96, 100},
	}
	for _, c := range cases {
		if got := RoundSig(c.in, 3); got != c.want {
			t.Fatalf("RoundSig(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	th := DefaultThresholds()
	if err := th.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	th.RampGapMinutes = 3
	th.PidMinRun = 1
	if err := th.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestRoundSigTinyMagnitudes(t *testing.T) {
	for _, c := range []struct{ in, want float64 }{
		{1e-308, 1e-308},
		{1.23456e-308, 1.23e-308},
		{-4.5678e-320, -4.57e-320},
	} {
		got := RoundSig(c.in, 3)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("RoundSig(%v) = %v", c.in, got)
		}
		if math.Abs(got-c.want) > math.Abs(c.want)*1e-2 {
			t.Fatalf("RoundSig(%v): expected about %v, got %v", c.in, c.want, got)
		}
	}
}

func TestThresholdsAcceptExplicitZeroGaps(t *testing.T) {
	th := Thresholds{InitialGapHours: Hours(0), MergeMaxGapHours: Hours(0)}
	th.ApplyDefaults()
	if th.InitialGap() != 0 || th.MergeMaxGap() != 0 {
		t.Fatalf("explicit zero gaps overwritten: %v %v", th.InitialGap(), th.MergeMaxGap())
	}
	if err := th.Validate(); err != nil {
		t.Fatalf("zero gaps should validate: %v", err)
	}

	var unset Thresholds
	if unset.InitialGap() != 0.1 || unset.MergeMaxGap() != 0.5 {
		t.Fatalf("unexpected defaults %v %v", unset.InitialGap(), unset.MergeMaxGap())
	}
}
