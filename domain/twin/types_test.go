package twin

import "testing"

func TestClamp01(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBaselineMeansClampsOutsideCurve(t *testing.T) {
	below := BaselineMeans(-1)
	if below != healthCurve[0].means {
		t.Errorf("BaselineMeans(-1) = %+v, want the HEALTHY anchor %+v", below, healthCurve[0].means)
	}
	above := BaselineMeans(2)
	top := healthCurve[len(healthCurve)-1].means
	if above != top {
		t.Errorf("BaselineMeans(2) = %+v, want the CRITICAL anchor %+v", above, top)
	}
}

func TestBaselineMeansInterpolatesLinearly(t *testing.T) {
	// halfway between the HEALTHY (0.0) and WARNING (0.5) anchors
	got := BaselineMeans(0.25)
	healthy := healthCurve[0].means
	warning := healthCurve[1].means
	wantVib := (healthy.VibRMS + warning.VibRMS) / 2
	if diff := got.VibRMS - wantVib; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("BaselineMeans(0.25).VibRMS = %v, want %v", got.VibRMS, wantVib)
	}
}

func TestBaselineMeansAtAnchors(t *testing.T) {
	if got := BaselineMeans(0.5); got != healthCurve[1].means {
		t.Errorf("BaselineMeans(0.5) = %+v, want the WARNING anchor %+v", got, healthCurve[1].means)
	}
	if got := BaselineMeans(1.0); got != healthCurve[2].means {
		t.Errorf("BaselineMeans(1.0) = %+v, want the CRITICAL anchor %+v", got, healthCurve[2].means)
	}
}
