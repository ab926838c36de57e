package dsp

import (
	"math"
	"testing"
)

func TestClassifyZoneBoundaries(t *testing.T) {
	tests := []struct {
		vib  float64
		want Zone
	}{
		{0, ZoneAB},
		{2.8, ZoneAB},
		{2.81, ZoneBC},
		{4.5, ZoneBC},
		{4.51, ZoneCD},
		{7.1, ZoneCD},
		{7.11, ZoneD},
		{50, ZoneD},
	}
	for _, tt := range tests {
		if got := Classify(tt.vib); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.vib, got, tt.want)
		}
	}
}

func TestButterLowPassRejectsOutOfRangeCutoff(t *testing.T) {
	if _, err := ButterLowPass(3, 0); err == nil {
		t.Error("expected an error for cutoff == 0")
	}
	if _, err := ButterLowPass(3, 1); err == nil {
		t.Error("expected an error for cutoff == 1 (Nyquist)")
	}
	if _, err := ButterLowPass(3, 1.5); err == nil {
		t.Error("expected an error for cutoff > 1")
	}
}

func TestButterLowPassProducesStableCoefficients(t *testing.T) {
	coef, err := ButterLowPass(3, 0.1)
	if err != nil {
		t.Fatalf("ButterLowPass: %v", err)
	}
	if len(coef.A) != 4 || len(coef.B) != 4 {
		t.Fatalf("order-3 filter should have 4 coefficients each, got A=%d B=%d", len(coef.A), len(coef.B))
	}
	if coef.A[0] != 1 {
		t.Errorf("A[0] = %v, want normalized to 1", coef.A[0])
	}
}

func TestFiltFiltPreservesDCLevel(t *testing.T) {
	coef, err := ButterLowPass(3, 0.2)
	if err != nil {
		t.Fatalf("ButterLowPass: %v", err)
	}
	x := make([]float64, 64)
	for i := range x {
		x[i] = 5.0
	}
	out := FiltFilt(coef, x)
	for i, v := range out {
		if math.Abs(v-5.0) > 1e-6 {
			t.Fatalf("FiltFilt(DC input)[%d] = %v, want ~5.0 (a low-pass must pass DC unattenuated)", i, v)
		}
	}
}

func TestProcessorDenoiseReducesHighFrequencyNoise(t *testing.T) {
	p, err := NewProcessor(3, 0.1, 1000, false, 4, 10, 1000)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	x := make([]float64, 128)
	for i := range x {
		// alternating +1/-1 is pure Nyquist-frequency noise; a low-pass should crush its RMS
		if i%2 == 0 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}
	rms, _ := p.Denoise(x)
	if rms > 0.5 {
		t.Errorf("Denoise RMS of Nyquist-frequency noise = %v, want strongly attenuated (<0.5)", rms)
	}
}

func TestProcessorISOBandRMSDisabledByDefault(t *testing.T) {
	p, err := NewProcessor(3, 0.1, 1000, false, 4, 10, 1000)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	if _, ok := p.ISOBandRMS(make([]float64, 32)); ok {
		t.Error("expected ISOBandRMS to report false when the ISO band is disabled")
	}
}

func TestProcessorISOBandRMSShortWindow(t *testing.T) {
	p, err := NewProcessor(3, 0.1, 1000, true, 4, 10, 1000)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	if _, ok := p.ISOBandRMS(make([]float64, 4)); ok {
		t.Error("expected ISOBandRMS to report false for a window shorter than 8 samples")
	}
}
