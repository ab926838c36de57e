package validation

import (
	"strings"
	"testing"

	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/internal/config"
)

func testRanges() config.TelemetryRanges {
	return config.TelemetryRanges{
		VibRMSMin: 0, VibRMSMax: 25,
		PressureMin: 0, PressureMax: 15,
		TempMin: -20, TempMax: 120,
		CurrentMin: 0, CurrentMax: 80,
		CavitationIndexMin: 0, CavitationIndexMax: 50,
	}
}

func validPayload() []byte {
	return []byte(`{"vib_rms":2.5,"vib_crest":3.2,"vib_kurtosis":3.0,"current":45,"pressure":6.0,"temp":50,"cavitation_index":0.4}`)
}

func TestDecodeSampleAccepts(t *testing.T) {
	s, err := DecodeSample(validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.VibRMS != 2.5 || s.Current != 45 {
		t.Errorf("decoded sample = %+v, unexpected field values", s)
	}
	if s.At.IsZero() {
		t.Error("expected DecodeSample to stamp At")
	}
}

func TestDecodeSampleMissingColumns(t *testing.T) {
	_, err := DecodeSample([]byte(`{"vib_rms":2.5,"current":45}`))
	if err == nil {
		t.Fatal("expected MISSING_COLUMNS error")
	}
	if !strings.Contains(err.Error(), "MISSING_COLUMNS") {
		t.Errorf("error = %v, want MISSING_COLUMNS detail", err)
	}
	// missing fields should be reported in sorted order
	if !strings.Contains(err.Error(), "cavitation_index") || !strings.Contains(err.Error(), "vib_crest") {
		t.Errorf("error = %v, expected to name the missing fields", err)
	}
	if !strings.Contains(err.Error(), "cavitation_index,pressure,temp,vib_crest,vib_kurtosis") {
		t.Errorf("error = %v, want the missing fields listed in sorted order", err)
	}
}

func TestDecodeSampleBadJSON(t *testing.T) {
	_, err := DecodeSample([]byte(`not json`))
	if err == nil {
		t.Fatal("expected a decode error for malformed JSON")
	}
}

func TestRecordOutOfRange(t *testing.T) {
	ranges := testRanges()

	tests := []struct {
		name   string
		sample telemetry.Sample
		want   string
	}{
		{"vib too high", telemetry.Sample{VibRMS: 100, Pressure: 6, Temp: 50, Current: 45, CavitationIndex: 0.4}, "VIB_RMS_OUT_OF_RANGE"},
		{"pressure negative", telemetry.Sample{VibRMS: 2, Pressure: -1, Temp: 50, Current: 45, CavitationIndex: 0.4}, "PRESSURE_OUT_OF_RANGE"},
		{"temp too high", telemetry.Sample{VibRMS: 2, Pressure: 6, Temp: 500, Current: 45, CavitationIndex: 0.4}, "TEMP_OUT_OF_RANGE"},
		{"current too high", telemetry.Sample{VibRMS: 2, Pressure: 6, Temp: 50, Current: 900, CavitationIndex: 0.4}, "CURRENT_OUT_OF_RANGE"},
		{"cavitation index too high", telemetry.Sample{VibRMS: 2, Pressure: 6, Temp: 50, Current: 45, CavitationIndex: 999}, "CAVITATION_INDEX_OUT_OF_RANGE"},
		{"all in range", telemetry.Sample{VibRMS: 2, Pressure: 6, Temp: 50, Current: 45, CavitationIndex: 0.4}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Record(ranges, tt.sample)
			if tt.want == "" {
				if got != "" {
					t.Errorf("Record() = %q, want empty", got)
				}
				return
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("Record() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestBatchRejectsOnAnyBadRecord(t *testing.T) {
	ranges := testRanges()
	good := telemetry.Sample{VibRMS: 2, Pressure: 6, Temp: 50, Current: 45, CavitationIndex: 0.4}
	bad := telemetry.Sample{VibRMS: 999, Pressure: 6, Temp: 50, Current: 45, CavitationIndex: 0.4}

	if _, err := Batch(ranges, []telemetry.Sample{good, bad, good}); err == nil {
		t.Fatal("expected Batch to reject a window containing a single bad record")
	}
}

func TestBatchEmptyIsRejected(t *testing.T) {
	if _, err := Batch(testRanges(), nil); err == nil {
		t.Fatal("expected Batch to reject an empty window")
	}
}

func TestBatchAcceptsAllValid(t *testing.T) {
	ranges := testRanges()
	good := telemetry.Sample{VibRMS: 2, Pressure: 6, Temp: 50, Current: 45, CavitationIndex: 0.4}
	out, err := Batch(ranges, []telemetry.Sample{good, good})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len(out) = %d, want 2", len(out))
	}
}
