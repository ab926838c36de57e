// Package validation range-checks raw telemetry before it reaches the
// feature extractor, so a faulty sensor never silently corrupts a window.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/telemetry"
	"github.com/rotem-industrial/pump-pdm/internal/config"
	apperrors "github.com/rotem-industrial/pump-pdm/internal/errors"
)

// requiredFields lists every numeric column the feature extractor must
// see on every decoded message; debris_impact is optional.
var requiredFields = []string{
	"vib_rms", "vib_crest", "vib_kurtosis", "current",
	"pressure", "temp", "cavitation_index",
}

// DecodeSample parses one UTF-8 JSON telemetry payload. Fields absent
// from the payload are not silently defaulted to zero: they are reported
// as a MISSING_COLUMNS error at decode time, the earliest point the
// feature pipeline can observe them .
func DecodeSample(payload []byte) (telemetry.Sample, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return telemetry.Sample{}, apperrors.ValidationError("DECODE_ERROR:" + err.Error())
	}

	var missing []string
	for _, f := range requiredFields {
		if _, ok := raw[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return telemetry.Sample{}, apperrors.ValidationError("MISSING_COLUMNS:" + strings.Join(missing, ","))
	}

	var s telemetry.Sample
	if err := json.Unmarshal(payload, &s); err != nil {
		return telemetry.Sample{}, apperrors.ValidationError("DECODE_ERROR:" + err.Error())
	}
	s.At = core.Now()
	return s, nil
}

// Record validates a single sample against the configured ranges. It
// returns an empty string when valid, or a detail string of the form
// "<FIELD>_OUT_OF_RANGE:<value>" identifying the first offending field.
func Record(cfg config.TelemetryRanges, s telemetry.Sample) string {
	switch {
	case s.VibRMS < cfg.VibRMSMin || s.VibRMS > cfg.VibRMSMax:
		return fmt.Sprintf("VIB_RMS_OUT_OF_RANGE:%v", s.VibRMS)
	case s.Pressure < cfg.PressureMin || s.Pressure > cfg.PressureMax:
		return fmt.Sprintf("PRESSURE_OUT_OF_RANGE:%v", s.Pressure)
	case s.Temp < cfg.TempMin || s.Temp > cfg.TempMax:
		return fmt.Sprintf("TEMP_OUT_OF_RANGE:%v", s.Temp)
	case s.Current < cfg.CurrentMin || s.Current > cfg.CurrentMax:
		return fmt.Sprintf("CURRENT_OUT_OF_RANGE:%v", s.Current)
	case s.CavitationIndex < cfg.CavitationIndexMin || s.CavitationIndex > cfg.CavitationIndexMax:
		return fmt.Sprintf("CAVITATION_INDEX_OUT_OF_RANGE:%v", s.CavitationIndex)
	default:
		return ""
	}
}

// Batch validates every sample in the window. If any record is invalid the
// whole batch is rejected — clean and dirty samples are never mixed into
// one feature window. Returns the samples unchanged (for call-site
// symmetry with the original) and an *errors.AppError on rejection.
func Batch(cfg config.TelemetryRanges, samples []telemetry.Sample) ([]telemetry.Sample, error) {
	if len(samples) == 0 {
		return nil, apperrors.ValidationError(core.ErrEmptyBuffer.Error())
	}
	for _, s := range samples {
		if detail := Record(cfg, s); detail != "" {
			return nil, apperrors.ValidationError(fmt.Sprintf("INVALID_RANGE:%s", detail))
		}
	}
	return samples, nil
}
