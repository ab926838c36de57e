package rules

import (
	"testing"

	"github.com/rotem-industrial/pump-pdm/domain/diagnosis"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
)

func testRuleConfig() config.RuleConfig {
	return config.RuleConfig{
		DebrisImpactCrestMin: 6.0,

		CavitationCurrentMinAmp:             54,
		CavitationPressureMaxBar:            4.0,
		CavitationVibrationMinMMPS:          9.0,
		CavitationHysteresisExitPressureBar: 4.5,

		ChokedCurrentMaxAmp:  38,
		ChokedPressureMinBar: 7.0,
		ChokedTempMinC:       70,

		DegradationCurrentMaxAmp:         40,
		DegradationPressureMaxBar:        5.2,
		DegradationHysteresisCurrentAmp:  2,
		DegradationHysteresisPressureBar: 0.3,

		TempCriticalC: 75,
		TempWarningC:  60,

		OverloadCurrentMinAmp: 50,

		PressureHighWarningBar: 7.0,

		AirIngestionVibCrestMin:   5.5,
		AirIngestionVibRMSMinMMPS: 4.5,

		VibrationWarningEntryMMPS:           5.5,
		VibrationCriticalMMPS:               7.1,
		VibrationInterlockMMPS:              9.0,
		VibrationHysteresisExitWarningMMPS:  4.5,
		VibrationHysteresisExitCriticalMMPS: 6.0,

		CavitationSustainSec: 10,
		OvertempSustainTicks: 2,
		OvertempSustainSec:   6,
		CooldownTicks:        3,
		SimulatorTickSec:     3,
	}
}

func testThresholds() config.ThresholdConfig {
	return config.ThresholdConfig{
		ProbCritical:               0.85,
		ProbCriticalStartup:        0.90,
		ProbWarning:                0.60,
		ProbHysteresisExitWarning:  0.25,
		ProbMinForVibrationWarning: 0.15,
	}
}

func testMessages() config.MessageConfig {
	return config.MessageConfig{
		MechanicalDamageAlert:   "MECHANICAL DAMAGE",
		CavitationAlert:         "CAVITATION",
		ChokedAlert:             "CHOKED DISCHARGE: current={current:.1f}A, pressure={pressure:.1f}bar, temp={temp:.1f}C",
		DegradationAlert:        "MAINTENANCE (Zone C): current={current:.1f}A, pressure={pressure:.1f}bar",
		TempAlert:               "HIGH TEMPERATURE (Zone D): {temp:.1f}C",
		TempWarningAlert:        "HIGH TEMPERATURE (Zone C): {temp:.1f}C",
		OverloadAlert:           "OVERLOAD",
		PressureHighAlert:       "PRESSURE HIGH",
		AirIngestionAlert:       "AIR INGESTION",
		VibrationZoneDAlert:     "ISO 10816-3 Zone D vibration",
		VibrationZoneCAlert:     "ISO 10816-3 Zone C vibration",
		VibrationInterlockAlert: "VIBRATION INTERLOCK",
		HighRiskCriticalAlert:   "HIGH RISK",
		ElevatedRiskAlert:       "ELEVATED RISK",
	}
}

// healthyContext returns a Context seeded to HEALTHY with every sensor
// value well inside nominal range, ready for a test to push out of range.
func healthyContext() *diagnosis.Context {
	ctx := diagnosis.New()
	ctx.VibRMS, ctx.LatestVib = 2.0, 2.0
	ctx.VibCrest, ctx.LatestCrest = 2.5, 2.5
	ctx.Current, ctx.LatestCurrent = 45, 45
	ctx.Pressure, ctx.LatestPressure = 6.0, 6.0
	ctx.Temp, ctx.LatestTemp = 50, 50
	ctx.LastStatus = verdict.StatusHealthy
	return ctx
}

func TestRunHealthyStaysHealthy(t *testing.T) {
	ctx := healthyContext()
	Run(ctx, testRuleConfig(), testThresholds(), testMessages())
	if ctx.Status != verdict.StatusHealthy {
		t.Errorf("Status = %v, want HEALTHY", ctx.Status)
	}
	if ctx.TripCause != verdict.TripNone {
		t.Errorf("expected no trip cause, got %v", ctx.TripCause)
	}
}

func TestDebrisFlagTripsMechanical(t *testing.T) {
	ctx := healthyContext()
	ctx.DebrisFlag = true
	Run(ctx, testRuleConfig(), testThresholds(), testMessages())

	if ctx.Status != verdict.StatusCritical {
		t.Fatalf("Status = %v, want CRITICAL", ctx.Status)
	}
	if ctx.TripCause != verdict.TripDebrisImpact {
		t.Errorf("TripCause = %v, want DEBRIS_IMPACT", ctx.TripCause)
	}
	if ctx.DisplayProb < 0.95 {
		t.Errorf("DisplayProb = %v, want >= 0.95", ctx.DisplayProb)
	}
}

func TestCavitationWinsOverInterlockPriority(t *testing.T) {
	rc := testRuleConfig()
	ctx := healthyContext()
	// satisfy both the cavitation condition AND the hard vibration interlock
	ctx.Current, ctx.LatestCurrent = 60, 60
	ctx.Pressure, ctx.LatestPressure = 3.0, 3.0
	ctx.VibRMS, ctx.LatestVib = rc.VibrationInterlockMMPS+0.5, rc.VibrationInterlockMMPS+0.5

	Run(ctx, rc, testThresholds(), testMessages())

	if ctx.Status != verdict.StatusCritical {
		t.Fatalf("Status = %v, want CRITICAL", ctx.Status)
	}
	if ctx.TripCause != verdict.TripCavitation {
		t.Errorf("TripCause = %v, want CAVITATION (cavitation runs before the interlock rule and wins first-writer-wins)", ctx.TripCause)
	}
	// the interlock rule still raises the display floor even though it lost the trip-cause race
	if ctx.DisplayProb != 0.999 {
		t.Errorf("DisplayProb = %v, want 0.999 (interlock's unconditional display floor)", ctx.DisplayProb)
	}
}

func TestVibrationZoneDAloneHasNoTripCause(t *testing.T) {
	rc := testRuleConfig()
	ctx := healthyContext()
	ctx.VibRMS, ctx.LatestVib = rc.VibrationCriticalMMPS+0.2, rc.VibrationCriticalMMPS+0.2

	Run(ctx, rc, testThresholds(), testMessages())

	if ctx.Status != verdict.StatusCritical {
		t.Fatalf("Status = %v, want CRITICAL", ctx.Status)
	}
	if ctx.TripCause != verdict.TripNone {
		t.Errorf("expected no trip cause for Zone D alone (no hard interlock, no other rule), got %v", ctx.TripCause)
	}
}

func TestVibrationCriticalHysteresisHoldsBeforeDroppingToWarning(t *testing.T) {
	rc := testRuleConfig()
	th := testThresholds()
	msg := testMessages()

	// below the critical-exit vibration threshold, but not yet below the
	// warning-exit threshold: status should remain CRITICAL for
	// CriticalExitMinLowVibSteps-1 additional cycles (the hold), then drop.
	lowVib := rc.VibrationHysteresisExitCriticalMMPS - 0.1

	var ctx *diagnosis.Context
	lastCriticalLowVibSteps := 0
	for i := 0; i < minLowVibStepsOverride; i++ {
		ctx = diagnosis.New()
		ctx.LastStatus = verdict.StatusCritical
		ctx.Status = verdict.StatusWarning // as vibrationZoneRule would leave it below the critical threshold
		ctx.VibRMS, ctx.LatestVib = lowVib, lowVib
		ctx.Current, ctx.LatestCurrent = 45, 45
		ctx.Pressure, ctx.LatestPressure = 6.0, 6.0
		ctx.Temp, ctx.LatestTemp = 50, 50
		ctx.CriticalLowVibSteps = lastCriticalLowVibSteps

		vibrationHysteresisRule(ctx, rc, th, msg)
		lastCriticalLowVibSteps = ctx.CriticalLowVibSteps

		if i < minLowVibStepsOverride-1 {
			if ctx.Status != verdict.StatusCritical {
				t.Fatalf("cycle %d: Status = %v, want CRITICAL (still within the hold window)", i, ctx.Status)
			}
		}
	}
	if ctx.Status != verdict.StatusWarning {
		t.Errorf("final Status = %v, want WARNING (hold window exhausted)", ctx.Status)
	}
	if ctx.CriticalLowVibSteps != 0 {
		t.Errorf("CriticalLowVibSteps = %d, want reset to 0 once the hold completes", ctx.CriticalLowVibSteps)
	}
}

func TestChokedDischargeMessageUsesLatestValues(t *testing.T) {
	rc := testRuleConfig()
	ctx := healthyContext()
	ctx.Current, ctx.LatestCurrent = rc.ChokedCurrentMaxAmp-2, rc.ChokedCurrentMaxAmp-1
	ctx.Pressure, ctx.LatestPressure = rc.ChokedPressureMinBar+0.5, rc.ChokedPressureMinBar+1
	ctx.Temp, ctx.LatestTemp = rc.ChokedTempMinC+2, rc.ChokedTempMinC+5

	Run(ctx, rc, testThresholds(), testMessages())

	if ctx.Status != verdict.StatusCritical {
		t.Fatalf("Status = %v, want CRITICAL", ctx.Status)
	}
	if ctx.TripCause != verdict.TripChokedDischarge {
		t.Errorf("TripCause = %v, want CHOKED_DISCHARGE", ctx.TripCause)
	}
	want := "CHOKED DISCHARGE: current=37.0A, pressure=8.0bar, temp=75.0C"
	if ctx.Reason != want {
		t.Errorf("Reason = %q, want %q (latest, not smoothed, values)", ctx.Reason, want)
	}
}

func TestOverloadOnlyFromHealthyWithNoReason(t *testing.T) {
	rc := testRuleConfig()
	ctx := healthyContext()
	ctx.Current, ctx.LatestCurrent = rc.OverloadCurrentMinAmp+1, rc.OverloadCurrentMinAmp+1

	Run(ctx, rc, testThresholds(), testMessages())

	if ctx.Status != verdict.StatusWarning {
		t.Fatalf("Status = %v, want WARNING", ctx.Status)
	}
	found := false
	for _, c := range ctx.AlarmCauses {
		if c == verdict.AlarmOverload {
			found = true
		}
	}
	if !found {
		t.Errorf("AlarmCauses = %v, want to contain OVERLOAD", ctx.AlarmCauses)
	}
}
