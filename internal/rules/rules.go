// Package rules implements the ordered diagnostic rule engine: thirteen
// pure functions over a diagnosis.Context, each deciding from smoothed and
// latest sensor values, the previous reason (for hysteresis), and the
// configured thresholds. The first rule to set a trip cause wins; later
// rules may still append alarm causes.
package rules

import (
	"strings"

	"github.com/rotem-industrial/pump-pdm/domain/diagnosis"
	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
)

// Rule is one pure evaluator in the fixed-order pipeline.
type Rule func(ctx *diagnosis.Context, rc config.RuleConfig, th config.ThresholdConfig, msg config.MessageConfig)

// Pipeline is the fixed evaluation order. Never reorder: trip-cause
// priority is encoded entirely by this sequence plus the first-writer-wins
// rule on Context.TripCause.
var Pipeline = []Rule{
	mechanicalRule,
	cavitationRule,
	chokedRule,
	degradationRule,
	degradationHysteresisRule,
	temperatureRule,
	overloadRule,
	highPressureRule,
	airIngestionRule,
	vibrationZoneRule,
	vibrationHysteresisRule,
	interlockRule,
	finalCleanupRule,
}

// Run evaluates every rule in Pipeline, in order, against ctx.
func Run(ctx *diagnosis.Context, rc config.RuleConfig, th config.ThresholdConfig, msg config.MessageConfig) {
	for _, rule := range Pipeline {
		rule(ctx, rc, th, msg)
	}
}

// mechanicalRule: debris impact / mechanical damage -> CRITICAL.
func mechanicalRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	highCrest := ctx.LatestCrest >= rc.DebrisImpactCrestMin || ctx.VibCrest >= rc.DebrisImpactCrestMin
	zoneD := ctx.VibRMS >= rc.VibrationCriticalMMPS || ctx.LatestVib >= rc.VibrationCriticalMMPS
	hysteresis := ctx.PrevReason == msg.MechanicalDamageAlert && zoneD

	trip := ctx.DebrisFlag ||
		(highCrest && (ctx.Status == verdict.StatusCritical || zoneD)) ||
		hysteresis
	if !trip {
		return
	}
	ctx.Status = verdict.StatusCritical
	ctx.RaiseDisplayProb(0.95)
	ctx.Reason = msg.MechanicalDamageAlert
	ctx.SetTripCause(verdict.TripDebrisImpact)
	ctx.AddAlarmCause(verdict.AlarmDebrisImpact)
}

// cavitationRule: high current + low pressure + high vib -> CRITICAL.
func cavitationRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.HasReason() {
		return
	}
	smoothed := ctx.Current >= rc.CavitationCurrentMinAmp && ctx.Pressure <= rc.CavitationPressureMaxBar && ctx.VibRMS >= rc.CavitationVibrationMinMMPS
	latest := ctx.LatestCurrent >= rc.CavitationCurrentMinAmp && ctx.LatestPressure <= rc.CavitationPressureMaxBar && ctx.LatestVib >= rc.CavitationVibrationMinMMPS
	hysteresis := ctx.PrevReason == msg.CavitationAlert &&
		ctx.Pressure <= rc.CavitationHysteresisExitPressureBar &&
		ctx.LatestPressure <= rc.CavitationHysteresisExitPressureBar &&
		(ctx.VibRMS >= rc.CavitationVibrationMinMMPS || ctx.LatestVib >= rc.CavitationVibrationMinMMPS) &&
		(ctx.Current >= rc.CavitationCurrentMinAmp || ctx.LatestCurrent >= rc.CavitationCurrentMinAmp)

	if !(smoothed || latest || hysteresis) {
		return
	}
	ctx.Status = verdict.StatusCritical
	ctx.RaiseDisplayProb(0.95)
	ctx.Reason = msg.CavitationAlert
	ctx.SetTripCause(verdict.TripCavitation)
	ctx.AddAlarmCause(verdict.AlarmCavitation)
}

// chokedRule: low current + high pressure + high temp -> CRITICAL.
func chokedRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.HasReason() {
		return
	}
	smoothed := ctx.Current <= rc.ChokedCurrentMaxAmp && ctx.Pressure >= rc.ChokedPressureMinBar && ctx.Temp >= rc.ChokedTempMinC
	latest := ctx.LatestCurrent <= rc.ChokedCurrentMaxAmp && ctx.LatestPressure >= rc.ChokedPressureMinBar && ctx.LatestTemp >= rc.ChokedTempMinC
	if !(smoothed || latest) {
		return
	}
	ctx.Status = verdict.StatusCritical
	ctx.RaiseDisplayProb(0.95)
	ctx.Reason = formatMessage(msg.ChokedAlert, ctx.LatestPressure, ctx.LatestTemp, ctx.LatestCurrent)
	ctx.SetTripCause(verdict.TripChokedDischarge)
	ctx.AddAlarmCause(verdict.AlarmChokedDischarge)
}

// degradationRule: low current + low pressure (stricter, both smoothed and
// latest) -> WARNING, no trip cause.
func degradationRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.HasReason() || ctx.Status == verdict.StatusCritical {
		return
	}
	smoothed := ctx.Current <= rc.DegradationCurrentMaxAmp && ctx.Pressure <= rc.DegradationPressureMaxBar
	latest := ctx.LatestCurrent <= rc.DegradationCurrentMaxAmp && ctx.LatestPressure <= rc.DegradationPressureMaxBar
	if !(smoothed && latest) {
		return
	}
	ctx.Status = verdict.StatusWarning
	ctx.RaiseDisplayProb(0.55)
	ctx.Reason = formatMessage(msg.DegradationAlert, ctx.LatestPressure, 0, ctx.LatestCurrent)
}

// degradationHysteresisRule: stay WARNING until current/pressure clear
// their exit bar.
func degradationHysteresisRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.LastStatus != verdict.StatusWarning || ctx.Status != verdict.StatusHealthy {
		return
	}
	exitCurrent := rc.DegradationCurrentMaxAmp + rc.DegradationHysteresisCurrentAmp
	exitPressure := rc.DegradationPressureMaxBar + rc.DegradationHysteresisPressureBar
	if !(ctx.Current <= exitCurrent || ctx.Pressure <= exitPressure ||
		ctx.LatestCurrent <= exitCurrent || ctx.LatestPressure <= exitPressure) {
		return
	}
	ctx.Status = verdict.StatusWarning
	ctx.RaiseDisplayProb(0.55)
	ctx.Reason = formatMessage(msg.DegradationAlert, ctx.LatestPressure, 0, ctx.LatestCurrent)
}

// temperatureRule: overtemp CRITICAL, or warm WARNING.
func temperatureRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.HasReason() {
		return
	}
	if ctx.Temp >= rc.TempCriticalC || ctx.LatestTemp >= rc.TempCriticalC {
		ctx.Status = verdict.StatusCritical
		ctx.RaiseDisplayProb(0.85)
		ctx.Reason = formatMessage(msg.TempAlert, 0, ctx.LatestTemp, 0)
		ctx.SetTripCause(verdict.TripOvertemp)
		ctx.AddAlarmCause(verdict.AlarmOvertemp)
		return
	}
	if ctx.Status == verdict.StatusHealthy && (ctx.Temp >= rc.TempWarningC || ctx.LatestTemp >= rc.TempWarningC) {
		ctx.Status = verdict.StatusWarning
		ctx.RaiseDisplayProb(0.55)
		ctx.Reason = formatMessage(msg.TempWarningAlert, 0, ctx.LatestTemp, 0)
		ctx.AddAlarmCause(verdict.AlarmTempWarning)
	}
}

// overloadRule: motor overload -> WARNING, only from HEALTHY with no reason.
func overloadRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.HasReason() || ctx.Status != verdict.StatusHealthy {
		return
	}
	if ctx.Current >= rc.OverloadCurrentMinAmp || ctx.LatestCurrent >= rc.OverloadCurrentMinAmp {
		ctx.Status = verdict.StatusWarning
		ctx.RaiseDisplayProb(0.55)
		ctx.Reason = msg.OverloadAlert
		ctx.AddAlarmCause(verdict.AlarmOverload)
	}
}

// highPressureRule: high discharge pressure with normal flow -> WARNING.
func highPressureRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.HasReason() || ctx.Status != verdict.StatusHealthy {
		return
	}
	notChoked := ctx.Current > rc.ChokedCurrentMaxAmp && ctx.LatestCurrent > rc.ChokedCurrentMaxAmp
	if (ctx.Pressure >= rc.PressureHighWarningBar || ctx.LatestPressure >= rc.PressureHighWarningBar) && notChoked {
		ctx.Status = verdict.StatusWarning
		ctx.RaiseDisplayProb(0.55)
		ctx.Reason = msg.PressureHighAlert
		ctx.AddAlarmCause(verdict.AlarmPressureHigh)
	}
}

// airIngestionRule: high crest + Zone C vib -> WARNING.
func airIngestionRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.HasReason() || ctx.Status != verdict.StatusHealthy {
		return
	}
	airIngestion := (ctx.VibCrest >= rc.AirIngestionVibCrestMin || ctx.LatestCrest >= rc.AirIngestionVibCrestMin) &&
		(ctx.VibRMS >= rc.AirIngestionVibRMSMinMMPS || ctx.LatestVib >= rc.AirIngestionVibRMSMinMMPS)
	if airIngestion {
		ctx.Status = verdict.StatusWarning
		ctx.RaiseDisplayProb(0.55)
		ctx.Reason = msg.AirIngestionAlert
		ctx.AddAlarmCause(verdict.AlarmAirIngestion)
	}
}

// vibrationZoneRule: ISO 10816-3 Zone D -> CRITICAL, Zone C (+risk) -> WARNING.
func vibrationZoneRule(ctx *diagnosis.Context, rc config.RuleConfig, th config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.VibRMS >= rc.VibrationCriticalMMPS || ctx.LatestVib >= rc.VibrationCriticalMMPS {
		ctx.Status = verdict.StatusCritical
		ctx.RaiseDisplayProb(0.85)
		isChoked := strings.HasPrefix(strings.TrimSpace(ctx.Reason), "CHOKED DISCHARGE")
		isTemp := strings.Contains(ctx.Reason, "HIGH TEMPERATURE")
		if ctx.Reason != msg.MechanicalDamageAlert && ctx.Reason != msg.CavitationAlert && !isChoked && !isTemp {
			ctx.Reason = msg.VibrationZoneDAlert
		}
		ctx.AddAlarmCause(verdict.AlarmVibZoneD)
		return
	}
	if ctx.VibRMS >= rc.VibrationWarningEntryMMPS && ctx.LatestVib >= rc.VibrationWarningEntryMMPS &&
		ctx.SmoothedProb >= th.ProbMinForVibrationWarning && ctx.Status == verdict.StatusHealthy {
		ctx.Status = verdict.StatusWarning
		ctx.Reason = msg.VibrationZoneCAlert
		ctx.AddAlarmCause(verdict.AlarmVibZoneC)
	}
}

// vibrationHysteresisRule: stay WARNING until vib clears; stay CRITICAL for
// N consecutive low-vib steps before dropping to WARNING.
func vibrationHysteresisRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.LastStatus == verdict.StatusWarning && ctx.Status == verdict.StatusHealthy &&
		(ctx.VibRMS >= rc.VibrationHysteresisExitWarningMMPS || ctx.LatestVib >= rc.VibrationHysteresisExitWarningMMPS) {
		ctx.Status = verdict.StatusWarning
		if !ctx.HasReason() {
			ctx.Reason = msg.VibrationZoneCAlert
		}
	}

	if ctx.LastStatus == verdict.StatusCritical && ctx.Status == verdict.StatusWarning {
		if ctx.VibRMS >= rc.VibrationHysteresisExitCriticalMMPS || ctx.LatestVib >= rc.VibrationHysteresisExitCriticalMMPS {
			ctx.Status = verdict.StatusCritical
			ctx.CriticalLowVibSteps = 0
		} else {
			ctx.CriticalLowVibSteps++
			if ctx.CriticalLowVibSteps < minLowVibSteps(rc) {
				ctx.Status = verdict.StatusCritical
			} else {
				ctx.CriticalLowVibSteps = 0
			}
		}
	}
}

func minLowVibSteps(rc config.RuleConfig) int {
	// Matches CRITICAL_EXIT_MIN_LOW_VIB_STEPS, threaded through WindowConfig
	// rather than RuleConfig; the caller binds this via Bind.
	return minLowVibStepsOverride
}

// minLowVibStepsOverride is set once per process by Bind, mirroring the
// fixed CRITICAL_EXIT_MIN_LOW_VIB_STEPS config value. Rules are pure
// functions of (Context, RuleConfig, ThresholdConfig, MessageConfig); this
// one threshold lives in WindowConfig instead, so Bind copies it in here
// at startup rather than widening every rule's signature for one field.
var minLowVibStepsOverride = 5

// Bind pins the window-level CRITICAL_EXIT_MIN_LOW_VIB_STEPS value the
// vibration hysteresis rule needs. Call once at startup after config.Load.
func Bind(criticalExitMinLowVibSteps int) {
	if criticalExitMinLowVibSteps > 0 {
		minLowVibStepsOverride = criticalExitMinLowVibSteps
	}
}

// interlockRule: hard vibration interlock -> CRITICAL 0.999; ramps display
// probability between the critical and interlock thresholds.
func interlockRule(ctx *diagnosis.Context, rc config.RuleConfig, _ config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.VibRMS >= rc.VibrationInterlockMMPS {
		ctx.Status = verdict.StatusCritical
		ctx.DisplayProb = 0.999
		if (!ctx.HasReason() || !strings.Contains(ctx.Reason, "HIGH TEMPERATURE")) && ctx.Reason != msg.CavitationAlert {
			ctx.Reason = msg.VibrationInterlockAlert
		}
		ctx.SetTripCause(verdict.TripVibInterlock)
		ctx.AddAlarmCause(verdict.AlarmVibInterlock)
		return
	}

	inRampBand := (ctx.Status == verdict.StatusCritical || ctx.Status == verdict.StatusWarning) &&
		rc.VibrationCriticalMMPS <= ctx.VibRMS && ctx.VibRMS < rc.VibrationInterlockMMPS &&
		rc.VibrationInterlockMMPS > rc.VibrationCriticalMMPS
	if !inRampBand {
		return
	}
	denom := rc.VibrationInterlockMMPS - rc.VibrationCriticalMMPS
	ramp := 0.0
	if denom > 0 {
		ramp = (ctx.VibRMS - rc.VibrationCriticalMMPS) / denom
	}
	ctx.RaiseDisplayProb(0.85 + ramp*0.15)
	if ctx.DisplayProb > 1.0 {
		ctx.DisplayProb = 1.0
	}
}

// finalCleanupRule: enforce the CRITICAL display floor, replace a stale
// degradation reason, and apply the risk-hysteresis WARNING hold.
func finalCleanupRule(ctx *diagnosis.Context, _ config.RuleConfig, th config.ThresholdConfig, msg config.MessageConfig) {
	if ctx.Status == verdict.StatusCritical {
		ctx.RaiseDisplayProb(0.85)
		if strings.HasPrefix(strings.TrimSpace(ctx.Reason), "MAINTENANCE (Zone C)") {
			ctx.Reason = msg.HighRiskCriticalAlert
		}
	}
	if ctx.LastStatus == verdict.StatusWarning && ctx.Status == verdict.StatusHealthy && ctx.SmoothedProb >= th.ProbHysteresisExitWarning {
		ctx.Status = verdict.StatusWarning
		if !ctx.HasReason() {
			ctx.Reason = msg.ElevatedRiskAlert
		}
	}
}
