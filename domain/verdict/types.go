// Package verdict defines the engine's output vocabulary: the pump health
// Status a decision cycle settles on, and the TripCause/AlarmCause enums
// that explain why.
package verdict

import (
	"github.com/rotem-industrial/pump-pdm/domain/core"
)

// Status is the health verdict attached to every decision cycle.
type Status string

const (
	StatusHealthy  Status = "HEALTHY"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
	StatusError    Status = "ERROR"
	StatusUnknown  Status = "UNKNOWN"
)

// Rank orders statuses by severity, HEALTHY lowest. ERROR and UNKNOWN sit
// above CRITICAL: both mean the engine could not vouch for the pump at all.
func (s Status) Rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusWarning:
		return 1
	case StatusCritical:
		return 2
	case StatusError:
		return 3
	case StatusUnknown:
		return 4
	default:
		return -1
	}
}

// TripCause identifies the rule that forced a CRITICAL verdict and a
// simulated shutdown. Only one trip cause is ever attached to a verdict —
// the rule engine is first-writer-wins over this field.
type TripCause string

const (
	TripNone            TripCause = ""
	TripDebrisImpact    TripCause = "DEBRIS_IMPACT"
	TripCavitation      TripCause = "CAVITATION"
	TripChokedDischarge TripCause = "CHOKED_DISCHARGE"
	TripOvertemp        TripCause = "OVERTEMP"
	TripVibInterlock    TripCause = "VIB_INTERLOCK"
)

// AlarmCause identifies a rule that raised a WARNING or CRITICAL concern.
// Rules that set a TripCause also append their own alarm cause, so a
// cycle's alarm causes include its trip cause. Unlike TripCause,
// multiple rules may append distinct alarm causes in the same cycle.
type AlarmCause string

const (
	AlarmDebrisImpact    AlarmCause = AlarmCause(TripDebrisImpact)
	AlarmCavitation      AlarmCause = AlarmCause(TripCavitation)
	AlarmChokedDischarge AlarmCause = AlarmCause(TripChokedDischarge)
	AlarmOvertemp        AlarmCause = AlarmCause(TripOvertemp)
	AlarmVibInterlock    AlarmCause = AlarmCause(TripVibInterlock)
	AlarmDegradation     AlarmCause = "DEGRADATION"
	AlarmOverload        AlarmCause = "OVERLOAD"
	AlarmPressureHigh    AlarmCause = "PRESSURE_HIGH"
	AlarmAirIngestion    AlarmCause = "AIR_INGESTION"
	AlarmVibZoneD        AlarmCause = "VIB_ZONE_D"
	AlarmVibZoneC        AlarmCause = "VIB_ZONE_C"
	AlarmTempWarning     AlarmCause = "OVERTEMP_WARNING"
	AlarmHighRisk        AlarmCause = "HIGH_RISK"
	AlarmElevatedRisk    AlarmCause = "ELEVATED_RISK"
)

// Verdict is the complete output of one decision cycle: the status, why it
// was reached, the smoothed risk score behind it, and any operator-facing
// message text produced by the rule that set the trip or alarm cause.
type Verdict struct {
	RunID       core.RunID
	PumpID      core.PumpID
	At          core.Timestamp
	Status      Status
	RawProb     float64
	SmoothedProb float64
	TripCause   TripCause
	AlarmCauses []AlarmCause
	Messages    []string
	SensorHealth string
}

// HasTrip reports whether a trip cause was recorded this cycle.
func (v Verdict) HasTrip() bool {
	return v.TripCause != TripNone
}
