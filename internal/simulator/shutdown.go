package simulator

import (
	"time"

	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
)

// ShutdownTracker watches consecutive verdicts for the sustain conditions
// ShutdownTracker attaches to CAVITATION and OVERTEMP trips, and decides whether a
// given CRITICAL verdict fires a hard shutdown.
type ShutdownTracker struct {
	rules config.RuleConfig

	cavitationSince     time.Time
	cavitationTracking  bool
	overtempConsecutive int
	overtempFirstAt     time.Time
	overtempTracking    bool
}

// NewShutdownTracker builds a tracker bound to the configured sustain
// windows (CavitationSustainSec, OvertempSustainTicks/Sec).
func NewShutdownTracker(rules config.RuleConfig) *ShutdownTracker {
	return &ShutdownTracker{rules: rules}
}

// Evaluate inspects one cycle's verdict and returns (true, cause) if a
// hard shutdown should fire now, in priority order:
// DEBRIS_IMPACT -> CHOKED_DISCHARGE -> CAVITATION (sustained) ->
// OVERTEMP (sustained) -> VIB_INTERLOCK. An Unknown-CRITICAL (CRITICAL
// with no trip cause) is a no-op: the tick advances without firing.
func (s *ShutdownTracker) Evaluate(v verdict.Verdict, now time.Time) (bool, verdict.TripCause) {
	if v.Status != verdict.StatusCritical {
		s.resetCavitation()
		s.resetOvertemp()
		return false, verdict.TripNone
	}

	if v.TripCause != verdict.TripCavitation {
		s.resetCavitation()
	}
	if v.TripCause != verdict.TripOvertemp {
		s.resetOvertemp()
	}

	switch v.TripCause {
	case verdict.TripDebrisImpact:
		return true, verdict.TripDebrisImpact
	case verdict.TripChokedDischarge:
		return true, verdict.TripChokedDischarge
	case verdict.TripCavitation:
		if !s.cavitationTracking {
			s.cavitationTracking = true
			s.cavitationSince = now
		}
		if now.Sub(s.cavitationSince).Seconds() >= s.rules.CavitationSustainSec {
			return true, verdict.TripCavitation
		}
		return false, verdict.TripNone
	case verdict.TripOvertemp:
		if !s.overtempTracking {
			s.overtempTracking = true
			s.overtempFirstAt = now
			s.overtempConsecutive = 1
		} else {
			s.overtempConsecutive++
		}
		if s.overtempConsecutive >= s.rules.OvertempSustainTicks &&
			now.Sub(s.overtempFirstAt).Seconds() >= s.rules.OvertempSustainSec {
			return true, verdict.TripOvertemp
		}
		return false, verdict.TripNone
	case verdict.TripVibInterlock:
		return true, verdict.TripVibInterlock
	default:
		// Unknown-CRITICAL: no hard trip cause set by any rule -> no-op.
		return false, verdict.TripNone
	}
}

// CooldownFor reports the cooldown (in ticks) the given trip cause
// forces before the twin resumes normal operation. Only OVERTEMP and
// CHOKED_DISCHARGE force a cooldown .
func (s *ShutdownTracker) CooldownFor(cause verdict.TripCause) int {
	switch cause {
	case verdict.TripOvertemp, verdict.TripChokedDischarge:
		return s.rules.CooldownTicks
	default:
		return 0
	}
}

func (s *ShutdownTracker) resetCavitation() {
	s.cavitationTracking = false
}

func (s *ShutdownTracker) resetOvertemp() {
	s.overtempTracking = false
	s.overtempConsecutive = 0
}
