package simulator

import (
	"testing"
	"time"

	"github.com/rotem-industrial/pump-pdm/domain/verdict"
	"github.com/rotem-industrial/pump-pdm/internal/config"
)

func testRules() config.RuleConfig {
	return config.RuleConfig{
		CavitationSustainSec: 10,
		OvertempSustainTicks: 2,
		OvertempSustainSec:   6,
		CooldownTicks:        3,
	}
}

func TestEvaluateNonCriticalNeverFires(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	fire, cause := tr.Evaluate(verdict.Verdict{Status: verdict.StatusWarning}, time.Now())
	if fire {
		t.Errorf("expected no shutdown for a non-CRITICAL verdict, got cause %v", cause)
	}
}

func TestEvaluateUnknownCriticalIsNoOp(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	fire, _ := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripNone}, time.Now())
	if fire {
		t.Error("expected an unknown-CRITICAL verdict (no trip cause) to be a no-op")
	}
}

func TestEvaluateDebrisImpactFiresImmediately(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	fire, cause := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripDebrisImpact}, time.Now())
	if !fire || cause != verdict.TripDebrisImpact {
		t.Errorf("Evaluate() = (%v, %v), want (true, DEBRIS_IMPACT)", fire, cause)
	}
}

func TestEvaluateChokedDischargeFiresImmediately(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	fire, cause := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripChokedDischarge}, time.Now())
	if !fire || cause != verdict.TripChokedDischarge {
		t.Errorf("Evaluate() = (%v, %v), want (true, CHOKED_DISCHARGE)", fire, cause)
	}
}

func TestEvaluateVibInterlockFiresImmediately(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	fire, cause := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripVibInterlock}, time.Now())
	if !fire || cause != verdict.TripVibInterlock {
		t.Errorf("Evaluate() = (%v, %v), want (true, VIB_INTERLOCK)", fire, cause)
	}
}

func TestEvaluateCavitationRequiresSustain(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	start := time.Now()

	fire, _ := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripCavitation}, start)
	if fire {
		t.Fatal("expected cavitation not to fire before the sustain window elapses")
	}

	fire, cause := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripCavitation}, start.Add(11*time.Second))
	if !fire || cause != verdict.TripCavitation {
		t.Errorf("Evaluate() after sustain window = (%v, %v), want (true, CAVITATION)", fire, cause)
	}
}

func TestEvaluateCavitationResetsIfInterrupted(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	start := time.Now()
	tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripCavitation}, start)

	// a healthy cycle in between should reset the sustain clock
	tr.Evaluate(verdict.Verdict{Status: verdict.StatusHealthy}, start.Add(5*time.Second))

	fire, _ := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripCavitation}, start.Add(12*time.Second))
	if fire {
		t.Error("expected the sustain clock to have been reset by the intervening healthy cycle")
	}
}

func TestEvaluateOvertempRequiresTicksAndSeconds(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	start := time.Now()

	// one tick is not enough (OvertempSustainTicks=2)
	fire, _ := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripOvertemp}, start)
	if fire {
		t.Fatal("expected overtemp not to fire on the first consecutive tick")
	}

	fire, cause := tr.Evaluate(verdict.Verdict{Status: verdict.StatusCritical, TripCause: verdict.TripOvertemp}, start.Add(7*time.Second))
	if !fire || cause != verdict.TripOvertemp {
		t.Errorf("Evaluate() on the second consecutive tick past the sustain window = (%v, %v), want (true, OVERTEMP)", fire, cause)
	}
}

func TestCooldownForOnlyOvertempAndChoked(t *testing.T) {
	tr := NewShutdownTracker(testRules())
	if got := tr.CooldownFor(verdict.TripOvertemp); got != 3 {
		t.Errorf("CooldownFor(OVERTEMP) = %d, want 3", got)
	}
	if got := tr.CooldownFor(verdict.TripChokedDischarge); got != 3 {
		t.Errorf("CooldownFor(CHOKED_DISCHARGE) = %d, want 3", got)
	}
	if got := tr.CooldownFor(verdict.TripDebrisImpact); got != 0 {
		t.Errorf("CooldownFor(DEBRIS_IMPACT) = %d, want 0", got)
	}
	if got := tr.CooldownFor(verdict.TripCavitation); got != 0 {
		t.Errorf("CooldownFor(CAVITATION) = %d, want 0", got)
	}
}
