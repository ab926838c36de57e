package diagnosis

import (
	"testing"

	"github.com/rotem-industrial/pump-pdm/domain/verdict"
)

func TestNewSeedsHealthy(t *testing.T) {
	ctx := New()
	if ctx.Status != verdict.StatusHealthy {
		t.Errorf("New().Status = %v, want HEALTHY", ctx.Status)
	}
	if ctx.HasReason() {
		t.Error("New() should not already have a reason")
	}
}

func TestSetTripCauseFirstWriterWins(t *testing.T) {
	ctx := New()
	ctx.SetTripCause(verdict.TripCavitation)
	ctx.SetTripCause(verdict.TripOvertemp)

	if ctx.TripCause != verdict.TripCavitation {
		t.Errorf("TripCause = %v, want the first-set cause CAVITATION", ctx.TripCause)
	}
}

func TestAddAlarmCauseDeduplicates(t *testing.T) {
	ctx := New()
	ctx.AddAlarmCause(verdict.AlarmOverload)
	ctx.AddAlarmCause(verdict.AlarmOverload)
	ctx.AddAlarmCause(verdict.AlarmPressureHigh)

	if len(ctx.AlarmCauses) != 2 {
		t.Fatalf("len(AlarmCauses) = %d, want 2, got %v", len(ctx.AlarmCauses), ctx.AlarmCauses)
	}
	if ctx.AlarmCauses[0] != verdict.AlarmOverload || ctx.AlarmCauses[1] != verdict.AlarmPressureHigh {
		t.Errorf("AlarmCauses = %v, want [OVERLOAD PRESSURE_HIGH]", ctx.AlarmCauses)
	}
}

func TestRaiseDisplayProbOnlyRaises(t *testing.T) {
	ctx := New()
	ctx.DisplayProb = 0.5
	ctx.RaiseDisplayProb(0.3)
	if ctx.DisplayProb != 0.5 {
		t.Errorf("RaiseDisplayProb(0.3) lowered DisplayProb to %v, want unchanged 0.5", ctx.DisplayProb)
	}
	ctx.RaiseDisplayProb(0.9)
	if ctx.DisplayProb != 0.9 {
		t.Errorf("RaiseDisplayProb(0.9) = %v, want 0.9", ctx.DisplayProb)
	}
}

func TestHasReasonReflectsMutation(t *testing.T) {
	ctx := New()
	if ctx.HasReason() {
		t.Fatal("expected no reason on a fresh context")
	}
	ctx.Reason = "CAVITATION"
	if !ctx.HasReason() {
		t.Error("expected HasReason() to be true once Reason is set")
	}
}
