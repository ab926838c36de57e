package simulator

import (
	"testing"

	"github.com/rotem-industrial/pump-pdm/domain/core"
	"github.com/rotem-industrial/pump-pdm/domain/twin"
	"github.com/rotem-industrial/pump-pdm/internal/config"
)

func TestTickReturnsRequestedWindowSize(t *testing.T) {
	tw := NewTwin(1, config.RuleConfig{})
	samples, _ := tw.Tick(30, core.Now())
	if len(samples) != 30 {
		t.Fatalf("len(samples) = %d, want 30", len(samples))
	}
}

func TestForceScenarioAlwaysFires(t *testing.T) {
	tw := NewTwin(42, config.RuleConfig{})
	tw.ForceScenario(twin.ScenarioCavitation)
	for i := 0; i < 5; i++ {
		_, scenario := tw.Tick(5, core.Now())
		if scenario != twin.ScenarioCavitation {
			t.Fatalf("tick %d: scenario = %v, want the forced CAVITATION scenario", i, scenario)
		}
	}
}

func TestForceDebrisSetsDebrisFlagOnEverySample(t *testing.T) {
	tw := NewTwin(7, config.RuleConfig{})
	tw.ForceScenario(twin.ScenarioDebrisImpact)
	samples, scenario := tw.Tick(10, core.Now())
	if scenario != twin.ScenarioDebrisImpact {
		t.Fatalf("scenario = %v, want DEBRIS_IMPACT", scenario)
	}
	for i, s := range samples {
		if !s.DebrisImpact {
			t.Errorf("sample %d: DebrisImpact = false, want true while debris scenario is active", i)
		}
	}
}

func TestTickNeverProducesNegativeVibrationOrPressure(t *testing.T) {
	tw := NewTwin(99, config.RuleConfig{})
	for tick := 0; tick < 50; tick++ {
		samples, _ := tw.Tick(5, core.Now())
		for _, s := range samples {
			if s.VibRMS < 0 {
				t.Fatalf("tick %d: VibRMS = %v, want >= 0", tick, s.VibRMS)
			}
			if s.VibCrest < 0 {
				t.Fatalf("tick %d: VibCrest = %v, want >= 0", tick, s.VibCrest)
			}
			if s.Pressure < 0 {
				t.Fatalf("tick %d: Pressure = %v, want >= 0", tick, s.Pressure)
			}
			if s.Current < 0 {
				t.Fatalf("tick %d: Current = %v, want >= 0", tick, s.Current)
			}
		}
	}
}

func TestHealthStartsAtZero(t *testing.T) {
	tw := NewTwin(1, config.RuleConfig{})
	if tw.Health() != 0 {
		t.Errorf("Health() = %v, want 0 for a freshly constructed twin", tw.Health())
	}
}

func TestShutdownResetsHealthAndArmsCooldown(t *testing.T) {
	tw := NewTwin(1, config.RuleConfig{})
	tw.ForceScenario(twin.ScenarioCavitation)
	tw.Tick(3, core.Now())

	tw.Shutdown(3)
	if tw.Health() != 0 {
		t.Errorf("Health() after Shutdown = %v, want 0", tw.Health())
	}
	if !tw.InCooldown() {
		t.Fatal("expected InCooldown() to be true immediately after Shutdown(3)")
	}
	tw.TickCooldown()
	tw.TickCooldown()
	if !tw.InCooldown() {
		t.Error("expected InCooldown() to still be true after 2 of 3 cooldown ticks")
	}
	tw.TickCooldown()
	if tw.InCooldown() {
		t.Error("expected InCooldown() to be false once the cooldown counter reaches 0")
	}
}

func TestOverlayMeansLeavesUntouchedFieldsAtBase(t *testing.T) {
	base := twin.Means{VibRMS: 2.0, VibCrest: 2.5, Current: 45, Pressure: 6.0, Temp: 50}
	override := twin.Means{VibRMS: 9.5}
	out := overlayMeans(base, override)
	if out.VibRMS != 9.5 {
		t.Errorf("VibRMS = %v, want the overridden 9.5", out.VibRMS)
	}
	if out.Current != base.Current || out.Pressure != base.Pressure || out.Temp != base.Temp {
		t.Errorf("overlayMeans() = %+v, want untouched fields to pass through from base %+v", out, base)
	}
}

func TestBlendMeansAtEndpoints(t *testing.T) {
	from := twin.Means{VibRMS: 2.0, Current: 38}
	to := twin.Means{VibRMS: 5.0, Current: 45}
	if got := blendMeans(from, to, 0); got != from {
		t.Errorf("blendMeans(from, to, 0) = %+v, want %+v", got, from)
	}
	if got := blendMeans(from, to, 1); got != to {
		t.Errorf("blendMeans(from, to, 1) = %+v, want %+v", got, to)
	}
}
