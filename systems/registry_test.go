package systems

import (
	"testing"

	"github.com/pthm-cable/kinetics/telemetry"
)

func TestStageRegistryOrder(t *testing.T) {
	reg := NewStageRegistry()
	want := []string{
		telemetry.PhaseDrain, telemetry.PhaseKinematics, telemetry.PhaseBoundary,
		telemetry.PhaseCollisions, telemetry.PhaseApply, telemetry.PhaseCounts,
	}
	got := reg.IDs()
	if len(got) != len(want) {
		t.Fatalf("IDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("IDs[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestStageRegistryLookup(t *testing.T) {
	reg := NewStageRegistry()
	if name := reg.GetName(telemetry.PhaseCollisions); name != "Collisions" {
		t.Errorf("GetName = %q, want Collisions", name)
	}
	if name := reg.GetName("unknown"); name != "unknown" {
		t.Errorf("GetName fallback = %q, want unknown", name)
	}
	if got := len(reg.ByCategory("physics")); got != 3 {
		t.Errorf("physics stages = %d, want 3", got)
	}

	reg.Register(StageInfo{ID: telemetry.PhaseDrain, Name: "dup"})
	if reg.GetName(telemetry.PhaseDrain) != "Intents" || len(reg.All()) != 6 {
		t.Error("duplicate registration should be ignored")
	}
}
