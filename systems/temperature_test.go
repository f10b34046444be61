package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/kinetics/components"
)

func TestTargetSpeed(t *testing.T) {
	tests := []struct {
		name       string
		temp, mult float64
		mass       float64
		want       float64
	}{
		{"reference temperature", 100, 1, 1, 1},
		{"multiplier scales", 400, 2.5, 1, 5},
		{"heavier is slower", 100, 2, 4, 1},
		{"zero temperature", 0, 2, 1, 0},
		{"negative treated as zero", -50, 2, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetSpeed(tt.temp, tt.mult, tt.mass); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("TargetSpeed = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRescaleKeepsDirection(t *testing.T) {
	vel := components.Velocity{X: 3, Y: -4}
	if !Rescale(&vel, 10) {
		t.Fatal("expected rescale to apply")
	}
	if math.Abs(vel.X-6) > 1e-12 || math.Abs(vel.Y+8) > 1e-12 {
		t.Errorf("velocity = %+v, want (6,-8)", vel)
	}
}

func TestRescaleLeavesRestingParticle(t *testing.T) {
	vel := components.Velocity{}
	if Rescale(&vel, 10) {
		t.Error("resting particle should be skipped")
	}
	if vel != (components.Velocity{}) {
		t.Errorf("velocity changed to %+v", vel)
	}
}

func TestTemperatureSystemApplyIsIdempotent(t *testing.T) {
	w := ecs.NewWorld()
	mapper := ecs.NewMap2[components.Velocity, components.Body](w)
	vels := []components.Velocity{{X: 1, Y: 2}, {X: -7, Y: 0.5}, {}}
	masses := []float64{1, 4, 2}
	for i := range vels {
		body := components.Body{Radius: 5, Mass: masses[i]}
		mapper.NewEntity(&vels[i], &body)
	}

	sys := NewTemperatureSystem(w, 2)
	if n := sys.Apply(900); n != 2 {
		t.Errorf("rescaled %d particles, want 2", n)
	}

	snapshot := func() []components.Velocity {
		var out []components.Velocity
		filter := ecs.NewFilter1[components.Velocity](w)
		query := filter.Query()
		for query.Next() {
			out = append(out, *query.Get())
		}
		return out
	}

	first := snapshot()
	sys.Apply(900)
	second := snapshot()
	for i := range first {
		if math.Abs(first[i].X-second[i].X) > 1e-12 || math.Abs(first[i].Y-second[i].Y) > 1e-12 {
			t.Errorf("particle %d changed on second apply: %+v -> %+v", i, first[i], second[i])
		}
	}

	filter := ecs.NewFilter2[components.Velocity, components.Body](w)
	query := filter.Query()
	for query.Next() {
		vel, body := query.Get()
		if vel.Speed() == 0 {
			continue
		}
		want := TargetSpeed(900, 2, body.Mass)
		if math.Abs(vel.Speed()-want) > 1e-9 {
			t.Errorf("speed = %f, want %f for mass %f", vel.Speed(), want, body.Mass)
		}
	}
}
