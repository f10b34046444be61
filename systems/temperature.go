package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/kinetics/components"
)

// TargetSpeed maps a temperature to a particle speed:
// sqrt(T/100) · speedMultiplier / sqrt(mass). Negative temperatures are
// treated as zero.
func TargetSpeed(temperature, speedMultiplier, mass float64) float64 {
	if temperature <= 0 || mass <= 0 {
		return 0
	}
	return math.Sqrt(temperature/100) * speedMultiplier / math.Sqrt(mass)
}

// Rescale sets the velocity magnitude to target without changing its
// direction. Particles at rest stay at rest. Returns false if skipped.
func Rescale(vel *components.Velocity, target float64) bool {
	speed := vel.Speed()
	if speed == 0 {
		return false
	}
	k := target / speed
	vel.X *= k
	vel.Y *= k
	return true
}

// TemperatureSystem couples a temperature to every particle's speed.
type TemperatureSystem struct {
	filter          *ecs.Filter2[components.Velocity, components.Body]
	speedMultiplier float64
}

// NewTemperatureSystem creates a new temperature system.
func NewTemperatureSystem(w *ecs.World, speedMultiplier float64) *TemperatureSystem {
	return &TemperatureSystem{
		filter:          ecs.NewFilter2[components.Velocity, components.Body](w),
		speedMultiplier: speedMultiplier,
	}
}

// TargetSpeed returns the coupled speed for a particle of the given mass.
func (s *TemperatureSystem) TargetSpeed(temperature, mass float64) float64 {
	return TargetSpeed(temperature, s.speedMultiplier, mass)
}

// Apply rescales every moving particle to the speed implied by temperature.
// Returns the number of particles rescaled.
func (s *TemperatureSystem) Apply(temperature float64) int {
	n := 0
	query := s.filter.Query()
	for query.Next() {
		vel, body := query.Get()
		if Rescale(vel, s.TargetSpeed(temperature, body.Mass)) {
			n++
		}
	}
	return n
}
