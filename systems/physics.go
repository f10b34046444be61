// Package systems contains the per-tick pipeline stages of the simulation.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/kinetics/components"
	"github.com/pthm-cable/kinetics/config"
)

// Kinematics holds the per-tick integration parameters.
type Kinematics struct {
	Gravity  float64
	Friction float64
}

// Integrate advances one particle by one tick.
// Gravity is applied first, then friction damps the whole velocity
// (including this tick's gravity), then the position moves.
func (k Kinematics) Integrate(pos *components.Position, vel *components.Velocity) {
	vel.Y += k.Gravity
	damp := 1 - k.Friction
	vel.X *= damp
	vel.Y *= damp
	pos.X += vel.X
	pos.Y += vel.Y
}

// Bounds represents the container.
type Bounds struct {
	Width, Height float64
	Policy        config.Boundary
}

// Contain clamps a particle of the given radius inside the container and
// applies the boundary policy to the velocity component of each axis that
// crossed a wall. Returns true if any wall was hit.
func (b Bounds) Contain(pos *components.Position, vel *components.Velocity, radius float64) bool {
	hitX := containAxis(&pos.X, &vel.X, radius, b.Width, b.Policy)
	hitY := containAxis(&pos.Y, &vel.Y, radius, b.Height, b.Policy)
	return hitX || hitY
}

// Clamp moves a position inside the container without touching velocity.
func (b Bounds) Clamp(pos *components.Position, radius float64) {
	pos.X = clampRange(pos.X, radius, b.Width-radius)
	pos.Y = clampRange(pos.Y, radius, b.Height-radius)
}

// Inside reports whether a particle of the given radius lies within
// [r, extent-r] on both axes.
func (b Bounds) Inside(pos components.Position, radius float64) bool {
	return pos.X >= radius && pos.X <= b.Width-radius &&
		pos.Y >= radius && pos.Y <= b.Height-radius
}

func containAxis(p, v *float64, radius, extent float64, policy config.Boundary) bool {
	lo, hi := radius, extent-radius
	if lo > hi {
		// Particle wider than the container: pin to the centre.
		*p = extent / 2
		*v = 0
		return true
	}

	switch {
	case *p < lo:
		*p = lo
		if policy == config.BoundaryReflecting {
			// Only flip if still heading into the wall
			if *v < 0 {
				*v = -*v
			}
		} else {
			*v = 0
		}
		return true
	case *p > hi:
		*p = hi
		if policy == config.BoundaryReflecting {
			if *v > 0 {
				*v = -*v
			}
		} else {
			*v = 0
		}
		return true
	}
	return false
}

func clampRange(x, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// PhysicsSystem runs the kinematics and boundary stages over the pool.
type PhysicsSystem struct {
	filter     *ecs.Filter3[components.Position, components.Velocity, components.Body]
	kinematics Kinematics
	bounds     Bounds
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, k Kinematics, bounds Bounds) *PhysicsSystem {
	return &PhysicsSystem{
		filter:     ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		kinematics: k,
		bounds:     bounds,
	}
}

// Bounds returns the container the system clamps against.
func (s *PhysicsSystem) Bounds() Bounds {
	return s.bounds
}

// Integrate runs the kinematics stage for every particle.
func (s *PhysicsSystem) Integrate() {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, _ := query.Get()
		s.kinematics.Integrate(pos, vel)
	}
}

// Contain runs the boundary stage for every particle and returns the
// number of wall hits.
func (s *PhysicsSystem) Contain() int {
	hits := 0
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()
		if s.bounds.Contain(pos, vel, body.Radius) {
			hits++
		}
	}
	return hits
}
