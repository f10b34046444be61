package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalid is wrapped by every configuration error reported by Validate.
var ErrInvalid = errors.New("invalid configuration")

// maxSpecies bounds the catalog so species indices fit in a uint16.
const maxSpecies = math.MaxUint16

// Validate checks the configuration and refreshes derived values.
// All problems are reported together; each wraps ErrInvalid.
func (c *Config) Validate() error {
	c.computeDerived()

	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	// Container
	if !(c.Container.Width > 0) {
		bad("container.width must be positive, got %v", c.Container.Width)
	}
	if !(c.Container.Height > 0) {
		bad("container.height must be positive, got %v", c.Container.Height)
	}
	switch c.Container.Boundary {
	case BoundaryReflecting, BoundaryAbsorbing:
	default:
		bad("container.boundary must be %q or %q, got %q", BoundaryReflecting, BoundaryAbsorbing, c.Container.Boundary)
	}

	// Physics
	p := c.Physics
	if !(p.Friction >= 0 && p.Friction < 1) {
		bad("physics.friction must be in [0,1), got %v", p.Friction)
	}
	if !(p.SpeedMultiplier >= 0) {
		bad("physics.speed_multiplier must not be negative, got %v", p.SpeedMultiplier)
	}
	if !(p.ActivationEnergyFloor >= 0) {
		bad("physics.activation_energy_floor must not be negative, got %v", p.ActivationEnergyFloor)
	}
	if !(p.Temperature >= 0) {
		bad("physics.temperature must not be negative, got %v", p.Temperature)
	}
	if math.IsInf(p.Gravity, 0) || math.IsNaN(p.Gravity) {
		bad("physics.gravity must be finite, got %v", p.Gravity)
	}
	switch p.Broadphase {
	case BroadphaseNaive, BroadphaseGrid:
	default:
		bad("physics.broadphase must be %q or %q, got %q", BroadphaseNaive, BroadphaseGrid, p.Broadphase)
	}
	if p.GridCellSize < 0 {
		bad("physics.grid_cell_size must not be negative, got %v", p.GridCellSize)
	}

	if p.MaxParticles < 0 {
		bad("physics.max_particles must not be negative, got %d", p.MaxParticles)
	}

	// Species catalog
	if len(c.Species) == 0 {
		bad("species: catalog is empty")
	}
	if len(c.Species) > maxSpecies {
		bad("species: at most %d entries, got %d", maxSpecies, len(c.Species))
	}
	seen := make(map[string]bool, len(c.Species))
	for i, s := range c.Species {
		if s.ID == "" {
			bad("species[%d].id is empty", i)
		} else if seen[s.ID] {
			bad("species[%d].id %q is duplicated", i, s.ID)
		}
		seen[s.ID] = true
		if !(s.Radius > 0) {
			bad("species[%d] (%s).radius must be positive, got %v", i, s.ID, s.Radius)
		}
		if !(s.Mass > 0) {
			bad("species[%d] (%s).mass must be positive, got %v", i, s.ID, s.Mass)
		}
		if _, err := ParseColor(s.Color); err != nil {
			bad("species[%d] (%s).color: %v", i, s.ID, err)
		}
		if s.Stroke != "" {
			if _, err := ParseColor(s.Stroke); err != nil {
				bad("species[%d] (%s).stroke: %v", i, s.ID, err)
			}
		}
	}

	// Initial spawn
	initial := 0
	for i, g := range c.InitialSpawn {
		initial += max(g.Count, 0)
		if !seen[g.Species] {
			bad("initial_spawn[%d].species %q is not in the catalog", i, g.Species)
		}
		if g.Count < 0 {
			bad("initial_spawn[%d].count must not be negative, got %d", i, g.Count)
		}
		if g.Speed != nil && !(*g.Speed >= 0) {
			bad("initial_spawn[%d].speed must not be negative, got %v", i, *g.Speed)
		}
	}
	if p.MaxParticles > 0 && initial > p.MaxParticles {
		bad("initial_spawn totals %d particles, above physics.max_particles %d", initial, p.MaxParticles)
	}

	// Reactions
	for i, r := range c.Reactions {
		if len(r.Reactants) != 2 {
			bad("reactions[%d].reactants must name exactly two species, got %d", i, len(r.Reactants))
		}
		for _, id := range r.Reactants {
			if !seen[id] {
				bad("reactions[%d] reactant %q is not in the catalog", i, id)
			}
		}
		for _, id := range r.Products {
			if !seen[id] {
				bad("reactions[%d] product %q is not in the catalog", i, id)
			}
		}
		if r.ActivationEnergy != nil && !(*r.ActivationEnergy >= 0) {
			bad("reactions[%d].activation_energy must not be negative, got %v", i, *r.ActivationEnergy)
		}
		if r.Probability != nil && !(*r.Probability >= 0 && *r.Probability <= 1) {
			bad("reactions[%d].probability must be in [0,1], got %v", i, *r.Probability)
		}
	}

	// Highlights
	for i, h := range c.Highlights {
		if _, err := ParseColor(h.Color); err != nil {
			bad("highlights[%d].color: %v", i, err)
		}
	}

	return errors.Join(errs...)
}
