package sim

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pthm-cable/kinetics/components"
	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/systems"
)

// Species is one immutable catalog entry.
type Species struct {
	ID     string      `json:"id"`
	Label  string      `json:"label"`
	Index  uint16      `json:"index"`
	Radius float64     `json:"radius"`
	Mass   float64     `json:"mass"`
	Color  config.RGBA `json:"color"`
	Stroke config.RGBA `json:"stroke"` // zero alpha means no outline
}

// Body returns the physical body a particle of this species spawns with.
func (s *Species) Body() components.Body {
	return components.Body{Radius: s.Radius, Mass: s.Mass}
}

// Catalog is the immutable species table of an engine.
type Catalog struct {
	species []Species
	index   map[string]uint16
}

// NewCatalog builds a catalog from validated species configs.
func NewCatalog(cfgs []config.SpeciesConfig) *Catalog {
	c := &Catalog{
		species: make([]Species, len(cfgs)),
		index:   make(map[string]uint16, len(cfgs)),
	}
	for i, sc := range cfgs {
		s := Species{
			ID:     sc.ID,
			Label:  sc.DisplayLabel(),
			Index:  uint16(i),
			Radius: sc.Radius,
			Mass:   sc.Mass,
			Color:  config.ColorOrWhite(sc.Color),
		}
		if sc.Stroke != "" {
			s.Stroke = config.ColorOrWhite(sc.Stroke)
		}
		c.species[i] = s
		c.index[sc.ID] = uint16(i)
	}
	return c
}

// Len returns the number of species.
func (c *Catalog) Len() int { return len(c.species) }

// At returns the species at index i. An index outside the catalog means
// the pool is corrupted and panics.
func (c *Catalog) At(i uint16) *Species {
	if int(i) >= len(c.species) {
		panic(fmt.Sprintf("sim: species index %d outside catalog of %d", i, len(c.species)))
	}
	return &c.species[i]
}

// Lookup returns the index of the species with the given id.
func (c *Catalog) Lookup(id string) (uint16, bool) {
	i, ok := c.index[id]
	return i, ok
}

// IDs returns the species ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.species))
	for i := range c.species {
		ids[i] = c.species[i].ID
	}
	return ids
}

// All returns a copy of the catalog entries in catalog order.
func (c *Catalog) All() []Species {
	return slices.Clone(c.species)
}

// compileRules resolves reaction configs against the catalog.
// Returns the rules and a human-readable equation per rule.
func compileRules(cfg *config.Config, cat *Catalog) ([]systems.Rule, []string) {
	rules := make([]systems.Rule, len(cfg.Reactions))
	equations := make([]string, len(cfg.Reactions))
	for i, rc := range cfg.Reactions {
		a, _ := cat.Lookup(rc.Reactants[0])
		b, _ := cat.Lookup(rc.Reactants[1])

		products := make([]uint16, len(rc.Products))
		for k, id := range rc.Products {
			products[k], _ = cat.Lookup(id)
		}

		threshold := cfg.Physics.ActivationEnergyFloor
		if rc.ActivationEnergy != nil && *rc.ActivationEnergy > threshold {
			threshold = *rc.ActivationEnergy
		}
		probability := 1.0
		if rc.Probability != nil {
			probability = *rc.Probability
		}

		rules[i] = systems.Rule{
			A:           a,
			B:           b,
			Products:    products,
			Threshold:   threshold,
			Probability: probability,
		}
		equations[i] = Equation(rc)
	}
	return rules, equations
}

// Equation formats a reaction as "A + B -> C + D".
func Equation(rc config.ReactionConfig) string {
	return strings.Join(rc.Reactants, " + ") + " -> " + strings.Join(rc.Products, " + ")
}
