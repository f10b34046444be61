package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/kinetics/components"
)

// Rule is a compiled reaction rule. Species are catalog indices.
type Rule struct {
	A, B        uint16
	Products    []uint16
	Threshold   float64 // effective activation energy
	Probability float64
}

// Matches reports whether the rule applies to the species pair, in either order.
func (r *Rule) Matches(a, b uint16) bool {
	return (r.A == a && r.B == b) || (r.A == b && r.B == a)
}

// ReactionTable holds rules in declaration order.
type ReactionTable struct {
	rules []Rule
}

// NewReactionTable creates a table. The slice is copied.
func NewReactionTable(rules []Rule) *ReactionTable {
	return &ReactionTable{rules: append([]Rule(nil), rules...)}
}

// Len returns the number of rules.
func (t *ReactionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

// Rule returns the rule at index i.
func (t *ReactionTable) Rule(i int) *Rule {
	return &t.rules[i]
}

// CollisionEnergy returns the summed kinetic energy of the pair.
func CollisionEnergy(a, b *Collider) float64 {
	return a.KineticEnergy() + b.KineticEnergy()
}

// Evaluate scans rules in declaration order and returns the index of the
// first rule that matches the pair's species, passes the energy gate and
// whose probability draw succeeds. draw is only called for rules that pass
// the energy gate.
func (t *ReactionTable) Evaluate(a, b *Collider, draw func() float64) (int, bool) {
	if t.Len() == 0 {
		return -1, false
	}
	energy := CollisionEnergy(a, b)
	for i := range t.rules {
		r := &t.rules[i]
		if !r.Matches(a.Species, b.Species) {
			continue
		}
		if energy < r.Threshold {
			continue
		}
		if draw() < r.Probability {
			return i, true
		}
	}
	return -1, false
}

// Placement is where and how fast a product particle is born.
type Placement struct {
	Species  uint16
	Position components.Position
	Velocity components.Velocity
	Body     components.Body
}

// PlaceProducts computes product particles for a reacting pair.
//
// Products share the reactants' centre-of-mass velocity scaled by the mass
// ratio M/(n·mk), which keeps total momentum unchanged. They are placed at
// the contact midpoint, spread along the tangent when there are several,
// and clamped inside bounds. bodies[k] is the body of products[k].
func PlaceProducts(a, b *Collider, products []uint16, bodies []components.Body, bounds Bounds) []Placement {
	n := len(products)
	if n == 0 {
		return nil
	}

	m1, m2 := a.Body.Mass, b.Body.Mass
	total := m1 + m2
	momentum := r2.Add(r2.Scale(m1, a.Vel.Vec()), r2.Scale(m2, b.Vel.Vec()))
	vcm := r2.Scale(1/total, momentum)
	mid := r2.Scale(0.5, r2.Add(a.Pos.Vec(), b.Pos.Vec()))

	// Tangent to the contact normal; fall back to the x axis for
	// coincident centres.
	tangent := r2.Vec{X: 1}
	if d := r2.Sub(b.Pos.Vec(), a.Pos.Vec()); r2.Norm(d) > 0 {
		u := r2.Unit(d)
		tangent = r2.Vec{X: -u.Y, Y: u.X}
	}

	spacing := 0.0
	for _, body := range bodies {
		spacing = math.Max(spacing, 2*body.Radius)
	}

	out := make([]Placement, n)
	for k, species := range products {
		body := bodies[k]
		offset := (float64(k) - float64(n-1)/2) * spacing
		pos := components.Position{}
		pos.Set(r2.Add(mid, r2.Scale(offset, tangent)))
		bounds.Clamp(&pos, body.Radius)

		vel := components.Velocity{}
		vel.Set(r2.Scale(total/(float64(n)*body.Mass), vcm))

		out[k] = Placement{Species: species, Position: pos, Velocity: vel, Body: body}
	}
	return out
}
