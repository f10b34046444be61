package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/kinetics/components"
)

// Collider is one particle's view during the collision stage.
// Pos, Vel and Body point into pool storage and stay valid until the
// pool's membership changes.
type Collider struct {
	Entity  ecs.Entity
	ID      uint64
	Species uint16
	Pos     *components.Position
	Vel     *components.Velocity
	Body    *components.Body

	// Consumed is set when the particle reacted this tick.
	Consumed bool
}

// KineticEnergy returns ½·m·|v|² for the collider.
func (c *Collider) KineticEnergy() float64 {
	return c.Body.KineticEnergy(*c.Vel)
}

// Overlapping reports whether two particles' circles intersect:
// |p1-p2| < r1+r2.
func Overlapping(a, b *Collider) bool {
	d := r2.Sub(b.Pos.Vec(), a.Pos.Vec())
	rr := a.Body.Radius + b.Body.Radius
	return r2.Norm2(d) < rr*rr
}

// Resolution describes what ResolveElastic did to a pair.
type Resolution uint8

const (
	Resolved   Resolution = iota // momentum exchanged and overlap removed
	Separating                   // moving apart along the normal, untouched
	Coincident                   // centres coincide, normal undefined, untouched
)

// ResolveElastic applies a 2D elastic collision response along the contact
// normal n = (p2-p1)/|p2-p1| and pushes both particles apart by half the
// penetration depth each. Pairs already separating (dvn < 0) and pairs
// with coincident centres are left unchanged. Pushed positions are clamped
// inside bounds.
func ResolveElastic(a, b *Collider, bounds Bounds) Resolution {
	p1, p2 := a.Pos.Vec(), b.Pos.Vec()
	delta := r2.Sub(p2, p1)
	dist := r2.Norm(delta)
	if dist == 0 {
		return Coincident
	}
	n := r2.Scale(1/dist, delta)

	v1, v2 := a.Vel.Vec(), b.Vel.Vec()
	dvn := r2.Dot(r2.Sub(v1, v2), n)
	if dvn < 0 {
		return Separating
	}

	m1, m2 := a.Body.Mass, b.Body.Mass
	factor := 2 * dvn / (m1 + m2)
	a.Vel.Set(r2.Sub(v1, r2.Scale(factor*m2, n)))
	b.Vel.Set(r2.Add(v2, r2.Scale(factor*m1, n)))

	// De-overlap symmetrically
	penetration := a.Body.Radius + b.Body.Radius - dist
	if penetration > 0 {
		push := r2.Scale(penetration/2, n)
		a.Pos.Set(r2.Sub(p1, push))
		b.Pos.Set(r2.Add(p2, push))
		bounds.Clamp(a.Pos, a.Body.Radius)
		bounds.Clamp(b.Pos, b.Body.Radius)
	}
	return Resolved
}

// PairScanner enumerates candidate collision pairs.
//
// Scan calls visit(i, j) with i < j in ascending lexicographic order. It
// stops visiting pairs for i once cs[i].Consumed is set and skips j with
// cs[j].Consumed set. visit may move cs[i] and cs[j]. Implementations may
// omit pairs only when they cannot overlap at the moment they would have
// been visited, so every scanner yields the same overlapping pairs in the
// same order as NaiveScanner.
type PairScanner interface {
	Scan(cs []Collider, visit func(i, j int))
}

// NaiveScanner visits every unordered pair: O(n²).
type NaiveScanner struct{}

// Scan implements PairScanner.
func (NaiveScanner) Scan(cs []Collider, visit func(i, j int)) {
	for i := range cs {
		for j := i + 1; j < len(cs); j++ {
			if cs[i].Consumed {
				break
			}
			if cs[j].Consumed {
				continue
			}
			visit(i, j)
		}
	}
}
