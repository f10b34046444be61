package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/kinetics/components"
	"github.com/pthm-cable/kinetics/config"
)

func speciesCollider(species uint16, x, y, vx, vy float64) Collider {
	c := newCollider(uint64(species)+1, x, y, vx, vy, 5, 1)
	c.Species = species
	return c
}

func TestReactionTableEvaluate(t *testing.T) {
	const a, b, c, d = 0, 1, 2, 3
	table := NewReactionTable([]Rule{
		{A: a, B: b, Products: []uint16{c}, Threshold: 10, Probability: 1},
		{A: a, B: b, Products: []uint16{d}, Threshold: 0, Probability: 1},
		{A: c, B: d, Products: nil, Threshold: 0, Probability: 0.5},
	})

	tests := []struct {
		name      string
		x, y      Collider
		draw      float64
		wantRule  int
		wantOK    bool
		wantDraws int
	}{
		{
			// KE = 2 * 0.5 * 16 = 16
			name: "first rule wins when hot", x: speciesCollider(a, 0, 0, 4, 0), y: speciesCollider(b, 9, 0, -4, 0),
			draw: 0.99, wantRule: 0, wantOK: true, wantDraws: 1,
		},
		{
			name: "order of reactants does not matter", x: speciesCollider(b, 0, 0, 4, 0), y: speciesCollider(a, 9, 0, -4, 0),
			draw: 0.5, wantRule: 0, wantOK: true, wantDraws: 1,
		},
		{
			name: "cold pair falls through to second rule", x: speciesCollider(a, 0, 0, 1, 0), y: speciesCollider(b, 9, 0, -1, 0),
			draw: 0.5, wantRule: 1, wantOK: true, wantDraws: 1,
		},
		{
			name: "probability gate fails", x: speciesCollider(c, 0, 0, 1, 0), y: speciesCollider(d, 9, 0, -1, 0),
			draw: 0.5, wantRule: -1, wantOK: false, wantDraws: 1,
		},
		{
			name: "probability gate passes", x: speciesCollider(d, 0, 0, 1, 0), y: speciesCollider(c, 9, 0, -1, 0),
			draw: 0.49, wantRule: 2, wantOK: true, wantDraws: 1,
		},
		{
			name: "no matching rule never draws", x: speciesCollider(a, 0, 0, 1, 0), y: speciesCollider(a, 9, 0, -1, 0),
			draw: 0, wantRule: -1, wantOK: false, wantDraws: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draws := 0
			draw := func() float64 {
				draws++
				return tt.draw
			}
			x, y := tt.x, tt.y
			idx, ok := table.Evaluate(&x, &y, draw)
			if idx != tt.wantRule || ok != tt.wantOK {
				t.Errorf("Evaluate = (%d, %v), want (%d, %v)", idx, ok, tt.wantRule, tt.wantOK)
			}
			if draws != tt.wantDraws {
				t.Errorf("draws = %d, want %d", draws, tt.wantDraws)
			}
		})
	}
}

func TestReactionEnergyGateSkipsDraw(t *testing.T) {
	table := NewReactionTable([]Rule{{A: 0, B: 1, Threshold: 100, Probability: 1}})
	x, y := speciesCollider(0, 0, 0, 1, 0), speciesCollider(1, 9, 0, -1, 0)
	idx, ok := table.Evaluate(&x, &y, func() float64 {
		t.Fatal("draw called for a pair below the activation energy")
		return 0
	})
	if ok || idx != -1 {
		t.Errorf("Evaluate = (%d, %v), want (-1, false)", idx, ok)
	}
}

func TestEmptyReactionTable(t *testing.T) {
	var table *ReactionTable
	x, y := speciesCollider(0, 0, 0, 1, 0), speciesCollider(1, 9, 0, -1, 0)
	if _, ok := table.Evaluate(&x, &y, func() float64 { return 0 }); ok {
		t.Error("nil table should never react")
	}
}

func TestPlaceProductsConservesMomentum(t *testing.T) {
	bounds := Bounds{Width: 500, Height: 500, Policy: config.BoundaryReflecting}
	a := newCollider(1, 100, 100, 3, 1, 5, 1)
	b := newCollider(2, 108, 100, -1, 2, 5, 3)

	tests := []struct {
		name   string
		bodies []components.Body
	}{
		{"single product", []components.Body{{Radius: 8, Mass: 4}}},
		{"two products", []components.Body{{Radius: 5, Mass: 1}, {Radius: 5, Mass: 3}}},
		{"three products", []components.Body{{Radius: 4, Mass: 2}, {Radius: 4, Mass: 2}, {Radius: 4, Mass: 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := make([]uint16, len(tt.bodies))
			out := PlaceProducts(&a, &b, products, tt.bodies, bounds)
			if len(out) != len(tt.bodies) {
				t.Fatalf("got %d placements, want %d", len(out), len(tt.bodies))
			}

			wantX, wantY := momentum(&a, &b)
			var gotX, gotY float64
			for _, p := range out {
				gotX += p.Body.Mass * p.Velocity.X
				gotY += p.Body.Mass * p.Velocity.Y
				if !bounds.Inside(p.Position, p.Body.Radius) {
					t.Errorf("product placed outside bounds at %+v", p.Position)
				}
			}
			if math.Abs(gotX-wantX) > 1e-9 || math.Abs(gotY-wantY) > 1e-9 {
				t.Errorf("momentum = (%f,%f), want (%f,%f)", gotX, gotY, wantX, wantY)
			}
		})
	}
}

func TestPlaceProductsAtMidpoint(t *testing.T) {
	bounds := Bounds{Width: 500, Height: 500}
	a := newCollider(1, 100, 100, 1, 0, 5, 1)
	b := newCollider(2, 108, 106, -1, 0, 5, 1)
	out := PlaceProducts(&a, &b, []uint16{7}, []components.Body{{Radius: 6, Mass: 2}}, bounds)
	if out[0].Position.X != 104 || out[0].Position.Y != 103 {
		t.Errorf("product at %+v, want midpoint (104,103)", out[0].Position)
	}
	if out[0].Species != 7 {
		t.Errorf("species = %d, want 7", out[0].Species)
	}
}

func TestPlaceProductsSpreadsAlongTangent(t *testing.T) {
	bounds := Bounds{Width: 500, Height: 500}
	a := newCollider(1, 100, 100, 0, 0, 5, 1)
	b := newCollider(2, 108, 100, 0, 0, 5, 1)
	bodies := []components.Body{{Radius: 5, Mass: 1}, {Radius: 5, Mass: 1}}
	out := PlaceProducts(&a, &b, []uint16{0, 0}, bodies, bounds)

	// Contact normal is +x, so products separate along y
	if out[0].Position.X != 104 || out[1].Position.X != 104 {
		t.Errorf("products should share the midpoint x, got %f and %f", out[0].Position.X, out[1].Position.X)
	}
	if gap := math.Abs(out[1].Position.Y - out[0].Position.Y); math.Abs(gap-10) > 1e-9 {
		t.Errorf("product gap = %f, want 10", gap)
	}
}

func TestPlaceProductsEmpty(t *testing.T) {
	a := newCollider(1, 100, 100, 0, 0, 5, 1)
	b := newCollider(2, 108, 100, 0, 0, 5, 1)
	if out := PlaceProducts(&a, &b, nil, nil, wideBounds); out != nil {
		t.Errorf("expected no placements, got %v", out)
	}
}
