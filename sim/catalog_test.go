package sim

import (
	"testing"

	"github.com/pthm-cable/kinetics/config"
)

func TestCatalog(t *testing.T) {
	cat := NewCatalog([]config.SpeciesConfig{
		{ID: "A", Color: "#ff0000", Radius: 4, Mass: 1},
		{ID: "B", Label: "Bravo", Color: "#00ff00", Stroke: "#ffffff", Radius: 6, Mass: 3},
	})

	if cat.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cat.Len())
	}
	idx, ok := cat.Lookup("B")
	if !ok || idx != 1 {
		t.Fatalf("Lookup(B) = %d,%v", idx, ok)
	}
	if _, ok := cat.Lookup("Z"); ok {
		t.Error("Lookup(Z) should fail")
	}

	b := cat.At(idx)
	if b.Label != "Bravo" || b.Stroke.A != 255 {
		t.Errorf("species B = %+v", b)
	}
	if a := cat.At(0); a.Label != "A" || a.Stroke.A != 0 {
		t.Errorf("species A label/stroke = %q/%v, want id fallback and no outline", a.Label, a.Stroke)
	}
	if body := b.Body(); body.Radius != 6 || body.Mass != 3 {
		t.Errorf("Body = %+v", body)
	}
}

func TestCatalog_AtOutOfRangePanics(t *testing.T) {
	cat := NewCatalog([]config.SpeciesConfig{{ID: "A", Color: "#ff0000", Radius: 1, Mass: 1}})
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	cat.At(3)
}

func TestCompileRules(t *testing.T) {
	cfg := &config.Config{
		Physics: config.PhysicsConfig{ActivationEnergyFloor: 10},
		Species: []config.SpeciesConfig{
			{ID: "A"}, {ID: "B"}, {ID: "C"},
		},
		Reactions: []config.ReactionConfig{
			{Reactants: []string{"A", "B"}, Products: []string{"C"}, ActivationEnergy: ptr(25.0)},
			{Reactants: []string{"C", "C"}, Products: []string{"A", "B", "B"}, ActivationEnergy: ptr(4.0), Probability: ptr(0.25)},
			{Reactants: []string{"A", "A"}},
		},
	}
	rules, equations := compileRules(cfg, NewCatalog(cfg.Species))

	tests := []struct {
		threshold   float64
		probability float64
		products    int
		equation    string
	}{
		{25, 1, 1, "A + B -> C"},
		{10, 0.25, 3, "C + C -> A + B + B"},
		{10, 1, 0, "A + A -> "},
	}
	for i, tt := range tests {
		r := rules[i]
		if r.Threshold != tt.threshold || r.Probability != tt.probability || len(r.Products) != tt.products {
			t.Errorf("rule %d = %+v", i, r)
		}
		if equations[i] != tt.equation {
			t.Errorf("equation %d = %q, want %q", i, equations[i], tt.equation)
		}
	}
	if !rules[1].Matches(2, 2) || rules[0].Matches(0, 0) {
		t.Error("compiled reactant indices are wrong")
	}
}
