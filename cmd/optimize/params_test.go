package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/kinetics/config"
)

func TestParamVector_FromConfig(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)

	if got, want := pv.Dim(), 1+2*len(cfg.Reactions); got != want {
		t.Fatalf("Dim() = %d, want %d", got, want)
	}
	def := pv.DefaultVector()
	if def[0] != cfg.Physics.Temperature {
		t.Errorf("default temperature = %v, want %v", def[0], cfg.Physics.Temperature)
	}
	if def[1] != *cfg.Reactions[0].ActivationEnergy {
		t.Errorf("default activation = %v, want %v", def[1], *cfg.Reactions[0].ActivationEnergy)
	}
}

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("param %s: got %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestParamVector_ApplyClamps(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)
	values := make([]float64, pv.Dim())
	values[0] = -5
	values[1] = maxActivation * 2
	values[2] = 0

	pv.ApplyToConfig(cfg, values)

	if cfg.Physics.Temperature != minTemperature {
		t.Errorf("temperature = %v, want %v", cfg.Physics.Temperature, minTemperature)
	}
	if got := *cfg.Reactions[0].ActivationEnergy; got != maxActivation {
		t.Errorf("activation = %v, want %v", got, maxActivation)
	}
	if got := *cfg.Reactions[0].Probability; got != minProbability {
		t.Errorf("probability = %v, want %v", got, minProbability)
	}
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Targets
		wantErr bool
	}{
		{"single", "C=0.5", Targets{"C": 0.5}, false},
		{"several with spaces", "C=0.6, A = 0.2", Targets{"C": 0.6, "A": 0.2}, false},
		{"empty", "", nil, true},
		{"missing share", "C", nil, true},
		{"not a number", "C=x", nil, true},
		{"out of range", "C=1.5", nil, true},
		{"sum above one", "A=0.6,B=0.6", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTargets(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for id, v := range tt.want {
				if got[id] != v {
					t.Errorf("%s = %v, want %v", id, got[id], v)
				}
			}
		})
	}
}

func TestCompositionError(t *testing.T) {
	run := &runResult{shares: map[string][]float64{
		// first half is warmup
		"C": {0, 0, 0.5, 0.5},
	}}
	if got := compositionError(run, Targets{"C": 0.5}); math.Abs(got) > 1e-12 {
		t.Errorf("exact match error = %v, want 0", got)
	}
	if got := compositionError(run, Targets{"C": 0.25}); math.Abs(got-0.0625) > 1e-12 {
		t.Errorf("error = %v, want 0.0625", got)
	}
	if got := compositionError(run, Targets{"A": 0.5}); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("unsampled species error = %v, want 0.25", got)
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	if cv := coefficientOfVariation([]float64{2, 2, 2}); cv != 0 {
		t.Errorf("constant series cv = %v, want 0", cv)
	}
	if cv := coefficientOfVariation([]float64{1}); !math.IsNaN(cv) {
		t.Errorf("single sample cv = %v, want NaN", cv)
	}
	if cv := coefficientOfVariation([]float64{0, 0}); !math.IsNaN(cv) {
		t.Errorf("zero mean cv = %v, want NaN", cv)
	}
}

func TestEvaluate_DefaultsRun(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector(cfg)
	fe := NewFitnessEvaluator(pv, Targets{"C": 0.5}, 2*cfg.Telemetry.StatsWindow, []int64{1, 2}, "", "")

	f := fe.Evaluate(pv.DefaultVector())
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		t.Fatalf("fitness = %v, want finite and non-negative", f)
	}
	run := fe.BestRun()
	if len(run["C"]) != 2 {
		t.Errorf("samples = %d, want 2", len(run["C"]))
	}
}
