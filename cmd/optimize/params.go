package main

import (
	"fmt"

	"github.com/pthm-cable/kinetics/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// Bounds for the generated specs.
const (
	minTemperature = 10.0
	maxTemperature = 2000.0
	maxActivation  = 200.0
	minProbability = 0.01
)

// ParamVector holds the set of all optimizable parameters: the initial
// temperature followed by activation energy and probability per reaction.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector builds the parameter set for the reactions in cfg, with
// defaults taken from cfg.
func NewParamVector(cfg *config.Config) *ParamVector {
	specs := []ParamSpec{{
		Name:    "temperature",
		Path:    "physics.temperature",
		Min:     minTemperature,
		Max:     maxTemperature,
		Default: clampTo(cfg.Physics.Temperature, minTemperature, maxTemperature),
	}}
	for i, r := range cfg.Reactions {
		ea := cfg.Physics.ActivationEnergyFloor
		if r.ActivationEnergy != nil {
			ea = *r.ActivationEnergy
		}
		p := 1.0
		if r.Probability != nil {
			p = *r.Probability
		}
		specs = append(specs,
			ParamSpec{
				Name:    fmt.Sprintf("r%d_activation", i),
				Path:    fmt.Sprintf("reactions[%d].activation_energy", i),
				Min:     0,
				Max:     maxActivation,
				Default: clampTo(ea, 0, maxActivation),
			},
			ParamSpec{
				Name:    fmt.Sprintf("r%d_probability", i),
				Path:    fmt.Sprintf("reactions[%d].probability", i),
				Min:     minProbability,
				Max:     1,
				Default: clampTo(p, minProbability, 1),
			},
		)
	}
	return &ParamVector{Specs: specs}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = clampTo(v[i], spec.Min, spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Physics.Temperature = clamped[0]
	for i := range cfg.Reactions {
		ea := clamped[1+2*i]
		p := clamped[2+2*i]
		cfg.Reactions[i].ActivationEnergy = &ea
		cfg.Reactions[i].Probability = &p
	}
}

func clampTo(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
