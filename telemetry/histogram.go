package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram is a binned speed distribution.
type Histogram struct {
	Edges  []float64 // len(Counts)+1 bin boundaries
	Counts []float64
}

// Max returns the largest bin count.
func (h Histogram) Max() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	return floats.Max(h.Counts)
}

// SpeedHistogram bins speeds into evenly spaced bins over [0, maxSpeed].
// A non-positive maxSpeed uses the largest sample. Speeds above maxSpeed
// land in the last bin.
func SpeedHistogram(speeds []float64, bins int, maxSpeed float64) Histogram {
	if bins < 1 {
		bins = 1
	}
	if maxSpeed <= 0 && len(speeds) > 0 {
		maxSpeed = floats.Max(speeds)
	}
	if maxSpeed <= 0 {
		maxSpeed = 1
	}

	edges := make([]float64, bins+1)
	floats.Span(edges, 0, maxSpeed)

	h := Histogram{Edges: edges, Counts: make([]float64, bins)}
	if len(speeds) == 0 {
		return h
	}

	x := make([]float64, len(speeds))
	for i, s := range speeds {
		x[i] = math.Max(0, math.Min(s, maxSpeed))
	}
	sort.Float64s(x)

	// stat.Histogram wants the last divider strictly above every sample.
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(maxSpeed, math.Inf(1))
	stat.Histogram(h.Counts, dividers, x, nil)
	return h
}
