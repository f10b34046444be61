package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of ticks.
type WindowStats struct {
	WindowStartTick int64 `csv:"-"`
	WindowEndTick   int64 `csv:"window_end"`

	// Population at window end
	Particles int            `csv:"particles"`
	Counts    map[string]int `csv:"-"`

	// Events during window
	Reactions int `csv:"reactions"`
	WallHits  int `csv:"wall_hits"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Energetics
	KineticEnergyMean  float64 `csv:"ke_mean"`
	KineticEnergyTotal float64 `csv:"ke_total"`
	Temperature        float64 `csv:"temperature"`    // coupler setting
	EstimatedTemp      float64 `csv:"estimated_temp"` // from particle speeds
}

// ParticleSample is the per-particle input to window statistics.
type ParticleSample struct {
	Speed float64
	Mass  float64
}

// KineticEnergy returns ½·m·|v|².
func (p ParticleSample) KineticEnergy() float64 {
	return 0.5 * p.Mass * p.Speed * p.Speed
}

// Percentile returns the empirical p-quantile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSpeedStats calculates mean, std and percentiles of particle speeds.
func ComputeSpeedStats(speeds []float64) (mean, std, p50, p90 float64) {
	n := len(speeds)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(speeds, nil)

	sorted := make([]float64, n)
	copy(sorted, speeds)
	sort.Float64s(sorted)

	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)
	return mean, std, p50, p90
}

// EstimateTemperature inverts the temperature coupler: a particle at
// temperature T moves at sqrt(T/100)·k/sqrt(m), so T = 100·m·|v|²/k².
// The estimate is averaged over the samples.
func EstimateTemperature(samples []ParticleSample, speedMultiplier float64) float64 {
	if len(samples) == 0 || speedMultiplier <= 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Mass * s.Speed * s.Speed
	}
	mean := sum / float64(len(samples))
	return 100 * mean / (speedMultiplier * speedMultiplier)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("particles", s.Particles),
		slog.Int("reactions", s.Reactions),
		slog.Int("wall_hits", s.WallHits),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("ke_mean", s.KineticEnergyMean),
		slog.Float64("ke_total", s.KineticEnergyTotal),
		slog.Float64("temperature", s.Temperature),
		slog.Float64("estimated_temp", s.EstimatedTemp),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	attrs := []any{
		"window_end", s.WindowEndTick,
		"particles", s.Particles,
		"reactions", s.Reactions,
		"speed_mean", s.SpeedMean,
		"ke_mean", s.KineticEnergyMean,
		"estimated_temp", s.EstimatedTemp,
	}

	species := make([]string, 0, len(s.Counts))
	for id := range s.Counts {
		species = append(species, id)
	}
	sort.Strings(species)
	for _, id := range species {
		attrs = append(attrs, "n_"+id, s.Counts[id])
	}

	slog.Info("stats", attrs...)
}
