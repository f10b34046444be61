package main

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/sim"
)

// Fitness weights and sampling.
const (
	stabilityWeight = 0.1 // weight of the squared coefficient of variation
	warmupFraction  = 0.5 // leading share of samples ignored as transient
)

// Targets maps species id to the desired equilibrium share of all particles.
type Targets map[string]float64

// ParseTargets reads "C=0.5,A=0.25" into Targets. Shares must lie in [0,1]
// and sum to at most 1.
func ParseTargets(s string) (Targets, error) {
	t := Targets{}
	var sum float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("target %q: want species=share", part)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", part, err)
		}
		if f < 0 || f > 1 {
			return nil, fmt.Errorf("target %q: share outside [0,1]", part)
		}
		t[strings.TrimSpace(id)] = f
		sum += f
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("no targets in %q", s)
	}
	if sum > 1+1e-9 {
		return nil, fmt.Errorf("target shares sum to %.3f, want <= 1", sum)
	}
	return t, nil
}

// IDs returns the target species in sorted order.
func (t Targets) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// runResult holds the sampled composition of a single run.
type runResult struct {
	shares map[string][]float64 // per target species, one sample per window
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	run     *runResult
}

// FitnessEvaluator runs headless simulations and scores how close their
// late-run composition is to the targets.
type FitnessEvaluator struct {
	params   *ParamVector
	targets  Targets
	maxTicks int
	seeds    []int64
	preset   string
	path     string
	logger   *slog.Logger

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestRun     *runResult
	lastError   float64
}

// NewFitnessEvaluator creates a new evaluator. Every run loads a fresh
// config from preset and path.
func NewFitnessEvaluator(params *ParamVector, targets Targets, maxTicks int, seeds []int64, preset, path string) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		targets:     targets,
		maxTicks:    maxTicks,
		seeds:       seeds,
		preset:      preset,
		path:        path,
		logger:      slog.New(slog.DiscardHandler),
		bestFitness: math.Inf(1),
	}
}

// BestRun returns the sampled shares of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestRun() map[string][]float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.bestRun == nil {
		return nil
	}
	return fe.bestRun.shares
}

// LastError returns the composition error of the most recent evaluation,
// without the stability penalty.
func (fe *FitnessEvaluator) LastError() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastError
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			run, err := fe.runSimulation(x, s)
			if err != nil {
				fe.logger.Error("run failed", "seed", s, "error", err)
				results[idx] = seedResult{fitness: math.Inf(1)}
				return
			}
			results[idx] = seedResult{fitness: fe.computeFitness(run), run: run}
		}(i, seed)
	}
	wg.Wait()

	var total, totalErr float64
	best := seedResult{fitness: math.Inf(1)}
	for _, r := range results {
		total += r.fitness
		if r.run != nil {
			totalErr += compositionError(r.run, fe.targets)
		}
		if r.fitness < best.fitness {
			best = r
		}
	}

	n := float64(len(fe.seeds))
	avg := total / n

	fe.mu.Lock()
	if avg < fe.bestFitness {
		fe.bestFitness = avg
		fe.bestRun = best.run
	}
	fe.lastError = totalErr / n
	fe.mu.Unlock()

	return avg
}

// runSimulation executes one headless run and samples the target species'
// shares once per stats window.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) (*runResult, error) {
	cfg, err := config.Load(fe.preset, fe.path)
	if err != nil {
		return nil, err
	}
	fe.params.ApplyToConfig(cfg, x)

	engine, err := sim.New(cfg, sim.WithSeed(seed), sim.WithLogger(fe.logger))
	if err != nil {
		return nil, err
	}
	engine.Start()

	window := max(cfg.Telemetry.StatsWindow, 1)
	result := &runResult{shares: make(map[string][]float64, len(fe.targets))}
	for tick := 1; tick <= fe.maxTicks; tick++ {
		engine.AdvanceTick()
		if tick%window != 0 {
			continue
		}
		counts := engine.Counts()
		total := float64(counts.Total())
		for id := range fe.targets {
			share := 0.0
			if total > 0 {
				share = float64(counts[id]) / total
			}
			result.shares[id] = append(result.shares[id], share)
		}
	}
	return result, nil
}

// computeFitness is the squared distance of the settled mean shares from the
// targets plus a penalty on their relative fluctuation.
func (fe *FitnessEvaluator) computeFitness(r *runResult) float64 {
	fitness := compositionError(r, fe.targets)
	for id := range fe.targets {
		if cv := coefficientOfVariation(settled(r.shares[id])); !math.IsNaN(cv) {
			fitness += stabilityWeight * cv * cv
		}
	}
	return fitness
}

// compositionError sums the squared differences between each target share
// and the settled mean share. A species never sampled counts as share 0.
func compositionError(r *runResult, targets Targets) float64 {
	var sum float64
	for id, want := range targets {
		got := 0.0
		if s := settled(r.shares[id]); len(s) > 0 {
			got = stat.Mean(s, nil)
		}
		d := got - want
		sum += d * d
	}
	return sum
}

// settled drops the warmup share of samples.
func settled(samples []float64) []float64 {
	return samples[int(float64(len(samples))*warmupFraction):]
}

// coefficientOfVariation returns std/mean, NaN when undefined.
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	mean, std := stat.MeanStdDev(values, nil)
	if mean == 0 {
		return math.NaN()
	}
	return std / mean
}
