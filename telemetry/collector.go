package telemetry

import "maps"

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowTicks     int64
	speedMultiplier float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	reactions       int
	reactionsByRule []int
	wallHits        int

	// Cumulative counters
	totalReactions int
}

// NewCollector creates a new stats collector.
// windowTicks: how many ticks each stats window covers.
// speedMultiplier: the coupler's speed scale, used to estimate temperature.
func NewCollector(windowTicks int, speedMultiplier float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks:     int64(windowTicks),
		speedMultiplier: speedMultiplier,
	}
}

// RecordReaction records one fired reaction rule.
func (c *Collector) RecordReaction(rule int) {
	c.reactions++
	c.totalReactions++
	if rule < 0 {
		return
	}
	for len(c.reactionsByRule) <= rule {
		c.reactionsByRule = append(c.reactionsByRule, 0)
	}
	c.reactionsByRule[rule]++
}

// RecordWallHits adds wall contacts from one tick.
func (c *Collector) RecordWallHits(n int) {
	c.wallHits += n
}

// ReactionsByRule returns the per-rule reaction counts for the current window.
func (c *Collector) ReactionsByRule() []int {
	return append([]int(nil), c.reactionsByRule...)
}

// TotalReactions returns reactions recorded since the collector was created.
func (c *Collector) TotalReactions() int {
	return c.totalReactions
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - currentTick: the current simulation tick
// - counts: per-species population at window end
// - samples: one entry per live particle
// - temperature: the coupler's current setting
func (c *Collector) Flush(currentTick int64, counts map[string]int, samples []ParticleSample, temperature float64) WindowStats {
	speeds := make([]float64, len(samples))
	var keTotal float64
	for i, s := range samples {
		speeds[i] = s.Speed
		keTotal += s.KineticEnergy()
	}
	speedMean, speedStd, p50, p90 := ComputeSpeedStats(speeds)

	var keMean float64
	if len(samples) > 0 {
		keMean = keTotal / float64(len(samples))
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,

		Particles: len(samples),
		Counts:    maps.Clone(counts),

		Reactions: c.reactions,
		WallHits:  c.wallHits,

		SpeedMean: speedMean,
		SpeedStd:  speedStd,
		SpeedP50:  p50,
		SpeedP90:  p90,

		KineticEnergyMean:  keMean,
		KineticEnergyTotal: keTotal,
		Temperature:        temperature,
		EstimatedTemp:      EstimateTemperature(samples, c.speedMultiplier),
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.reactions = 0
	c.reactionsByRule = c.reactionsByRule[:0]
	c.wallHits = 0

	return stats
}

// Reset restarts window tracking at tick 0, e.g. after a simulation reset.
func (c *Collector) Reset() {
	c.windowStartTick = 0
	c.reactions = 0
	c.reactionsByRule = c.reactionsByRule[:0]
	c.wallHits = 0
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
