package sim

import (
	"github.com/pthm-cable/kinetics/config"
)

type intentKind uint8

const (
	intentStart intentKind = iota
	intentPause
	intentReset
	intentAdd
	intentRemove
	intentTemperature
)

func (k intentKind) String() string {
	switch k {
	case intentStart:
		return "start"
	case intentPause:
		return "pause"
	case intentReset:
		return "reset"
	case intentAdd:
		return "add"
	case intentRemove:
		return "remove"
	case intentTemperature:
		return "temperature"
	}
	return "unknown"
}

// intent is a queued control call, applied at the next tick boundary.
type intent struct {
	kind        intentKind
	group       config.SpawnGroup
	species     string
	count       int
	temperature float64
}

func (e *Engine) enqueue(in intent) {
	e.intentMu.Lock()
	e.pending = append(e.pending, in)
	e.intentMu.Unlock()
}

// Start resumes stepping from the next AdvanceTick.
func (e *Engine) Start() {
	e.enqueue(intent{kind: intentStart})
}

// Pause stops stepping. AdvanceTick still applies control calls and
// refreshes counts while paused.
func (e *Engine) Pause() {
	e.enqueue(intent{kind: intentPause})
}

// Reset destroys every particle, restores the initial temperature and
// replays the configured initial spawn groups. The tick counter restarts
// at zero; particle ids keep increasing.
func (e *Engine) Reset() {
	e.enqueue(intent{kind: intentReset})
}

// AddParticles spawns a group of particles. An unknown species or a
// non-positive count is a no-op. The group is truncated so the pool does
// not exceed physics.max_particles.
func (e *Engine) AddParticles(g config.SpawnGroup) {
	if g.Region != nil {
		r := *g.Region
		g.Region = &r
	}
	if g.Speed != nil {
		s := *g.Speed
		g.Speed = &s
	}
	e.enqueue(intent{kind: intentAdd, group: g})
}

// RemoveParticles removes up to n particles of a species, highest ids first.
// Removing more than exist removes them all; an unknown species is a no-op.
func (e *Engine) RemoveParticles(species string, n int) {
	e.enqueue(intent{kind: intentRemove, species: species, count: n})
}

// SetTemperature rescales every moving particle to the speed implied by T
// for its mass. Negative temperatures are treated as zero.
func (e *Engine) SetTemperature(t float64) {
	e.enqueue(intent{kind: intentTemperature, temperature: t})
}

// drain applies pending intents in submission order.
func (e *Engine) drain() {
	e.intentMu.Lock()
	pending := e.pending
	e.pending = nil
	e.intentMu.Unlock()

	for _, in := range pending {
		switch in.kind {
		case intentStart:
			if !e.running {
				e.running = true
				e.logger.Info("start", "tick", e.tick)
			}
		case intentPause:
			if e.running {
				e.running = false
				e.logger.Info("pause", "tick", e.tick)
			}
		case intentReset:
			e.reset()
		case intentAdd:
			n := e.spawnGroup(in.group)
			e.logger.Debug("particles_added", "species", in.group.Species, "requested", in.group.Count, "spawned", n)
		case intentRemove:
			n := e.removeSpecies(in.species, in.count)
			e.logger.Debug("particles_removed", "species", in.species, "requested", in.count, "removed", n)
		case intentTemperature:
			e.setTemperature(in.temperature)
		default:
			e.logger.Warn("unknown intent", "kind", in.kind.String())
		}
	}
}
