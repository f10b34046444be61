package sim

import (
	"cmp"
	"math"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/kinetics/components"
	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/systems"
)

// populate restores the initial temperature and spawns the configured
// initial groups into an empty pool.
func (e *Engine) populate() {
	e.temperature = max(e.cfg.Physics.Temperature, 0)
	for _, g := range e.cfg.InitialSpawn {
		e.spawnGroup(g)
	}
}

// reset empties the pool and replays the initial configuration.
// The RNG is not reseeded and ids are never reused.
func (e *Engine) reset() {
	removed := e.removeWhere(func(*components.Particle) bool { return true })
	e.tick = 0
	e.populate()
	e.logger.Info("reset",
		"removed", removed,
		"temperature", e.temperature,
		"next_id", e.nextID,
	)
}

// spawnGroup creates g.Count particles uniformly inside the intersection of
// the group's region and the area where a particle of the species fits.
// Returns the number spawned.
func (e *Engine) spawnGroup(g config.SpawnGroup) int {
	idx, ok := e.catalog.Lookup(g.Species)
	if !ok {
		e.logger.Warn("spawn: unknown species", "species", g.Species)
		return 0
	}
	if g.Count <= 0 {
		return 0
	}

	s := e.catalog.At(idx)
	body := s.Body()
	region := config.Region{Width: e.cfg.Container.Width, Height: e.cfg.Container.Height}
	if g.Region != nil {
		region = *g.Region
	}
	if !(region.Width > 0 && region.Height > 0) {
		return 0
	}

	x0, x1 := spawnRange(region.X, region.Width, body.Radius, e.cfg.Container.Width)
	y0, y1 := spawnRange(region.Y, region.Height, body.Radius, e.cfg.Container.Height)
	if x0 > x1 || y0 > y1 {
		e.logger.Debug("spawn: region leaves no room", "species", g.Species, "radius", body.Radius)
		return 0
	}

	speed := e.thermo.TargetSpeed(e.temperature, body.Mass)
	if g.Speed != nil {
		speed = max(*g.Speed, 0)
	}

	count := g.Count
	if limit := e.cfg.Physics.MaxParticles; limit > 0 {
		room := max(limit-e.population(), 0)
		if count > room {
			e.logger.Warn("spawn: particle cap reached",
				"species", g.Species,
				"requested", g.Count,
				"spawned", room,
				"max_particles", limit,
			)
			count = room
		}
	}

	for range count {
		x := x0 + e.rng.Float64()*(x1-x0)
		y := y0 + e.rng.Float64()*(y1-y0)
		heading := e.rng.Float64() * 2 * math.Pi

		p := components.Particle{ID: e.nextID, Species: idx}
		e.nextID++
		pos := components.Position{X: x, Y: y}
		vel := components.Velocity{X: speed * math.Cos(heading), Y: speed * math.Sin(heading)}
		b := body
		e.mapper.NewEntity(&p, &pos, &vel, &b)
	}
	return count
}

// population counts the live particles.
func (e *Engine) population() int {
	n := 0
	query := e.filter.Query()
	for query.Next() {
		n++
	}
	return n
}

// spawnRange intersects [origin, origin+size] with [r, extent-r].
func spawnRange(origin, size, radius, extent float64) (lo, hi float64) {
	return max(origin, radius), min(origin+size, extent-radius)
}

// removeSpecies removes up to n particles of the species, highest ids first.
func (e *Engine) removeSpecies(species string, n int) int {
	idx, ok := e.catalog.Lookup(species)
	if !ok {
		e.logger.Warn("remove: unknown species", "species", species)
		return 0
	}
	if n <= 0 {
		return 0
	}

	type member struct {
		id     uint64
		entity ecs.Entity
	}
	var members []member
	query := e.filter.Query()
	for query.Next() {
		p, _, _, _ := query.Get()
		if p.Species == idx {
			members = append(members, member{id: p.ID, entity: query.Entity()})
		}
	}

	slices.SortFunc(members, func(a, b member) int { return cmp.Compare(b.id, a.id) })
	n = min(n, len(members))
	for _, m := range members[:n] {
		e.mapper.Remove(m.entity)
	}
	return n
}

// removeWhere removes every particle for which match returns true.
func (e *Engine) removeWhere(match func(*components.Particle) bool) int {
	var doomed []ecs.Entity
	query := e.filter.Query()
	for query.Next() {
		p, _, _, _ := query.Get()
		if match(p) {
			doomed = append(doomed, query.Entity())
		}
	}
	for _, entity := range doomed {
		e.mapper.Remove(entity)
	}
	return len(doomed)
}

func (e *Engine) setTemperature(t float64) {
	t = max(t, 0)
	n := e.thermo.Apply(t)
	e.temperature = t
	e.logger.Info("temperature_set", "temperature", t, "rescaled", n)
}

func sortByID(cs []systems.Collider) {
	slices.SortFunc(cs, func(a, b systems.Collider) int { return cmp.Compare(a.ID, b.ID) })
}

func sortViewsByID(vs []ParticleView) {
	slices.SortFunc(vs, func(a, b ParticleView) int { return cmp.Compare(a.ID, b.ID) })
}
