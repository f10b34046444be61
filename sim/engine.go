// Package sim implements the particle engine: the particle pool, the tick
// pipeline, the control surface and per-tick reporting.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math/rand"
	"slices"
	"sync"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/kinetics/components"
	"github.com/pthm-cable/kinetics/config"
	"github.com/pthm-cable/kinetics/systems"
	"github.com/pthm-cable/kinetics/telemetry"
)

// DefaultSeed seeds the engine RNG when no seed or RNG is supplied.
const DefaultSeed = 42

// Engine owns the particle pool and advances it one tick at a time.
//
// AdvanceTick must be called from a single goroutine. Control methods
// (Start, Pause, Reset, AddParticles, RemoveParticles, SetTemperature) and
// the read-only queries are safe to call from any goroutine; control calls
// are queued and applied at the start of the next AdvanceTick.
type Engine struct {
	cfg       *config.Config
	catalog   *Catalog
	rules     *systems.ReactionTable
	equations []string

	seed   int64
	rng    *rand.Rand
	logger *slog.Logger
	perf   *telemetry.PerfCollector

	presMu     sync.Mutex
	presenters []Presenter

	// Particle pool
	world   *ecs.World
	mapper  *ecs.Map4[components.Particle, components.Position, components.Velocity, components.Body]
	filter  *ecs.Filter4[components.Particle, components.Position, components.Velocity, components.Body]
	physics *systems.PhysicsSystem
	thermo  *systems.TemperatureSystem
	scanner systems.PairScanner

	// Tick-owned state
	tick        int64
	running     bool
	temperature float64
	nextID      uint64
	lastCounts  AggregateCounts
	colliders   []systems.Collider

	// Pending control intents
	intentMu sync.Mutex
	pending  []intent

	// State published at the end of each tick
	pubMu sync.RWMutex
	pub   published

	subMu   sync.Mutex
	subs    []subscription
	nextSub int
}

type published struct {
	tick        int64
	running     bool
	temperature float64
	counts      AggregateCounts
	particles   []ParticleView
}

type subscription struct {
	id int
	fn func(AggregateCounts)
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	seed       int64
	rng        *rand.Rand
	logger     *slog.Logger
	perf       *telemetry.PerfCollector
	presenters []Presenter
}

// WithSeed seeds the engine RNG.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

// WithRand injects the RNG used for spawning and reaction draws.
// It takes precedence over WithSeed.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPresenter registers a presenter for every TickReport.
func WithPresenter(p Presenter) Option {
	return func(o *options) { o.presenters = append(o.presenters, p) }
}

// WithPerf times each pipeline phase into the given collector.
func WithPerf(p *telemetry.PerfCollector) Option {
	return func(o *options) { o.perf = p }
}

// New validates cfg and creates an engine populated from its initial
// spawn groups. The engine keeps its own copy of cfg, so later changes to
// the caller's config do not reach Reset. The engine starts paused.
// Configuration errors wrap config.ErrInvalid.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("sim: nil config")
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	o := options{seed: DefaultSeed}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(o.seed))
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	world := ecs.NewWorld()
	catalog := NewCatalog(cfg.Species)
	rules, equations := compileRules(cfg, catalog)

	bounds := systems.Bounds{
		Width:  cfg.Container.Width,
		Height: cfg.Container.Height,
		Policy: cfg.Container.Boundary,
	}
	kin := systems.Kinematics{Gravity: cfg.Physics.Gravity, Friction: cfg.Physics.Friction}

	var scanner systems.PairScanner = systems.NaiveScanner{}
	if cfg.Physics.Broadphase == config.BroadphaseGrid {
		scanner = systems.NewSpatialGrid(bounds.Width, bounds.Height, cfg.Physics.GridCellSize, cfg.Derived.MaxRadius)
	}

	e := &Engine{
		cfg:        cfg,
		catalog:    catalog,
		rules:      systems.NewReactionTable(rules),
		equations:  equations,
		seed:       o.seed,
		rng:        o.rng,
		logger:     o.logger,
		perf:       o.perf,
		presenters: o.presenters,
		world:      world,
		mapper:     ecs.NewMap4[components.Particle, components.Position, components.Velocity, components.Body](world),
		filter:     ecs.NewFilter4[components.Particle, components.Position, components.Velocity, components.Body](world),
		physics:    systems.NewPhysicsSystem(world, kin, bounds),
		thermo:     systems.NewTemperatureSystem(world, cfg.Physics.SpeedMultiplier),
		scanner:    scanner,
	}

	e.populate()
	e.lastCounts = e.countSpecies()
	e.publish(e.lastCounts, e.views())

	e.logger.Info("engine created",
		"species", catalog.Len(),
		"reactions", e.rules.Len(),
		"particles", e.lastCounts.Total(),
		"broadphase", string(cfg.Physics.Broadphase),
		"seed", o.seed,
	)
	return e, nil
}

// AddPresenter registers a presenter after construction. It is safe to call
// while another goroutine runs AdvanceTick; the presenter receives reports
// from the next tick on.
func (e *Engine) AddPresenter(p Presenter) {
	e.presMu.Lock()
	e.presenters = append(e.presenters, p)
	e.presMu.Unlock()
}

// Config returns the engine's configuration. It must not be modified.
func (e *Engine) Config() *config.Config { return e.cfg }

// Catalog returns the species catalog.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// Seed returns the seed the RNG was created from. Meaningless when the RNG
// was injected with WithRand.
func (e *Engine) Seed() int64 { return e.seed }

// Equation returns the printable form of reaction rule i.
func (e *Engine) Equation(rule int) string {
	if rule < 0 || rule >= len(e.equations) {
		return ""
	}
	return e.equations[rule]
}

// AdvanceTick drains pending control intents and, if running, advances the
// simulation by one step. Counts and the particle snapshot are refreshed
// either way; subscribers are notified only when counts changed.
func (e *Engine) AdvanceTick() TickReport {
	e.perf.StartTick()

	e.perf.StartPhase(telemetry.PhaseDrain)
	e.drain()

	report := TickReport{Highlights: e.cfg.Highlights}

	if e.running {
		e.perf.StartPhase(telemetry.PhaseKinematics)
		e.physics.Integrate()

		e.perf.StartPhase(telemetry.PhaseBoundary)
		report.WallHits = e.physics.Contain()

		tick := e.tick + 1
		var births []birth
		var consumed []ecs.Entity
		if e.cfg.Physics.CollisionsEnabled {
			e.perf.StartPhase(telemetry.PhaseCollisions)
			report.Reactions, births, consumed = e.collide(tick)
		}

		e.perf.StartPhase(telemetry.PhaseApply)
		e.apply(consumed, births)

		e.tick = tick
		report.Advanced = true
	}

	e.perf.StartPhase(telemetry.PhaseCounts)
	counts := e.countSpecies()
	changed := !maps.Equal(counts, e.lastCounts)
	if changed {
		e.lastCounts = counts
	}
	views := e.views()
	e.publish(counts, views)
	e.perf.EndTick()

	report.Tick = e.tick
	report.Running = e.running
	report.Temperature = e.temperature
	report.Particles = views
	report.Counts = counts.Clone()
	report.CountsChanged = changed

	if changed {
		e.notify(counts)
	}
	e.presMu.Lock()
	presenters := slices.Clone(e.presenters)
	e.presMu.Unlock()
	for _, p := range presenters {
		p.Present(report)
	}
	return report
}

// collide scans colliding pairs in ascending id order, firing reactions
// before elastic resolution. Returns the reaction events, the products to
// spawn and the consumed reactants.
func (e *Engine) collide(tick int64) ([]ReactionEvent, []birth, []ecs.Entity) {
	cs := e.colliders[:0]
	query := e.filter.Query()
	for query.Next() {
		p, pos, vel, body := query.Get()
		cs = append(cs, systems.Collider{
			Entity:  query.Entity(),
			ID:      p.ID,
			Species: p.Species,
			Pos:     pos,
			Vel:     vel,
			Body:    body,
		})
	}
	sortByID(cs)
	e.colliders = cs

	var (
		events   []ReactionEvent
		births   []birth
		consumed []ecs.Entity
	)
	bounds := e.physics.Bounds()

	e.scanner.Scan(cs, func(i, j int) {
		a, b := &cs[i], &cs[j]
		if !systems.Overlapping(a, b) {
			return
		}

		if idx, ok := e.rules.Evaluate(a, b, e.rng.Float64); ok {
			a.Consumed, b.Consumed = true, true
			consumed = append(consumed, a.Entity, b.Entity)

			rule := e.rules.Rule(idx)
			bodies := make([]components.Body, len(rule.Products))
			for k, s := range rule.Products {
				bodies[k] = e.catalog.At(s).Body()
			}
			placed := systems.PlaceProducts(a, b, rule.Products, bodies, bounds)

			ids := make([]uint64, len(placed))
			for k, pl := range placed {
				ids[k] = e.nextID
				e.nextID++
				births = append(births, birth{id: ids[k], Placement: pl})
			}

			mid := r2.Scale(0.5, r2.Add(a.Pos.Vec(), b.Pos.Vec()))
			events = append(events, ReactionEvent{
				Tick:        tick,
				RuleIndex:   idx,
				ReactantIDs: [2]uint64{a.ID, b.ID},
				ProductIDs:  ids,
				Position:    mid,
			})
			return
		}

		systems.ResolveElastic(a, b, bounds)
	})

	// Drop pool pointers before structural changes
	for i := range cs {
		cs[i] = systems.Collider{}
	}
	return events, births, consumed
}

// birth is a product particle whose id was assigned when its reaction fired.
type birth struct {
	id uint64
	systems.Placement
}

// apply removes consumed reactants and creates products.
func (e *Engine) apply(consumed []ecs.Entity, births []birth) {
	for _, entity := range consumed {
		e.mapper.Remove(entity)
	}
	for _, b := range births {
		p := components.Particle{ID: b.id, Species: b.Species}
		pos, vel, body := b.Position, b.Velocity, b.Body
		e.mapper.NewEntity(&p, &pos, &vel, &body)
	}
}

// countSpecies rebuilds the species counts from the pool.
func (e *Engine) countSpecies() AggregateCounts {
	counts := make(AggregateCounts, e.catalog.Len())
	for _, id := range e.catalog.IDs() {
		counts[id] = 0
	}
	query := e.filter.Query()
	for query.Next() {
		p, _, _, _ := query.Get()
		counts[e.catalog.At(p.Species).ID]++
	}
	return counts
}

// views copies the pool into presenter-safe particle views, sorted by id.
func (e *Engine) views() []ParticleView {
	out := make([]ParticleView, 0, e.lastCounts.Total())
	query := e.filter.Query()
	for query.Next() {
		p, pos, vel, body := query.Get()
		s := e.catalog.At(p.Species)
		out = append(out, ParticleView{
			ID:            p.ID,
			Species:       s.ID,
			Position:      pos.Vec(),
			Velocity:      vel.Vec(),
			Radius:        body.Radius,
			Mass:          body.Mass,
			KineticEnergy: body.KineticEnergy(*vel),
			Color:         s.Color,
			Stroke:        s.Stroke,
		})
	}
	sortViewsByID(out)
	return out
}

func (e *Engine) publish(counts AggregateCounts, views []ParticleView) {
	e.pubMu.Lock()
	e.pub = published{
		tick:        e.tick,
		running:     e.running,
		temperature: e.temperature,
		counts:      counts.Clone(),
		particles:   views,
	}
	e.pubMu.Unlock()
}

// Counts returns the species counts as of the last completed tick.
func (e *Engine) Counts() AggregateCounts {
	e.pubMu.RLock()
	defer e.pubMu.RUnlock()
	return e.pub.counts.Clone()
}

// Snapshot returns a copy of the particles as of the last completed tick,
// sorted by id.
func (e *Engine) Snapshot() []ParticleView {
	e.pubMu.RLock()
	defer e.pubMu.RUnlock()
	return append([]ParticleView(nil), e.pub.particles...)
}

// Tick returns the number of completed simulation steps since the last reset.
func (e *Engine) Tick() int64 {
	e.pubMu.RLock()
	defer e.pubMu.RUnlock()
	return e.pub.tick
}

// Running reports whether the engine advances on AdvanceTick.
func (e *Engine) Running() bool {
	e.pubMu.RLock()
	defer e.pubMu.RUnlock()
	return e.pub.running
}

// Temperature returns the current coupler temperature.
func (e *Engine) Temperature() float64 {
	e.pubMu.RLock()
	defer e.pubMu.RUnlock()
	return e.pub.temperature
}

// Subscribe registers fn to receive counts whenever they change. fn runs
// synchronously inside AdvanceTick. The returned function cancels the
// subscription.
func (e *Engine) Subscribe(fn func(AggregateCounts)) (cancel func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs = append(e.subs, subscription{id: id, fn: fn})
	e.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subMu.Lock()
			defer e.subMu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					break
				}
			}
		})
	}
}

func (e *Engine) notify(counts AggregateCounts) {
	e.subMu.Lock()
	subs := append([]subscription(nil), e.subs...)
	e.subMu.Unlock()

	for _, s := range subs {
		s.fn(counts.Clone())
	}
}
