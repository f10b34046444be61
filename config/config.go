// Package config provides configuration loading and access for the simulation.
package config

import (
	"embed"
	"fmt"
	"os"
	"path"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed presets/*.yaml
var presetFS embed.FS

// Boundary selects what happens when a particle reaches a container wall.
type Boundary string

const (
	// BoundaryReflecting clamps the particle to the wall and inverts the
	// velocity component normal to it.
	BoundaryReflecting Boundary = "reflecting"
	// BoundaryAbsorbing clamps the particle to the wall and zeroes the
	// velocity component normal to it. Particles are never removed.
	BoundaryAbsorbing Boundary = "absorbing"
)

// Broadphase selects the collision pair enumeration strategy.
type Broadphase string

const (
	BroadphaseNaive Broadphase = "naive"
	BroadphaseGrid  Broadphase = "grid"
)

// Config holds all simulation configuration parameters.
type Config struct {
	Screen       ScreenConfig      `yaml:"screen"`
	Container    ContainerConfig   `yaml:"container"`
	Physics      PhysicsConfig     `yaml:"physics"`
	Species      []SpeciesConfig   `yaml:"species"`
	InitialSpawn []SpawnGroup      `yaml:"initial_spawn"`
	Reactions    []ReactionConfig  `yaml:"reactions"`
	Highlights   []HighlightConfig `yaml:"highlights"`
	Telemetry    TelemetryConfig   `yaml:"telemetry"`
	Stream       StreamConfig      `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width      int `yaml:"width"`
	Height     int `yaml:"height"`
	TargetFPS  int `yaml:"target_fps"`
	PanelWidth int `yaml:"panel_width"` // Width of the control panel on the right
}

// ContainerConfig describes the rectangular arena.
type ContainerConfig struct {
	Width    float64  `yaml:"width"`
	Height   float64  `yaml:"height"`
	Boundary Boundary `yaml:"boundary"`
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	SpeedMultiplier       float64    `yaml:"speed_multiplier"`
	CollisionsEnabled     bool       `yaml:"collisions_enabled"`
	Gravity               float64    `yaml:"gravity"`                 // Added to vy every tick
	Friction              float64    `yaml:"friction"`                // Fraction of velocity lost per tick, [0,1)
	ActivationEnergyFloor float64    `yaml:"activation_energy_floor"` // Minimum threshold applied to every rule
	Temperature           float64    `yaml:"temperature"`             // Initial temperature
	Broadphase            Broadphase `yaml:"broadphase"`
	GridCellSize          float64    `yaml:"grid_cell_size"` // 0 = derive from largest radius
	MaxParticles          int        `yaml:"max_particles"`  // pool capacity for spawns; 0 = unlimited
}

// SpeciesConfig is one catalog entry.
type SpeciesConfig struct {
	ID     string  `yaml:"id"`
	Label  string  `yaml:"label"`
	Color  string  `yaml:"color"`  // #rrggbb or #rrggbbaa
	Stroke string  `yaml:"stroke"` // optional outline color
	Radius float64 `yaml:"radius"`
	Mass   float64 `yaml:"mass"`
}

// DisplayLabel returns the label, falling back to the id.
func (s SpeciesConfig) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}

// Region is an axis-aligned rectangle in container coordinates.
type Region struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// SpawnGroup requests count particles of one species.
// A nil Region means the whole container; a nil Speed means the speed
// implied by the current temperature.
type SpawnGroup struct {
	Species string   `yaml:"species" json:"species"`
	Count   int      `yaml:"count" json:"count"`
	Region  *Region  `yaml:"region,omitempty" json:"region,omitempty"`
	Speed   *float64 `yaml:"speed,omitempty" json:"speed,omitempty"`
}

// ReactionConfig maps a colliding species pair to products.
type ReactionConfig struct {
	Reactants        []string `yaml:"reactants"`
	Products         []string `yaml:"products"`
	ActivationEnergy *float64 `yaml:"activation_energy,omitempty"`
	Probability      *float64 `yaml:"probability,omitempty"`
}

// HighlightConfig is a static overlay passed through to presenters.
type HighlightConfig struct {
	Region `yaml:",inline"`
	Color  string `yaml:"color" json:"color"`
	Label  string `yaml:"label" json:"label"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int     `yaml:"stats_window"` // ticks per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	HistogramBins       int     `yaml:"histogram_bins"`
	HistogramMaxSpeed   float64 `yaml:"histogram_max_speed"` // 0 = auto
}

// StreamConfig holds websocket streaming parameters.
type StreamConfig struct {
	TickRate   int `yaml:"tick_rate"`     // ticks per second in serve mode
	EveryNTick int `yaml:"every_n_ticks"` // broadcast every Nth report
	Buffer     int `yaml:"buffer"`        // broadcast queue length
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	SpeciesIndex map[string]uint16 // id -> catalog index
	MaxRadius    float64
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given preset and path.
// An empty preset uses the embedded defaults only. Must be called before Cfg().
func Init(preset, path string) error {
	cfg, err := Load(preset, path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(preset, path string) {
	if err := Init(preset, path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults, validated.
func Default() (*Config, error) {
	return Load("", "")
}

// Load builds a configuration from the embedded defaults, then the named
// preset (if any), then the YAML file at path (if any). Each layer only
// overwrites fields it mentions.
func Load(preset, path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if preset != "" {
		data, err := presetFS.ReadFile("presets/" + preset + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(Presets(), ", "))
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing preset %s: %w", preset, err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a YAML document layered over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Presets lists the names of the embedded scenario presets.
func Presets() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.SpeciesIndex = make(map[string]uint16, len(c.Species))
	c.Derived.MaxRadius = 0
	for i, s := range c.Species {
		if _, dup := c.Derived.SpeciesIndex[s.ID]; !dup {
			c.Derived.SpeciesIndex[s.ID] = uint16(i)
		}
		if s.Radius > c.Derived.MaxRadius {
			c.Derived.MaxRadius = s.Radius
		}
	}

	if c.Telemetry.StatsWindow < 1 {
		c.Telemetry.StatsWindow = 60
	}
	if c.Telemetry.HistogramBins < 1 {
		c.Telemetry.HistogramBins = 20
	}
	if c.Stream.EveryNTick < 1 {
		c.Stream.EveryNTick = 1
	}
	if c.Stream.TickRate < 1 {
		c.Stream.TickRate = 60
	}
}

// Clone returns a deep copy of c. Derived values are recomputed.
func (c *Config) Clone() *Config {
	out := *c
	out.Species = slices.Clone(c.Species)
	out.InitialSpawn = make([]SpawnGroup, len(c.InitialSpawn))
	for i, g := range c.InitialSpawn {
		if g.Region != nil {
			r := *g.Region
			g.Region = &r
		}
		g.Speed = clonePtr(g.Speed)
		out.InitialSpawn[i] = g
	}
	out.Reactions = make([]ReactionConfig, len(c.Reactions))
	for i, r := range c.Reactions {
		r.Reactants = slices.Clone(r.Reactants)
		r.Products = slices.Clone(r.Products)
		r.ActivationEnergy = clonePtr(r.ActivationEnergy)
		r.Probability = clonePtr(r.Probability)
		out.Reactions[i] = r
	}
	out.Highlights = slices.Clone(c.Highlights)
	out.Derived = DerivedConfig{}
	out.computeDerived()
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
