package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Container.Boundary != BoundaryReflecting {
		t.Errorf("default boundary = %q, want %q", cfg.Container.Boundary, BoundaryReflecting)
	}
	if len(cfg.Species) == 0 {
		t.Fatal("defaults should define species")
	}
	for i, s := range cfg.Species {
		idx, ok := cfg.Derived.SpeciesIndex[s.ID]
		if !ok || int(idx) != i {
			t.Errorf("SpeciesIndex[%q] = %d,%v, want %d", s.ID, idx, ok, i)
		}
	}
}

func TestPresetsValidate(t *testing.T) {
	names := Presets()
	if len(names) == 0 {
		t.Fatal("expected embedded presets")
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(name, ""); err != nil {
				t.Errorf("preset %s: %v", name, err)
			}
		})
	}
}

func TestLoadUnknownPreset(t *testing.T) {
	_, err := Load("does_not_exist", "")
	if err == nil || !strings.Contains(err.Error(), "unknown preset") {
		t.Errorf("expected unknown preset error, got %v", err)
	}
}

func TestLoadUserOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "user.yaml")
	data := []byte("physics:\n  gravity: 0.5\ncontainer:\n  boundary: absorbing\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.Gravity != 0.5 {
		t.Errorf("gravity = %v, want 0.5", cfg.Physics.Gravity)
	}
	if cfg.Container.Boundary != BoundaryAbsorbing {
		t.Errorf("boundary = %q, want absorbing", cfg.Container.Boundary)
	}
	// Untouched fields keep their defaults
	if cfg.Container.Width != 900 {
		t.Errorf("width = %v, want default 900", cfg.Container.Width)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"friction one", func(c *Config) { c.Physics.Friction = 1 }, "physics.friction"},
		{"negative friction", func(c *Config) { c.Physics.Friction = -0.1 }, "physics.friction"},
		{"zero radius", func(c *Config) { c.Species[0].Radius = 0 }, ".radius"},
		{"negative mass", func(c *Config) { c.Species[1].Mass = -1 }, ".mass"},
		{"zero width", func(c *Config) { c.Container.Width = 0 }, "container.width"},
		{"negative height", func(c *Config) { c.Container.Height = -5 }, "container.height"},
		{"bad boundary", func(c *Config) { c.Container.Boundary = "wrap" }, "container.boundary"},
		{"unknown reactant", func(c *Config) { c.Reactions[0].Reactants[0] = "X" }, "reactant \"X\""},
		{"unknown product", func(c *Config) { c.Reactions[0].Products = []string{"Y"} }, "product \"Y\""},
		{"three reactants", func(c *Config) { c.Reactions[0].Reactants = []string{"A", "B", "C"} }, "exactly two"},
		{"probability above one", func(c *Config) { p := 1.5; c.Reactions[0].Probability = &p }, "probability"},
		{"negative activation", func(c *Config) { e := -1.0; c.Reactions[0].ActivationEnergy = &e }, "activation_energy"},
		{"unknown spawn species", func(c *Config) { c.InitialSpawn[0].Species = "Z" }, "initial_spawn[0]"},
		{"duplicate species", func(c *Config) { c.Species[1].ID = c.Species[0].ID }, "duplicated"},
		{"bad color", func(c *Config) { c.Species[0].Color = "red" }, ".color"},
		{"bad broadphase", func(c *Config) { c.Physics.Broadphase = "octree" }, "physics.broadphase"},
		{"negative max particles", func(c *Config) { c.Physics.MaxParticles = -1 }, "physics.max_particles"},
		{"initial spawn above cap", func(c *Config) { c.Physics.MaxParticles = 10 }, "physics.max_particles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error should wrap ErrInvalid: %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should mention %q", err, tt.field)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Physics.Friction = 2
	cfg.Container.Width = 0
	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "physics.friction") || !strings.Contains(msg, "container.width") {
		t.Errorf("expected both problems reported, got %q", msg)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    RGBA
		wantErr bool
	}{
		{"#ff0000", RGBA{255, 0, 0, 255}, false},
		{"00ff00", RGBA{0, 255, 0, 255}, false},
		{"#0000ff80", RGBA{0, 0, 255, 128}, false},
		{"#fff", RGBA{}, true},
		{"#gggggg", RGBA{}, true},
		{"", RGBA{}, true},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestRGBA_Text(t *testing.T) {
	c := RGBA{R: 0x5f, G: 0xd0, B: 0x68, A: 0xff}
	text, err := c.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "#5fd068ff" {
		t.Errorf("MarshalText = %q, want %q", text, "#5fd068ff")
	}

	var back RGBA
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if back != c {
		t.Errorf("UnmarshalText = %+v, want %+v", back, c)
	}
	if err := back.UnmarshalText([]byte("red")); err == nil {
		t.Error("expected error for malformed color")
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.InitialSpawn[0].Region = &Region{Width: 10, Height: 10}
	cfg.InitialSpawn[0].Speed = new(float64)

	c := cfg.Clone()
	c.Species[0].ID = "Z"
	c.InitialSpawn[0].Count = -1
	c.InitialSpawn[0].Region.Width = 99
	*c.InitialSpawn[0].Speed = 5
	c.Reactions[0].Products[0] = "Z"
	*c.Reactions[0].ActivationEnergy = 1234
	c.Derived.SpeciesIndex["Q"] = 7

	if cfg.Species[0].ID == "Z" {
		t.Error("species shared")
	}
	if cfg.InitialSpawn[0].Count == -1 || cfg.InitialSpawn[0].Region.Width == 99 || *cfg.InitialSpawn[0].Speed == 5 {
		t.Errorf("spawn group shared: %+v", cfg.InitialSpawn[0])
	}
	if cfg.Reactions[0].Products[0] == "Z" || *cfg.Reactions[0].ActivationEnergy == 1234 {
		t.Errorf("reaction shared: %+v", cfg.Reactions[0])
	}
	if _, ok := cfg.Derived.SpeciesIndex["Q"]; ok {
		t.Error("derived index shared")
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg, err := Load("exchange_equilibrium", "")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	loaded, err := Load("", path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(loaded.Species) != len(cfg.Species) || len(loaded.Reactions) != len(cfg.Reactions) {
		t.Errorf("reloaded config differs: %d species / %d reactions, want %d / %d",
			len(loaded.Species), len(loaded.Reactions), len(cfg.Species), len(cfg.Reactions))
	}
}
