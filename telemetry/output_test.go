package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/kinetics/config"
)

func TestOutputManagerWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	order := []string{"A", "B"}
	for tick := int64(1); tick <= 3; tick++ {
		if err := om.WriteCounts(CountRecords(tick, order, map[string]int{"A": int(tick), "B": 5})); err != nil {
			t.Fatalf("WriteCounts: %v", err)
		}
	}
	err = om.WriteReactions([]ReactionRecord{
		NewReactionRecord(2, 0, "A + B -> C", [2]uint64{3, 9}, []uint64{61}),
		NewReactionRecord(3, 1, "C + C ->", [2]uint64{61, 62}, nil),
	})
	if err != nil {
		t.Fatalf("WriteReactions: %v", err)
	}
	if err := om.WriteTelemetry(WindowStats{WindowEndTick: 3, Particles: 2}); err != nil {
		t.Fatalf("WriteTelemetry: %v", err)
	}
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "counts.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Fatalf("counts.csv has %d lines, want header + 6 rows:\n%s", len(lines), data)
	}
	if lines[0] != "tick,species,count" {
		t.Errorf("header = %q", lines[0])
	}

	var reactions []ReactionRecord
	f, err := os.Open(filepath.Join(dir, "reactions.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, &reactions); err != nil {
		t.Fatalf("reading reactions.csv: %v", err)
	}
	if len(reactions) != 2 || reactions[0].ProductIDs != "61" || reactions[1].ReactantB != 62 {
		t.Errorf("reactions = %+v", reactions)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not written: %v", err)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should have empty dir")
	}
}
