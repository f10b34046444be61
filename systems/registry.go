package systems

import "github.com/pthm-cable/kinetics/telemetry"

// StageInfo describes a tick pipeline stage for UI display.
type StageInfo struct {
	ID          string // perf phase identifier
	Name        string // Display name
	Description string
	Category    string // "control", "physics" or "bookkeeping"
}

// StageRegistry holds metadata about the tick pipeline stages in the order
// they run. The perf panel and the perf CSV both read from it.
type StageRegistry struct {
	stages []StageInfo
	byID   map[string]StageInfo
}

// NewStageRegistry creates a registry with the built-in pipeline.
func NewStageRegistry() *StageRegistry {
	reg := &StageRegistry{
		byID: make(map[string]StageInfo),
	}
	reg.registerDefaults()
	return reg
}

func (r *StageRegistry) registerDefaults() {
	r.Register(StageInfo{ID: telemetry.PhaseDrain, Name: "Intents", Description: "Applies queued control requests", Category: "control"})
	r.Register(StageInfo{ID: telemetry.PhaseKinematics, Name: "Kinematics", Description: "Gravity, friction and motion", Category: "physics"})
	r.Register(StageInfo{ID: telemetry.PhaseBoundary, Name: "Boundary", Description: "Clamps particles to the container", Category: "physics"})
	r.Register(StageInfo{ID: telemetry.PhaseCollisions, Name: "Collisions", Description: "Reactions and elastic response", Category: "physics"})
	r.Register(StageInfo{ID: telemetry.PhaseApply, Name: "Apply", Description: "Removes reactants and spawns products", Category: "bookkeeping"})
	r.Register(StageInfo{ID: telemetry.PhaseCounts, Name: "Counts", Description: "Aggregates species counts", Category: "bookkeeping"})
}

// Register adds a stage to the registry.
func (r *StageRegistry) Register(info StageInfo) {
	if _, ok := r.byID[info.ID]; ok {
		return
	}
	r.stages = append(r.stages, info)
	r.byID[info.ID] = info
}

// Get returns stage info by ID.
func (r *StageRegistry) Get(id string) (StageInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a stage ID.
// Falls back to the ID itself if not found.
func (r *StageRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered stages.
func (r *StageRegistry) All() []StageInfo {
	return r.stages
}

// ByCategory returns stages filtered by category.
func (r *StageRegistry) ByCategory(category string) []StageInfo {
	var result []StageInfo
	for _, info := range r.stages {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all stage IDs in pipeline order.
func (r *StageRegistry) IDs() []string {
	ids := make([]string, len(r.stages))
	for i, info := range r.stages {
		ids[i] = info.ID
	}
	return ids
}
