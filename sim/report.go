package sim

import (
	"maps"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/kinetics/config"
)

// AggregateCounts maps species id to live particle count. Every catalog
// species is present, with zero once extinct.
type AggregateCounts map[string]int

// Total returns the number of particles across all species.
func (c AggregateCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Clone returns an independent copy.
func (c AggregateCounts) Clone() AggregateCounts {
	return maps.Clone(c)
}

// ParticleView is a read-only copy of one particle for presenters.
type ParticleView struct {
	ID            uint64      `json:"id"`
	Species       string      `json:"species"`
	Position      r2.Vec      `json:"position"`
	Velocity      r2.Vec      `json:"velocity"`
	Radius        float64     `json:"radius"`
	Mass          float64     `json:"mass"`
	KineticEnergy float64     `json:"kinetic_energy"`
	Color         config.RGBA `json:"color"`
	Stroke        config.RGBA `json:"stroke"` // zero alpha means no outline
}

// Speed returns the particle's speed.
func (p ParticleView) Speed() float64 {
	return r2.Norm(p.Velocity)
}

// ReactionEvent records one fired reaction.
type ReactionEvent struct {
	Tick        int64     `json:"tick"`
	RuleIndex   int       `json:"rule"`
	ReactantIDs [2]uint64 `json:"reactants"`
	ProductIDs  []uint64  `json:"products"`
	Position    r2.Vec    `json:"position"` // collision midpoint
}

// TickReport is the per-tick output handed to presenters.
type TickReport struct {
	Tick          int64                    `json:"tick"`
	Advanced      bool                     `json:"advanced"`
	Running       bool                     `json:"running"`
	Particles     []ParticleView           `json:"particles"`
	Reactions     []ReactionEvent          `json:"reactions,omitempty"`
	Counts        AggregateCounts          `json:"counts"`
	CountsChanged bool                     `json:"counts_changed"`
	Highlights    []config.HighlightConfig `json:"highlights,omitempty"`
	Temperature   float64                  `json:"temperature"`
	WallHits      int                      `json:"wall_hits"`
}

// Presenter receives every TickReport from AdvanceTick, on the calling
// goroutine. Reports must be treated as read-only.
type Presenter interface {
	Present(TickReport)
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(TickReport)

// Present implements Presenter.
func (f PresenterFunc) Present(r TickReport) { f(r) }
