package components

import "gonum.org/v1/gonum/spatial/r2"

// Position represents a particle's position in container coordinates.
type Position struct {
	X, Y float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Set stores v.
func (p *Position) Set(v r2.Vec) { p.X, p.Y = v.X, v.Y }

// Velocity represents a particle's displacement per tick.
type Velocity struct {
	X, Y float64
}

// Vec returns the velocity as a vector.
func (v Velocity) Vec() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// Set stores u.
func (v *Velocity) Set(u r2.Vec) { v.X, v.Y = u.X, u.Y }

// Speed returns the velocity magnitude.
func (v Velocity) Speed() float64 { return r2.Norm(v.Vec()) }
