package components

// Body holds the physical properties copied from the species at spawn time,
// so a particle's identity does not change if the catalog is rebuilt.
type Body struct {
	Radius float64
	Mass   float64
}

// KineticEnergy returns ½·m·|v|².
func (b Body) KineticEnergy(v Velocity) float64 {
	return 0.5 * b.Mass * (v.X*v.X + v.Y*v.Y)
}
