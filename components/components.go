// Package components defines ECS components for the particle pool.
package components

// Particle identifies a live particle and its species.
// Species is an index into the engine's immutable species catalog.
type Particle struct {
	ID      uint64
	Species uint16
}
