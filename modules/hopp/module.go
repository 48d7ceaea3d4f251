// Package hopp provides a hybrid plant of wind, solar and a battery behind
// a grid interconnect, simulated as one combined performance and cost
// model. Results are memoized on disk because a simulation year is the
// most expensive step of a plant evaluation.
package hopp

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the hybrid plant model.
func (m *Module) Register(r *registry.Registry) {
	r.Register("hopp", newComponent)
}
