// Package transport provides the lossless links placed between two
// technologies and the combiner that merges several electricity feeds.
package transport

import (
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the transport models.
func (m *Module) Register(r *registry.Registry) {
	r.Register("cable", func(registry.Args) (om.Component, error) {
		return NewPassThrough("electricity", "kW"), nil
	})
	r.Register("pipe", func(registry.Args) (om.Component, error) {
		return NewPassThrough("hydrogen", "kg/s"), nil
	})
	r.Register("combiner_performance", newCombiner)
}
