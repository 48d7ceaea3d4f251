// Package controllers provides open-loop controllers. A controller sits
// inside a technology group between what the technology receives and what
// it hands on.
package controllers

import "github.com/vk/h2integrate/internal/registry"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the controllers.
func (m *Module) Register(r *registry.Registry) {
	r.Register("pass_through_controller", newPassThrough)
	r.Register("demand_open_loop_controller", newDemand)
}
