package transport

import (
	"context"

	"github.com/vk/h2integrate/internal/om"
)

// PassThrough copies <item>_in to <item>_out. Cables and pipes are modeled
// without losses.
type PassThrough struct {
	Item  string
	Units string
}

// NewPassThrough returns a link for the given commodity.
func NewPassThrough(item, units string) *PassThrough {
	return &PassThrough{Item: item, Units: units}
}

// Setup implements om.Component.
func (c *PassThrough) Setup(s *om.Spec) error {
	in, out := c.Item+"_in", c.Item+"_out"
	s.AddInput(in, om.Val(0), om.ShapeByConn(), om.CopyShape(out), om.Units(c.Units))
	s.AddOutput(out, om.Val(0), om.ShapeByConn(), om.CopyShape(in), om.Units(c.Units))
	return nil
}

// Compute implements om.Component.
func (c *PassThrough) Compute(_ context.Context, in, out *om.Vars) error {
	out.SetArray(c.Item+"_out", in.Array(c.Item+"_in"))
	return nil
}
