package h2i

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
)

type feedstock struct {
	Name string
	// RatedCapacity is the hourly supply in Units.
	RatedCapacity float64 `cty:"rated_capacity"`
	Units         string  `cty:"units,optional"`
	// Price is paid per unit of supply, e.g. USD/kg for kg/h.
	Price float64 `cty:"price,optional"`
}

// FeedstockComponent supplies purchased commodities such as natural gas
// or water at a constant rate. Every object in the technology's
// performance parameters is one feedstock:
//
//	natural_gas = { rated_capacity = 100, units = "MMBtu/h", price = 4.2 }
//
// It outputs "<name>_out" for each feedstock, no CapEx and the yearly
// purchase cost as OpEx.
type FeedstockComponent struct {
	feedstocks []feedstock
}

// NewFeedstockComponent reads the feedstocks of a technology.
func NewFeedstockComponent(tech *config.Technology) (*FeedstockComponent, error) {
	params, err := config.MergeSharedInputs(tech.Inputs, "performance")
	if err != nil {
		return nil, err
	}
	fc := &FeedstockComponent{}
	if params.IsNull() || !params.Type().IsObjectType() {
		return fc, nil
	}
	for it := params.ElementIterator(); it.Next(); {
		key, val := it.Element()
		name := key.AsString()
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			continue
		}
		f := feedstock{Name: name, Units: "kg/h"}
		if err := config.Decode(val, &f); err != nil {
			return nil, fmt.Errorf("feedstock '%s': %w", name, err)
		}
		if f.RatedCapacity < 0 {
			return nil, fmt.Errorf("feedstock '%s': rated_capacity must not be negative, got %g", name, f.RatedCapacity)
		}
		fc.feedstocks = append(fc.feedstocks, f)
	}
	return fc, nil
}

// Setup implements om.Component.
func (c *FeedstockComponent) Setup(s *om.Spec) error {
	for _, f := range c.feedstocks {
		s.AddOutput(f.Name+"_out", om.Val(f.RatedCapacity), om.Shape(config.HoursPerYear), om.Units(f.Units))
	}
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *FeedstockComponent) Compute(_ context.Context, _, out *om.Vars) error {
	var opex float64
	for _, f := range c.feedstocks {
		out.Set(f.Name+"_out", f.RatedCapacity)
		opex += f.RatedCapacity * f.Price * config.HoursPerYear
	}
	out.Set("CapEx", 0)
	out.Set("OpEx", opex)
	return nil
}
