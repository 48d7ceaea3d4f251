package methanol

import (
	"context"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/units"
)

type costConfig struct {
	Capacity float64 `cty:"plant_capacity_kgpy"`
	// Total overnight cost per kg/year of capacity.
	TOC float64 `cty:"toc_kg_y"`
	// Fixed operating cost per kg/year of capacity, per year.
	FOC float64 `cty:"foc_kg_y2"`
	// Variable operating cost per kg produced.
	VOC         float64 `cty:"voc_kg"`
	NGLHV       float64 `cty:"ng_lhv"`
	SynCatPrice float64 `cty:"meoh_syn_cat_price"`
	ATRCatPrice float64 `cty:"meoh_atr_cat_price"`
	NGPrice     float64 `cty:"ng_price"`
}

// Cost uses the NETL total overnight cost convention for capital. Fixed
// O&M scales with capacity and variable O&M with production. Catalyst and
// natural gas are costed separately, and surplus electricity is sold at
// the plant PPA price.
type Cost struct {
	cfg      costConfig
	ppaPrice float64
}

func newCost(args registry.Args) (om.Component, error) {
	var cfg costConfig
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	c := &Cost{cfg: cfg}
	if args.Plant != nil {
		c.ppaPrice = args.Plant.PPAPrice
	}
	return c, nil
}

// Setup implements om.Component.
func (c *Cost) Setup(s *om.Spec) error {
	n := om.Shape(config.HoursPerYear)
	s.AddInput("plant_capacity_kgpy", om.Val(c.cfg.Capacity), om.Units("kg/year"))
	s.AddInput("toc_kg_y", om.Val(c.cfg.TOC), om.Units("USD/kg/year"))
	s.AddInput("foc_kg_y2", om.Val(c.cfg.FOC), om.Units("USD/kg/year**2"))
	s.AddInput("voc_kg", om.Val(c.cfg.VOC), om.Units("USD/kg"))
	s.AddInput("ng_lhv", om.Val(c.cfg.NGLHV), om.Units("MJ/kg"))
	s.AddInput("meoh_syn_cat_price", om.Val(c.cfg.SynCatPrice), om.Units("USD/ft**3"))
	s.AddInput("meoh_atr_cat_price", om.Val(c.cfg.ATRCatPrice), om.Units("USD/ft**3"))
	s.AddInput("ng_price", om.Val(c.cfg.NGPrice), om.Units("USD/MMBtu"))
	s.AddInput("methanol", om.Val(0), n, om.Units("kg/h"))
	s.AddInput("ng_consumption", om.Val(0), n, om.Units("kg/h"))
	s.AddInput("electricity_out", om.Val(0), n, om.Units("kW*h/h"))
	s.AddInput("meoh_syn_cat_consumption", om.Val(0), om.Units("ft**3/year"))
	s.AddInput("meoh_atr_cat_consumption", om.Val(0), om.Units("ft**3/year"))

	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
	s.AddOutput("Fixed_OpEx", om.Val(0), om.Units("USD/year"))
	s.AddOutput("Variable_OpEx", om.Val(0), om.Units("USD/year"))
	s.AddOutput("meoh_syn_cat_cost", om.Val(0), om.Units("USD/year"))
	s.AddOutput("meoh_atr_cat_cost", om.Val(0), om.Units("USD/year"))
	s.AddOutput("ng_cost", om.Val(0), om.Units("USD/year"))
	s.AddOutput("elec_revenue", om.Val(0), om.Units("USD/year"))
	return nil
}

// Compute implements om.Component.
func (c *Cost) Compute(_ context.Context, in, out *om.Vars) error {
	capacity := in.Scalar("plant_capacity_kgpy")
	fixed := capacity * in.Scalar("foc_kg_y2")
	variable := in.Sum("methanol") * in.Scalar("voc_kg")

	lhv, err := units.Convert(in.Scalar("ng_lhv"), "MJ", "MMBtu")
	if err != nil {
		return err
	}

	out.Set("CapEx", capacity*in.Scalar("toc_kg_y"))
	out.Set("Fixed_OpEx", fixed)
	out.Set("Variable_OpEx", variable)
	out.Set("OpEx", fixed+variable)
	out.Set("meoh_syn_cat_cost", in.Scalar("meoh_syn_cat_consumption")*in.Scalar("meoh_syn_cat_price"))
	out.Set("meoh_atr_cat_cost", in.Scalar("meoh_atr_cat_consumption")*in.Scalar("meoh_atr_cat_price"))
	out.Set("ng_cost", in.Sum("ng_consumption")*lhv*in.Scalar("ng_price"))
	// PPA price is USD/kWh.
	out.Set("elec_revenue", in.Sum("electricity_out")*c.ppaPrice)
	return nil
}
