package electrolyzer

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
)

const (
	// offshoreInstallFactor is the installation cost added per unit of
	// capital cost when the stacks sit offshore.
	offshoreInstallFactor = 0.33
	// propertyTaxInsurance is charged yearly on the installed cost.
	propertyTaxInsurance = 0.015

	singliticoReferenceMW = 10
	singliticoScaleFactor = -0.21
	singliticoOMFactor    = 0.0344
	singliticoOMExponent  = -0.155
)

// costInputs declares what every electrolyzer cost model reads from the
// performance model.
func costInputs(s *om.Spec, ratingMW float64) {
	s.AddInput("electrolyzer_size_mw", om.Val(ratingMW), om.Units("MW"))
	s.AddInput("total_hydrogen_produced", om.Val(0), om.Units("kg/year"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"))
}

func offshore(location string) (bool, error) {
	switch location {
	case "", "onshore":
		return false, nil
	case "offshore":
		return true, nil
	}
	return false, fmt.Errorf("location must be 'onshore' or 'offshore', got '%s'", location)
}

type basicConfig struct {
	Rating     float64 `cty:"rating"`
	Location   string  `cty:"location,optional"`
	CapexPerKW float64 `cty:"electrolyzer_capex"`
	FixedOM    float64 `cty:"fixed_om,optional"`
}

// BasicCost prices the installed stacks per kW with a fixed O&M charge and
// property tax and insurance on top.
type BasicCost struct {
	cfg      basicConfig
	offshore bool
}

func newBasicCost(args registry.Args) (om.Component, error) {
	cfg := basicConfig{FixedOM: 12.8}
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	if cfg.CapexPerKW <= 0 {
		return nil, fmt.Errorf("electrolyzer_capex must be positive, got %g", cfg.CapexPerKW)
	}
	off, err := offshore(cfg.Location)
	if err != nil {
		return nil, err
	}
	return &BasicCost{cfg: cfg, offshore: off}, nil
}

// Setup implements om.Component.
func (c *BasicCost) Setup(s *om.Spec) error {
	costInputs(s, c.cfg.Rating)
	return nil
}

// Compute implements om.Component.
func (c *BasicCost) Compute(_ context.Context, in, out *om.Vars) error {
	sizeKW := in.Scalar("electrolyzer_size_mw") * 1000
	capex := c.cfg.CapexPerKW * sizeKW
	if c.offshore {
		capex *= 1 + offshoreInstallFactor
	}
	out.Set("CapEx", capex)
	out.Set("OpEx", c.cfg.FixedOM*sizeKW+propertyTaxInsurance*capex)
	return nil
}

type singliticoConfig struct {
	Rating     float64 `cty:"rating"`
	Location   string  `cty:"location,optional"`
	CapexPerKW float64 `cty:"electrolyzer_capex"`
}

// SingliticoCost scales the reference stack cost with plant size, after
// Singlitico et al. (2021). Costs are computed in million USD and reported
// in USD.
type SingliticoCost struct {
	cfg      singliticoConfig
	offshore bool
}

func newSingliticoCost(args registry.Args) (om.Component, error) {
	var cfg singliticoConfig
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	off, err := offshore(cfg.Location)
	if err != nil {
		return nil, err
	}
	return &SingliticoCost{cfg: cfg, offshore: off}, nil
}

// Setup implements om.Component.
func (c *SingliticoCost) Setup(s *om.Spec) error {
	costInputs(s, c.cfg.Rating)
	return nil
}

// Compute implements om.Component.
func (c *SingliticoCost) Compute(_ context.Context, in, out *om.Vars) error {
	capex, opex := singlitico(in.Scalar("electrolyzer_size_mw")*1e-3, c.cfg.CapexPerKW, c.offshore)
	out.Set("CapEx", capex*1e6)
	out.Set("OpEx", opex*1e6)
	return nil
}

// singlitico returns capital and yearly O&M cost in million USD for a
// plant of sizeGW at refCost USD/kW.
func singlitico(sizeGW, refCost float64, offshore bool) (capex, opex float64) {
	if sizeGW <= 0 {
		return 0, 0
	}
	sizeMW := sizeGW * 1e3
	install := 1.0
	if offshore {
		install += offshoreInstallFactor
	}
	capex = sizeGW * refCost * install * math.Pow(sizeMW/singliticoReferenceMW, singliticoScaleFactor)
	opex = capex * singliticoOMFactor * math.Pow(sizeMW, singliticoOMExponent)
	return capex, opex
}

type customConfig struct {
	Rating     float64 `cty:"rating"`
	CapexPerKW float64 `cty:"electrolyzer_capex"`
	FixedOM    float64 `cty:"fixed_om,optional"`
	// VariableOM is charged per MWh consumed.
	VariableOM float64 `cty:"var_om,optional"`
}

// CustomCost takes capital and fixed O&M cost per kW straight from the
// configuration, plus an optional variable charge on consumed energy.
type CustomCost struct {
	cfg customConfig
}

func newCustomCost(args registry.Args) (om.Component, error) {
	var cfg customConfig
	if err := args.Decode("cost", &cfg); err != nil {
		return nil, err
	}
	return &CustomCost{cfg: cfg}, nil
}

// Setup implements om.Component.
func (c *CustomCost) Setup(s *om.Spec) error {
	costInputs(s, c.cfg.Rating)
	s.AddInput("total_electricity_consumed", om.Val(0), om.Units("MW*h/year"))
	return nil
}

// Compute implements om.Component.
func (c *CustomCost) Compute(_ context.Context, in, out *om.Vars) error {
	sizeKW := in.Scalar("electrolyzer_size_mw") * 1000
	out.Set("CapEx", c.cfg.CapexPerKW*sizeKW)
	out.Set("OpEx", c.cfg.FixedOM*sizeKW+c.cfg.VariableOM*in.Scalar("total_electricity_consumed"))
	return nil
}
