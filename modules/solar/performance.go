package solar

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/floats"
)

type performanceConfig struct {
	CapacityKW         float64 `cty:"pv_capacity_kw"`
	Tilt               float64 `cty:"tilt,optional"`
	Azimuth            float64 `cty:"azimuth,optional"`
	DCACRatio          float64 `cty:"dc_ac_ratio,optional"`
	LossesPercent      float64 `cty:"losses_percent,optional"`
	InverterEfficiency float64 `cty:"inverter_efficiency,optional"`
	ClearnessIndex     float64 `cty:"clearness_index,optional"`
	// GHI overrides the clear-sky irradiance, W/m^2.
	GHI cty.Value `cty:"ghi,optional"`
}

// Performance converts global horizontal irradiance on a fixed-tilt array
// into AC output, clipped at the inverter rating.
type Performance struct {
	cfg       performanceConfig
	surface   Surface
	positions []Position
	ghi       []float64
}

func newPerformance(args registry.Args) (om.Component, error) {
	if args.Plant == nil || args.Plant.Site == nil {
		return nil, errors.New("pv_plant_performance requires a site")
	}
	site := args.Plant.Site
	cfg := performanceConfig{
		Tilt:               math.Abs(site.Latitude),
		Azimuth:            180,
		DCACRatio:          1.2,
		LossesPercent:      14,
		InverterEfficiency: 96,
		ClearnessIndex:     0.75,
	}
	if site.Latitude < 0 {
		cfg.Azimuth = 0
	}
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	if cfg.DCACRatio <= 0 {
		return nil, fmt.Errorf("dc_ac_ratio must be positive, got %g", cfg.DCACRatio)
	}

	positions := make([]Position, config.HoursPerYear)
	for i := range positions {
		positions[i] = SunPosition(site.Latitude, site.Longitude, site.TimeZone, i)
	}
	var ghi []float64
	if cfg.GHI == cty.NilVal || cfg.GHI.IsNull() {
		ghi = Irradiance(site, cfg.ClearnessIndex)
	} else {
		var err error
		if ghi, err = config.Series(cfg.GHI, config.HoursPerYear); err != nil {
			return nil, fmt.Errorf("ghi: %w", err)
		}
	}
	return &Performance{
		cfg:       cfg,
		surface:   Surface{Tilt: cfg.Tilt, Azimuth: cfg.Azimuth},
		positions: positions,
		ghi:       ghi,
	}, nil
}

// Setup implements om.Component.
func (c *Performance) Setup(s *om.Spec) error {
	s.AddInput("pv_capacity_kw", om.Val(c.cfg.CapacityKW), om.Units("kW"), om.Desc("DC nameplate"))
	s.AddInput("ghi", om.ArrayVal(c.ghi), om.Units("W/m**2"))

	s.AddOutput("electricity_out", om.Val(0), om.Shape(config.HoursPerYear), om.Units("kW"))
	s.AddOutput("ac_capacity", om.Val(0), om.Units("kW"))
	s.AddOutput("annual_energy", om.Val(0), om.Units("kW*h/year"))
	s.AddOutput("capacity_factor", om.Val(0), om.Units("unitless"), om.Desc("AC energy over DC nameplate"))
	return nil
}

// Compute implements om.Component.
func (c *Performance) Compute(_ context.Context, in, out *om.Vars) error {
	dc := in.Scalar("pv_capacity_kw")
	ac := dc / c.cfg.DCACRatio
	derate := (1 - c.cfg.LossesPercent/100) * c.cfg.InverterEfficiency / 100

	ghi := in.Array("ghi")
	gen := make([]float64, len(ghi))
	for i, g := range ghi {
		// Nameplate is rated at 1000 W/m^2.
		poa := c.surface.POA(g, c.positions[i])
		gen[i] = math.Min(ac, dc*poa/1000*derate)
	}
	aep := floats.Sum(gen)

	out.SetArray("electricity_out", gen)
	out.Set("ac_capacity", ac)
	out.Set("annual_energy", aep)
	if dc > 0 {
		out.Set("capacity_factor", aep/(dc*config.HoursPerYear))
	} else {
		out.Set("capacity_factor", 0)
	}
	return nil
}
