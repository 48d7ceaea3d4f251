package wind

import (
	"context"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/floats"
)

type performanceConfig struct {
	NumTurbines     int     `cty:"num_turbines"`
	TurbineRatingKW float64 `cty:"turbine_rating_kw"`
	HubHeight       float64 `cty:"hub_height,optional"`
	CutInSpeed      float64 `cty:"cut_in_speed,optional"`
	RatedSpeed      float64 `cty:"rated_speed,optional"`
	CutOutSpeed     float64 `cty:"cut_out_speed,optional"`
	LossesPercent   float64 `cty:"losses_percent,optional"`
	// WindSpeed is measured at MeasurementHeight. Without it a synthetic
	// year with MeanWindSpeed is generated.
	WindSpeed         cty.Value `cty:"wind_speed,optional"`
	MeasurementHeight float64   `cty:"measurement_height,optional"`
	ShearExponent     float64   `cty:"shear_exponent,optional"`
	MeanWindSpeed     float64   `cty:"mean_wind_speed,optional"`
	Seed              int       `cty:"seed,optional"`
}

// Performance converts an hourly hub-height wind speed into plant output.
type Performance struct {
	cfg   performanceConfig
	curve PowerCurve
	speed []float64
}

func newPerformance(args registry.Args) (om.Component, error) {
	cfg := performanceConfig{
		HubHeight:     90,
		CutInSpeed:    DefaultPowerCurve.CutIn,
		RatedSpeed:    DefaultPowerCurve.Rated,
		CutOutSpeed:   DefaultPowerCurve.CutOut,
		LossesPercent: 15,
		ShearExponent: 0.143,
		MeanWindSpeed: 7.5,
		Seed:          1,
	}
	if err := args.Decode("performance", &cfg); err != nil {
		return nil, err
	}
	if cfg.NumTurbines < 0 {
		return nil, fmt.Errorf("num_turbines must not be negative, got %d", cfg.NumTurbines)
	}
	curve := PowerCurve{CutIn: cfg.CutInSpeed, Rated: cfg.RatedSpeed, CutOut: cfg.CutOutSpeed}
	if !(curve.CutIn < curve.Rated && curve.Rated < curve.CutOut) {
		return nil, fmt.Errorf("power curve speeds must satisfy cut_in < rated < cut_out, got %g, %g, %g",
			curve.CutIn, curve.Rated, curve.CutOut)
	}

	var speed []float64
	if cfg.WindSpeed == cty.NilVal || cfg.WindSpeed.IsNull() {
		speed = SyntheticSpeeds(cfg.MeanWindSpeed, uint64(cfg.Seed))
	} else {
		measured, err := config.Series(cfg.WindSpeed, config.HoursPerYear)
		if err != nil {
			return nil, fmt.Errorf("wind_speed: %w", err)
		}
		height := cfg.MeasurementHeight
		if height == 0 {
			height = cfg.HubHeight
		}
		speed = Shear(measured, height, cfg.HubHeight, cfg.ShearExponent)
	}
	return &Performance{cfg: cfg, curve: curve, speed: speed}, nil
}

// Setup implements om.Component.
func (c *Performance) Setup(s *om.Spec) error {
	s.AddInput("num_turbines", om.Val(float64(c.cfg.NumTurbines)), om.Units("unitless"))
	s.AddInput("turbine_rating_kw", om.Val(c.cfg.TurbineRatingKW), om.Units("kW"))
	s.AddInput("wind_speed", om.ArrayVal(c.speed), om.Units("m/s"),
		om.Desc("Hub-height wind speed"))

	s.AddOutput("electricity_out", om.Val(0), om.Shape(config.HoursPerYear), om.Units("kW"))
	s.AddOutput("total_capacity", om.Val(0), om.Units("kW"))
	s.AddOutput("annual_energy", om.Val(0), om.Units("kW*h/year"))
	s.AddOutput("capacity_factor", om.Val(0), om.Units("unitless"))
	return nil
}

// Compute implements om.Component.
func (c *Performance) Compute(_ context.Context, in, out *om.Vars) error {
	capacity := in.Scalar("num_turbines") * in.Scalar("turbine_rating_kw")
	gen := c.curve.Generation(in.Array("wind_speed"), capacity, c.cfg.LossesPercent/100)
	aep := floats.Sum(gen)

	out.SetArray("electricity_out", gen)
	out.Set("total_capacity", capacity)
	out.Set("annual_energy", aep)
	if capacity > 0 {
		out.Set("capacity_factor", aep/(capacity*config.HoursPerYear))
	} else {
		out.Set("capacity_factor", 0)
	}
	return nil
}
