package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

type demandConfig struct {
	ResourceName        string    `cty:"resource_name"`
	ResourceUnits       string    `cty:"resource_units"`
	MaxCapacity         float64   `cty:"max_capacity"`
	MaxChargeRate       float64   `cty:"max_charge_rate"`
	MaxDischargeRate    float64   `cty:"max_discharge_rate,optional"`
	MaxChargePercent    float64   `cty:"max_charge_percent,optional"`
	MinChargePercent    float64   `cty:"min_charge_percent,optional"`
	InitChargePercent   float64   `cty:"init_charge_percent,optional"`
	ChargeEfficiency    float64   `cty:"charge_efficiency,optional"`
	DischargeEfficiency float64   `cty:"discharge_efficiency,optional"`
	DemandProfile       cty.Value `cty:"demand_profile"`
}

// Demand dispatches a store against an hourly demand. Surplus supply
// charges the store up to its rate and fill limits; a shortfall is covered
// from the store down to its minimum fill. Whatever cannot be stored is
// reported as unused, whatever cannot be delivered as unmet demand.
type Demand struct {
	cfg    demandConfig
	demand []float64
}

func newDemand(args registry.Args) (om.Component, error) {
	cfg := demandConfig{
		MaxChargePercent:    1,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
	}
	if err := args.Decode("control", &cfg); err != nil {
		return nil, err
	}
	if cfg.MaxDischargeRate == 0 {
		cfg.MaxDischargeRate = cfg.MaxChargeRate
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	demand, err := config.Series(cfg.DemandProfile, config.HoursPerYear)
	if err != nil {
		return nil, fmt.Errorf("demand_profile: %w", err)
	}
	return &Demand{cfg: cfg, demand: demand}, nil
}

func (c demandConfig) validate() error {
	var errs []error
	if c.MaxCapacity <= 0 {
		errs = append(errs, fmt.Errorf("max_capacity must be positive, got %g", c.MaxCapacity))
	}
	if c.MinChargePercent < 0 || c.MaxChargePercent > 1 || c.MinChargePercent > c.MaxChargePercent {
		errs = append(errs, fmt.Errorf("charge limits must satisfy 0 <= min_charge_percent <= max_charge_percent <= 1, got %g and %g",
			c.MinChargePercent, c.MaxChargePercent))
	}
	if c.InitChargePercent < c.MinChargePercent || c.InitChargePercent > c.MaxChargePercent {
		errs = append(errs, fmt.Errorf("init_charge_percent %g is outside the charge limits", c.InitChargePercent))
	}
	if c.ChargeEfficiency <= 0 || c.ChargeEfficiency > 1 {
		errs = append(errs, fmt.Errorf("charge_efficiency must be in (0, 1], got %g", c.ChargeEfficiency))
	}
	if c.DischargeEfficiency <= 0 || c.DischargeEfficiency > 1 {
		errs = append(errs, fmt.Errorf("discharge_efficiency must be in (0, 1], got %g", c.DischargeEfficiency))
	}
	return errors.Join(errs...)
}

func (c *Demand) name(suffix string) string { return c.cfg.ResourceName + suffix }

// Setup implements om.Component.
func (c *Demand) Setup(s *om.Spec) error {
	u := c.cfg.ResourceUnits
	n := om.Shape(config.HoursPerYear)
	s.AddInput(c.name("_in"), om.Val(0), n, om.Units(u))
	s.AddInput(c.name("_demand"), om.ArrayVal(c.demand), om.Units(u))
	s.AddOutput(c.name("_out"), om.Val(0), n, om.Units(u))
	s.AddOutput(c.name("_soc"), om.Val(0), n, om.Units("unitless"))
	s.AddOutput(c.name("_unused_commodity"), om.Val(0), n, om.Units(u))
	s.AddOutput(c.name("_unmet_demand"), om.Val(0), n, om.Units(u))
	return nil
}

// Compute implements om.Component. Every step is one hour, so rates and
// amounts share a unit.
func (c *Demand) Compute(_ context.Context, in, out *om.Vars) error {
	cfg := c.cfg
	supply := in.Array(c.name("_in"))
	demand := in.Array(c.name("_demand"))

	lo := cfg.MinChargePercent * cfg.MaxCapacity
	hi := cfg.MaxChargePercent * cfg.MaxCapacity
	stored := cfg.InitChargePercent * cfg.MaxCapacity

	n := len(supply)
	delivered := make([]float64, n)
	soc := make([]float64, n)
	unused := make([]float64, n)
	unmet := make([]float64, n)
	for t := range supply {
		if supply[t] >= demand[t] {
			excess := supply[t] - demand[t]
			charge := min(excess, cfg.MaxChargeRate, (hi-stored)/cfg.ChargeEfficiency)
			charge = max(charge, 0)
			stored += charge * cfg.ChargeEfficiency
			delivered[t] = demand[t]
			unused[t] = excess - charge
		} else {
			deficit := demand[t] - supply[t]
			discharge := min(deficit, cfg.MaxDischargeRate, (stored-lo)*cfg.DischargeEfficiency)
			discharge = max(discharge, 0)
			stored -= discharge / cfg.DischargeEfficiency
			delivered[t] = supply[t] + discharge
			unmet[t] = deficit - discharge
		}
		soc[t] = stored / cfg.MaxCapacity
	}

	out.SetArray(c.name("_out"), delivered)
	out.SetArray(c.name("_soc"), soc)
	out.SetArray(c.name("_unused_commodity"), unused)
	out.SetArray(c.name("_unmet_demand"), unmet)
	return nil
}
