package hopp

import (
	"errors"
	"fmt"

	"github.com/vk/h2integrate/internal/config"
	"github.com/zclconf/go-cty/cty"
)

type windConfig struct {
	NumTurbines     int       `cty:"num_turbines"`
	TurbineRatingKW float64   `cty:"turbine_rating_kw"`
	LossesPercent   float64   `cty:"losses_percent,optional"`
	MeanWindSpeed   float64   `cty:"mean_wind_speed,optional"`
	Seed            int       `cty:"seed,optional"`
	WindSpeed       cty.Value `cty:"wind_speed,optional"`
}

type pvConfig struct {
	CapacityKW     float64 `cty:"system_capacity_kw"`
	Tilt           float64 `cty:"tilt,optional"`
	DCACRatio      float64 `cty:"dc_ac_ratio,optional"`
	LossesPercent  float64 `cty:"losses_percent,optional"`
	ClearnessIndex float64 `cty:"clearness_index,optional"`
}

type batteryConfig struct {
	CapacityKW          float64 `cty:"system_capacity_kw,optional"`
	CapacityKWh         float64 `cty:"system_capacity_kwh"`
	RoundTripEfficiency float64 `cty:"round_trip_efficiency,optional"`
	InitialSOC          float64 `cty:"initial_soc,optional"`
}

type gridConfig struct {
	InterconnectKW float64 `cty:"interconnect_kw"`
}

// costInfo prices capacity per MW and MWh installed and per kW-year
// operated.
type costInfo struct {
	WindInstalledCostMW     float64 `cty:"wind_installed_cost_mw,optional"`
	SolarInstalledCostMW    float64 `cty:"solar_installed_cost_mw,optional"`
	StorageInstalledCostMW  float64 `cty:"storage_installed_cost_mw,optional"`
	StorageInstalledCostMWh float64 `cty:"storage_installed_cost_mwh,optional"`
	WindOMPerKW             float64 `cty:"wind_om_per_kw,optional"`
	PVOMPerKW               float64 `cty:"pv_om_per_kw,optional"`
	BatteryOMPerKW          float64 `cty:"battery_om_per_kw,optional"`
}

// plantConfig is the decoded hybrid plant. Absent technologies are nil.
type plantConfig struct {
	Wind    *windConfig
	PV      *pvConfig
	Battery *batteryConfig
	Grid    gridConfig
	Cost    costInfo
	// Schedule is the desired delivery in kW; nil means the full
	// interconnect every hour.
	Schedule []float64
	Cache    bool
}

func decodePlant(v cty.Value) (*plantConfig, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, errors.New("hopp requires a performance_model config")
	}
	techs := config.Attr(v, "technologies")
	if techs == cty.NilVal {
		return nil, errors.New("hopp config has no technologies")
	}

	pc := &plantConfig{Cache: true}
	if w := config.Attr(techs, "wind"); w != cty.NilVal {
		pc.Wind = &windConfig{LossesPercent: 15, MeanWindSpeed: 7.5, Seed: 1}
		if err := config.Decode(w, pc.Wind); err != nil {
			return nil, fmt.Errorf("technologies.wind: %w", err)
		}
	}
	if p := config.Attr(techs, "pv"); p != cty.NilVal {
		pc.PV = &pvConfig{DCACRatio: 1.2, LossesPercent: 14, ClearnessIndex: 0.75, Tilt: -1}
		if err := config.Decode(p, pc.PV); err != nil {
			return nil, fmt.Errorf("technologies.pv: %w", err)
		}
	}
	if b := config.Attr(techs, "battery"); b != cty.NilVal {
		pc.Battery = &batteryConfig{CapacityKW: 4140, RoundTripEfficiency: 0.9, InitialSOC: 0.5}
		if err := config.Decode(b, pc.Battery); err != nil {
			return nil, fmt.Errorf("technologies.battery: %w", err)
		}
	}
	g := config.Attr(techs, "grid")
	if g == cty.NilVal {
		return nil, errors.New("hopp config has no grid technology")
	}
	if err := config.Decode(g, &pc.Grid); err != nil {
		return nil, fmt.Errorf("technologies.grid: %w", err)
	}
	if pc.Grid.InterconnectKW <= 0 {
		return nil, fmt.Errorf("technologies.grid: interconnect_kw must be positive, got %g", pc.Grid.InterconnectKW)
	}
	if c := config.Attr(v, "cost_info"); c != cty.NilVal {
		if err := config.Decode(c, &pc.Cost); err != nil {
			return nil, fmt.Errorf("cost_info: %w", err)
		}
	}
	if s := config.Lookup(v, "site.desired_schedule"); s != cty.NilVal {
		mw, err := config.Series(s, config.HoursPerYear)
		if err != nil {
			return nil, fmt.Errorf("site.desired_schedule: %w", err)
		}
		pc.Schedule = make([]float64, len(mw))
		for i, x := range mw {
			pc.Schedule[i] = x * 1000
		}
	}
	cache, err := config.Bool(v, "simulation_options.cache", true)
	if err != nil {
		return nil, err
	}
	pc.Cache = cache
	return pc, nil
}
