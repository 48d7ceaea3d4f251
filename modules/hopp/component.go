package hopp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/h2integrate/internal/cache"
	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/internal/ctxlog"
	"github.com/vk/h2integrate/internal/om"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// defaultCacheDir is used when the application does not configure one.
const defaultCacheDir = "cache"

// Component is the hybrid plant. Its sizing inputs can be driven; each
// distinct sizing is simulated once and then served from the cache.
type Component struct {
	cfg  *plantConfig
	raw  cty.Value
	site *config.Site
	life int
	// store is nil when caching is disabled.
	store *cache.Cache
}

func newComponent(args registry.Args) (om.Component, error) {
	if args.Tech == nil || args.Tech.Performance == nil {
		return nil, fmt.Errorf("hopp requires a technology with a performance_model")
	}
	raw := args.Tech.Performance.Config
	pc, err := decodePlant(raw)
	if err != nil {
		return nil, err
	}
	c := &Component{cfg: pc, raw: raw}
	if args.Plant != nil {
		c.site = args.Plant.Site
		c.life = args.Plant.Life
	}
	if pc.Cache {
		dir := args.CacheDir
		if dir == "" {
			dir = defaultCacheDir
		}
		c.store = cache.New(filepath.Clean(dir))
	}
	return c, nil
}

// Setup implements om.Component.
func (c *Component) Setup(s *om.Spec) error {
	pc := c.cfg
	if pc.Wind != nil {
		s.AddInput("wind_turbine_rating_kw", om.Val(pc.Wind.TurbineRatingKW), om.Units("kW"))
	}
	if pc.PV != nil {
		s.AddInput("pv_capacity_kw", om.Val(pc.PV.CapacityKW), om.Units("kW"))
	}
	if pc.Battery != nil {
		s.AddInput("battery_capacity_kw", om.Val(pc.Battery.CapacityKW), om.Units("kW"))
		s.AddInput("battery_capacity_kwh", om.Val(pc.Battery.CapacityKWh), om.Units("kW*h"))
	}

	s.AddOutput("percent_load_missed", om.Val(0), om.Units("percent"))
	s.AddOutput("curtailment_percent", om.Val(0), om.Units("percent"))
	s.AddOutput("aep", om.Val(0), om.Units("kW*h"))
	s.AddOutput("electricity_out", om.Val(0), om.Shape(config.HoursPerYear), om.Units("kW"), om.Desc("Power output"))
	s.AddOutput("battery_duration", om.Val(0), om.Units("h"), om.Desc("Battery duration"))
	s.AddOutput("annual_energy_to_interconnect_potential_ratio", om.Val(0), om.Units("unitless"),
		om.Desc("Annual energy to interconnect potential ratio"))
	s.AddOutput("power_capacity_to_interconnect_ratio", om.Val(0), om.Units("unitless"),
		om.Desc("Power capacity to interconnect ratio"))
	s.AddOutput("CapEx", om.Val(0), om.Units("USD"), om.Desc("Total capital expenditures"))
	s.AddOutput("OpEx", om.Val(0), om.Units("USD/year"), om.Desc("Total fixed operating costs"))
	return nil
}

func (c *Component) sizing(in *om.Vars) sizing {
	var sz sizing
	if c.cfg.Wind != nil {
		sz.WindTurbineRatingKW = in.Scalar("wind_turbine_rating_kw")
	}
	if c.cfg.PV != nil {
		sz.PVCapacityKW = in.Scalar("pv_capacity_kw")
	}
	if c.cfg.Battery != nil {
		sz.BatteryCapacityKW = in.Scalar("battery_capacity_kw")
		sz.BatteryCapacityKWh = in.Scalar("battery_capacity_kwh")
	}
	return sz
}

// key covers the configuration and the sizing inputs, so a driver moving
// the sizing never reads a stale entry.
func (c *Component) key(sz sizing) (string, error) {
	raw := c.raw
	if raw.IsNull() {
		raw = cty.EmptyObjectVal
	}
	return cache.Key(cty.ObjectVal(map[string]cty.Value{
		"config": raw,
		"inputs": cty.ObjectVal(map[string]cty.Value{
			"wind_turbine_rating_kw": cty.NumberFloatVal(sz.WindTurbineRatingKW),
			"pv_capacity_kw":         cty.NumberFloatVal(sz.PVCapacityKW),
			"battery_capacity_kw":    cty.NumberFloatVal(sz.BatteryCapacityKW),
			"battery_capacity_kwh":   cty.NumberFloatVal(sz.BatteryCapacityKWh),
		}),
	}), c.life)
}

func (c *Component) results(ctx context.Context, sz sizing) (results, error) {
	logger := ctxlog.FromContext(ctx)
	if c.store == nil {
		return simulate(c.cfg, c.site, sz)
	}

	key, err := c.key(sz)
	if err != nil {
		return results{}, err
	}
	var r results
	ok, err := c.store.Load(key, &r)
	if err != nil {
		return results{}, err
	}
	if ok {
		logger.Debug("Loaded hybrid plant results from cache.", "key", key)
		return r, nil
	}

	if r, err = simulate(c.cfg, c.site, sz); err != nil {
		return results{}, err
	}
	if err := c.store.Store(key, r); err != nil {
		return results{}, err
	}
	logger.Debug("Cached hybrid plant results.", "key", key, "path", c.store.Path(key))
	return r, nil
}

// Compute implements om.Component.
func (c *Component) Compute(ctx context.Context, in, out *om.Vars) error {
	sz := c.sizing(in)
	r, err := c.results(ctx, sz)
	if err != nil {
		return err
	}
	pc := c.cfg

	out.Set("percent_load_missed", r.PercentLoadMissed)
	out.Set("curtailment_percent", r.CurtailmentPercent)
	out.Set("aep", r.AEP)
	out.SetArray("electricity_out", r.Production)
	out.Set("CapEx", r.CapEx)
	out.Set("OpEx", r.OpEx)
	if pc.Battery != nil && sz.BatteryCapacityKW > 0 {
		out.Set("battery_duration", sz.BatteryCapacityKWh/sz.BatteryCapacityKW)
	} else {
		out.Set("battery_duration", 0)
	}

	upHours := float64(config.HoursPerYear)
	if pc.Schedule != nil {
		upHours = 0
		for _, s := range pc.Schedule {
			if s != 0 {
				upHours++
			}
		}
	}
	interconnect := pc.Grid.InterconnectKW
	if upHours > 0 {
		out.Set("annual_energy_to_interconnect_potential_ratio", r.AEP/(interconnect*upHours))
	} else {
		out.Set("annual_energy_to_interconnect_potential_ratio", 0)
	}

	var capacity float64
	if pc.Wind != nil {
		capacity += float64(pc.Wind.NumTurbines) * sz.WindTurbineRatingKW
	}
	capacity += sz.PVCapacityKW + sz.BatteryCapacityKW
	out.Set("power_capacity_to_interconnect_ratio", capacity/interconnect)
	return nil
}
