package hopp

import (
	"fmt"
	"math"

	"github.com/vk/h2integrate/internal/config"
	"github.com/vk/h2integrate/modules/solar"
	"github.com/vk/h2integrate/modules/wind"
	"github.com/zclconf/go-cty/cty"
	"gonum.org/v1/gonum/floats"
)

// sizing is the part of the plant a driver may change between runs.
type sizing struct {
	WindTurbineRatingKW float64
	PVCapacityKW        float64
	BatteryCapacityKW   float64
	BatteryCapacityKWh  float64
}

// results is what a simulation produces and what is cached.
type results struct {
	PercentLoadMissed  float64   `msgpack:"percent_load_missed"`
	CurtailmentPercent float64   `msgpack:"curtailment_percent"`
	Production         []float64 `msgpack:"production"`
	AEP                float64   `msgpack:"aep"`
	CapEx              float64   `msgpack:"capex"`
	OpEx               float64   `msgpack:"opex"`
}

// generation returns the hourly wind and solar output in kW.
func generation(pc *plantConfig, site *config.Site, sz sizing) ([]float64, error) {
	total := make([]float64, config.HoursPerYear)
	if pc.Wind != nil {
		speeds := wind.SyntheticSpeeds(pc.Wind.MeanWindSpeed, uint64(pc.Wind.Seed))
		if v := pc.Wind.WindSpeed; v != cty.NilVal && !v.IsNull() {
			var err error
			if speeds, err = config.Series(v, config.HoursPerYear); err != nil {
				return nil, fmt.Errorf("technologies.wind.wind_speed: %w", err)
			}
		}
		capacity := float64(pc.Wind.NumTurbines) * sz.WindTurbineRatingKW
		floats.Add(total, wind.DefaultPowerCurve.Generation(speeds, capacity, pc.Wind.LossesPercent/100))
	}
	if pc.PV != nil {
		if site == nil {
			return nil, fmt.Errorf("technologies.pv requires a site")
		}
		tilt := pc.PV.Tilt
		if tilt < 0 {
			tilt = math.Abs(site.Latitude)
		}
		azimuth := 180.0
		if site.Latitude < 0 {
			azimuth = 0
		}
		surface := solar.Surface{Tilt: tilt, Azimuth: azimuth}
		ac := sz.PVCapacityKW / pc.PV.DCACRatio
		derate := 1 - pc.PV.LossesPercent/100
		for i := range total {
			pos := solar.SunPosition(site.Latitude, site.Longitude, site.TimeZone, i)
			poa := surface.POA(pc.PV.ClearnessIndex*solar.ClearSkyGHI(pos), pos)
			total[i] += math.Min(ac, sz.PVCapacityKW*poa/1000*derate)
		}
	}
	return total, nil
}

// dispatch serves the schedule from generation and the battery and clips
// delivery at the interconnect. It returns the delivered power and the
// generation that could neither be delivered nor stored.
func dispatch(gen, schedule []float64, interconnect float64, b *batteryConfig, sz sizing) (delivered []float64, curtailed float64) {
	var power, energy, eff, soc float64
	if b != nil {
		power, energy = sz.BatteryCapacityKW, sz.BatteryCapacityKWh
		// Losses are split evenly between charge and discharge.
		eff = math.Sqrt(b.RoundTripEfficiency)
		soc = b.InitialSOC * energy
	}

	delivered = make([]float64, len(gen))
	for i, g := range gen {
		want := interconnect
		if schedule != nil {
			want = math.Min(schedule[i], interconnect)
		}
		if g >= want {
			surplus := g - want
			charge := 0.0
			if eff > 0 {
				charge = math.Min(surplus, math.Min(power, (energy-soc)/eff))
				soc += charge * eff
			}
			// Surplus beyond the schedule may still be exported.
			extra := math.Min(surplus-charge, interconnect-want)
			delivered[i] = want + extra
			curtailed += surplus - charge - extra
			continue
		}
		deficit := want - g
		discharge := 0.0
		if eff > 0 {
			discharge = math.Min(deficit, math.Min(power, soc*eff))
			soc -= discharge / eff
		}
		delivered[i] = g + discharge
	}
	return delivered, curtailed
}

// simulate runs the hybrid plant for a year.
func simulate(pc *plantConfig, site *config.Site, sz sizing) (results, error) {
	gen, err := generation(pc, site, sz)
	if err != nil {
		return results{}, err
	}
	delivered, curtailed := dispatch(gen, pc.Schedule, pc.Grid.InterconnectKW, pc.Battery, sz)

	schedule := pc.Schedule
	if schedule == nil {
		schedule = make([]float64, len(gen))
		for i := range schedule {
			schedule[i] = pc.Grid.InterconnectKW
		}
	}
	var missed, wanted float64
	for i, s := range schedule {
		s = math.Min(s, pc.Grid.InterconnectKW)
		wanted += s
		missed += math.Max(0, s-delivered[i])
	}

	r := results{Production: delivered, AEP: floats.Sum(delivered)}
	if wanted > 0 {
		r.PercentLoadMissed = 100 * missed / wanted
	}
	if g := floats.Sum(gen); g > 0 {
		r.CurtailmentPercent = 100 * curtailed / g
	}

	c := pc.Cost
	if pc.Wind != nil {
		kw := float64(pc.Wind.NumTurbines) * sz.WindTurbineRatingKW
		r.CapEx += kw / 1000 * c.WindInstalledCostMW
		r.OpEx += kw * c.WindOMPerKW
	}
	if pc.PV != nil {
		r.CapEx += sz.PVCapacityKW / 1000 * c.SolarInstalledCostMW
		r.OpEx += sz.PVCapacityKW * c.PVOMPerKW
	}
	if pc.Battery != nil {
		r.CapEx += sz.BatteryCapacityKW/1000*c.StorageInstalledCostMW + sz.BatteryCapacityKWh/1000*c.StorageInstalledCostMWh
		r.OpEx += sz.BatteryCapacityKW * c.BatteryOMPerKW
	}
	return r, nil
}
