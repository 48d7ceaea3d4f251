package solar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/h2integrate/internal/registry"
	"github.com/vk/h2integrate/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

const (
	lat = 39.91
	lon = -105.22
	tz  = -7
)

func TestSunPosition_SolsticeNoon(t *testing.T) {
	t.Parallel()

	// June 21 is day 172.
	minZenith := math.Pi
	for h := 0; h < 24; h++ {
		p := SunPosition(lat, lon, tz, 171*24+h)
		minZenith = math.Min(minZenith, p.Zenith)
	}
	assert.InDelta(t, lat-23.45, minZenith/deg, 1.5)

	morning := SunPosition(lat, lon, tz, 171*24+9)
	afternoon := SunPosition(lat, lon, tz, 171*24+15)
	assert.True(t, morning.Up())
	assert.Less(t, morning.Azimuth, math.Pi)
	assert.Greater(t, afternoon.Azimuth, math.Pi)
}

func TestClearSkyGHI(t *testing.T) {
	t.Parallel()

	night := SunPosition(lat, lon, tz, 0)
	assert.False(t, night.Up())
	assert.Equal(t, 0.0, ClearSkyGHI(night))

	overhead := Position{Zenith: 0}
	assert.InDelta(t, 1098*math.Exp(-0.057), ClearSkyGHI(overhead), 1e-9)
}

func TestSurface_POA(t *testing.T) {
	t.Parallel()

	p := SunPosition(lat, lon, tz, 171*24+12)
	flat := Surface{Tilt: 0, Azimuth: 180}
	assert.InDelta(t, 800.0, flat.POA(800, p), 1e-9)

	// A winter noon sun is low in the south; a south-facing tilt gains.
	winter := SunPosition(lat, lon, tz, 355*24+12)
	tilted := Surface{Tilt: lat, Azimuth: 180}
	assert.Greater(t, tilted.POA(400, winter), 400.0)
	north := Surface{Tilt: lat, Azimuth: 0}
	assert.Less(t, north.POA(400, winter), 400.0)
}

func upHours() int {
	n := 0
	for i := 0; i < 8760; i++ {
		if SunPosition(lat, lon, tz, i).Up() {
			n++
		}
	}
	return n
}

func flatPlant(t *testing.T, ratio float64) registry.Args {
	t.Helper()
	tech := testutil.Tech("solar", map[string]testutil.Params{
		"performance_parameters": {
			"pv_capacity_kw":      cty.NumberIntVal(1000),
			"tilt":                cty.NumberIntVal(0),
			"dc_ac_ratio":         cty.NumberFloatVal(ratio),
			"losses_percent":      cty.NumberIntVal(0),
			"inverter_efficiency": cty.NumberIntVal(100),
			"ghi":                 cty.NumberIntVal(1000),
		},
	})
	return testutil.Args("pv_plant_performance", "performance", tech)
}

func TestPerformance(t *testing.T) {
	t.Parallel()

	p := testutil.RunComponent(t, testutil.Build(t, newPerformance, flatPlant(t, 1)), nil)

	gen := testutil.Get(t, p, "electricity_out")
	assert.Equal(t, 0.0, gen[0])
	assert.InDelta(t, 1000.0, gen[171*24+12], 1e-9)
	assert.InDelta(t, 1000.0*float64(upHours()), testutil.Scalar(t, p, "annual_energy"), 1e-6)
	assert.Equal(t, 1000.0, testutil.Scalar(t, p, "ac_capacity"))
}

func TestPerformance_Clipping(t *testing.T) {
	t.Parallel()

	p := testutil.RunComponent(t, testutil.Build(t, newPerformance, flatPlant(t, 1.25)), nil)
	assert.InDelta(t, 800.0, testutil.Get(t, p, "electricity_out")[171*24+12], 1e-9)
	assert.InDelta(t, 800.0, testutil.Scalar(t, p, "ac_capacity"), 1e-9)
}

func TestPerformance_ClearSky(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("solar", map[string]testutil.Params{
		"performance_parameters": {"pv_capacity_kw": cty.NumberIntVal(100000)},
	})
	p := testutil.RunComponent(t, testutil.Build(t, newPerformance, testutil.Args("pv_plant_performance", "performance", tech)), nil)

	cf := testutil.Scalar(t, p, "capacity_factor")
	assert.Greater(t, cf, 0.15)
	assert.Less(t, cf, 0.35)
}

func TestPerformance_RequiresSite(t *testing.T) {
	t.Parallel()

	_, err := newPerformance(registry.Args{Kind: "performance"})
	require.EqualError(t, err, "pv_plant_performance requires a site")
}

func TestCost(t *testing.T) {
	t.Parallel()

	tech := testutil.Tech("solar", map[string]testutil.Params{
		"cost_parameters": {
			"pv_capacity_kw":       cty.NumberIntVal(2000),
			"cost_per_kw":          cty.NumberIntVal(1044),
			"opex_per_kw_per_year": cty.NumberIntVal(18),
		},
	})
	p := testutil.RunComponent(t, testutil.Build(t, newCost, testutil.Args("pv_plant_cost", "cost", tech)), nil)
	assert.Equal(t, 2000.0*1044, testutil.Scalar(t, p, "CapEx"))
	assert.Equal(t, 2000.0*18, testutil.Scalar(t, p, "OpEx"))
}
