package wind

import (
	"math"
	"math/rand/v2"

	"github.com/vk/h2integrate/internal/config"
)

// weibullShape is typical of inland sites.
const weibullShape = 2.0

// SyntheticSpeeds returns an hourly wind speed year with the given mean,
// drawn from a Weibull distribution and shaped with a diurnal and a
// seasonal cycle. The same seed always yields the same year.
func SyntheticSpeeds(mean float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	scale := mean / math.Gamma(1+1/weibullShape)

	out := make([]float64, config.HoursPerYear)
	for i := range out {
		u := rng.Float64()
		v := scale * math.Pow(-math.Log1p(-u), 1/weibullShape)
		hour := float64(i % 24)
		day := float64(i / 24)
		// Windier at night and in winter.
		diurnal := 1 + 0.15*math.Cos(2*math.Pi*hour/24)
		seasonal := 1 + 0.1*math.Cos(2*math.Pi*day/365)
		out[i] = v * diurnal * seasonal
	}
	return out
}

// Shear moves a wind speed measured at one height to another with the
// power law.
func Shear(speeds []float64, fromHeight, toHeight, exponent float64) []float64 {
	f := math.Pow(toHeight/fromHeight, exponent)
	out := make([]float64, len(speeds))
	for i, v := range speeds {
		out[i] = v * f
	}
	return out
}
