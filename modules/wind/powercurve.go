package wind

import "math"

// PowerCurve is a generic turbine curve. Output grows with the cube of the
// wind speed between cut-in and rated speed and is zero outside cut-in and
// cut-out.
type PowerCurve struct {
	CutIn  float64
	Rated  float64
	CutOut float64
}

// DefaultPowerCurve matches a modern land-based turbine.
var DefaultPowerCurve = PowerCurve{CutIn: 3, Rated: 12, CutOut: 25}

// Fraction returns the output at speed v as a fraction of rating.
func (c PowerCurve) Fraction(v float64) float64 {
	switch {
	case v < c.CutIn || v >= c.CutOut:
		return 0
	case v >= c.Rated:
		return 1
	}
	in3 := math.Pow(c.CutIn, 3)
	return (math.Pow(v, 3) - in3) / (math.Pow(c.Rated, 3) - in3)
}

// Generation returns the output in kW of a plant with the given total
// capacity for every wind speed. losses is a fraction.
func (c PowerCurve) Generation(speeds []float64, capacityKW, losses float64) []float64 {
	out := make([]float64, len(speeds))
	for i, v := range speeds {
		out[i] = c.Fraction(v) * capacityKW * (1 - losses)
	}
	return out
}
