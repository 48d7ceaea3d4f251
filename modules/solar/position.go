package solar

import (
	"math"

	"github.com/vk/h2integrate/internal/config"
)

const deg = math.Pi / 180

// Position is the sun's place in the sky. Angles are in radians; Azimuth
// is measured clockwise from north.
type Position struct {
	Zenith  float64
	Azimuth float64
}

// Up reports whether the sun is above the horizon.
func (p Position) Up() bool { return p.Zenith < math.Pi/2 }

// SunPosition returns the position at the middle of the given hour of a
// non-leap year, local standard time.
func SunPosition(lat, lon, timeZone float64, hourOfYear int) Position {
	day := float64(hourOfYear/24 + 1)
	hour := float64(hourOfYear%24) + 0.5

	decl := 23.45 * deg * math.Sin(2*math.Pi*(284+day)/365)
	b := 2 * math.Pi * (day - 81) / 364
	eot := 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b) // minutes
	solarTime := hour + (4*(lon-15*timeZone)+eot)/60
	omega := 15 * deg * (solarTime - 12)

	phi := lat * deg
	cosZ := math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Cos(omega)
	cosZ = math.Max(-1, math.Min(1, cosZ))
	zenith := math.Acos(cosZ)

	sinZ := math.Sin(zenith)
	var az float64
	if sinZ > 1e-9 {
		cosAz := (math.Sin(decl)*math.Cos(phi) - math.Cos(decl)*math.Sin(phi)*math.Cos(omega)) / sinZ
		az = math.Acos(math.Max(-1, math.Min(1, cosAz)))
		if omega > 0 {
			az = 2*math.Pi - az
		}
	}
	return Position{Zenith: zenith, Azimuth: az}
}

// ClearSkyGHI returns global horizontal irradiance in W/m^2 from the
// Haurwitz model.
func ClearSkyGHI(p Position) float64 {
	if !p.Up() {
		return 0
	}
	cz := math.Cos(p.Zenith)
	return 1098 * cz * math.Exp(-0.057/cz)
}

// Surface is a fixed-tilt array. Angles are in degrees.
type Surface struct {
	Tilt    float64
	Azimuth float64
}

// beamFraction of global irradiance on clear days.
const beamFraction = 0.8

// maxBeamGain limits the beam transposition near sunrise and sunset.
const maxBeamGain = 5

// POA transposes global horizontal irradiance to the plane of the array
// with an isotropic sky.
func (s Surface) POA(ghi float64, p Position) float64 {
	if ghi <= 0 || !p.Up() {
		return 0
	}
	beta := s.Tilt * deg
	cosTheta := math.Cos(p.Zenith)*math.Cos(beta) +
		math.Sin(p.Zenith)*math.Sin(beta)*math.Cos(p.Azimuth-s.Azimuth*deg)
	gain := math.Min(maxBeamGain, math.Max(0, cosTheta)/math.Cos(p.Zenith))
	beam := beamFraction * ghi * gain
	diffuse := (1 - beamFraction) * ghi * (1 + math.Cos(beta)) / 2
	return beam + diffuse
}

// Irradiance returns a year of clear-sky GHI at a site scaled by the
// clearness index.
func Irradiance(site *config.Site, clearness float64) []float64 {
	out := make([]float64, config.HoursPerYear)
	for i := range out {
		out[i] = clearness * ClearSkyGHI(SunPosition(site.Latitude, site.Longitude, site.TimeZone, i))
	}
	return out
}
