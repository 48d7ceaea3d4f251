// Package units parses unit expressions such as "kW*h", "kg/h" or
// "USD/kg/year**2" and converts values between compatible units.
//
// An expression is a product of symbols joined by '*' and '/', each symbol
// optionally raised to an integer power with '**'. Evaluation is left to
// right, so "USD/kg/year" means USD per kg per year.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// Dimension indices.
const (
	dimLength = iota
	dimMass
	dimTime
	dimCurrent
	dimTemperature
	dimCurrency
	dimAngle
	numDims
)

// Unit is a parsed unit expression. A value v in this unit equals
// (v + Offset) * Scale in the base units of its dimension.
type Unit struct {
	Expr   string
	Scale  float64
	Offset float64
	dims   [numDims]int8
}

// Dimensionless reports whether the unit carries no dimension.
func (u Unit) Dimensionless() bool {
	return u.dims == [numDims]int8{}
}

// Compatible reports whether values can be converted between u and o.
func (u Unit) Compatible(o Unit) bool {
	return u.dims == o.dims
}

type symbol struct {
	scale  float64
	offset float64
	dims   [numDims]int8
}

func dim(d int, p int8) [numDims]int8 {
	var out [numDims]int8
	out[d] = p
	return out
}

func combine(parts ...[numDims]int8) [numDims]int8 {
	var out [numDims]int8
	for _, p := range parts {
		for i := range out {
			out[i] += p[i]
		}
	}
	return out
}

var (
	length = dim(dimLength, 1)
	mass   = dim(dimMass, 1)
	tm     = dim(dimTime, 1)
	money  = dim(dimCurrency, 1)
	power  = combine(mass, length, length, dim(dimTime, -3))
	energy = combine(mass, length, length, dim(dimTime, -2))
	volume = combine(length, length, length)
	press  = combine(mass, dim(dimLength, -1), dim(dimTime, -2))
)

const (
	hour = 3600.0
	day  = 24 * hour
	year = 365 * day
	btu  = 1055.05585262
)

var symbols = map[string]symbol{
	"unitless": {scale: 1},
	"percent":  {scale: 0.01},
	"m":        {scale: 1, dims: length},
	"km":       {scale: 1e3, dims: length},
	"cm":       {scale: 1e-2, dims: length},
	"mm":       {scale: 1e-3, dims: length},
	"ft":       {scale: 0.3048, dims: length},
	"inch":     {scale: 0.0254, dims: length},
	"mi":       {scale: 1609.344, dims: length},
	"g":        {scale: 1e-3, dims: mass},
	"kg":       {scale: 1, dims: mass},
	"t":        {scale: 1e3, dims: mass},
	"lbm":      {scale: 0.45359237, dims: mass},
	"s":        {scale: 1, dims: tm},
	"min":      {scale: 60, dims: tm},
	"h":        {scale: hour, dims: tm},
	"d":        {scale: day, dims: tm},
	"day":      {scale: day, dims: tm},
	"yr":       {scale: year, dims: tm},
	"year":     {scale: year, dims: tm},
	"W":        {scale: 1, dims: power},
	"kW":       {scale: 1e3, dims: power},
	"MW":       {scale: 1e6, dims: power},
	"GW":       {scale: 1e9, dims: power},
	"J":        {scale: 1, dims: energy},
	"kJ":       {scale: 1e3, dims: energy},
	"MJ":       {scale: 1e6, dims: energy},
	"GJ":       {scale: 1e9, dims: energy},
	"Wh":       {scale: hour, dims: energy},
	"kWh":      {scale: 1e3 * hour, dims: energy},
	"MWh":      {scale: 1e6 * hour, dims: energy},
	"Btu":      {scale: btu, dims: energy},
	"MMBtu":    {scale: 1e6 * btu, dims: energy},
	"L":        {scale: 1e-3, dims: volume},
	"galUS":    {scale: 3.785411784e-3, dims: volume},
	"gal":      {scale: 3.785411784e-3, dims: volume},
	"Pa":       {scale: 1, dims: press},
	"kPa":      {scale: 1e3, dims: press},
	"MPa":      {scale: 1e6, dims: press},
	"bar":      {scale: 1e5, dims: press},
	"psi":      {scale: 6894.757293168, dims: press},
	"A":        {scale: 1, dims: dim(dimCurrent, 1)},
	"K":        {scale: 1, dims: dim(dimTemperature, 1)},
	"degK":     {scale: 1, dims: dim(dimTemperature, 1)},
	"degC":     {scale: 1, offset: 273.15, dims: dim(dimTemperature, 1)},
	"degF":     {scale: 5.0 / 9.0, offset: 459.67, dims: dim(dimTemperature, 1)},
	"USD":      {scale: 1, dims: money},
	"MUSD":     {scale: 1e6, dims: money},
	"rad":      {scale: 1, dims: dim(dimAngle, 1)},
	"deg":      {scale: math.Pi / 180, dims: dim(dimAngle, 1)},
}

var cache sync.Map

// Parse parses a unit expression. The empty string parses to the
// dimensionless unit with scale 1.
func Parse(expr string) (Unit, error) {
	if u, ok := cache.Load(expr); ok {
		return u.(Unit), nil
	}
	u, err := parse(expr)
	if err != nil {
		return Unit{}, err
	}
	cache.Store(expr, u)
	return u, nil
}

func parse(expr string) (Unit, error) {
	u := Unit{Expr: expr, Scale: 1}
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return u, nil
	}

	terms, ops, err := tokenize(trimmed)
	if err != nil {
		return Unit{}, fmt.Errorf("invalid unit %q: %w", expr, err)
	}

	for i, term := range terms {
		name, pow, err := splitPower(term)
		if err != nil {
			return Unit{}, fmt.Errorf("invalid unit %q: %w", expr, err)
		}
		sym, ok := symbols[name]
		if !ok {
			if f, err := strconv.ParseFloat(name, 64); err == nil {
				sym = symbol{scale: f}
			} else {
				return Unit{}, fmt.Errorf("invalid unit %q: unknown symbol %q", expr, name)
			}
		}
		if sym.offset != 0 && len(terms) > 1 {
			return Unit{}, fmt.Errorf("invalid unit %q: offset unit %q cannot be combined", expr, name)
		}
		sign := int8(1)
		if i > 0 && ops[i-1] == '/' {
			sign = -1
		}
		p := sign * pow
		u.Scale *= math.Pow(sym.scale, float64(p))
		for d := range u.dims {
			sum := int(u.dims[d]) + int(sym.dims[d])*int(p)
			if sum < math.MinInt8 || sum > math.MaxInt8 {
				return Unit{}, fmt.Errorf("invalid unit %q: dimension exponent out of range", expr)
			}
			u.dims[d] = int8(sum)
		}
		u.Offset = sym.offset
	}
	return u, nil
}

// tokenize splits an expression into terms and the operators between them.
// A '**' is part of its term, not an operator.
func tokenize(expr string) ([]string, []byte, error) {
	var terms []string
	var ops []byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == '*' && i+1 < len(expr) && expr[i+1] == '*' {
			i++
			continue
		}
		if c == '*' || c == '/' {
			terms = append(terms, strings.TrimSpace(expr[start:i]))
			ops = append(ops, c)
			start = i + 1
		}
	}
	terms = append(terms, strings.TrimSpace(expr[start:]))
	for _, t := range terms {
		if t == "" {
			return nil, nil, fmt.Errorf("empty term")
		}
	}
	return terms, ops, nil
}

// maxPower bounds a single exponent; dimensions are stored as int8.
const maxPower = 16

func splitPower(term string) (string, int8, error) {
	name, exp, found := strings.Cut(term, "**")
	if !found {
		return term, 1, nil
	}
	p, err := strconv.Atoi(strings.TrimSpace(exp))
	if err != nil {
		return "", 0, fmt.Errorf("bad exponent in %q", term)
	}
	if p < -maxPower || p > maxPower {
		return "", 0, fmt.Errorf("exponent %d in %q is out of range [-%d, %d]", p, term, maxPower, maxPower)
	}
	return strings.TrimSpace(name), int8(p), nil
}

// Factors returns scale and offset such that a value v in unit from equals
// (v + offset) * scale in unit to. Either side being empty means no
// conversion.
func Factors(from, to string) (scale, offset float64, err error) {
	if from == "" || to == "" || from == to {
		return 1, 0, nil
	}
	fu, err := Parse(from)
	if err != nil {
		return 0, 0, err
	}
	tu, err := Parse(to)
	if err != nil {
		return 0, 0, err
	}
	if !fu.Compatible(tu) {
		return 0, 0, fmt.Errorf("units '%s' and '%s' are incompatible", from, to)
	}
	// (v + fo) * fs = (w + to) * ts  =>  w = (v + fo - to*ts/fs) * fs/ts
	scale = fu.Scale / tu.Scale
	offset = fu.Offset - tu.Offset*tu.Scale/fu.Scale
	return scale, offset, nil
}

// Convert converts a single value between units.
func Convert(v float64, from, to string) (float64, error) {
	scale, offset, err := Factors(from, to)
	if err != nil {
		return 0, err
	}
	return (v + offset) * scale, nil
}

// ConvertSlice converts every element of vs into a new slice.
func ConvertSlice(vs []float64, from, to string) ([]float64, error) {
	scale, offset, err := Factors(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = (v + offset) * scale
	}
	return out, nil
}

// Compatible reports whether two unit expressions can be converted into
// each other. Unparseable expressions are never compatible.
func Compatible(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	ua, err := Parse(a)
	if err != nil {
		return false
	}
	ub, err := Parse(b)
	if err != nil {
		return false
	}
	return ua.Compatible(ub)
}
