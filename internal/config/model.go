package config

import "github.com/zclconf/go-cty/cty"

// HoursPerYear is the length of the hourly timeseries every model works on.
const HoursPerYear = 8760

// Model is the unified representation of a plant model configuration.
type Model struct {
	Name          string
	SystemSummary string
	// BaseDir is the directory of the top-level configuration file.
	BaseDir string
	// TechConfigDir is the directory custom model locations are resolved
	// against.
	TechConfigDir string

	Driver       *Driver
	Technologies []*Technology
	Plant        *Plant
}

// Technology returns the technology with the given name, or nil.
func (m *Model) Technology(name string) *Technology {
	for _, t := range m.Technologies {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// ModelKinds lists the model slots of a technology in the order they are
// processed.
var ModelKinds = []string{"performance", "cost", "financial", "control"}

// Technology is one entry of the technology configuration.
type Technology struct {
	Name        string
	Performance *ModelRef
	Cost        *ModelRef
	Control     *ModelRef
	Financial   *ModelRef
	// Inputs is the model_inputs object; an empty object when absent.
	Inputs cty.Value
}

// ModelRef returns the model of the given kind, or nil.
func (t *Technology) ModelRef(kind string) *ModelRef {
	switch kind {
	case "performance":
		return t.Performance
	case "cost":
		return t.Cost
	case "control":
		return t.Control
	case "financial":
		return t.Financial
	}
	return nil
}

// ModelRef names the model filling one slot of a technology.
type ModelRef struct {
	Model     string
	ClassName string
	Location  string
	// Group is the financial group id, financial models only.
	Group string
	// Config is the optional config object of the model entry.
	Config cty.Value
}

// IsCustom reports whether a custom implementation was requested.
func (r *ModelRef) IsCustom() bool {
	return r.ClassName != "" || r.Location != ""
}

// Plant holds the plant-level configuration.
type Plant struct {
	Life     int
	ATBYear  int
	CostYear int
	PPAPrice float64

	Site                *Site
	Interconnections    []Connection
	ResourceConnections []Connection
	// Finance is finance_parameters, cty.NilVal when absent.
	Finance cty.Value
}

// HasFinance reports whether finance_parameters were given.
func (p *Plant) HasFinance() bool {
	return p.Finance != cty.NilVal && !p.Finance.IsNull()
}

// Site describes the plant location.
type Site struct {
	Latitude   float64
	Longitude  float64
	Elevation  float64
	TimeZone   float64
	Boundaries []Boundary
	Resources  []Resource
}

// Boundary is a closed polygon of site coordinates.
type Boundary struct {
	X []float64
	Y []float64
}

// Resource is a site resource entry such as a river discharge record.
type Resource struct {
	Name     string
	Filename string
	Config   cty.Value
}

// Connection is one entry of technology_interconnections or
// resource_to_tech_connections.
type Connection struct {
	Fields []string
}

// Source returns the producing technology.
func (c Connection) Source() string { return c.field(0) }

// Dest returns the consuming technology.
func (c Connection) Dest() string { return c.field(1) }

// Item returns the transported commodity or the connected variable.
func (c Connection) Item() string { return c.field(2) }

// Transport returns the transport model of a four field connection.
func (c Connection) Transport() string { return c.field(3) }

// Arity returns the number of fields.
func (c Connection) Arity() int { return len(c.Fields) }

func (c Connection) field(i int) string {
	if i < len(c.Fields) {
		return c.Fields[i]
	}
	return ""
}

// Driver configures how the model is run.
type Driver struct {
	OutputFolder    string
	Recorder        *Recorder
	Optimization    *Optimization
	DOE             *DOE
	DesignVariables []DesignVariable
	Constraints     []Constraint
	Objective       *Objective
}

// Recorder configures the case recorder.
type Recorder struct {
	Flag bool
	File string
}

// Optimization configures an optimizer run.
type Optimization struct {
	Flag    bool
	Solver  string
	MaxIter int
	Tol     float64
}

// DOE configures a design of experiments run.
type DOE struct {
	Flag      bool
	Generator string
	Levels    int
	Samples   int
	Seed      uint64
	File      string
}

// DesignVariable is a variable the driver may change.
type DesignVariable struct {
	Tech  string
	Name  string
	Flag  bool
	Lower float64
	Upper float64
	Units string
}

// Constraint bounds a model output.
type Constraint struct {
	Tech   string
	Name   string
	Flag   bool
	Lower  *float64
	Upper  *float64
	Equals *float64
	Units  string
}

// Objective names the output to minimize.
type Objective struct {
	Name string
	Ref  float64
}

// Active reports whether any driver beyond a single run is requested.
func (d *Driver) Active() bool {
	if d == nil {
		return false
	}
	return (d.Optimization != nil && d.Optimization.Flag) || (d.DOE != nil && d.DOE.Flag)
}
