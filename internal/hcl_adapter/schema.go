package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level content from
// any file.
type fileRoot struct {
	Name          *string       `hcl:"name,optional"`
	SystemSummary *string       `hcl:"system_summary,optional"`
	Technologies  []*Technology `hcl:"technology,block"`
	Plants        []*Plant      `hcl:"plant,block"`
	Drivers       []*Driver     `hcl:"driver,block"`
}

// Technology is the HCL schema of a `technology` block.
type Technology struct {
	Name        string         `hcl:"name,label"`
	Performance *Model         `hcl:"performance_model,block"`
	Cost        *Model         `hcl:"cost_model,block"`
	Control     *Model         `hcl:"control_model,block"`
	Financial   *Model         `hcl:"financial_model,block"`
	ModelInputs hcl.Expression `hcl:"model_inputs,optional"`
}

// Model is the HCL schema of the model blocks inside a technology.
type Model struct {
	Model     string         `hcl:"model"`
	ClassName string         `hcl:"model_class_name,optional"`
	Location  string         `hcl:"model_location,optional"`
	Group     string         `hcl:"group,optional"`
	Config    hcl.Expression `hcl:"config,optional"`
}

// Plant is the HCL schema of the `plant` block.
type Plant struct {
	PlantLife                  int            `hcl:"plant_life"`
	ATBYear                    int            `hcl:"atb_year,optional"`
	CostYear                   int            `hcl:"cost_year,optional"`
	PPAPrice                   float64        `hcl:"ppa_price,optional"`
	Site                       *Site          `hcl:"site,block"`
	TechnologyInterconnections [][]string     `hcl:"technology_interconnections,optional"`
	ResourceToTechConnections  [][]string     `hcl:"resource_to_tech_connections,optional"`
	FinanceParameters          hcl.Expression `hcl:"finance_parameters,optional"`
}

// Site is the HCL schema of the `site` block.
type Site struct {
	Latitude   float64     `hcl:"latitude"`
	Longitude  float64     `hcl:"longitude"`
	Elevation  float64     `hcl:"elevation_m,optional"`
	TimeZone   float64     `hcl:"time_zone,optional"`
	Boundaries []*Boundary `hcl:"boundary,block"`
	Resources  []*Resource `hcl:"resource,block"`
}

// Boundary is the HCL schema of a site `boundary` block.
type Boundary struct {
	X []float64 `hcl:"x"`
	Y []float64 `hcl:"y"`
}

// Resource is the HCL schema of a site `resource` block.
type Resource struct {
	Name     string   `hcl:"name,label"`
	Filename string   `hcl:"filename,optional"`
	Remain   hcl.Body `hcl:",remain"`
}

// Driver is the HCL schema of the `driver` block.
type Driver struct {
	OutputFolder    string            `hcl:"output_folder,optional"`
	Recorder        *Recorder         `hcl:"recorder,block"`
	Optimization    *Optimization     `hcl:"optimization,block"`
	DOE             *DOE              `hcl:"design_of_experiments,block"`
	DesignVariables []*DesignVariable `hcl:"design_variable,block"`
	Constraints     []*Constraint     `hcl:"constraint,block"`
	Objective       *Objective        `hcl:"objective,block"`
}

// Recorder is the HCL schema of the `recorder` block.
type Recorder struct {
	Flag *bool  `hcl:"flag,optional"`
	File string `hcl:"file,optional"`
}

// Optimization is the HCL schema of the `optimization` block.
type Optimization struct {
	Flag    *bool   `hcl:"flag,optional"`
	Solver  string  `hcl:"solver,optional"`
	MaxIter int     `hcl:"max_iter,optional"`
	Tol     float64 `hcl:"tol,optional"`
}

// DOE is the HCL schema of the `design_of_experiments` block.
type DOE struct {
	Flag      *bool  `hcl:"flag,optional"`
	Generator string `hcl:"generator,optional"`
	Levels    int    `hcl:"levels,optional"`
	Samples   int    `hcl:"num_samples,optional"`
	Seed      uint64 `hcl:"seed,optional"`
	File      string `hcl:"filename,optional"`
}

// DesignVariable is the HCL schema of a `design_variable` block.
type DesignVariable struct {
	Tech  string  `hcl:"tech,label"`
	Name  string  `hcl:"name,label"`
	Flag  *bool   `hcl:"flag,optional"`
	Lower float64 `hcl:"lower"`
	Upper float64 `hcl:"upper"`
	Units string  `hcl:"units,optional"`
}

// Constraint is the HCL schema of a `constraint` block.
type Constraint struct {
	Tech   string   `hcl:"tech,label"`
	Name   string   `hcl:"name,label"`
	Flag   *bool    `hcl:"flag,optional"`
	Lower  *float64 `hcl:"lower,optional"`
	Upper  *float64 `hcl:"upper,optional"`
	Equals *float64 `hcl:"equals,optional"`
	Units  string   `hcl:"units,optional"`
}

// Objective is the HCL schema of the `objective` block.
type Objective struct {
	Name string  `hcl:"name"`
	Ref  float64 `hcl:"ref,optional"`
}
