package yaml_adapter

import "gopkg.in/yaml.v3"

type topFile struct {
	Name             string `yaml:"name"`
	SystemSummary    string `yaml:"system_summary"`
	DriverConfig     string `yaml:"driver_config"`
	TechnologyConfig string `yaml:"technology_config"`
	PlantConfig      string `yaml:"plant_config"`
}

type techFile struct {
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description"`
	Technologies yaml.Node `yaml:"technologies"`
}

type techEntry struct {
	Performance *modelEntry `yaml:"performance_model"`
	Cost        *modelEntry `yaml:"cost_model"`
	Control     *modelEntry `yaml:"control_model"`
	Financial   *modelEntry `yaml:"financial_model"`
	ModelInputs yaml.Node   `yaml:"model_inputs"`
}

type modelEntry struct {
	Model     string    `yaml:"model"`
	ClassName string    `yaml:"model_class_name"`
	Location  string    `yaml:"model_location"`
	Group     yaml.Node `yaml:"group"`
	Config    yaml.Node `yaml:"config"`
}

type plantFile struct {
	Name                       string     `yaml:"name"`
	Site                       siteEntry  `yaml:"site"`
	Plant                      plantEntry `yaml:"plant"`
	FinanceParameters          yaml.Node  `yaml:"finance_parameters"`
	TechnologyInterconnections [][]string `yaml:"technology_interconnections"`
	ResourceToTechConnections  [][]string `yaml:"resource_to_tech_connections"`
}

type plantEntry struct {
	PlantLife int     `yaml:"plant_life"`
	ATBYear   int     `yaml:"atb_year"`
	CostYear  int     `yaml:"cost_year"`
	PPAPrice  float64 `yaml:"ppa_price"`
}

type siteEntry struct {
	Latitude   float64         `yaml:"latitude"`
	Longitude  float64         `yaml:"longitude"`
	Elevation  float64         `yaml:"elevation_m"`
	TimeZone   float64         `yaml:"time_zone"`
	Boundaries []boundaryEntry `yaml:"boundaries"`
	Resources  yaml.Node       `yaml:"resources"`
}

type boundaryEntry struct {
	X []float64 `yaml:"x"`
	Y []float64 `yaml:"y"`
}

type resourceEntry struct {
	Filename string `yaml:"filename"`
}

type driverFile struct {
	Name            string                                `yaml:"name"`
	General         generalEntry                          `yaml:"general"`
	Driver          driverEntry                           `yaml:"driver"`
	Recorder        *recorderEntry                        `yaml:"recorder"`
	DesignVariables map[string]map[string]designVarEntry  `yaml:"design_variables"`
	Constraints     map[string]map[string]constraintEntry `yaml:"constraints"`
	Objective       *objectiveEntry                       `yaml:"objective"`
}

type generalEntry struct {
	FolderOutput string `yaml:"folder_output"`
}

type driverEntry struct {
	Optimization *optimizationEntry `yaml:"optimization"`
	DOE          *doeEntry          `yaml:"design_of_experiments"`
}

type optimizationEntry struct {
	Flag    bool    `yaml:"flag"`
	Solver  string  `yaml:"solver"`
	MaxIter int     `yaml:"max_iter"`
	Tol     float64 `yaml:"tol"`
}

type doeEntry struct {
	Flag      bool   `yaml:"flag"`
	Generator string `yaml:"generator"`
	Levels    int    `yaml:"levels"`
	Samples   int    `yaml:"num_samples"`
	Seed      uint64 `yaml:"seed"`
	File      string `yaml:"filename"`
}

type recorderEntry struct {
	Flag bool   `yaml:"flag"`
	File string `yaml:"file"`
}

type designVarEntry struct {
	Flag  bool    `yaml:"flag"`
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
	Units string  `yaml:"units"`
}

type constraintEntry struct {
	Flag   bool     `yaml:"flag"`
	Lower  *float64 `yaml:"lower"`
	Upper  *float64 `yaml:"upper"`
	Equals *float64 `yaml:"equals"`
	Units  string   `yaml:"units"`
}

type objectiveEntry struct {
	Name string  `yaml:"name"`
	Ref  float64 `yaml:"ref"`
}
