// Package yaml_adapter loads plant models written as a set of YAML files:
// a top-level file naming the driver, technology and plant configuration
// files, each resolved relative to the top-level file.
package yaml_adapter
