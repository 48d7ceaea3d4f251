// Package config defines the format-agnostic description of a plant model
// and the Loader interface that turns configuration files into it.
//
// The Model is the single source of truth for model construction. Concrete
// loaders for YAML and HCL live in separate adapter packages. Values whose
// shape depends on the technology, such as model_inputs, stay as cty values
// until a component decodes them with Decode.
package config
