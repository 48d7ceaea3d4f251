// Package registry maps the model names used in technology configuration
// (for example "pem_electrolyzer_performance") to the Go factories that
// build the matching components.
//
// Built-in models are registered once at startup by the packages under
// modules/. Custom models named in the configuration are collected after
// loading and registered into a per-model copy of the registry, so a custom
// model can never shadow a built-in one.
package registry
