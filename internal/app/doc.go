// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle: build the
// plant model, run its driver and write the outputs. It is decoupled from
// any specific entrypoint like a CLI.
package app
