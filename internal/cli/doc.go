// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags and H2I_* environment settings into the
// application's internal configuration; flags win over the environment.
package cli
