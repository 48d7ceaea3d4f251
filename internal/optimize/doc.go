// Package optimize provides the drivers a plant model can be run with:
// a single analysis, a design of experiments or an optimizer. Drivers work
// on the design variables, objective and constraints registered on the
// problem.
package optimize
