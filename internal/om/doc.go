// Package om is a small component/group framework for composing plant
// models.
//
// Components declare named inputs and outputs during Setup and fill their
// outputs during Compute. Groups nest components and other groups, promote
// variable names upward and connect outputs to inputs. A Problem resolves
// the whole tree once: it matches promoted names, applies explicit
// connections, infers array lengths, precomputes unit conversions and
// decides the execution order. Inputs that nothing feeds are backed by
// automatically created independent values, so every input can be set by
// its promoted name.
//
// Evaluation is single threaded. Siblings that feed each other form a
// coupled block which is iterated with nonlinear block Gauss-Seidel when
// the group, or one of its ancestors, has a solver attached.
package om
