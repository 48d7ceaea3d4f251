// Package dag provides a small directed graph used to order model
// evaluation. Edges point from a node to the nodes that depend on it.
//
// Besides plain cycle detection the graph can split itself into strongly
// connected blocks, which is how coupled subsystems are found: a block with
// more than one member needs an iterative solver, every other block can be
// evaluated once in topological order.
package dag
