// Package h2i assembles a plant model from a configuration.
//
// Construction runs as a fixed pipeline and fails on the first error:
// custom models are collected into a private copy of the registry, then
// the site group, the plant group, one group per technology, the
// financial groups and finally every connection between them are added
// to a single om.Problem. The driver configuration decides whether the
// problem is evaluated once, sampled, or optimized.
//
// Variable names follow the plant layout. A technology "electrolyzer"
// exposes its outputs as "electrolyzer.<name>", a financial group as
// "financials_group_<id>.<name>", and the site outputs are promoted to the
// top level.
package h2i
