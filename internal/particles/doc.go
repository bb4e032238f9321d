// Package particles holds the simulation data model: the agent arena, the
// category table that fixes per-category physical constants, the bond graph
// layered over the arena, and the container geometry.
//
// Agents are addressed by their index in the arena. Bonds and the spatial
// grid store indices, so the arena may grow or be copied without leaving
// dangling references.
package particles
