// Package sim owns a dough simulation run: the agent arena, bond graph,
// spatial grid, mixer, integrator and analytics, advanced on a fixed tick.
//
// # Tick
//
// Each tick grows bond rest lengths, applies environment forces, rebuilds
// the grid, runs the parallel chemistry pass and merges its bond proposals,
// applies mixer and contact repulsion, resolves springs, integrates, and
// samples analytics every Config.SampleEvery ticks.
//
// # Thread Safety
//
// Engine methods are safe for concurrent use. Advance and Tick hold the
// write lock for the whole tick; Snapshot, Stats and the parameter getters
// take the read lock. Observers run under the write lock and must not call
// back into the engine.
package sim
