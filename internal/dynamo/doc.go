// Package dynamo provides the primitives shared by the dough simulation
// packages.
//
//   - [ParallelFor]: chunked worker fan-out used by the data-parallel phases
//   - [Logger]: injectable leveled logger, [NopLogger] by default
//   - [Configurable]: runtime parameter access used by the control surfaces
//   - domain errors ([ErrParameterBounds], [ErrInvariant], ...)
//
// # Thread Safety
//
// ParallelFor blocks until every chunk has returned. Callers own all
// synchronization of data written inside fn; the simulation packages only
// write per-index state from inside a chunk.
package dynamo
