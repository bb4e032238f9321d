// Package physics computes the per-tick forces on the dough network.
//
// A tick runs, in order:
//
//   - [EnvironmentPass]: force reset, gravity or central pull, Brownian jitter
//   - [ChemistryPass]: volume repulsion and Coulomb friction between close
//     agents, plus bond proposals; followed by [Merge]
//   - [Mixer.Update] and [ContactPass]: rod collision and radius contact
//   - [ResolveSprings]: Hooke forces and bond breakage
//
// The first three are data parallel. Repulsion is only ever added to the
// agent being visited; its neighbor gets the reciprocal push when it is
// visited itself, so a single tick is not exactly momentum conserving.
// Graph mutation happens only in Merge and ResolveSprings, both sequential.
package physics
