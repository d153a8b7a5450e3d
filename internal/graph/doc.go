// Package graph holds the viewpoint navigation graph as an arena.
//
// Groups, positions and viewpoints are addressed by integer IDs drawn from a
// per-build Sequence; neighbor fields store IDs, never pointers, so the
// cyclic navigation structure has no ownership cycles. Edges are directed:
// linking A right of B never creates the reverse edge.
package graph
