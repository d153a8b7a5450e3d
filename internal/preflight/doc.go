// Package preflight provides readiness checks for the external tools and
// filesystem paths a catalog build depends on.
//
// These checks run in two contexts:
//   - "rivendb build" and "rivendb match" call RunAll and refuse to start
//     when a required check fails, so a missing tool never surfaces halfway
//     through a long media stage.
//   - "rivendb check" prints every result as a table.
package preflight
