// Package main hosts the rivendb CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, and the media toolkit
// into the internal packages: "build" regenerates derived media and replaces
// the catalog database, "match" ranks captures against a screenshot, "show"
// reads a persisted catalog back, and "check" and "config" cover setup.
//
// Commands stay thin. Behavior belongs in internal packages so it can be
// exercised without a terminal.
package main
