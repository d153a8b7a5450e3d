// Package faults defines the error taxonomy shared by the catalog pipeline and
// the similarity matcher.
//
// Each sentinel marks one class of fatal condition. Wrap attaches stage and
// operation context while keeping the marker reachable through errors.Is, so
// callers can classify a failure without parsing its message.
package faults
