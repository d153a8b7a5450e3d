package graph

import "sync/atomic"

// Sequence hands out monotonically increasing identifiers starting at 1.
type Sequence struct {
	last atomic.Int64
}

// Next returns the next identifier.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Last returns the most recently issued identifier, or 0.
func (s *Sequence) Last() int64 {
	return s.last.Load()
}

// IDs groups the sequences of one catalog build, one per entity kind.
type IDs struct {
	Groups     Sequence
	Positions  Sequence
	Viewpoints Sequence
	Images     Sequence
	Movies     Sequence
	Objects    Sequence
}

// NewIDs returns a fresh set of sequences.
func NewIDs() *IDs {
	return &IDs{}
}
