package kaspa

import "sync/atomic"

// RequestIDs hands out identifiers for outbound request envelopes.
// Implementations must be safe for concurrent use and must never return 0,
// which the wire format treats as absent.
type RequestIDs interface {
	Next() uint64
}

// SequentialIDs issues process-unique request identifiers starting at 1.
type SequentialIDs struct {
	counter atomic.Uint64
}

// NewSequentialIDs returns a fresh counter. The first Next call yields 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Next returns the next identifier, skipping 0 on wraparound.
func (s *SequentialIDs) Next() uint64 {
	v := s.counter.Add(1)
	if v == 0 {
		v = s.counter.Add(1)
	}
	return v
}
