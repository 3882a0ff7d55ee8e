package rng

import (
	"fmt"
	"sync"
)

// Sequence is a Source that replays a fixed list of values. It is intended
// for tests that need to force a specific draw.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
	reads  int
	cycle  bool
}

// NewSequence returns a Source that yields values in order and panics once
// they are exhausted.
//
// Precondition: every value is in [0, 1).
func NewSequence(values ...float64) *Sequence {
	return newSequence(values, false)
}

// NewCycle returns a Source that yields values in order, wrapping around forever.
//
// Precondition: len(values) > 0; every value is in [0, 1).
func NewCycle(values ...float64) *Sequence {
	if len(values) == 0 {
		panic("rng: NewCycle called with no values")
	}
	return newSequence(values, true)
}

func newSequence(values []float64, cycle bool) *Sequence {
	for _, v := range values {
		if v < 0 || v >= 1 {
			panic(fmt.Sprintf("rng: sequence value %v outside [0, 1)", v))
		}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return &Sequence{values: cp, cycle: cycle}
}

// Float64 returns the next value in the sequence.
//
// Panics with "rng: sequence exhausted" when a non-cycling sequence runs out.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.values) {
		if !s.cycle {
			panic("rng: sequence exhausted")
		}
		s.next = 0
	}
	v := s.values[s.next]
	s.next++
	s.reads++
	return v
}

// Consumed reports how many values have been read so far.
func (s *Sequence) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}
