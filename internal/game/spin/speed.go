package spin

import "time"

// Speed bounds the number of full turns and the duration of one spin.
type Speed struct {
	MinSpins    int
	MaxSpins    int
	MinDuration time.Duration
	MaxDuration time.Duration
}

// Normalize returns s with negative values floored at zero and inverted ranges swapped.
//
// Postcondition: 0 <= MinSpins <= MaxSpins and 0 <= MinDuration <= MaxDuration.
func (s Speed) Normalize() Speed {
	if s.MinSpins < 0 {
		s.MinSpins = 0
	}
	if s.MaxSpins < 0 {
		s.MaxSpins = 0
	}
	if s.MaxSpins < s.MinSpins {
		s.MinSpins, s.MaxSpins = s.MaxSpins, s.MinSpins
	}
	if s.MinDuration < 0 {
		s.MinDuration = 0
	}
	if s.MaxDuration < 0 {
		s.MaxDuration = 0
	}
	if s.MaxDuration < s.MinDuration {
		s.MinDuration, s.MaxDuration = s.MaxDuration, s.MinDuration
	}
	return s
}

// turns maps u in [0, 1) uniformly onto the integers [MinSpins, MaxSpins].
func (s Speed) turns(u float64) int {
	n := s.MinSpins + int(u*float64(s.MaxSpins-s.MinSpins+1))
	if n > s.MaxSpins {
		n = s.MaxSpins
	}
	return n
}

// duration maps u in [0, 1) uniformly onto [MinDuration, MaxDuration].
func (s Speed) duration(u float64) time.Duration {
	return s.MinDuration + time.Duration(u*float64(s.MaxDuration-s.MinDuration))
}
