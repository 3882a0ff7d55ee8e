// Package wheel builds the circular probability partition for a list of
// weighted candidates and performs weighted draws over it.
package wheel

import (
	"fmt"
	"math"
)

const (
	// MinWeight is the smallest normalized candidate weight.
	MinWeight = 1
	// MaxWeight is the largest normalized candidate weight.
	MaxWeight = 10
	// DefaultWeight is used when a candidate carries no usable weight.
	DefaultWeight = 1
)

// Candidate is one selectable item.
//
// ID is opaque: the wheel only compares it for equality. Weight may hold any
// value; it is normalized by NormalizeWeight before every probability computation.
type Candidate struct {
	ID     string  `yaml:"id"`
	Weight float64 `yaml:"weight"`
}

// NormalizeWeight maps an arbitrary weight onto the integer range [MinWeight, MaxWeight].
//
// Zero (unset) and NaN become DefaultWeight; everything else is rounded half
// away from zero and clamped.
//
// Postcondition: MinWeight <= result <= MaxWeight.
func NormalizeWeight(w float64) int {
	switch {
	case math.IsNaN(w), w == 0:
		return DefaultWeight
	case math.IsInf(w, 1):
		return MaxWeight
	case math.IsInf(w, -1):
		return MinWeight
	}
	r := math.Round(w)
	if r < MinWeight {
		return MinWeight
	}
	if r > MaxWeight {
		return MaxWeight
	}
	return int(r)
}

// WeightMode selects how a normalized weight becomes a probability mass.
type WeightMode int

const (
	// Normal gives each candidate mass equal to its weight.
	Normal WeightMode = iota
	// Inverse gives each candidate mass 1/weight, so heavier candidates are
	// drawn less often. Knockout rounds draw eliminees this way.
	Inverse
)

// String returns "normal" or "inverse".
func (m WeightMode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Inverse:
		return "inverse"
	default:
		return fmt.Sprintf("WeightMode(%d)", int(m))
	}
}

// Effective returns the probability mass for normalized weight w under m.
//
// Precondition: w >= MinWeight.
func (m WeightMode) Effective(w int) float64 {
	if m == Inverse {
		return 1 / float64(w)
	}
	return float64(w)
}
