package wheel

import "math"

// FullTurn is one complete revolution in radians.
const FullTurn = 2 * math.Pi

// Segment is one candidate's angular slice of the wheel.
type Segment struct {
	CandidateID string
	// Index is the segment's position in the partition (and in the input list).
	Index      int
	StartAngle float64
	EndAngle   float64
	// Weight is the effective probability mass under the partition's WeightMode.
	Weight float64
	// BaseWeight is the normalized user-assigned weight.
	BaseWeight int
}

// Span returns the segment's angular width.
func (s Segment) Span() float64 {
	return s.EndAngle - s.StartAngle
}

// Contains reports whether angle, already folded into [0, 2π), lies in [StartAngle, EndAngle).
func (s Segment) Contains(angle float64) bool {
	return angle >= s.StartAngle && angle < s.EndAngle
}

// Partition is the ordered circular set of segments for one candidate list.
//
// Invariant: segments are contiguous, in input order, the first starts at 0
// and the last ends at exactly FullTurn. A degenerate partition has no
// segments and TotalWeight 0.
type Partition struct {
	Mode        WeightMode
	Segments    []Segment
	TotalWeight float64
}

// BuildPartition lays candidates around the wheel in input order.
//
// Postcondition: the result is degenerate iff candidates is empty or the
// total effective weight is not positive. Identical input yields identical
// segment boundaries.
func BuildPartition(candidates []Candidate, mode WeightMode) Partition {
	if len(candidates) == 0 {
		return Partition{Mode: mode}
	}

	base := make([]int, len(candidates))
	eff := make([]float64, len(candidates))
	total := 0.0
	for i, c := range candidates {
		base[i] = NormalizeWeight(c.Weight)
		eff[i] = mode.Effective(base[i])
		total += eff[i]
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return Partition{Mode: mode}
	}

	segments := make([]Segment, len(candidates))
	cursor := 0.0
	for i, c := range candidates {
		end := cursor + eff[i]/total*FullTurn
		if i == len(candidates)-1 {
			end = FullTurn
		}
		segments[i] = Segment{
			CandidateID: c.ID,
			Index:       i,
			StartAngle:  cursor,
			EndAngle:    end,
			Weight:      eff[i],
			BaseWeight:  base[i],
		}
		cursor = end
	}
	return Partition{Mode: mode, Segments: segments, TotalWeight: total}
}

// Degenerate reports whether the partition has nothing to draw from.
func (p Partition) Degenerate() bool {
	return len(p.Segments) == 0 || p.TotalWeight <= 0
}

// Probability returns the chance that segment i is drawn.
//
// Precondition: 0 <= i < len(p.Segments).
func (p Partition) Probability(i int) float64 {
	return p.Segments[i].Weight / p.TotalWeight
}

// IndexAt returns the index of the segment containing angle, or -1 for a
// degenerate partition. Any angle is accepted; it is folded into [0, 2π) first.
func (p Partition) IndexAt(angle float64) int {
	if p.Degenerate() {
		return -1
	}
	a := Normalize(angle)
	lo, hi := 0, len(p.Segments)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if a < p.Segments[mid].EndAngle {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// Normalize folds any finite angle into [0, 2π).
func Normalize(angle float64) float64 {
	a := math.Mod(angle, FullTurn)
	if a < 0 {
		a += FullTurn
	}
	if a >= FullTurn {
		a = 0
	}
	return a
}
