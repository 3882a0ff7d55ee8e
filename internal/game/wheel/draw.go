package wheel

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/wheel/internal/game/rng"
)

// Draw selects one segment of p with probability proportional to its weight.
//
// A target is drawn uniformly in [0, TotalWeight) and segments are walked in
// order; the first whose cumulative weight reaches the target wins, so a
// target sitting exactly on a boundary goes to the earlier segment.
//
// Precondition: src must be non-nil.
// Postcondition: Returns (segment, true), or (Segment{}, false) iff p is degenerate.
func Draw(p Partition, src rng.Source) (Segment, bool) {
	seg, _, ok := draw(p, src)
	return seg, ok
}

func draw(p Partition, src rng.Source) (Segment, float64, bool) {
	if p.Degenerate() {
		return Segment{}, 0, false
	}
	target := src.Float64() * p.TotalWeight
	cumulative := 0.0
	for _, s := range p.Segments {
		cumulative += s.Weight
		if target <= cumulative {
			return s, target, true
		}
	}
	// Summation drift can leave cumulative a hair under TotalWeight.
	return p.Segments[len(p.Segments)-1], target, true
}

// Drawer wraps a Source and logger to provide logged draws.
// All draws are logged at debug level with target, total weight, mode, and result.
type Drawer struct {
	src    rng.Source
	logger *zap.Logger
}

// NewLoggedDrawer creates a Drawer that draws with src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedDrawer(src rng.Source, logger *zap.Logger) *Drawer {
	return &Drawer{src: src, logger: logger}
}

// Source returns the Drawer's random source.
func (d *Drawer) Source() rng.Source {
	return d.src
}

// Draw performs Draw(p, src) and logs the outcome.
//
// Postcondition: identical semantics to the package-level Draw.
func (d *Drawer) Draw(p Partition) (Segment, bool) {
	seg, target, ok := draw(p, d.src)
	if !ok {
		d.logger.Debug("wheel draw on degenerate partition",
			zap.Stringer("mode", p.Mode),
			zap.Int("segments", len(p.Segments)),
		)
		return seg, false
	}
	d.logger.Debug("wheel draw",
		zap.Stringer("mode", p.Mode),
		zap.Float64("target", target),
		zap.Float64("total_weight", p.TotalWeight),
		zap.String("candidate", seg.CandidateID),
		zap.Int("index", seg.Index),
	)
	return seg, true
}
