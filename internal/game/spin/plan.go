package spin

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/rng"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
)

// edgeGuard is the angle (radians) kept clear at each segment edge when
// choosing where the pointer comes to rest. It sits well above the rounding
// error of folding a many-turn rotation back into [0, 2π), so the resting
// point never reads as the neighboring segment.
const edgeGuard = 1e-9

// ErrWinnerMismatch is returned when the segment under the pointer after the
// final frame is not the segment that was drawn.
var ErrWinnerMismatch = errors.New("spin: settled segment disagrees with drawn segment")

// Plan is the immutable description of one animated spin.
type Plan struct {
	SpinID    string
	Partition wheel.Partition
	// Winner is the segment chosen by the draw before animation starts.
	Winner wheel.Segment
	// PointerAngle is the fixed visual direction of the pointer.
	PointerAngle float64
	// FinalAngle is the partition-local angle the pointer rests on.
	FinalAngle     float64
	Turns          int
	MinTurns       int
	StartRotation  float64
	TargetRotation float64
	Duration       time.Duration

	// segments is the read-only copy of Partition.Segments handed to
	// subscribers in every event.Frame of this spin.
	segments []wheel.Segment
}

// NewPlan chooses the resting point, turn count, and duration for a spin that
// lands on winner, consuming three values from src in that order.
//
// Precondition: winner belongs to p; speed is normalized.
// Postcondition: TargetRotation-StartRotation >= MinTurns full turns and the
// pointer at TargetRotation rests inside winner.
func NewPlan(spinID string, p wheel.Partition, winner wheel.Segment, speed Speed, pointer, start float64, src rng.Source) Plan {
	final := LandingAngle(winner, src.Float64())

	turns := speed.turns(src.Float64())
	duration := speed.duration(src.Float64())

	return Plan{
		SpinID:         spinID,
		Partition:      p,
		Winner:         winner,
		PointerAngle:   pointer,
		FinalAngle:     final,
		Turns:          turns,
		MinTurns:       speed.MinSpins,
		StartRotation:  start,
		TargetRotation: start + RotationIncrement(start, pointer, final, turns, speed.MinSpins),
		Duration:       duration,
		segments:       slices.Clone(p.Segments),
	}
}

// LandingAngle maps u in [0, 1) uniformly onto the winner's span, less
// edgeGuard at each edge (a quarter of the span for very narrow segments).
//
// Postcondition: winner.Contains(result).
func LandingAngle(winner wheel.Segment, u float64) float64 {
	span := winner.Span()
	guard := math.Min(edgeGuard, span/4)
	return winner.StartAngle + guard + u*(span-2*guard)
}

// RotationIncrement returns how far to rotate from start so that the pointer
// rests on finalAngle after the requested number of turns, topped up with
// whole turns until at least minTurns full revolutions are made.
//
// Postcondition: result >= minTurns*2π and PointerLocalAngle(start+result, pointer) == finalAngle (mod 2π).
func RotationIncrement(start, pointer, finalAngle float64, turns, minTurns int) float64 {
	desired := wheel.Normalize(pointer - finalAngle)
	inc := float64(turns)*wheel.FullTurn + desired - wheel.Normalize(start)
	floor := float64(minTurns) * wheel.FullTurn
	for inc < floor {
		inc += wheel.FullTurn
	}
	return inc
}

// PointerLocalAngle maps the fixed pointer direction back through rotation
// into partition-local angle space.
func PointerLocalAngle(rotation, pointer float64) float64 {
	return wheel.Normalize(pointer - rotation)
}

// EaseOutCubic decelerates smoothly: 1-(1-p)^3.
func EaseOutCubic(p float64) float64 {
	q := 1 - p
	return 1 - q*q*q
}

// Frame is the animation state after one step.
type Frame struct {
	Elapsed  time.Duration
	Progress float64
	Rotation float64
	// Index is the segment under the pointer.
	Index int
	Done  bool
}

// Begin returns the state before the first frame.
func (p Plan) Begin() Frame {
	return Frame{
		Rotation: p.StartRotation,
		Index:    p.Partition.IndexAt(PointerLocalAngle(p.StartRotation, p.PointerAngle)),
	}
}

// Step advances the animation to elapsed time since the spin started. It is a
// pure function of the plan, the previous frame, and elapsed.
//
// Postcondition: the returned events contain one event.Frame, followed by an
// event.Tick iff the segment under the pointer differs from prev.Index.
// Once Done, Step returns prev unchanged with no events.
func (p Plan) Step(prev Frame, elapsed time.Duration) (Frame, []event.Event) {
	if prev.Done {
		return prev, nil
	}

	progress := 1.0
	if p.Duration > 0 {
		progress = math.Min(math.Max(float64(elapsed)/float64(p.Duration), 0), 1)
	}

	rotation := p.TargetRotation
	if progress < 1 {
		rotation = p.StartRotation + (p.TargetRotation-p.StartRotation)*EaseOutCubic(progress)
	}

	next := Frame{
		Elapsed:  elapsed,
		Progress: progress,
		Rotation: rotation,
		Index:    p.Partition.IndexAt(PointerLocalAngle(rotation, p.PointerAngle)),
		Done:     progress >= 1,
	}

	segments := p.segments
	if segments == nil {
		segments = slices.Clone(p.Partition.Segments)
	}
	events := []event.Event{event.Frame{
		SpinID:   p.SpinID,
		Rotation: rotation,
		Progress: progress,
		Segments: segments,
	}}
	if next.Index != prev.Index && next.Index >= 0 {
		events = append(events, event.Tick{
			SpinID:      p.SpinID,
			CandidateID: p.Partition.Segments[next.Index].CandidateID,
			Index:       next.Index,
		})
	}
	return next, events
}

// Settle recomputes the winner from the final pointer angle and checks it
// against the drawn winner.
//
// Precondition: final.Done.
// Postcondition: Returns the settled segment, or an error wrapping ErrWinnerMismatch.
func (p Plan) Settle(final Frame) (wheel.Segment, error) {
	idx := p.Partition.IndexAt(PointerLocalAngle(final.Rotation, p.PointerAngle))
	if idx != p.Winner.Index {
		var got string
		if idx >= 0 {
			got = p.Partition.Segments[idx].CandidateID
		}
		return wheel.Segment{}, fmt.Errorf("%w: drew %q (index %d), pointer rests on %q (index %d)",
			ErrWinnerMismatch, p.Winner.CandidateID, p.Winner.Index, got, idx)
	}
	return p.Partition.Segments[idx], nil
}
