// Package event defines the typed events emitted by the spin engine and the
// knockout tournament, and the Bus that delivers them to consumers.
package event

import "github.com/cory-johannsen/wheel/internal/game/wheel"

// Kind names an event type.
type Kind string

const (
	KindFrame        Kind = "frame"
	KindTick         Kind = "tick"
	KindSettled      Kind = "settled"
	KindRoundStarted Kind = "round_started"
	KindEliminated   Kind = "eliminated"
	KindChampion     Kind = "champion"
	KindInconclusive Kind = "inconclusive"
)

// Event is a discrete value emitted by the core.
type Event interface {
	Kind() Kind
}

// Frame carries per-frame redraw data.
type Frame struct {
	SpinID   string
	Rotation float64
	// Progress is the un-eased animation progress in [0, 1].
	Progress float64
	// Segments is a snapshot of the wheel taken once per spin and shared by
	// all of its frames. Subscribers must treat it as read-only.
	Segments []wheel.Segment
}

// Tick fires when the pointer crosses into a different segment.
type Tick struct {
	SpinID      string
	CandidateID string
	Index       int
}

// Settled fires once per spin when the animation completes.
type Settled struct {
	SpinID    string
	WinnerID  string
	HasWinner bool
	Rotation  float64
}

// RoundStarted fires before each knockout spin.
type RoundStarted struct {
	Round     int
	Remaining int
	Final     bool
}

// Eliminated fires when a knockout round removes a candidate.
type Eliminated struct {
	CandidateID string
	Order       int
}

// Champion fires once when a knockout tournament has one candidate left.
type Champion struct {
	CandidateID string
	Order       int
}

// Inconclusive fires when a knockout tournament stops with more than one candidate left.
type Inconclusive struct {
	Remaining []string
}

func (Frame) Kind() Kind        { return KindFrame }
func (Tick) Kind() Kind         { return KindTick }
func (Settled) Kind() Kind      { return KindSettled }
func (RoundStarted) Kind() Kind { return KindRoundStarted }
func (Eliminated) Kind() Kind   { return KindEliminated }
func (Champion) Kind() Kind     { return KindChampion }
func (Inconclusive) Kind() Kind { return KindInconclusive }
