// Package spin animates a single weighted draw: it picks the winner up front,
// plans a rotation that lands the fixed pointer on it, and steps the rotation
// frame by frame until it settles.
package spin

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/rng"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
)

// DefaultPointerAngle points straight up in screen coordinates (y grows downward).
const DefaultPointerAngle = 3 * math.Pi / 2

// ErrSpinInProgress is returned when Spin is called while another spin is animating.
var ErrSpinInProgress = errors.New("spin: a spin is already in progress")

// Result is the outcome of one spin.
//
// HasWinner is false only when the candidate list was empty or carried no weight.
type Result struct {
	SpinID    string
	WinnerID  string
	HasWinner bool
	// Rotation is the wheel's resting rotation, folded into [0, 2π).
	Rotation float64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithPointerAngle fixes the pointer at angle (radians).
func WithPointerAngle(angle float64) Option {
	return func(e *Engine) { e.pointer = angle }
}

// WithInitialRotation sets the wheel's rotation before the first spin.
func WithInitialRotation(rotation float64) Option {
	return func(e *Engine) { e.rotation = wheel.Normalize(rotation) }
}

// Engine owns one wheel: its rotation and the in-flight flag.
//
// At most one Spin runs at a time; concurrent calls fail fast with
// ErrSpinInProgress rather than queueing.
type Engine struct {
	drawer  *wheel.Drawer
	clock   FrameClock
	events  event.Emitter
	logger  *zap.Logger
	pointer float64

	spinning atomic.Bool
	mu       sync.Mutex
	rotation float64
}

// NewEngine creates an idle Engine.
//
// Precondition: src, clock, events, and logger must be non-nil.
// Postcondition: Returns an Engine at rotation 0 with the pointer at DefaultPointerAngle
// unless overridden by opts.
func NewEngine(src rng.Source, clock FrameClock, events event.Emitter, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		drawer:  wheel.NewLoggedDrawer(src, logger),
		clock:   clock,
		events:  events,
		logger:  logger,
		pointer: DefaultPointerAngle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rotation returns the wheel's current rotation.
func (e *Engine) Rotation() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rotation
}

// PointerAngle returns the fixed pointer direction.
func (e *Engine) PointerAngle() float64 {
	return e.pointer
}

// Spinning reports whether a spin is in flight.
func (e *Engine) Spinning() bool {
	return e.spinning.Load()
}

func (e *Engine) setRotation(r float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rotation = r
}

// Spin draws one candidate and animates the wheel until it settles on it.
// It blocks until the final frame has been processed.
//
// Precondition: no other Spin is in flight on e.
// Postcondition: On success, result.WinnerID is the candidate under the
// pointer after the final frame and an event.Settled has been emitted.
// Returns ErrSpinInProgress without side effects if a spin is already running,
// or an error wrapping ErrWinnerMismatch if the settled and drawn winners disagree.
func (e *Engine) Spin(candidates []wheel.Candidate, mode wheel.WeightMode, speed Speed) (Result, error) {
	if !e.spinning.CompareAndSwap(false, true) {
		return Result{}, ErrSpinInProgress
	}
	defer e.spinning.Store(false)

	spinID := uuid.NewString()
	start := e.Rotation()

	p := wheel.BuildPartition(candidates, mode)
	winner, ok := e.drawer.Draw(p)
	if !ok {
		e.logger.Debug("spin skipped: no drawable candidates",
			zap.String("spin_id", spinID),
			zap.Int("candidates", len(candidates)),
		)
		e.events.Emit(event.Settled{SpinID: spinID, Rotation: start})
		return Result{SpinID: spinID, Rotation: start}, nil
	}

	plan := NewPlan(spinID, p, winner, speed.Normalize(), e.pointer, start, e.drawer.Source())
	e.logger.Debug("spin planned",
		zap.String("spin_id", spinID),
		zap.Stringer("mode", mode),
		zap.String("drawn", winner.CandidateID),
		zap.Int("turns", plan.Turns),
		zap.Duration("duration", plan.Duration),
		zap.Float64("final_angle", plan.FinalAngle),
	)

	final, frames := e.animate(plan)
	rest := wheel.Normalize(final.Rotation)
	e.setRotation(rest)

	settled, err := plan.Settle(final)
	if err != nil {
		e.logger.Error("spin settled on the wrong segment",
			zap.String("spin_id", spinID),
			zap.Float64("rotation", final.Rotation),
			zap.Error(err),
		)
		return Result{}, err
	}

	e.logger.Debug("spin settled",
		zap.String("spin_id", spinID),
		zap.String("winner", settled.CandidateID),
		zap.Int("frames", frames),
	)
	e.events.Emit(event.Settled{
		SpinID:    spinID,
		WinnerID:  settled.CandidateID,
		HasWinner: true,
		Rotation:  rest,
	})
	return Result{
		SpinID:    spinID,
		WinnerID:  settled.CandidateID,
		HasWinner: true,
		Rotation:  rest,
	}, nil
}

// animate drives plan with the frame clock until it completes.
func (e *Engine) animate(plan Plan) (Frame, int) {
	t0 := e.clock.Start()
	defer e.clock.Stop()

	frame := plan.Begin()
	frames := 0
	for !frame.Done {
		now := e.clock.Next()
		var evs []event.Event
		frame, evs = plan.Step(frame, now.Sub(t0))
		frames++
		for _, ev := range evs {
			e.events.Emit(ev)
		}
	}
	return frame, frames
}
