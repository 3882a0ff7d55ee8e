// Package tournament runs a knockout: repeated inverse-weighted spins, each
// removing the drawn candidate, until one champion remains.
package tournament

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/spin"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
)

var (
	// ErrTooFewCandidates is returned when a knockout is requested with fewer than two candidates.
	ErrTooFewCandidates = errors.New("tournament: at least two candidates are required")
	// ErrNoStages is returned when the stage table is empty.
	ErrNoStages = errors.New("tournament: stage table is empty")
	// ErrTournamentInProgress is returned when Run is called while another knockout is running.
	ErrTournamentInProgress = errors.New("tournament: a tournament is already in progress")
)

// Spinner performs one animated draw. *spin.Engine satisfies it.
type Spinner interface {
	Spin(candidates []wheel.Candidate, mode wheel.WeightMode, speed spin.Speed) (spin.Result, error)
}

// Sleeper waits out presentation delays between rounds.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RealSleeper sleeps on the wall clock.
type RealSleeper struct{}

// Sleep blocks for d; non-positive durations return immediately.
func (RealSleeper) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// Status is the lifecycle state of a knockout.
type Status int

const (
	StatusRunning Status = iota
	StatusFinished
	// StatusInconclusive means a round drew nothing while more than one candidate remained.
	StatusInconclusive
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusInconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is a snapshot of a running knockout.
type State struct {
	ID        string
	Pool      []wheel.Candidate
	Round     int
	NextOrder int
	Status    Status
}

// Elimination records one knocked-out candidate.
type Elimination struct {
	CandidateID string
	Order       int
	Round       int
}

// Outcome is the result of a knockout.
//
// ChampionID is set only when Status is StatusFinished; Remaining is set only
// when Status is StatusInconclusive.
type Outcome struct {
	ID            string
	Status        Status
	ChampionID    string
	ChampionOrder int
	Eliminations  []Elimination
	Remaining     []wheel.Candidate
	Rounds        int
}

// Controller runs one knockout at a time.
type Controller struct {
	spinner Spinner
	sleeper Sleeper
	events  event.Emitter
	logger  *zap.Logger

	running atomic.Bool
	mu      sync.Mutex
	state   *State
}

// NewController creates an idle Controller.
//
// Precondition: all arguments must be non-nil.
func NewController(spinner Spinner, sleeper Sleeper, events event.Emitter, logger *zap.Logger) *Controller {
	return &Controller{
		spinner: spinner,
		sleeper: sleeper,
		events:  events,
		logger:  logger,
	}
}

// State returns a snapshot of the running knockout, or false when idle.
func (c *Controller) State() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return State{}, false
	}
	snap := *c.state
	snap.Pool = append([]wheel.Candidate(nil), c.state.Pool...)
	return snap, true
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
}

// Run eliminates one candidate per round until a champion remains.
//
// Each round selects a stage by pool size, spins the pool with Inverse
// weights, and removes the drawn candidate with the next elimination order.
// The round with two candidates left uses the stage's FinalSpin.
//
// Precondition: len(candidates) >= 2; stages non-empty.
// Postcondition: On StatusFinished, Eliminations holds orders 1..N-1 in
// sequence and ChampionOrder == N. On StatusInconclusive, no champion is
// reported and Remaining holds the surviving pool. Spinner errors abort the
// knockout and are returned wrapped.
func (c *Controller) Run(candidates []wheel.Candidate, stages []Stage) (Outcome, error) {
	if len(stages) == 0 {
		return Outcome{}, ErrNoStages
	}
	if len(candidates) < 2 {
		return Outcome{}, ErrTooFewCandidates
	}
	if !c.running.CompareAndSwap(false, true) {
		return Outcome{}, ErrTournamentInProgress
	}
	defer c.running.Store(false)

	id := uuid.NewString()
	pool := append([]wheel.Candidate(nil), candidates...)
	c.mu.Lock()
	c.state = &State{ID: id, Pool: pool, NextOrder: 1, Status: StatusRunning}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.state = nil
		c.mu.Unlock()
	}()

	c.logger.Info("tournament started",
		zap.String("tournament_id", id),
		zap.Int("candidates", len(pool)),
	)

	sorted := SortStages(stages)
	out := Outcome{ID: id, Status: StatusRunning}
	nextOrder := 1

	for round := 1; len(pool) > 1; round++ {
		out.Rounds = round
		stage, _ := SelectStage(sorted, len(pool))
		final := len(pool) == 2
		speed, reveal := stage.EliminationSpin, stage.KnockoutRevealDelay
		if final {
			speed, reveal = stage.FinalSpin, stage.FinalRevealDelay
		}

		c.update(func(s *State) { s.Round = round })
		c.events.Emit(event.RoundStarted{Round: round, Remaining: len(pool), Final: final})

		res, err := c.spinner.Spin(pool, wheel.Inverse, speed)
		if err != nil {
			c.logger.Error("tournament round failed",
				zap.String("tournament_id", id),
				zap.Int("round", round),
				zap.Error(err),
			)
			return out, fmt.Errorf("tournament round %d: %w", round, err)
		}
		if !res.HasWinner {
			return c.inconclusive(out, pool), nil
		}

		idx := indexOf(pool, res.WinnerID)
		if idx < 0 {
			return out, fmt.Errorf("tournament round %d: spinner drew unknown candidate %q", round, res.WinnerID)
		}

		c.sleeper.Sleep(reveal)

		order := nextOrder
		nextOrder++
		pool = append(pool[:idx:idx], pool[idx+1:]...)
		out.Eliminations = append(out.Eliminations, Elimination{CandidateID: res.WinnerID, Order: order, Round: round})
		c.update(func(s *State) {
			s.Pool = pool
			s.NextOrder = nextOrder
		})
		c.events.Emit(event.Eliminated{CandidateID: res.WinnerID, Order: order})
		c.logger.Info("candidate eliminated",
			zap.String("tournament_id", id),
			zap.Int("round", round),
			zap.String("candidate", res.WinnerID),
			zap.Int("order", order),
			zap.Int("remaining", len(pool)),
		)

		if len(pool) == 1 {
			c.sleeper.Sleep(stage.WinnerRevealDelay)
			break
		}
		c.sleeper.Sleep(stage.InterRoundDelay)
	}

	out.Status = StatusFinished
	out.ChampionID = pool[0].ID
	out.ChampionOrder = nextOrder
	c.update(func(s *State) { s.Status = StatusFinished })
	c.events.Emit(event.Champion{CandidateID: out.ChampionID, Order: out.ChampionOrder})
	c.logger.Info("tournament finished",
		zap.String("tournament_id", id),
		zap.String("champion", out.ChampionID),
		zap.Int("rounds", out.Rounds),
	)
	return out, nil
}

func (c *Controller) inconclusive(out Outcome, pool []wheel.Candidate) Outcome {
	ids := make([]string, len(pool))
	for i, cand := range pool {
		ids[i] = cand.ID
	}
	out.Status = StatusInconclusive
	out.Remaining = append([]wheel.Candidate(nil), pool...)
	c.update(func(s *State) { s.Status = StatusInconclusive })
	c.events.Emit(event.Inconclusive{Remaining: ids})
	c.logger.Warn("tournament inconclusive: round drew no candidate",
		zap.String("tournament_id", out.ID),
		zap.Int("round", out.Rounds),
		zap.Strings("remaining", ids),
	)
	return out
}

func indexOf(pool []wheel.Candidate, id string) int {
	for i, c := range pool {
		if c.ID == id {
			return i
		}
	}
	return -1
}
