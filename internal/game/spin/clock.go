package spin

import (
	"sync"
	"time"
)

// DefaultFrameRate is the frame rate used when none is configured.
const DefaultFrameRate = 60

// FrameClock paces the animation loop.
//
// One spin calls Start once, Next until the animation completes, then Stop.
type FrameClock interface {
	// Start prepares frame delivery and returns the spin's start time.
	Start() time.Time
	// Next blocks until the next display frame and returns its timestamp.
	Next() time.Time
	// Stop releases frame resources until the next Start.
	Stop()
}

// TickerClock delivers frames in real time at a fixed rate.
type TickerClock struct {
	interval time.Duration
	mu       sync.Mutex
	ticker   *time.Ticker
}

// NewTickerClock returns a real-time clock delivering fps frames per second.
//
// Postcondition: fps <= 0 is treated as DefaultFrameRate.
func NewTickerClock(fps int) *TickerClock {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &TickerClock{interval: time.Second / time.Duration(fps)}
}

// Interval returns the time between frames.
func (c *TickerClock) Interval() time.Duration {
	return c.interval
}

// Start begins ticking.
func (c *TickerClock) Start() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil {
		c.ticker.Stop()
	}
	c.ticker = time.NewTicker(c.interval)
	return time.Now()
}

// Next waits for the next tick.
//
// Precondition: Start has been called.
func (c *TickerClock) Next() time.Time {
	c.mu.Lock()
	t := c.ticker
	c.mu.Unlock()
	if t == nil {
		panic("spin: TickerClock.Next called before Start")
	}
	return <-t.C
}

// Stop halts ticking. Safe to call multiple times.
func (c *TickerClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// StepClock is a synthetic clock: every Next advances time by a fixed step
// and returns immediately. It makes spins deterministic and instant.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock returns a StepClock advancing by step per frame.
//
// Precondition: step > 0.
func NewStepClock(step time.Duration) *StepClock {
	if step <= 0 {
		panic("spin.NewStepClock: step must be > 0")
	}
	return &StepClock{now: time.Unix(0, 0), step: step}
}

// Start returns the current synthetic time.
func (c *StepClock) Start() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Next advances synthetic time by one step.
func (c *StepClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Stop is a no-op.
func (c *StepClock) Stop() {}
