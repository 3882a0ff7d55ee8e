// Package testutil provides test helpers for driving the wheel, spin, and
// tournament packages deterministically.
package testutil

import (
	"sync"
	"time"

	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
)

// Recorder captures every emitted event in order. It satisfies both
// event.Emitter and event.Listener.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit records e.
func (r *Recorder) Emit(e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// OnEvent records e.
func (r *Recorder) OnEvent(e event.Event) { r.Emit(e) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events of kind k, in order.
func (r *Recorder) OfKind(k event.Kind) []event.Event {
	var out []event.Event
	for _, e := range r.Events() {
		if e.Kind() == k {
			out = append(out, e)
		}
	}
	return out
}

// Kinds returns the kinds of all recorded events except frames and ticks.
func (r *Recorder) Kinds() []event.Kind {
	var out []event.Kind
	for _, e := range r.Events() {
		switch e.Kind() {
		case event.KindFrame, event.KindTick:
			continue
		}
		out = append(out, e.Kind())
	}
	return out
}

// Reset discards everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Sleeper records requested delays without sleeping.
type Sleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

// Sleep records d and returns immediately.
func (s *Sleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
}

// Delays returns every recorded delay, in order.
func (s *Sleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

// Candidates builds candidates named by ids, each with weight w.
func Candidates(w float64, ids ...string) []wheel.Candidate {
	out := make([]wheel.Candidate, len(ids))
	for i, id := range ids {
		out[i] = wheel.Candidate{ID: id, Weight: w}
	}
	return out
}
