package spin_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/wheel/internal/game/event"
	"github.com/cory-johannsen/wheel/internal/game/rng"
	"github.com/cory-johannsen/wheel/internal/game/spin"
	"github.com/cory-johannsen/wheel/internal/game/wheel"
	"github.com/cory-johannsen/wheel/internal/testutil"
)

var testSpeed = spin.Speed{MinSpins: 3, MaxSpins: 5, MinDuration: 500 * time.Millisecond, MaxDuration: time.Second}

func newTestEngine(t *testing.T, seed uint64, opts ...spin.Option) (*spin.Engine, *testutil.Recorder) {
	t.Helper()
	rec := testutil.NewRecorder()
	eng := spin.NewEngine(rng.NewSeededSource(seed), spin.NewStepClock(16*time.Millisecond), rec, zap.NewNop(), opts...)
	return eng, rec
}

func TestEngine_Spin_EmptyHasNoWinner(t *testing.T) {
	eng, rec := newTestEngine(t, 1)
	res, err := eng.Spin(nil, wheel.Normal, testSpeed)
	require.NoError(t, err)
	assert.False(t, res.HasWinner)
	assert.Empty(t, res.WinnerID)
	assert.Empty(t, rec.OfKind(event.KindFrame))

	settled := rec.OfKind(event.KindSettled)
	require.Len(t, settled, 1)
	assert.False(t, settled[0].(event.Settled).HasWinner)
	assert.False(t, eng.Spinning())
}

func TestEngine_Spin_SingleCandidateAlwaysWins(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		eng := spin.NewEngine(
			rng.NewSeededSource(rapid.Uint64().Draw(rt, "seed")),
			spin.NewStepClock(16*time.Millisecond),
			event.Discard,
			zap.NewNop(),
			spin.WithInitialRotation(rapid.Float64Range(-20, 20).Draw(rt, "rotation")),
		)
		res, err := eng.Spin([]wheel.Candidate{{ID: "A", Weight: 5}}, wheel.Normal, testSpeed)
		require.NoError(rt, err)
		assert.True(rt, res.HasWinner)
		assert.Equal(rt, "A", res.WinnerID)
	})
}

// TestEngine_Spin_Property_SettledMatchesDraw verifies the settled winner is
// the candidate an independent draw with the same seed picks, and that the
// resting rotation stays folded into [0, 2π).
func TestEngine_Spin_Property_SettledMatchesDraw(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 25).Draw(rt, "n")
		cands := make([]wheel.Candidate, n)
		for i := range cands {
			cands[i] = wheel.Candidate{ID: fmt.Sprintf("c%d", i), Weight: float64(rapid.IntRange(1, 10).Draw(rt, fmt.Sprintf("w%d", i)))}
		}
		mode := rapid.SampledFrom([]wheel.WeightMode{wheel.Normal, wheel.Inverse}).Draw(rt, "mode")
		seed := rapid.Uint64().Draw(rt, "seed")
		speed := genSpeed(rt)

		eng := spin.NewEngine(rng.NewSeededSource(seed), spin.NewStepClock(16*time.Millisecond), event.Discard, zap.NewNop(),
			spin.WithInitialRotation(rapid.Float64Range(0, wheel.FullTurn).Draw(rt, "rotation")),
			spin.WithPointerAngle(rapid.Float64Range(0, wheel.FullTurn).Draw(rt, "pointer")),
		)
		res, err := eng.Spin(cands, mode, speed)
		require.NoError(rt, err)
		require.True(rt, res.HasWinner)

		expected, ok := wheel.Draw(wheel.BuildPartition(cands, mode), rng.NewSeededSource(seed))
		require.True(rt, ok)
		assert.Equal(rt, expected.CandidateID, res.WinnerID)
		assert.GreaterOrEqual(rt, res.Rotation, 0.0)
		assert.Less(rt, res.Rotation, wheel.FullTurn)
		assert.Equal(rt, res.Rotation, eng.Rotation())
	})
}

func TestEngine_Spin_RepeatedSpinsStayConsistent(t *testing.T) {
	eng, rec := newTestEngine(t, 99)
	cands := []wheel.Candidate{{ID: "a", Weight: 1}, {ID: "b", Weight: 4}, {ID: "c", Weight: 9}, {ID: "d", Weight: 2}}
	for i := 0; i < 200; i++ {
		res, err := eng.Spin(cands, wheel.Inverse, testSpeed)
		require.NoError(t, err, "spin %d", i)
		require.True(t, res.HasWinner)
	}
	assert.Len(t, rec.OfKind(event.KindSettled), 200)
}

func TestEngine_Spin_EmitsFramesTicksAndSettled(t *testing.T) {
	eng, rec := newTestEngine(t, 7)
	cands := testutil.Candidates(1, "a", "b", "c", "d", "e", "f")
	res, err := eng.Spin(cands, wheel.Normal, testSpeed)
	require.NoError(t, err)

	events := rec.Events()
	require.NotEmpty(t, events)
	last, ok := events[len(events)-1].(event.Settled)
	require.True(t, ok, "the last event must be Settled")
	assert.Equal(t, res.WinnerID, last.WinnerID)
	assert.Equal(t, res.SpinID, last.SpinID)

	frames := rec.OfKind(event.KindFrame)
	require.NotEmpty(t, frames)
	lastFrame := frames[len(frames)-1].(event.Frame)
	assert.Equal(t, 1.0, lastFrame.Progress)
	assert.Len(t, lastFrame.Segments, len(cands))

	// At least three full turns over six equal segments: the pointer crosses
	// many boundaries even when fast frames skip some of them.
	ticks := rec.OfKind(event.KindTick)
	assert.GreaterOrEqual(t, len(ticks), 6)
	for i := 1; i < len(ticks); i++ {
		assert.NotEqual(t, ticks[i-1].(event.Tick).Index, ticks[i].(event.Tick).Index,
			"consecutive ticks must name different segments")
	}
}

func TestEngine_Spin_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	eng := spin.NewEngine(rng.NewSeededSource(3), spin.NewStepClock(16*time.Millisecond), event.Discard, zap.New(core))
	res, err := eng.Spin(testutil.Candidates(2, "x", "y"), wheel.Normal, testSpeed)
	require.NoError(t, err)

	planned := logs.FilterMessage("spin planned").All()
	require.Len(t, planned, 1)
	assert.Equal(t, res.SpinID, planned[0].ContextMap()["spin_id"])
	assert.Equal(t, 1, logs.FilterMessage("wheel draw").Len())
	assert.Equal(t, 1, logs.FilterMessage("spin settled").Len())
}

// gateClock blocks every frame until release is closed.
type gateClock struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	now     time.Time
}

func newGateClock() *gateClock {
	return &gateClock{
		started: make(chan struct{}),
		release: make(chan struct{}),
		now:     time.Unix(0, 0),
	}
}

func (c *gateClock) Start() time.Time {
	c.once.Do(func() { close(c.started) })
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *gateClock) Next() time.Time {
	<-c.release
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(16 * time.Millisecond)
	return c.now
}

func (c *gateClock) Stop() {}

func TestEngine_Spin_RejectsReentrantCall(t *testing.T) {
	clk := newGateClock()
	rec := testutil.NewRecorder()
	eng := spin.NewEngine(rng.NewSeededSource(21), clk, rec, zap.NewNop())
	cands := testutil.Candidates(1, "a", "b", "c")

	type outcome struct {
		res spin.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := eng.Spin(cands, wheel.Normal, testSpeed)
		done <- outcome{res, err}
	}()

	select {
	case <-clk.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first spin never started animating")
	}
	require.True(t, eng.Spinning())
	before := eng.Rotation()

	_, err := eng.Spin(cands, wheel.Normal, testSpeed)
	assert.ErrorIs(t, err, spin.ErrSpinInProgress)
	assert.True(t, eng.Spinning(), "rejected call must not disturb the in-flight spin")
	assert.Equal(t, before, eng.Rotation())
	assert.Empty(t, rec.OfKind(event.KindSettled))

	close(clk.release)
	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.True(t, out.res.HasWinner)
	case <-time.After(2 * time.Second):
		t.Fatal("first spin never settled")
	}
	assert.False(t, eng.Spinning())
	assert.Len(t, rec.OfKind(event.KindSettled), 1)

	_, err = eng.Spin(cands, wheel.Normal, testSpeed)
	assert.NoError(t, err, "engine must accept a new spin once idle")
}

func TestEngine_Options(t *testing.T) {
	eng, _ := newTestEngine(t, 1, spin.WithPointerAngle(0), spin.WithInitialRotation(-wheel.FullTurn/4))
	assert.Equal(t, 0.0, eng.PointerAngle())
	assert.InDelta(t, 0.75*wheel.FullTurn, eng.Rotation(), 1e-12)

	def, _ := newTestEngine(t, 1)
	assert.Equal(t, spin.DefaultPointerAngle, def.PointerAngle())
}
