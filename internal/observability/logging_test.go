package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/wheel/internal/config"
	"github.com/cory-johannsen/wheel/internal/game/event"
)

func TestNewLogger_JSON(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_Console(t *testing.T) {
	cfg := config.LoggingConfig{Level: "debug", Format: "console"}
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := config.LoggingConfig{Level: "trace", Format: "json"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := config.LoggingConfig{Level: "info", Format: "xml"}
	_, err := NewLogger(cfg)
	assert.Error(t, err)
}

func TestNewLogger_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := config.LoggingConfig{Level: level, Format: "json"}
		logger, err := NewLogger(cfg)
		require.NoError(t, err, "level %q should be valid", level)
		assert.NotNil(t, logger)
	}
}

func TestEventLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewEventLogger(zap.New(core))

	l.OnEvent(event.Frame{SpinID: "s"})
	l.OnEvent(event.Tick{SpinID: "s", CandidateID: "a", Index: 0})
	l.OnEvent(event.Settled{SpinID: "s", WinnerID: "a", HasWinner: true})
	l.OnEvent(event.RoundStarted{Round: 1, Remaining: 3})
	l.OnEvent(event.Eliminated{CandidateID: "b", Order: 1})
	l.OnEvent(event.Champion{CandidateID: "a", Order: 3})
	l.OnEvent(event.Inconclusive{Remaining: []string{"a", "c"}})

	entries := logs.All()
	require.Len(t, entries, 6, "frames are not logged")
	assert.Equal(t, "tick", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, logs.FilterMessage("eliminated").All()[0].Level)
	assert.Equal(t, zapcore.WarnLevel, logs.FilterMessage("inconclusive").All()[0].Level)
	assert.Equal(t, "events", entries[0].LoggerName)
}

func TestEventLogger_OnBus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	bus := event.NewBus()
	bus.Listen(NewEventLogger(zap.New(core)))
	bus.Emit(event.Champion{CandidateID: "z", Order: 2})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "z", logs.All()[0].ContextMap()["candidate"])
}
