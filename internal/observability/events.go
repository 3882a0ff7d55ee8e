package observability

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/wheel/internal/game/event"
)

// EventLogger is an event.Listener that writes the event stream to a logger.
// Frames are never logged; ticks and settles log at debug, knockout progress at info.
type EventLogger struct {
	logger *zap.Logger
}

// NewEventLogger creates an EventLogger.
//
// Precondition: logger must be non-nil.
func NewEventLogger(logger *zap.Logger) *EventLogger {
	return &EventLogger{logger: logger.Named("events")}
}

// OnEvent logs e.
func (l *EventLogger) OnEvent(e event.Event) {
	switch ev := e.(type) {
	case event.Tick:
		l.logger.Debug("tick",
			zap.String("spin_id", ev.SpinID),
			zap.String("candidate", ev.CandidateID),
			zap.Int("index", ev.Index),
		)
	case event.Settled:
		l.logger.Debug("settled",
			zap.String("spin_id", ev.SpinID),
			zap.String("winner", ev.WinnerID),
			zap.Bool("has_winner", ev.HasWinner),
			zap.Float64("rotation", ev.Rotation),
		)
	case event.RoundStarted:
		l.logger.Info("round started",
			zap.Int("round", ev.Round),
			zap.Int("remaining", ev.Remaining),
			zap.Bool("final", ev.Final),
		)
	case event.Eliminated:
		l.logger.Info("eliminated",
			zap.String("candidate", ev.CandidateID),
			zap.Int("order", ev.Order),
		)
	case event.Champion:
		l.logger.Info("champion",
			zap.String("candidate", ev.CandidateID),
			zap.Int("order", ev.Order),
		)
	case event.Inconclusive:
		l.logger.Warn("inconclusive",
			zap.Strings("remaining", ev.Remaining),
		)
	}
}
