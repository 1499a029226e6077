package membership

import (
	"log/slog"
)

// LogObserver writes every transition to a structured logger. Rollbacks are
// logged at warn level.
type LogObserver struct {
	Logger *slog.Logger
}

// OnTransition implements Observer.
func (o LogObserver) OnTransition(t Transition) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		slog.String("mutation_id", t.MutationID),
		slog.String("class_id", t.Change.ClassID),
		slog.String("from", t.From.String()),
		slog.String("to", t.To.String()),
		slog.Int("add", len(t.Change.Add)),
		slog.Int("remove", len(t.Change.Remove)),
	}
	if t.Err != nil {
		attrs = append(attrs, slog.String("error", t.Err.Error()))
	}

	switch t.To {
	case StateRollingBack:
		logger.Warn("membership change rolling back", attrs...)
	case StateCommitted:
		logger.Info("membership change committed", attrs...)
	default:
		logger.Debug("membership transition", attrs...)
	}
}
