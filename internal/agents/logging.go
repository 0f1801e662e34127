package agents

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// I/O deadlines for scorer calls into persistence and cache. The collaborators
// do not bound their own calls, so every scorer call runs under one of these.
const (
	dbTimeout    = 5 * time.Second
	cacheTimeout = 3 * time.Second
)

func dbContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, dbTimeout)
}

func cacheContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, cacheTimeout)
}

// logAction emits one structured agent event per reason()/act() call. This is
// an observability sink, not a control dependency.
func logAction(logger *zap.Logger, agent, action string, confidence float64, fields ...zap.Field) {
	if logger == nil {
		return
	}
	all := append([]zap.Field{
		zap.String("agent", agent),
		zap.String("action", action),
		zap.Float64("confidence", confidence),
	}, fields...)
	logger.Info("agent_action", all...)
}
