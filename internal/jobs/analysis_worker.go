package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/domain"
)

const batchSize = 10

// UnanalyzedQuestionSource lists questions the orchestrator has not run over.
type UnanalyzedQuestionSource interface {
	Unanalyzed(ctx context.Context, limit int) ([]*domain.Question, error)
}

// Orchestrator runs the agent pipeline over a question.
type Orchestrator interface {
	ProcessQuestion(ctx context.Context, q domain.Question, reqCtx agents.Context) *agents.OrchestrationResult
}

// AnalysisWorker backfills agent analysis for questions that were posted
// while the pipeline was down or that raced a restart.
type AnalysisWorker struct {
	source       UnanalyzedQuestionSource
	orchestrator Orchestrator
	logger       *zap.Logger
}

func NewAnalysisWorker(source UnanalyzedQuestionSource, orchestrator Orchestrator, logger *zap.Logger) *AnalysisWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisWorker{source: source, orchestrator: orchestrator, logger: logger}
}

// ProcessJobs implements the JobProcessor interface
func (w *AnalysisWorker) ProcessJobs(ctx context.Context) error {
	questions, err := w.source.Unanalyzed(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch unanalyzed questions: %w", err)
	}

	if len(questions) == 0 {
		return nil
	}

	w.logger.Info("backfill_start", zap.Int("questions", len(questions)))

	for _, q := range questions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result := w.orchestrator.ProcessQuestion(ctx, *q, agents.Context{})
		w.logger.Info("backfill_question_analyzed",
			zap.Int64("question_id", q.ID),
			zap.Float64("confidence", result.Confidence))
	}
	return nil
}
