package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/repository"
	"github.com/askhub-io/askhub/internal/telemetry"
)

// AgentRepositoryInterface defines the repository surface for agent output.
type AgentRepositoryInterface interface {
	GetSuggestion(ctx context.Context, id int64) (*domain.Suggestion, error)
	ListSuggestionsByQuestion(ctx context.Context, questionID int64) ([]*domain.Suggestion, error)
	UpdateSuggestionAccepted(ctx context.Context, id int64, accepted bool) error
	SuggestionStats(ctx context.Context) ([]*repository.SuggestionStats, error)
	ListGaps(ctx context.Context, status domain.GapStatus, limit int) ([]*domain.KnowledgeGap, error)
}

// FeedbackRecorder tracks suggestion feedback counters.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, agent string, accepted bool) error
	PerformanceCounters(ctx context.Context) (map[string]int64, error)
}

// AgentService exposes agent output and feedback to the API layer.
type AgentService struct {
	agentRepo AgentRepositoryInterface
	recorder  FeedbackRecorder
	logger    *zap.Logger
}

func NewAgentService(agentRepo AgentRepositoryInterface, recorder FeedbackRecorder, logger *zap.Logger) *AgentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentService{agentRepo: agentRepo, recorder: recorder, logger: logger}
}

func (s *AgentService) SuggestionsForQuestion(ctx context.Context, questionID int64) ([]*domain.Suggestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "AgentService.SuggestionsForQuestion", telemetry.SpanAttributes{
		QuestionID: questionID,
		Operation:  "list_suggestions",
	})
	defer span.End()

	return s.agentRepo.ListSuggestionsByQuestion(ctx, questionID)
}

// Feedback records whether a suggestion helped. Acceptance rates feed the
// performance endpoint.
func (s *AgentService) Feedback(ctx context.Context, suggestionID int64, accepted bool) (*domain.Suggestion, error) {
	ctx, span := telemetry.StartSpan(ctx, "AgentService.Feedback", telemetry.SpanAttributes{
		Operation: "feedback",
	})
	defer span.End()

	suggestion, err := s.agentRepo.GetSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	if err := s.agentRepo.UpdateSuggestionAccepted(ctx, suggestionID, accepted); err != nil {
		return nil, err
	}
	suggestion.Accepted = accepted

	if s.recorder != nil {
		if err := s.recorder.RecordFeedback(ctx, suggestion.AgentType, accepted); err != nil {
			s.logger.Warn("feedback counter update failed",
				zap.String("agent", suggestion.AgentType),
				zap.Error(err))
		}
	}
	return suggestion, nil
}

// PerformanceReport combines persisted suggestion stats with live run
// counters.
type PerformanceReport struct {
	Suggestions []*repository.SuggestionStats `json:"suggestions"`
	Counters    map[string]int64              `json:"counters,omitempty"`
}

func (s *AgentService) Performance(ctx context.Context) (*PerformanceReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "AgentService.Performance", telemetry.SpanAttributes{
		Operation: "performance",
	})
	defer span.End()

	stats, err := s.agentRepo.SuggestionStats(ctx)
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{Suggestions: stats}
	if s.recorder != nil {
		counters, err := s.recorder.PerformanceCounters(ctx)
		if err != nil {
			s.logger.Warn("performance counters unavailable", zap.Error(err))
		} else {
			report.Counters = counters
		}
	}
	return report, nil
}

func (s *AgentService) Gaps(ctx context.Context, status string, limit int) ([]*domain.KnowledgeGap, error) {
	ctx, span := telemetry.StartSpan(ctx, "AgentService.Gaps", telemetry.SpanAttributes{
		Operation: "list_gaps",
	})
	defer span.End()

	gapStatus := domain.GapStatus(status)
	if status != "" && gapStatus != domain.GapStatusOpen && gapStatus != domain.GapStatusAddressed {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid gap status filter")
	}
	return s.agentRepo.ListGaps(ctx, gapStatus, limit)
}
