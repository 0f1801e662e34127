package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/pagination"
	"github.com/askhub-io/askhub/internal/repository"
	"github.com/askhub-io/askhub/internal/telemetry"
)

// QuestionRepositoryInterface defines the repository interface for question persistence
type QuestionRepositoryInterface interface {
	Create(ctx context.Context, q *domain.Question) error
	GetByID(ctx context.Context, id int64) (*domain.Question, error)
	IncrementViewCount(ctx context.Context, id int64) error
	Update(ctx context.Context, q *domain.Question) error
	Delete(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status domain.QuestionStatus) error
	ListWithCursor(ctx context.Context, filter repository.QuestionFilter, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Question], error)
	Recent(ctx context.Context, limit int) ([]*domain.Question, error)
}

// QuestionOrchestrator runs the agent pipeline over a question.
type QuestionOrchestrator interface {
	ProcessQuestion(ctx context.Context, q domain.Question, reqCtx agents.Context) *agents.OrchestrationResult
}

// QuestionService handles business logic for questions.
type QuestionService struct {
	questionRepo QuestionRepositoryInterface
	orchestrator QuestionOrchestrator
	logger       *zap.Logger

	// analysisTimeout bounds the background agent run kicked off per
	// question.
	analysisTimeout time.Duration
}

func NewQuestionService(questionRepo QuestionRepositoryInterface, orchestrator QuestionOrchestrator, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		questionRepo:    questionRepo,
		orchestrator:    orchestrator,
		logger:          logger,
		analysisTimeout: 30 * time.Second,
	}
}

// CreateQuestionInput represents the input for posting a question
type CreateQuestionInput struct {
	Title    string
	Content  string
	AuthorID int64
	Tags     []string
	Urgency  string
}

// Create persists a question and kicks off agent analysis in the background.
// The caller gets the stored question immediately; suggestions land async.
func (s *QuestionService) Create(ctx context.Context, input CreateQuestionInput) (*domain.Question, error) {
	ctx, span := telemetry.StartSpan(ctx, "QuestionService.Create", telemetry.SpanAttributes{
		UserID:    input.AuthorID,
		Operation: "create",
	})
	defer span.End()

	question := &domain.Question{
		Title:    input.Title,
		Content:  input.Content,
		AuthorID: input.AuthorID,
		Status:   domain.QuestionStatusOpen,
		Tags:     input.Tags,
	}

	if err := domain.ValidateQuestion(question); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}

	if s.orchestrator != nil {
		// Detached from the request context: the HTTP response must not
		// wait for, or cancel, the analysis.
		go s.analyze(*question, input.Urgency)
	}

	return question, nil
}

func (s *QuestionService) analyze(q domain.Question, urgency string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.analysisTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("question analysis panicked",
				zap.Int64("question_id", q.ID),
				zap.Any("panic", r))
		}
	}()

	result := s.orchestrator.ProcessQuestion(ctx, q, agents.Context{Urgency: urgency})
	s.logger.Info("question_analyzed",
		zap.Int64("question_id", q.ID),
		zap.Float64("confidence", result.Confidence))
}

// Analyze runs the agent pipeline synchronously, for the suggestions
// endpoint and the backfill worker.
func (s *QuestionService) Analyze(ctx context.Context, questionID int64) (*agents.OrchestrationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "QuestionService.Analyze", telemetry.SpanAttributes{
		QuestionID: questionID,
		Operation:  "analyze",
	})
	defer span.End()

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.ProcessQuestion(ctx, *question, agents.Context{}), nil
}

// GetByID returns a question and bumps its view counter.
func (s *QuestionService) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	ctx, span := telemetry.StartSpan(ctx, "QuestionService.GetByID", telemetry.SpanAttributes{
		QuestionID: id,
		Operation:  "get",
	})
	defer span.End()

	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.questionRepo.IncrementViewCount(ctx, id); err != nil {
		s.logger.Warn("view count increment failed", zap.Int64("question_id", id), zap.Error(err))
	} else {
		question.ViewCount++
	}
	return question, nil
}

type ListQuestionsInput struct {
	Search string
	Tag    string
	Status string
	Cursor string
	Limit  int
}

func (s *QuestionService) List(ctx context.Context, input ListQuestionsInput) (*pagination.PageResult[*domain.Question], error) {
	ctx, span := telemetry.StartSpan(ctx, "QuestionService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, err
	}

	filter := repository.QuestionFilter{
		Search: input.Search,
		Tag:    input.Tag,
		Status: domain.QuestionStatus(input.Status),
	}
	return s.questionRepo.ListWithCursor(ctx, filter, cursor, input.Limit)
}

func (s *QuestionService) Recent(ctx context.Context, limit int) ([]*domain.Question, error) {
	return s.questionRepo.Recent(ctx, limit)
}

type UpdateQuestionInput struct {
	QuestionID int64
	EditorID   int64
	Title      string
	Content    string
	Tags       []string
}

// Update edits a question. Only the author may edit, and closed questions
// are immutable.
func (s *QuestionService) Update(ctx context.Context, input UpdateQuestionInput) (*domain.Question, error) {
	ctx, span := telemetry.StartSpan(ctx, "QuestionService.Update", telemetry.SpanAttributes{
		QuestionID: input.QuestionID,
		UserID:     input.EditorID,
		Operation:  "update",
	})
	defer span.End()

	question, err := s.questionRepo.GetByID(ctx, input.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.AuthorID != input.EditorID {
		return nil, domain.ErrNotAuthor
	}
	if question.Status == domain.QuestionStatusClosed {
		return nil, domain.ErrQuestionClosed
	}

	question.Title = input.Title
	question.Content = input.Content
	question.Tags = input.Tags

	if err := domain.ValidateQuestion(question); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuestionService) Delete(ctx context.Context, questionID, editorID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "QuestionService.Delete", telemetry.SpanAttributes{
		QuestionID: questionID,
		UserID:     editorID,
		Operation:  "delete",
	})
	defer span.End()

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question.AuthorID != editorID {
		return domain.ErrNotAuthor
	}
	return s.questionRepo.Delete(ctx, questionID)
}

func (s *QuestionService) Close(ctx context.Context, questionID, editorID int64) error {
	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question.AuthorID != editorID {
		return domain.ErrNotAuthor
	}
	return s.questionRepo.UpdateStatus(ctx, questionID, domain.QuestionStatusClosed)
}
