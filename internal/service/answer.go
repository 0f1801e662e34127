package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/telemetry"
)

// Reputation deltas awarded for community activity.
const (
	reputationAcceptedAnswer = 15
	reputationUpvote         = 5
	reputationDownvote       = -2
)

// AnswerRepositoryInterface defines the repository interface for answer persistence
type AnswerRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Answer) error
	GetByID(ctx context.Context, id int64) (*domain.Answer, error)
	ListByQuestion(ctx context.Context, questionID int64) ([]*domain.Answer, error)
	Accept(ctx context.Context, questionID, answerID int64) error
	AdjustVoteCount(ctx context.Context, id int64, delta int) error
}

// VoteRepositoryInterface records votes with per-user uniqueness.
type VoteRepositoryInterface interface {
	RecordQuestionVote(ctx context.Context, userID, questionID int64, voteType domain.VoteType) error
	RecordAnswerVote(ctx context.Context, userID, answerID int64, voteType domain.VoteType) error
}

// UserReputationInterface adjusts user reputation scores.
type UserReputationInterface interface {
	AdjustReputation(ctx context.Context, id int64, delta int) error
}

// QuestionStatusInterface is the slice of question persistence the answer
// flow needs.
type QuestionStatusInterface interface {
	GetByID(ctx context.Context, id int64) (*domain.Question, error)
	UpdateStatus(ctx context.Context, id int64, status domain.QuestionStatus) error
	AdjustVoteCount(ctx context.Context, id int64, delta int) error
}

// AnswerService handles business logic for answers and votes.
type AnswerService struct {
	answerRepo   AnswerRepositoryInterface
	questionRepo QuestionStatusInterface
	voteRepo     VoteRepositoryInterface
	userRepo     UserReputationInterface
	logger       *zap.Logger
}

func NewAnswerService(answerRepo AnswerRepositoryInterface, questionRepo QuestionStatusInterface, voteRepo VoteRepositoryInterface, userRepo UserReputationInterface, logger *zap.Logger) *AnswerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		voteRepo:     voteRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

type CreateAnswerInput struct {
	QuestionID int64
	AuthorID   int64
	Content    string
}

// Create posts an answer. Closed questions take no new answers.
func (s *AnswerService) Create(ctx context.Context, input CreateAnswerInput) (*domain.Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Create", telemetry.SpanAttributes{
		QuestionID: input.QuestionID,
		UserID:     input.AuthorID,
		Operation:  "create",
	})
	defer span.End()

	question, err := s.questionRepo.GetByID(ctx, input.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.Status == domain.QuestionStatusClosed {
		return nil, domain.ErrQuestionClosed
	}

	answer := &domain.Answer{
		QuestionID: input.QuestionID,
		AuthorID:   input.AuthorID,
		Content:    input.Content,
	}
	if err := domain.ValidateAnswer(answer); err != nil {
		return nil, err
	}
	if err := s.answerRepo.Create(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *AnswerService) ListByQuestion(ctx context.Context, questionID int64) ([]*domain.Answer, error) {
	if _, err := s.questionRepo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	return s.answerRepo.ListByQuestion(ctx, questionID)
}

// Accept marks an answer as accepted. Only the question author may accept;
// the answer author earns reputation and the question moves to answered.
func (s *AnswerService) Accept(ctx context.Context, questionID, answerID, acceptorID int64) (*domain.Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Accept", telemetry.SpanAttributes{
		QuestionID: questionID,
		UserID:     acceptorID,
		Operation:  "accept",
	})
	defer span.End()

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.AuthorID != acceptorID {
		return nil, domain.ErrNotAuthor
	}

	answer, err := s.answerRepo.GetByID(ctx, answerID)
	if err != nil {
		return nil, err
	}
	if answer.QuestionID != questionID {
		return nil, domain.ErrAnswerNotFound
	}

	if err := s.answerRepo.Accept(ctx, questionID, answerID); err != nil {
		return nil, err
	}
	answer.IsAccepted = true

	if err := s.questionRepo.UpdateStatus(ctx, questionID, domain.QuestionStatusAnswered); err != nil {
		s.logger.Warn("question status update failed", zap.Int64("question_id", questionID), zap.Error(err))
	}
	if err := s.userRepo.AdjustReputation(ctx, answer.AuthorID, reputationAcceptedAnswer); err != nil {
		s.logger.Warn("reputation update failed", zap.Int64("user_id", answer.AuthorID), zap.Error(err))
	}
	return answer, nil
}

// VoteQuestion records a vote on a question and adjusts its count and the
// author's reputation. A user votes a question at most once.
func (s *AnswerService) VoteQuestion(ctx context.Context, voterID, questionID int64, voteType domain.VoteType) error {
	if !domain.IsValidVoteType(voteType) {
		return domain.ErrInvalidVoteType
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}

	if err := s.voteRepo.RecordQuestionVote(ctx, voterID, questionID, voteType); err != nil {
		return err
	}
	return s.applyVote(ctx, voteType, question.AuthorID, func(delta int) error {
		return s.questionRepo.AdjustVoteCount(ctx, questionID, delta)
	})
}

// VoteAnswer records a vote on an answer, mirroring VoteQuestion.
func (s *AnswerService) VoteAnswer(ctx context.Context, voterID, answerID int64, voteType domain.VoteType) error {
	if !domain.IsValidVoteType(voteType) {
		return domain.ErrInvalidVoteType
	}

	answer, err := s.answerRepo.GetByID(ctx, answerID)
	if err != nil {
		return err
	}

	if err := s.voteRepo.RecordAnswerVote(ctx, voterID, answerID, voteType); err != nil {
		return err
	}
	return s.applyVote(ctx, voteType, answer.AuthorID, func(delta int) error {
		return s.answerRepo.AdjustVoteCount(ctx, answerID, delta)
	})
}

func (s *AnswerService) applyVote(ctx context.Context, voteType domain.VoteType, authorID int64, adjustCount func(delta int) error) error {
	delta := 1
	reputation := reputationUpvote
	if voteType == domain.VoteDown {
		delta = -1
		reputation = reputationDownvote
	}

	if err := adjustCount(delta); err != nil {
		return err
	}
	if err := s.userRepo.AdjustReputation(ctx, authorID, reputation); err != nil {
		s.logger.Warn("reputation update failed", zap.Int64("user_id", authorID), zap.Error(err))
	}
	return nil
}
