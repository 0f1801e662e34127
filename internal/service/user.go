package service

import (
	"context"

	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/telemetry"
)

// ExpertiseReader lists a user's discovered skills.
type ExpertiseReader interface {
	ListExpertise(ctx context.Context, userID int64) ([]*domain.ExpertiseEntry, error)
}

// UserService handles user profiles.
type UserService struct {
	userRepo  UserRepositoryInterface
	expertise ExpertiseReader
}

func NewUserService(userRepo UserRepositoryInterface, expertise ExpertiseReader) *UserService {
	return &UserService{userRepo: userRepo, expertise: expertise}
}

// Profile is a user with their discovered expertise attached.
type Profile struct {
	User   *domain.User             `json:"user"`
	Skills []*domain.ExpertiseEntry `json:"skills"`
}

func (s *UserService) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	ctx, span := telemetry.StartSpan(ctx, "UserService.GetProfile", telemetry.SpanAttributes{
		UserID:    id,
		Operation: "get_profile",
	})
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	skills, err := s.expertise.ListExpertise(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Skills: skills}, nil
}

func (s *UserService) List(ctx context.Context, limit int) ([]*domain.User, error) {
	return s.userRepo.List(ctx, limit)
}
