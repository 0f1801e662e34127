package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/telemetry"
)

const sessionTTL = 24 * time.Hour

// UserRepositoryInterface defines the repository interface for user persistence
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit int) ([]*domain.User, error)
}

// SessionStore keeps session tokens with expiry.
type SessionStore interface {
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
}

// AuthService implements mock corporate SSO: any known email logs in and
// gets a bearer session token.
type AuthService struct {
	userRepo UserRepositoryInterface
	sessions SessionStore
}

func NewAuthService(userRepo UserRepositoryInterface, sessions SessionStore) *AuthService {
	return &AuthService{userRepo: userRepo, sessions: sessions}
}

// Session is the logged-in principal carried by a token.
type Session struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Login resolves a user by email and issues a session token. Unknown emails
// are registered on the fly, mirroring SSO auto-provisioning.
func (s *AuthService) Login(ctx context.Context, email, firstName, lastName string) (*domain.User, string, error) {
	ctx, span := telemetry.StartSpan(ctx, "AuthService.Login", telemetry.SpanAttributes{
		Operation: "login",
	})
	defer span.End()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == domain.ErrUserNotFound {
		user = &domain.User{
			EmployeeID: uuid.NewString()[:8],
			Email:      email,
			FirstName:  firstName,
			LastName:   lastName,
		}
		if vErr := domain.ValidateUser(user); vErr != nil {
			return nil, "", vErr
		}
		if cErr := s.userRepo.Create(ctx, user); cErr != nil {
			return nil, "", cErr
		}
	} else if err != nil {
		return nil, "", err
	}

	token := uuid.NewString()
	session := Session{UserID: user.ID, Email: user.Email, CreatedAt: time.Now().UTC()}
	if err := s.sessions.SetJSON(ctx, sessionKey(token), session, sessionTTL); err != nil {
		return nil, "", fmt.Errorf("storing session: %w", err)
	}
	return user, token, nil
}

// Validate resolves a session token to its user.
func (s *AuthService) Validate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	var session Session
	found, err := s.sessions.GetJSON(ctx, sessionKey(token), &session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrInvalidSession
	}
	return s.userRepo.GetByID(ctx, session.UserID)
}

func sessionKey(token string) string {
	return "sessions:" + token
}
