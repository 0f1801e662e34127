package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/askhub-io/askhub/internal/domain"
)

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// memorySessionStore is an in-memory SessionStore for tests.
type memorySessionStore struct {
	values map[string][]byte
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{values: make(map[string][]byte)}
}

func (s *memorySessionStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.values[key] = data
	return nil
}

func (s *memorySessionStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, ok := s.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("known email logs in", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		existing := &domain.User{ID: 3, Email: "sarah.chen@example.com", FirstName: "Sarah", LastName: "Chen"}
		userRepo.On("GetByEmail", mock.Anything, "sarah.chen@example.com").Return(existing, nil)

		svc := NewAuthService(userRepo, newMemorySessionStore())
		user, token, err := svc.Login(ctx, "sarah.chen@example.com", "Sarah", "Chen")

		require.NoError(t, err)
		assert.Equal(t, int64(3), user.ID)
		assert.NotEmpty(t, token)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown email is provisioned on the fly", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("GetByEmail", mock.Anything, "new.user@example.com").Return(nil, domain.ErrUserNotFound)
		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "new.user@example.com" && u.EmployeeID != ""
		})).Return(nil)

		svc := NewAuthService(userRepo, newMemorySessionStore())
		user, token, err := svc.Login(ctx, "new.user@example.com", "New", "User")

		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.NotEmpty(t, token)
		userRepo.AssertExpectations(t)
	})

	t.Run("provisioning requires a name", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("GetByEmail", mock.Anything, "new.user@example.com").Return(nil, domain.ErrUserNotFound)

		svc := NewAuthService(userRepo, newMemorySessionStore())
		_, _, err := svc.Login(ctx, "new.user@example.com", "", "")

		require.Error(t, err)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("issued token resolves to the user", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := &domain.User{ID: 3, Email: "sarah.chen@example.com", FirstName: "Sarah", LastName: "Chen"}
		userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
		userRepo.On("GetByID", mock.Anything, int64(3)).Return(user, nil)

		svc := NewAuthService(userRepo, newMemorySessionStore())
		_, token, err := svc.Login(ctx, user.Email, "Sarah", "Chen")
		require.NoError(t, err)

		resolved, err := svc.Validate(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, int64(3), resolved.ID)
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), newMemorySessionStore())

		_, err := svc.Validate(ctx, "made-up-token")

		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})

	t.Run("empty token is rejected", func(t *testing.T) {
		svc := NewAuthService(new(MockUserRepository), newMemorySessionStore())

		_, err := svc.Validate(ctx, "")

		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	})
}
