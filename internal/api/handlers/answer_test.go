package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/service"
)

type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) Create(ctx context.Context, input service.CreateAnswerInput) (*domain.Answer, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func (m *MockAnswerService) ListByQuestion(ctx context.Context, questionID int64) ([]*domain.Answer, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Answer), args.Error(1)
}

func (m *MockAnswerService) Accept(ctx context.Context, questionID, answerID, acceptorID int64) (*domain.Answer, error) {
	args := m.Called(ctx, questionID, answerID, acceptorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

func (m *MockAnswerService) VoteQuestion(ctx context.Context, voterID, questionID int64, voteType domain.VoteType) error {
	args := m.Called(ctx, voterID, questionID, voteType)
	return args.Error(0)
}

func (m *MockAnswerService) VoteAnswer(ctx context.Context, voterID, answerID int64, voteType domain.VoteType) error {
	args := m.Called(ctx, voterID, answerID, voteType)
	return args.Error(0)
}

func newTestAnswer() *domain.Answer {
	now := time.Now()
	return &domain.Answer{
		ID:         11,
		QuestionID: 42,
		AuthorID:   7,
		Content:    "Point the webhook at the assistant's session endpoint.",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestAnswerHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, service.CreateAnswerInput{
		QuestionID: 42,
		AuthorID:   7,
		Content:    "Point the webhook at the assistant's session endpoint.",
	}).Return(newTestAnswer(), nil)

	body := `{"content":"Point the webhook at the assistant's session endpoint."}`
	req := withIDParam(requestWithUser(http.MethodPost, "/questions/42/answers", []byte(body), 7), "42")
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestAnswerHandler_Create_MissingContent(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	req := withIDParam(requestWithUser(http.MethodPost, "/questions/42/answers", []byte(`{}`), 7), "42")
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "content is required")
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAnswerHandler_Create_ClosedQuestion(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrQuestionClosed)

	body := `{"content":"Too late for this one."}`
	req := withIDParam(requestWithUser(http.MethodPost, "/questions/42/answers", []byte(body), 7), "42")
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnswerHandler_ListByQuestion(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	mockSvc.On("ListByQuestion", mock.Anything, int64(42)).Return([]*domain.Answer{newTestAnswer()}, nil)

	req := withIDParam(httptest.NewRequest(http.MethodGet, "/questions/42/answers", nil), "42")
	w := httptest.NewRecorder()

	handler.ListByQuestion(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestAnswerHandler_Accept_Success(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	accepted := newTestAnswer()
	accepted.IsAccepted = true
	mockSvc.On("Accept", mock.Anything, int64(42), int64(11), int64(5)).Return(accepted, nil)

	req := requestWithUser(http.MethodPost, "/questions/42/answers/11/accept", nil, 5)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	rctx.URLParams.Add("answerID", "11")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.Accept(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_accepted":true`)
	mockSvc.AssertExpectations(t)
}

func TestAnswerHandler_Accept_NotAuthor(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	mockSvc.On("Accept", mock.Anything, int64(42), int64(11), int64(99)).Return(nil, domain.ErrNotAuthor)

	req := requestWithUser(http.MethodPost, "/questions/42/answers/11/accept", nil, 99)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	rctx.URLParams.Add("answerID", "11")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.Accept(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAnswerHandler_VoteQuestion(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	mockSvc.On("VoteQuestion", mock.Anything, int64(7), int64(42), domain.VoteUp).Return(nil)

	body := `{"vote_type":"up"}`
	req := withIDParam(requestWithUser(http.MethodPost, "/questions/42/vote", []byte(body), 7), "42")
	w := httptest.NewRecorder()

	handler.VoteQuestion(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestAnswerHandler_VoteQuestion_InvalidType(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	body := `{"vote_type":"sideways"}`
	req := withIDParam(requestWithUser(http.MethodPost, "/questions/42/vote", []byte(body), 7), "42")
	w := httptest.NewRecorder()

	handler.VoteQuestion(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "vote_type must be")
	mockSvc.AssertNotCalled(t, "VoteQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswerHandler_VoteAnswer_Duplicate(t *testing.T) {
	mockSvc := new(MockAnswerService)
	handler := NewAnswerHandler(mockSvc)

	mockSvc.On("VoteAnswer", mock.Anything, int64(7), int64(11), domain.VoteDown).Return(domain.ErrDuplicateVote)

	body := `{"vote_type":"down"}`
	req := requestWithUser(http.MethodPost, "/answers/11/vote", []byte(body), 7)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("answerID", "11")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	w := httptest.NewRecorder()

	handler.VoteAnswer(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
