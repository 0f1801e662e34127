package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/askhub-io/askhub/internal/api/middleware"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/pagination"
	"github.com/askhub-io/askhub/internal/service"
)

type MockQuestionService struct {
	mock.Mock
}

func (m *MockQuestionService) Create(ctx context.Context, input service.CreateQuestionInput) (*domain.Question, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionService) GetByID(ctx context.Context, id int64) (*domain.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionService) List(ctx context.Context, input service.ListQuestionsInput) (*pagination.PageResult[*domain.Question], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Question]), args.Error(1)
}

func (m *MockQuestionService) Recent(ctx context.Context, limit int) ([]*domain.Question, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Question), args.Error(1)
}

func (m *MockQuestionService) Update(ctx context.Context, input service.UpdateQuestionInput) (*domain.Question, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionService) Delete(ctx context.Context, questionID, editorID int64) error {
	args := m.Called(ctx, questionID, editorID)
	return args.Error(0)
}

func (m *MockQuestionService) Close(ctx context.Context, questionID, editorID int64) error {
	args := m.Called(ctx, questionID, editorID)
	return args.Error(0)
}

func requestWithUser(method, target string, body []byte, userID int64) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	user := &domain.User{ID: userID, Email: "dev@example.com", FirstName: "Dev", LastName: "User"}
	return req.WithContext(context.WithValue(req.Context(), middleware.UserKey, user))
}

func withIDParam(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newTestQuestion() *domain.Question {
	now := time.Now()
	return &domain.Question{
		ID:        42,
		Title:     "How to configure Watson Assistant webhooks",
		Content:   "We need the webhook endpoint to receive session events.",
		AuthorID:  5,
		Status:    domain.QuestionStatusOpen,
		Tags:      []string{"watson", "webhooks"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestQuestionHandler_Create_Success(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	expected := newTestQuestion()
	mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(input service.CreateQuestionInput) bool {
		return input.Title == "How to configure Watson Assistant webhooks" && input.AuthorID == 5
	})).Return(expected, nil)

	body := `{"title":"How to configure Watson Assistant webhooks","content":"We need the webhook endpoint to receive session events.","tags":["watson"]}`
	req := requestWithUser(http.MethodPost, "/questions", []byte(body), 5)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["id"])
	assert.Equal(t, "open", data["status"])
	mockSvc.AssertExpectations(t)
}

func TestQuestionHandler_Create_Unauthorized(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	body := `{"title":"A question","content":"Some content"}`
	req := httptest.NewRequest(http.MethodPost, "/questions", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestQuestionHandler_Create_InvalidJSON(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	req := requestWithUser(http.MethodPost, "/questions", []byte(`{invalid`), 5)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestQuestionHandler_Create_MissingTitle(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	body := `{"content":"Some content"}`
	req := requestWithUser(http.MethodPost, "/questions", []byte(body), 5)
	w := httptest.NewRecorder()

	handler.Create(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "title is required")
}

func TestQuestionHandler_Get_Success(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, int64(42)).Return(newTestQuestion(), nil)

	req := withIDParam(httptest.NewRequest(http.MethodGet, "/questions/42", nil), "42")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQuestionHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	mockSvc.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrQuestionNotFound)

	req := withIDParam(httptest.NewRequest(http.MethodGet, "/questions/99", nil), "99")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQuestionHandler_Get_InvalidID(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	req := withIDParam(httptest.NewRequest(http.MethodGet, "/questions/abc", nil), "abc")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestQuestionHandler_List_Success(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	page := &pagination.PageResult[*domain.Question]{
		Items:   []*domain.Question{newTestQuestion()},
		Cursor:  "next-cursor",
		HasMore: true,
	}
	mockSvc.On("List", mock.Anything, service.ListQuestionsInput{
		Search: "watson",
		Status: "open",
		Limit:  10,
	}).Return(page, nil)

	req := httptest.NewRequest(http.MethodGet, "/questions?search=watson&status=open&limit=10", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "next-cursor", data["cursor"])
	assert.Equal(t, true, data["has_more"])
	mockSvc.AssertExpectations(t)
}

func TestQuestionHandler_List_InvalidLimit(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/questions?limit=500", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestQuestionHandler_List_InvalidCursor(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	mockSvc.On("List", mock.Anything, mock.Anything).Return(nil, pagination.ErrInvalidCursor)

	req := httptest.NewRequest(http.MethodGet, "/questions?cursor=garbage", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid cursor")
}

func TestQuestionHandler_Recent(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	mockSvc.On("Recent", mock.Anything, 10).Return([]*domain.Question{newTestQuestion()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/questions/recent", nil)
	w := httptest.NewRecorder()

	handler.Recent(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQuestionHandler_Update_Success(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	updated := newTestQuestion()
	updated.Title = "Updated title"
	mockSvc.On("Update", mock.Anything, mock.MatchedBy(func(input service.UpdateQuestionInput) bool {
		return input.QuestionID == 42 && input.EditorID == 5 && input.Title == "Updated title"
	})).Return(updated, nil)

	body := `{"title":"Updated title","content":"Updated content"}`
	req := withIDParam(requestWithUser(http.MethodPut, "/questions/42", []byte(body), 5), "42")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQuestionHandler_Update_Forbidden(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	mockSvc.On("Update", mock.Anything, mock.Anything).Return(nil, domain.ErrNotAuthor)

	body := `{"title":"Updated title"}`
	req := withIDParam(requestWithUser(http.MethodPut, "/questions/42", []byte(body), 99), "42")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestQuestionHandler_Delete_Success(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	mockSvc.On("Delete", mock.Anything, int64(42), int64(5)).Return(nil)

	req := withIDParam(requestWithUser(http.MethodDelete, "/questions/42", nil, 5), "42")
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestQuestionHandler_Close_Success(t *testing.T) {
	mockSvc := new(MockQuestionService)
	handler := NewQuestionHandler(mockSvc)

	mockSvc.On("Close", mock.Anything, int64(42), int64(5)).Return(nil)

	req := withIDParam(requestWithUser(http.MethodPost, "/questions/42/close", nil, 5), "42")
	w := httptest.NewRecorder()

	handler.Close(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "closed")
	mockSvc.AssertExpectations(t)
}
