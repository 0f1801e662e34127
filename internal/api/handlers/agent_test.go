package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/repository"
	"github.com/askhub-io/askhub/internal/service"
)

type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) SuggestionsForQuestion(ctx context.Context, questionID int64) ([]*domain.Suggestion, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Suggestion), args.Error(1)
}

func (m *MockAgentService) Feedback(ctx context.Context, suggestionID int64, accepted bool) (*domain.Suggestion, error) {
	args := m.Called(ctx, suggestionID, accepted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Suggestion), args.Error(1)
}

func (m *MockAgentService) Performance(ctx context.Context) (*service.PerformanceReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PerformanceReport), args.Error(1)
}

func (m *MockAgentService) Gaps(ctx context.Context, status string, limit int) ([]*domain.KnowledgeGap, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeGap), args.Error(1)
}

type MockQuestionAnalyzer struct {
	mock.Mock
}

func (m *MockQuestionAnalyzer) Analyze(ctx context.Context, questionID int64) (*agents.OrchestrationResult, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agents.OrchestrationResult), args.Error(1)
}

func newTestSuggestion() *domain.Suggestion {
	return &domain.Suggestion{
		ID:              3,
		AgentType:       agents.AgentRouting,
		QuestionID:      42,
		SuggestedUserID: 7,
		Confidence:      0.82,
		Reasoning:       "matched kubernetes expertise",
		CreatedAt:       time.Now(),
	}
}

func TestAgentHandler_Suggestions(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc, new(MockQuestionAnalyzer))

	mockSvc.On("SuggestionsForQuestion", mock.Anything, int64(42)).
		Return([]*domain.Suggestion{newTestSuggestion()}, nil)

	req := withIDParam(httptest.NewRequest(http.MethodGet, "/questions/42/suggestions", nil), "42")
	w := httptest.NewRecorder()

	handler.Suggestions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "routing", first["agent_type"])
	mockSvc.AssertExpectations(t)
}

func TestAgentHandler_Analyze(t *testing.T) {
	analyzer := new(MockQuestionAnalyzer)
	handler := NewAgentHandler(new(MockAgentService), analyzer)

	result := &agents.OrchestrationResult{
		QuestionID: 42,
		Confidence: 0.74,
	}
	analyzer.On("Analyze", mock.Anything, int64(42)).Return(result, nil)

	req := withIDParam(httptest.NewRequest(http.MethodPost, "/questions/42/analyze", nil), "42")
	w := httptest.NewRecorder()

	handler.Analyze(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	analyzer.AssertExpectations(t)
}

func TestAgentHandler_Analyze_QuestionNotFound(t *testing.T) {
	analyzer := new(MockQuestionAnalyzer)
	handler := NewAgentHandler(new(MockAgentService), analyzer)

	analyzer.On("Analyze", mock.Anything, int64(99)).Return(nil, domain.ErrQuestionNotFound)

	req := withIDParam(httptest.NewRequest(http.MethodPost, "/questions/99/analyze", nil), "99")
	w := httptest.NewRecorder()

	handler.Analyze(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgentHandler_Feedback_Success(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc, new(MockQuestionAnalyzer))

	accepted := newTestSuggestion()
	accepted.Accepted = true
	mockSvc.On("Feedback", mock.Anything, int64(3), true).Return(accepted, nil)

	body := `{"accepted":true}`
	req := withIDParam(httptest.NewRequest(http.MethodPost, "/suggestions/3/feedback", bytes.NewReader([]byte(body))), "3")
	w := httptest.NewRecorder()

	handler.Feedback(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["accepted"])
	mockSvc.AssertExpectations(t)
}

func TestAgentHandler_Feedback_NotFound(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc, new(MockQuestionAnalyzer))

	mockSvc.On("Feedback", mock.Anything, int64(99), false).Return(nil, domain.ErrSuggestionNotFound)

	body := `{"accepted":false}`
	req := withIDParam(httptest.NewRequest(http.MethodPost, "/suggestions/99/feedback", bytes.NewReader([]byte(body))), "99")
	w := httptest.NewRecorder()

	handler.Feedback(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAgentHandler_Performance(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc, new(MockQuestionAnalyzer))

	report := &service.PerformanceReport{
		Suggestions: []*repository.SuggestionStats{
			{AgentType: "routing", Total: 10, Accepted: 7, AverageConfidence: 0.78},
		},
		Counters: map[string]int64{"routing:executed": 10},
	}
	mockSvc.On("Performance", mock.Anything).Return(report, nil)

	req := httptest.NewRequest(http.MethodGet, "/agents/performance", nil)
	w := httptest.NewRecorder()

	handler.Performance(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "routing")
	mockSvc.AssertExpectations(t)
}

func TestAgentHandler_Gaps(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc, new(MockQuestionAnalyzer))

	now := time.Now()
	gaps := []*domain.KnowledgeGap{
		{ID: 1, Title: "Missing guide: kubernetes", Frequency: 4, Priority: domain.GapPriorityHigh, Status: domain.GapStatusOpen, CreatedAt: now, UpdatedAt: now},
	}
	mockSvc.On("Gaps", mock.Anything, "open", 50).Return(gaps, nil)

	req := httptest.NewRequest(http.MethodGet, "/agents/gaps?status=open", nil)
	w := httptest.NewRecorder()

	handler.Gaps(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Missing guide: kubernetes")
	mockSvc.AssertExpectations(t)
}

func TestAgentHandler_Gaps_InvalidLimit(t *testing.T) {
	mockSvc := new(MockAgentService)
	handler := NewAgentHandler(mockSvc, new(MockQuestionAnalyzer))

	req := httptest.NewRequest(http.MethodGet, "/agents/gaps?limit=0", nil)
	w := httptest.NewRecorder()

	handler.Gaps(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Gaps", mock.Anything, mock.Anything, mock.Anything)
}

func TestAgentHandler_Health(t *testing.T) {
	handler := NewAgentHandler(new(MockAgentService), new(MockQuestionAnalyzer))

	req := httptest.NewRequest(http.MethodGet, "/agents/health", nil)
	w := httptest.NewRecorder()

	handler.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	agentList := data["agents"].([]interface{})
	assert.Len(t, agentList, 4)
}
