package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/agents"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/service"
)

type AgentService interface {
	SuggestionsForQuestion(ctx context.Context, questionID int64) ([]*domain.Suggestion, error)
	Feedback(ctx context.Context, suggestionID int64, accepted bool) (*domain.Suggestion, error)
	Performance(ctx context.Context) (*service.PerformanceReport, error)
	Gaps(ctx context.Context, status string, limit int) ([]*domain.KnowledgeGap, error)
}

// QuestionAnalyzer runs the agent pipeline for a question on demand.
type QuestionAnalyzer interface {
	Analyze(ctx context.Context, questionID int64) (*agents.OrchestrationResult, error)
}

type AgentHandler struct {
	svc      AgentService
	analyzer QuestionAnalyzer
}

func NewAgentHandler(svc AgentService, analyzer QuestionAnalyzer) *AgentHandler {
	return &AgentHandler{svc: svc, analyzer: analyzer}
}

type SuggestionResponse struct {
	ID              int64   `json:"id"`
	AgentType       string  `json:"agent_type"`
	QuestionID      int64   `json:"question_id"`
	SuggestedUserID int64   `json:"suggested_user_id,omitempty"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning,omitempty"`
	Accepted        bool    `json:"accepted"`
	CreatedAt       string  `json:"created_at"`
}

func suggestionToResponse(s *domain.Suggestion) *SuggestionResponse {
	return &SuggestionResponse{
		ID:              s.ID,
		AgentType:       s.AgentType,
		QuestionID:      s.QuestionID,
		SuggestedUserID: s.SuggestedUserID,
		Confidence:      s.Confidence,
		Reasoning:       s.Reasoning,
		Accepted:        s.Accepted,
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
	}
}

// Suggestions returns stored suggestions for a question.
func (h *AgentHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	suggestions, err := h.svc.SuggestionsForQuestion(r.Context(), questionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*SuggestionResponse, 0, len(suggestions))
	for _, s := range suggestions {
		items = append(items, suggestionToResponse(s))
	}
	api.Success(w, http.StatusOK, items)
}

// Analyze runs the full agent pipeline synchronously and returns the raw
// orchestration result.
func (h *AgentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), questionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

type FeedbackRequest struct {
	Accepted bool `json:"accepted"`
}

func (h *AgentHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	suggestionID, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid suggestion id")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	suggestion, err := h.svc.Feedback(r.Context(), suggestionID, req.Accepted)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, suggestionToResponse(suggestion))
}

func (h *AgentHandler) Performance(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Performance(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, report)
}

type GapResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Frequency   int    `json:"frequency"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	AssignedTo  int64  `json:"assigned_to,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (h *AgentHandler) Gaps(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	gaps, err := h.svc.Gaps(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*GapResponse, 0, len(gaps))
	for _, g := range gaps {
		items = append(items, &GapResponse{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			Frequency:   g.Frequency,
			Priority:    string(g.Priority),
			Status:      string(g.Status),
			AssignedTo:  g.AssignedTo,
			CreatedAt:   g.CreatedAt.Format(time.RFC3339),
			UpdatedAt:   g.UpdatedAt.Format(time.RFC3339),
		})
	}
	api.Success(w, http.StatusOK, items)
}

// Health reports the agent subsystem's registered agents.
func (h *AgentHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]any{
		"status": "ok",
		"agents": []string{
			agents.AgentRouting,
			agents.AgentDuplicate,
			agents.AgentKnowledgeGap,
			agents.AgentExpertise,
		},
	})
}
