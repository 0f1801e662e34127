package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/api/middleware"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/service"
)

type AnswerService interface {
	Create(ctx context.Context, input service.CreateAnswerInput) (*domain.Answer, error)
	ListByQuestion(ctx context.Context, questionID int64) ([]*domain.Answer, error)
	Accept(ctx context.Context, questionID, answerID, acceptorID int64) (*domain.Answer, error)
	VoteQuestion(ctx context.Context, voterID, questionID int64, voteType domain.VoteType) error
	VoteAnswer(ctx context.Context, voterID, answerID int64, voteType domain.VoteType) error
}

type AnswerHandler struct {
	svc AnswerService
}

func NewAnswerHandler(svc AnswerService) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

type CreateAnswerRequest struct {
	Content string `json:"content"`
}

type VoteRequest struct {
	VoteType string `json:"vote_type"`
}

type AnswerResponse struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	AuthorID   int64  `json:"author_id"`
	Content    string `json:"content"`
	IsAccepted bool   `json:"is_accepted"`
	VoteCount  int    `json:"vote_count"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func answerToResponse(a *domain.Answer) *AnswerResponse {
	return &AnswerResponse{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		AuthorID:   a.AuthorID,
		Content:    a.Content,
		IsAccepted: a.IsAccepted,
		VoteCount:  a.VoteCount,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *AnswerHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	var req CreateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	answer, err := h.svc.Create(r.Context(), service.CreateAnswerInput{
		QuestionID: questionID,
		AuthorID:   userID,
		Content:    req.Content,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, answerToResponse(answer))
}

func (h *AnswerHandler) ListByQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	answers, err := h.svc.ListByQuestion(r.Context(), questionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*AnswerResponse, 0, len(answers))
	for _, a := range answers {
		items = append(items, answerToResponse(a))
	}
	api.Success(w, http.StatusOK, items)
}

func (h *AnswerHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}
	answerID, err := parseIDParam(r, "answerID")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid answer id")
		return
	}

	answer, err := h.svc.Accept(r.Context(), questionID, answerID, userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, answerToResponse(answer))
}

func (h *AnswerHandler) VoteQuestion(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	voteType, ok := decodeVote(w, r)
	if !ok {
		return
	}

	if err := h.svc.VoteQuestion(r.Context(), userID, questionID, voteType); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *AnswerHandler) VoteAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	answerID, err := parseIDParam(r, "answerID")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid answer id")
		return
	}

	voteType, ok := decodeVote(w, r)
	if !ok {
		return
	}

	if err := h.svc.VoteAnswer(r.Context(), userID, answerID, voteType); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func decodeVote(w http.ResponseWriter, r *http.Request) (domain.VoteType, bool) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	voteType := domain.VoteType(req.VoteType)
	if !domain.IsValidVoteType(voteType) {
		api.Error(w, http.StatusBadRequest, "vote_type must be 'up' or 'down'")
		return "", false
	}
	return voteType, true
}
