package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/api/middleware"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/pagination"
	"github.com/askhub-io/askhub/internal/service"
)

type QuestionService interface {
	Create(ctx context.Context, input service.CreateQuestionInput) (*domain.Question, error)
	GetByID(ctx context.Context, id int64) (*domain.Question, error)
	List(ctx context.Context, input service.ListQuestionsInput) (*pagination.PageResult[*domain.Question], error)
	Recent(ctx context.Context, limit int) ([]*domain.Question, error)
	Update(ctx context.Context, input service.UpdateQuestionInput) (*domain.Question, error)
	Delete(ctx context.Context, questionID, editorID int64) error
	Close(ctx context.Context, questionID, editorID int64) error
}

type QuestionHandler struct {
	svc QuestionService
}

func NewQuestionHandler(svc QuestionService) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

type CreateQuestionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Urgency string   `json:"urgency"`
}

type UpdateQuestionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type QuestionResponse struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	AuthorID  int64    `json:"author_id"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags"`
	ViewCount int      `json:"view_count"`
	VoteCount int      `json:"vote_count"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type QuestionListResponse struct {
	Items   []*QuestionResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

func questionToResponse(q *domain.Question) *QuestionResponse {
	return &QuestionResponse{
		ID:        q.ID,
		Title:     q.Title,
		Content:   q.Content,
		AuthorID:  q.AuthorID,
		Status:    string(q.Status),
		Tags:      q.Tags,
		ViewCount: q.ViewCount,
		VoteCount: q.VoteCount,
		CreatedAt: q.CreatedAt.Format(time.RFC3339),
		UpdatedAt: q.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == 0 {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	question, err := h.svc.Create(r.Context(), service.CreateQuestionInput{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: userID,
		Tags:     req.Tags,
		Urgency:  req.Urgency,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, questionToResponse(question))
}

func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	question, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, questionToResponse(question))
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	page, err := h.svc.List(r.Context(), service.ListQuestionsInput{
		Search: r.URL.Query().Get("search"),
		Tag:    r.URL.Query().Get("tag"),
		Status: r.URL.Query().Get("status"),
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		if err == pagination.ErrInvalidCursor {
			api.Error(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		api.HandleError(w, err)
		return
	}

	items := make([]*QuestionResponse, 0, len(page.Items))
	for _, q := range page.Items {
		items = append(items, questionToResponse(q))
	}
	api.Success(w, http.StatusOK, QuestionListResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

func (h *QuestionHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = parsed
	}

	questions, err := h.svc.Recent(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*QuestionResponse, 0, len(questions))
	for _, q := range questions {
		items = append(items, questionToResponse(q))
	}
	api.Success(w, http.StatusOK, items)
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	var req UpdateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question, err := h.svc.Update(r.Context(), service.UpdateQuestionInput{
		QuestionID: id,
		EditorID:   userID,
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, questionToResponse(question))
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	if err := h.svc.Delete(r.Context(), id, userID); err != nil {
		api.HandleError(w, err)
		return
	}
	api.JSON(w, http.StatusNoContent, nil)
}

func (h *QuestionHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	id, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid question id")
		return
	}

	if err := h.svc.Close(r.Context(), id, userID); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": string(domain.QuestionStatusClosed)})
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
