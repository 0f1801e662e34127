package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/domain"
)

type TagRepository interface {
	Create(ctx context.Context, t *domain.Tag) error
	List(ctx context.Context) ([]*domain.TagWithCount, error)
}

type TagHandler struct {
	repo TagRepository
}

func NewTagHandler(repo TagRepository) *TagHandler {
	return &TagHandler{repo: repo}
}

type CreateTagRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type TagResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description,omitempty"`
	QuestionCount int    `json:"question_count"`
	CreatedAt     string `json:"created_at"`
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}

	tag := &domain.Tag{Name: req.Name, Category: req.Category, Description: req.Description}
	if err := h.repo.Create(r.Context(), tag); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, TagResponse{
		ID:          tag.ID,
		Name:        tag.Name,
		Category:    tag.Category,
		Description: tag.Description,
		CreatedAt:   tag.CreatedAt.Format(time.RFC3339),
	})
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.repo.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*TagResponse, 0, len(tags))
	for _, t := range tags {
		items = append(items, &TagResponse{
			ID:            t.ID,
			Name:          t.Name,
			Category:      t.Category,
			Description:   t.Description,
			QuestionCount: t.QuestionCount,
			CreatedAt:     t.CreatedAt.Format(time.RFC3339),
		})
	}
	api.Success(w, http.StatusOK, items)
}
