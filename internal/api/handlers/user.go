package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/domain"
	"github.com/askhub-io/askhub/internal/service"
)

type UserService interface {
	GetProfile(ctx context.Context, id int64) (*service.Profile, error)
	List(ctx context.Context, limit int) ([]*domain.User, error)
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type SkillResponse struct {
	Skill         string `json:"skill"`
	Proficiency   string `json:"proficiency"`
	EvidenceCount int    `json:"evidence_count"`
	LastUpdated   string `json:"last_updated"`
}

type ProfileResponse struct {
	User   *UserResponse    `json:"user"`
	Skills []*SkillResponse `json:"skills"`
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	skills := make([]*SkillResponse, 0, len(profile.Skills))
	for _, s := range profile.Skills {
		skills = append(skills, &SkillResponse{
			Skill:         s.Skill,
			Proficiency:   string(s.Proficiency),
			EvidenceCount: s.EvidenceCount,
			LastUpdated:   s.LastUpdated.Format(time.RFC3339),
		})
	}
	api.Success(w, http.StatusOK, ProfileResponse{
		User:   userToResponse(profile.User),
		Skills: skills,
	})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	users, err := h.svc.List(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, userToResponse(u))
	}
	api.Success(w, http.StatusOK, items)
}
