package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/askhub-io/askhub/internal/api"
	"github.com/askhub-io/askhub/internal/api/middleware"
	"github.com/askhub-io/askhub/internal/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, firstName, lastName string) (*domain.User, string, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type LoginRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

type UserResponse struct {
	ID         int64    `json:"id"`
	EmployeeID string   `json:"employee_id"`
	Email      string   `json:"email"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Department string   `json:"department,omitempty"`
	Team       string   `json:"team,omitempty"`
	Expertise  []string `json:"expertise,omitempty"`
	Reputation int      `json:"reputation"`
}

func userToResponse(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:         u.ID,
		EmployeeID: u.EmployeeID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Department: u.Department,
		Team:       u.Team,
		Expertise:  u.Expertise,
		Reputation: u.Reputation,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		api.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.FirstName, req.LastName)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, LoginResponse{Token: token, User: userToResponse(user)})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	api.Success(w, http.StatusOK, userToResponse(user))
}
