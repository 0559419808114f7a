package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fms-project/backend/users-service/services"

	"github.com/gorilla/mux"
)

type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type UserHandler struct {
	UserService *services.UserService
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUserExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request data", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	user, token, err := h.UserService.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Token:  token,
		UserID: user.UserID,
		Role:   user.Role,
	})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetProfile(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          string `json:"userId"`
		OldPassword     string `json:"oldPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), req.UserID, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Password changed successfully"))
}

func (h *UserHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.UserService.ListMembers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(members)
}
