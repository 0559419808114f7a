package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fms-project/backend/analytics-service/services"

	"github.com/gorilla/mux"
)

type ScoreHandler struct {
	service *services.ScoreService
}

func NewScoreHandler(service *services.ScoreService) *ScoreHandler {
	return &ScoreHandler{service: service}
}

func checkRole(r *http.Request, allowedRoles []string) error {
	userRole := r.Header.Get("Role")
	if userRole == "" {
		return fmt.Errorf("role is missing in request header")
	}
	for _, role := range allowedRoles {
		if role == userRole {
			return nil
		}
	}
	return fmt.Errorf("access forbidden: user does not have the required role")
}

// ComputeScore handles GET /api/analytics/score/{userID}?start=...&end=...
func (h *ScoreHandler) ComputeScore(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	userID := mux.Vars(r)["userID"]
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	report, err := h.service.ComputeScore(r.Context(), userID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDateRange), errors.Is(err, services.ErrInvalidArgument):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	json.NewEncoder(w).Encode(report)
}
