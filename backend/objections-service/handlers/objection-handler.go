package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fms-project/backend/objections-service/models"
	"fms-project/backend/objections-service/services"

	"github.com/gorilla/mux"
)

type ObjectionHandler struct {
	service *services.ObjectionService
}

func NewObjectionHandler(service *services.ObjectionService) *ObjectionHandler {
	return &ObjectionHandler{service: service}
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

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrObjectionNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrMissingDetailedAction),
		errors.Is(err, services.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *ObjectionHandler) RaiseObjection(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var input services.RaiseObjectionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.TaskID = mux.Vars(r)["taskID"]

	objection, err := h.service.RaiseObjection(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(objection)
}

func (h *ObjectionHandler) ReviewObjection(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var input services.ReviewObjectionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.ReviewObjection(r.Context(), mux.Vars(r)["objectionID"], input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(result)
}

func (h *ObjectionHandler) GetObjection(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	userID := r.URL.Query().Get("userId")
	objection, err := h.service.GetObjection(r.Context(), mux.Vars(r)["objectionID"], userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(objection)
}

func (h *ObjectionHandler) ListOpenByProject(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	objections, err := h.service.ListOpenObjectionsForProject(r.Context(), mux.Vars(r)["projectID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if objections == nil {
		objections = []models.Objection{}
	}
	json.NewEncoder(w).Encode(objections)
}

func (h *ObjectionHandler) ListObjections(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	userID := r.URL.Query().Get("userId")
	objections, err := h.service.ListObjectionsForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(objections)
}
