package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fms-project/backend/projects-service/services"

	"github.com/gorilla/mux"
)

type ProjectHandler struct {
	service *services.ProjectService
}

func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
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
	case errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrStepNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *ProjectHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var input services.CreateTemplateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.CreateTemplate(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(template)
}

func (h *ProjectHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	template, err := h.service.GetTemplate(r.Context(), mux.Vars(r)["templateID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(template)
}

func (h *ProjectHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	templates, err := h.service.ListTemplates(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(templates)
}

// MaterializeProject serves both the UI ("start a project") and the tasks
// service's template triggers, so no role gate beyond authentication.
func (h *ProjectHandler) MaterializeProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TemplateID  string `json:"templateId"`
		Name        string `json:"name"`
		TriggeredBy string `json:"triggeredBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TemplateID == "" {
		http.Error(w, "templateId is required", http.StatusBadRequest)
		return
	}

	view, err := h.service.MaterializeProject(r.Context(), body.TemplateID, body.Name, body.TriggeredBy)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"projectId": view.Project.ID,
		"project":   view.Project,
		"steps":     view.Steps,
	})
}

func (h *ProjectHandler) MaterializeNextStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	stepNo, err := strconv.Atoi(vars["stepNo"])
	if err != nil {
		http.Error(w, "invalid step number", http.StatusBadRequest)
		return
	}

	step, err := h.service.MaterializeNextStep(r.Context(), vars["projectID"], stepNo)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(step)
}

func (h *ProjectHandler) SetStepPlannedDate(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	vars := mux.Vars(r)
	stepNo, err := strconv.Atoi(vars["stepNo"])
	if err != nil {
		http.Error(w, "invalid step number", http.StatusBadRequest)
		return
	}

	var body struct {
		PlannedDate string `json:"plannedDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlannedDate == "" {
		http.Error(w, "plannedDate is required", http.StatusBadRequest)
		return
	}
	plannedDate, err := time.Parse("2006-01-02", body.PlannedDate)
	if err != nil {
		http.Error(w, "invalid plannedDate, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	step, err := h.service.SetStepPlannedDate(r.Context(), vars["projectID"], stepNo, plannedDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(step)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	view, err := h.service.GetProject(r.Context(), mux.Vars(r)["projectID"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	json.NewEncoder(w).Encode(projects)
}
