package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fms-project/backend/tasks-service/models"
	"fms-project/backend/tasks-service/repositories"
	"fms-project/backend/tasks-service/services"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
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

// writeServiceError maps the service error taxonomy onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrChecklistIncomplete),
		errors.Is(err, services.ErrAlreadyCompletedByActor),
		errors.Is(err, services.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNotAssignee):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidArgument),
		errors.Is(err, services.ErrInvalidChecklistItem):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var input services.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.service.CreateTask(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	filter := repositories.TaskFilter{Assignee: r.URL.Query().Get("assignee")}
	if from := r.URL.Query().Get("from"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			http.Error(w, "invalid 'from' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.From = parsed
	}
	if to := r.URL.Query().Get("to"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			http.Error(w, "invalid 'to' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.To = parsed
	}

	tasks, err := h.service.ListTasks(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	json.NewEncoder(w).Encode(tasks)
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	var body struct {
		ActorID string `json:"actorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
		http.Error(w, "actorId is required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CompleteTask(r.Context(), taskID, body.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(result)
}

func (h *TaskHandler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	var body struct {
		ActorID string `json:"actorId"`
		NewDate string `json:"newDate"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
		http.Error(w, "actorId is required", http.StatusBadRequest)
		return
	}

	var newDate *time.Time
	if body.NewDate != "" {
		parsed, err := time.Parse("2006-01-02", body.NewDate)
		if err != nil {
			http.Error(w, "invalid newDate, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		newDate = &parsed
	}

	task, err := h.service.RequestRevision(r.Context(), taskID, body.ActorID, newDate, body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	var body struct {
		ActorID            string `json:"actorId"`
		AcceptProposedDate bool   `json:"acceptProposedDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
		http.Error(w, "actorId is required", http.StatusBadRequest)
		return
	}

	task, err := h.service.Resume(r.Context(), taskID, body.ActorID, body.AcceptProposedDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	var body struct {
		ActorID string `json:"actorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ActorID == "" {
		http.Error(w, "actorId is required", http.StatusBadRequest)
		return
	}

	task, err := h.service.ReleaseHold(r.Context(), taskID, body.ActorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) MarkInProgress(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	task, err := h.service.MarkInProgress(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) UpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	vars := mux.Vars(r)
	taskID := vars["taskID"]
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		http.Error(w, "invalid checklist index", http.StatusBadRequest)
		return
	}

	var body struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.service.UpdateChecklistItem(r.Context(), taskID, index, body.Completed)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	json.NewEncoder(w).Encode(task)
}

func (h *TaskHandler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID := mux.Vars(r)["taskID"]
	var body struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.service.AddAttachment(r.Context(), taskID, body.Name, body.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}
