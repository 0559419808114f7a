package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"fms-project/backend/workflow-service/logging"
	"fms-project/backend/workflow-service/models"
	"fms-project/backend/workflow-service/services"
	"fms-project/backend/workflow-service/services/commands"

	"github.com/gorilla/mux"
)

type WorkflowHandler struct {
	WorkflowService *services.WorkflowService
}

func NewWorkflowHandler(service *services.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{
		WorkflowService: service,
	}
}

func (h *WorkflowHandler) EnsureStepNode(w http.ResponseWriter, r *http.Request) {
	var step models.StepNode
	if err := json.NewDecoder(r.Body).Decode(&step); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if step.ID == "" {
		http.Error(w, "Missing step id", http.StatusBadRequest)
		return
	}
	if step.Status == "" {
		step.Status = models.StatusPending
	} else if status, ok := models.NormalizeStatus(step.Status); ok {
		step.Status = status
	} else {
		http.Error(w, "Unknown status: "+step.Status, http.StatusBadRequest)
		return
	}

	err := h.WorkflowService.EnsureStepNode(r.Context(), step)
	if err != nil {
		logging.Logger.Errorf("Event ID: STEP_NODE_FAILED, Description: Failed to ensure step node %s: %v", step.ID, err)
		http.Error(w, "Failed to ensure step node: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logging.Logger.Infof("Event ID: STEP_NODE_ENSURED, Description: Step node ensured: %s", step.ID)
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("Step node ensured"))
}

func (h *WorkflowHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	var relation models.StepDependencyRelation
	if err := json.NewDecoder(r.Body).Decode(&relation); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if relation.FromStepID == "" || relation.ToStepID == "" {
		http.Error(w, "Missing step ids", http.StatusBadRequest)
		return
	}

	handler := commands.NewAddDependencyHandler(h.WorkflowService, logging.Logger)
	cmd := commands.AddDependencyCommand{Dependency: relation}
	err := handler.Handle(r.Context(), cmd)

	if err != nil {
		logging.Logger.Errorf("Event ID: DEPENDENCY_ADD_FAILED, Description: Failed to add dependency: %v", err)
		switch {
		case errors.Is(err, services.ErrDependencyExists):
			http.Error(w, "Dependency already exists", http.StatusConflict)
		case errors.Is(err, services.ErrCycleDetected):
			http.Error(w, "Cannot add dependency due to cycle", http.StatusConflict)
		case errors.Is(err, services.ErrStepNotFound):
			http.Error(w, "One or both steps do not exist", http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	logging.Logger.Infof("Event ID: DEPENDENCY_ADDED, Description: Dependency added: %s <- %s", relation.ToStepID, relation.FromStepID)
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("Dependency successfully added"))
}

func (h *WorkflowHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	var relation models.StepDependencyRelation
	if err := json.NewDecoder(r.Body).Decode(&relation); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if relation.FromStepID == "" || relation.ToStepID == "" {
		http.Error(w, "Missing step ids", http.StatusBadRequest)
		return
	}

	handler := commands.NewRemoveDependencyHandler(h.WorkflowService)
	cmd := commands.RemoveDependencyCommand{FromStepID: relation.FromStepID, ToStepID: relation.ToStepID}
	if err := handler.Handle(r.Context(), cmd); err != nil {
		logging.Logger.Errorf("Event ID: DEPENDENCY_REMOVE_FAILED, Description: Failed to remove dependency: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WorkflowHandler) UpdateStepStatus(w http.ResponseWriter, r *http.Request) {
	stepID := mux.Vars(r)["stepId"]
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		http.Error(w, "status is required", http.StatusBadRequest)
		return
	}
	status, ok := models.NormalizeStatus(body.Status)
	if !ok {
		http.Error(w, "Unknown status: "+body.Status, http.StatusBadRequest)
		return
	}

	if err := h.WorkflowService.UpdateStepStatus(r.Context(), stepID, status); err != nil {
		logging.Logger.Errorf("Event ID: STEP_STATUS_UPDATE_FAILED, Description: Failed to update status of %s: %v", stepID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WorkflowHandler) GetDependencies(w http.ResponseWriter, r *http.Request) {
	stepID := mux.Vars(r)["stepId"]
	if stepID == "" {
		http.Error(w, "Missing stepId parameter", http.StatusBadRequest)
		return
	}

	deps, err := h.WorkflowService.GetDependencies(r.Context(), stepID)
	if err != nil {
		logging.Logger.Errorf("Event ID: DEPENDENCIES_FETCH_FAILED, Description: Failed to get dependencies for %s: %v", stepID, err)
		http.Error(w, "Failed to get dependencies: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deps)
}

func (h *WorkflowHandler) GetWorkflowGraph(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	nodes, dependencies, err := h.WorkflowService.GetWorkflowByProject(r.Context(), projectID)
	if err != nil {
		logging.Logger.Errorf("Event ID: GRAPH_FETCH_FAILED, Description: Failed to get workflow graph for project %s: %v", projectID, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"nodes":        nodes,
		"dependencies": dependencies,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
