package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fms-project/backend/api-composer-service/models"
)

// ComposerService joins the projects view with the workflow graph and the
// open objections into one board response. Requests are built by hand so the
// caller's Authorization and Role headers pass through to the downstream
// services.
type ComposerService struct {
	ProjectsURL   string
	WorkflowURL   string
	ObjectionsURL string
	Client        *http.Client
}

func NewComposerService(projectsURL, workflowURL, objectionsURL string) *ComposerService {
	return &ComposerService{
		ProjectsURL:   projectsURL,
		WorkflowURL:   workflowURL,
		ObjectionsURL: objectionsURL,
		Client:        &http.Client{Timeout: 10 * time.Second},
	}
}

type projectView struct {
	Project struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"project"`
	Steps []struct {
		ID             string    `json:"id"`
		StepNo         int       `json:"stepNo"`
		Description    string    `json:"description"`
		AssignedTo     []string  `json:"assignedTo"`
		Status         string    `json:"status"`
		PlannedDueDate time.Time `json:"plannedDueDate"`
		Visible        bool      `json:"visible"`
	} `json:"steps"`
}

type workflowGraph struct {
	Nodes []struct {
		ID      string `json:"id"`
		Blocked bool   `json:"blocked"`
	} `json:"nodes"`
	Dependencies []struct {
		From string `json:"fromTaskId"`
		To   string `json:"toTaskId"`
	} `json:"dependencies"`
}

type openObjection struct {
	ID     string `json:"id"`
	TaskID string `json:"taskId"`
}

// FetchBoard composes the board for one project. An outage of the workflow
// or objections service degrades the board rather than failing it.
func (s *ComposerService) FetchBoard(ctx context.Context, projectID, authHeader, roleHeader string) (*models.BoardResponse, error) {
	var view projectView
	url := fmt.Sprintf("%s/api/projects/%s", s.ProjectsURL, projectID)
	if err := s.getJSON(ctx, url, authHeader, roleHeader, &view); err != nil {
		return nil, fmt.Errorf("projects service: %w", err)
	}

	board := &models.BoardResponse{
		ProjectID:   view.Project.ID,
		ProjectName: view.Project.Name,
	}

	blocked := map[string]bool{}
	var graph workflowGraph
	graphURL := fmt.Sprintf("%s/api/workflow/graph/%s", s.WorkflowURL, projectID)
	if err := s.getJSON(ctx, graphURL, authHeader, roleHeader, &graph); err == nil {
		for _, node := range graph.Nodes {
			blocked[node.ID] = node.Blocked
		}
		for _, edge := range graph.Dependencies {
			board.Edges = append(board.Edges, models.BoardEdge{From: edge.From, To: edge.To})
		}
	}

	openCount := map[string]int{}
	var open []openObjection
	objectionsURL := fmt.Sprintf("%s/api/objections/project/%s", s.ObjectionsURL, projectID)
	if err := s.getJSON(ctx, objectionsURL, authHeader, roleHeader, &open); err == nil {
		for _, objection := range open {
			openCount[objection.TaskID]++
		}
	}

	for _, step := range view.Steps {
		board.Steps = append(board.Steps, models.BoardStep{
			ID:             step.ID,
			StepNo:         step.StepNo,
			Description:    step.Description,
			AssignedTo:     step.AssignedTo,
			Status:         step.Status,
			PlannedDueDate: step.PlannedDueDate,
			Visible:        step.Visible,
			Blocked:        blocked[step.ID],
			OpenObjections: openCount[step.ID],
		})
	}

	return board, nil
}

func (s *ComposerService) getJSON(ctx context.Context, url, authHeader, roleHeader string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	if roleHeader != "" {
		req.Header.Set("Role", roleHeader)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
