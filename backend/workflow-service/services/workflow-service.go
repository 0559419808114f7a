package services

import (
	"context"
	"errors"
	"fmt"

	"fms-project/backend/workflow-service/logging"
	"fms-project/backend/workflow-service/models"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	ErrStepNotFound     = errors.New("one or both steps do not exist in the graph")
	ErrDependencyExists = errors.New("dependency already exists")
	ErrCycleDetected    = errors.New("cannot add dependency: cycle detected")
)

type WorkflowService struct {
	Driver neo4j.DriverWithContext
}

func NewWorkflowService(driver neo4j.DriverWithContext) *WorkflowService {
	return &WorkflowService{Driver: driver}
}

// EnsureStepNode creates the step node if it is not in the graph yet. A step
// with an incoming dependency starts out blocked.
func (s *WorkflowService) EnsureStepNode(ctx context.Context, step models.StepNode) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (s:Step {id: $id})
			ON CREATE SET
				s.projectId = $projectId,
				s.stepNo = $stepNo,
				s.description = $description,
				s.status = $status,
				s.blocked = $blocked
		`
		params := map[string]any{
			"id":          step.ID,
			"projectId":   step.ProjectID,
			"stepNo":      step.StepNo,
			"description": step.Description,
			"status":      step.Status,
			"blocked":     step.Blocked,
		}
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})

	return err
}

// AddDependency links two existing steps, rejecting duplicates and edges
// that would close a cycle. The dependent step becomes blocked.
func (s *WorkflowService) AddDependency(ctx context.Context, rel models.StepDependencyRelation) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	exist, err := s.StepsExist(ctx, rel.FromStepID, rel.ToStepID)
	if err != nil {
		return fmt.Errorf("failed to check step existence: %w", err)
	}
	if !exist {
		return ErrStepNotFound
	}

	exists, err := s.DependencyExists(ctx, rel.FromStepID, rel.ToStepID)
	if err != nil {
		return fmt.Errorf("failed to check if dependency exists: %w", err)
	}
	if exists {
		return ErrDependencyExists
	}

	hasCycle, err := s.CreatesCycle(ctx, rel.FromStepID, rel.ToStepID)
	if err != nil {
		return fmt.Errorf("failed to check cycle: %w", err)
	}
	if hasCycle {
		return ErrCycleDetected
	}

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (from:Step {id: $fromId}), (to:Step {id: $toId})
			MERGE (to)-[:DEPENDS_ON]->(from)
			SET to.blocked = true
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"fromId": rel.FromStepID,
			"toId":   rel.ToStepID,
		})
		return nil, err
	})

	if err != nil {
		return fmt.Errorf("failed to create dependency relation: %w", err)
	}

	logging.Logger.Infof("Event ID: DEPENDENCY_ADDED, Description: Dependency added: %s <- %s", rel.ToStepID, rel.FromStepID)
	return nil
}

// RemoveDependency deletes the edge between two steps.
func (s *WorkflowService) RemoveDependency(ctx context.Context, fromStepID, toStepID string) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (to:Step {id: $toId})-[r:DEPENDS_ON]->(from:Step {id: $fromId})
			DELETE r
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"fromId": fromStepID,
			"toId":   toStepID,
		})
		return nil, err
	})
	return err
}

// CreatesCycle reports whether adding from -> to would close a cycle. A
// self-edge always does.
func (s *WorkflowService) CreatesCycle(ctx context.Context, fromID, toID string) (bool, error) {
	if fromID == toID {
		return true, nil
	}
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (from:Step {id: $fromId}), (to:Step {id: $toId})
			RETURN EXISTS((from)-[:DEPENDS_ON*1..]->(to)) AS hasCycle
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"fromId": fromID,
			"toId":   toID,
		})
		if err != nil {
			return nil, err
		}
		if res.Next(ctx) {
			val, ok := res.Record().Values[0].(bool)
			if !ok {
				return false, fmt.Errorf("unexpected result type")
			}
			return val, nil
		}
		return false, nil
	})

	if err != nil {
		return false, fmt.Errorf("cycle detection failed: %w", err)
	}

	return result.(bool), nil
}

func (s *WorkflowService) StepsExist(ctx context.Context, id1, id2 string) (bool, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			OPTIONAL MATCH (a:Step {id: $id1})
			OPTIONAL MATCH (b:Step {id: $id2})
			RETURN a IS NOT NULL AND b IS NOT NULL AS bothExist
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"id1": id1,
			"id2": id2,
		})
		if err != nil {
			return false, err
		}
		if res.Next(ctx) {
			return res.Record().Values[0].(bool), nil
		}
		return false, nil
	})

	if err != nil {
		return false, err
	}

	return result.(bool), nil
}

func (s *WorkflowService) DependencyExists(ctx context.Context, fromID, toID string) (bool, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (to:Step {id: $toId})-[r:DEPENDS_ON]->(from:Step {id: $fromId})
			RETURN COUNT(r) > 0 AS exists
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"fromId": fromID,
			"toId":   toID,
		})
		if err != nil {
			return false, err
		}
		if res.Next(ctx) {
			return res.Record().Values[0].(bool), nil
		}
		return false, nil
	})

	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// GetDependencies returns the steps the given step depends on.
func (s *WorkflowService) GetDependencies(ctx context.Context, stepID string) ([]models.StepNode, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (to:Step {id: $stepId})-[:DEPENDS_ON]->(from:Step)
			RETURN from.id AS id, from.projectId AS projectId, from.stepNo AS stepNo,
			       from.description AS description, from.status AS status, from.blocked AS blocked
		`
		res, err := tx.Run(ctx, query, map[string]any{"stepId": stepID})
		if err != nil {
			return nil, err
		}
		return collectStepNodes(ctx, res)
	})

	if err != nil {
		return nil, err
	}

	return result.([]models.StepNode), nil
}

// UpdateBlockedStatus recomputes a step's blocked flag: it stays blocked
// while any step it depends on is not done.
func (s *WorkflowService) UpdateBlockedStatus(ctx context.Context, stepID string) error {
	dependencies, err := s.GetDependencies(ctx, stepID)
	if err != nil {
		return fmt.Errorf("failed to fetch dependencies: %w", err)
	}

	isBlocked := false
	for _, dep := range dependencies {
		if dep.Status != models.StatusDone {
			isBlocked = true
			break
		}
	}

	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (s:Step {id: $stepId})
			SET s.blocked = $isBlocked
		`
		_, err := tx.Run(ctx, query, map[string]any{
			"stepId":    stepID,
			"isBlocked": isBlocked,
		})
		return nil, err
	})

	if err != nil {
		return fmt.Errorf("failed to update blocked status: %w", err)
	}

	logging.Logger.Infof("Event ID: BLOCKED_STATUS_UPDATED, Description: Blocked status for step %s updated to %v", stepID, isBlocked)
	return nil
}

// UpdateStepStatus mirrors the task store's status into the graph node and
// refreshes the blocked flags of its dependents.
func (s *WorkflowService) UpdateStepStatus(ctx context.Context, stepID, status string) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	dependents, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (s:Step {id: $stepId})
			SET s.status = $status
			WITH s
			OPTIONAL MATCH (dependent:Step)-[:DEPENDS_ON]->(s)
			RETURN dependent.id AS id
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"stepId": stepID,
			"status": status,
		})
		if err != nil {
			return nil, err
		}

		var ids []string
		for res.Next(ctx) {
			if id, ok := res.Record().Values[0].(string); ok {
				ids = append(ids, id)
			}
		}
		return ids, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update step status: %w", err)
	}

	for _, dependentID := range dependents.([]string) {
		if err := s.UpdateBlockedStatus(ctx, dependentID); err != nil {
			logging.Logger.Warnf("Event ID: BLOCKED_STATUS_UPDATE_FAILED, Description: Could not refresh blocked flag for step %s: %v", dependentID, err)
		}
	}
	return nil
}

// GetWorkflowByProject loads the full graph for one project: all step nodes
// and all dependency edges between them.
func (s *WorkflowService) GetWorkflowByProject(ctx context.Context, projectID string) ([]models.StepNode, []models.StepDependencyRelation, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	nodesResult, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (s:Step {projectId: $projectId})
			RETURN s.id AS id, s.projectId AS projectId, s.stepNo AS stepNo,
			       s.description AS description, s.status AS status, s.blocked AS blocked
			ORDER BY s.stepNo
		`
		res, err := tx.Run(ctx, query, map[string]any{"projectId": projectID})
		if err != nil {
			return nil, err
		}
		return collectStepNodes(ctx, res)
	})
	if err != nil {
		return nil, nil, err
	}

	edgesResult, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (to:Step {projectId: $projectId})-[:DEPENDS_ON]->(from:Step)
			RETURN from.id AS fromId, to.id AS toId
		`
		res, err := tx.Run(ctx, query, map[string]any{"projectId": projectID})
		if err != nil {
			return nil, err
		}

		var edges []models.StepDependencyRelation
		for res.Next(ctx) {
			record := res.Record()
			fromID, _ := record.Get("fromId")
			toID, _ := record.Get("toId")
			edges = append(edges, models.StepDependencyRelation{
				ProjectID:  projectID,
				FromStepID: fromID.(string),
				ToStepID:   toID.(string),
			})
		}
		return edges, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return nodesResult.([]models.StepNode), edgesResult.([]models.StepDependencyRelation), nil
}

func collectStepNodes(ctx context.Context, res neo4j.ResultWithContext) ([]models.StepNode, error) {
	var nodes []models.StepNode
	for res.Next(ctx) {
		record := res.Record()

		id, _ := record.Get("id")
		projectID, _ := record.Get("projectId")
		stepNo, _ := record.Get("stepNo")
		description, _ := record.Get("description")
		status, _ := record.Get("status")
		blocked, _ := record.Get("blocked")

		node := models.StepNode{
			ID:      id.(string),
			Blocked: blocked.(bool),
		}
		if v, ok := projectID.(string); ok {
			node.ProjectID = v
		}
		if v, ok := stepNo.(int64); ok {
			node.StepNo = int(v)
		}
		if v, ok := description.(string); ok {
			node.Description = v
		}
		if v, ok := status.(string); ok {
			node.Status = v
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
