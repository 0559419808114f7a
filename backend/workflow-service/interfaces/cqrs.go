package interfaces

import (
	"context"

	"fms-project/backend/workflow-service/models"
)

type Command interface {
	Execute() error
}

type Query interface {
	Execute() (interface{}, error)
}

type WorkflowCommandContext interface {
	AddDependency(ctx context.Context, dependency models.StepDependencyRelation) error
	UpdateBlockedStatus(ctx context.Context, stepID string) error
	RemoveDependency(ctx context.Context, fromStepID, toStepID string) error
}

type WorkflowQueryContext interface {
	GetDependencies(ctx context.Context, stepID string) ([]models.StepNode, error)
}
