package queries

import (
	"context"

	"fms-project/backend/workflow-service/interfaces"
)

type GetDependenciesQuery struct {
	StepID string
	Svc    interfaces.WorkflowQueryContext
}

func (q *GetDependenciesQuery) Execute() (interface{}, error) {
	ctx := context.Background()
	return q.Svc.GetDependencies(ctx, q.StepID)
}
