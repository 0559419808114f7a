package commands

import (
	"context"

	"fms-project/backend/workflow-service/interfaces"
)

type UpdateBlockedStatusCommand struct {
	StepID string
	Svc    interfaces.WorkflowCommandContext
}

func (cmd *UpdateBlockedStatusCommand) Execute(ctx context.Context) error {
	return cmd.Svc.UpdateBlockedStatus(ctx, cmd.StepID)
}
