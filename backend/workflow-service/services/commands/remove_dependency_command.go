package commands

import (
	"context"

	"fms-project/backend/workflow-service/interfaces"
)

type RemoveDependencyCommand struct {
	FromStepID string
	ToStepID   string
}

type RemoveDependencyHandler struct {
	GraphService interfaces.WorkflowCommandContext
}

func NewRemoveDependencyHandler(ctx interfaces.WorkflowCommandContext) *RemoveDependencyHandler {
	return &RemoveDependencyHandler{GraphService: ctx}
}

func (h *RemoveDependencyHandler) Handle(ctx context.Context, cmd RemoveDependencyCommand) error {
	err := h.GraphService.RemoveDependency(ctx, cmd.FromStepID, cmd.ToStepID)
	if err != nil {
		return err
	}

	updateCmd := UpdateBlockedStatusCommand{
		StepID: cmd.ToStepID,
		Svc:    h.GraphService,
	}
	return updateCmd.Execute(ctx)
}
