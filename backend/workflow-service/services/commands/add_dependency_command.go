package commands

import (
	"context"
	"fmt"

	"fms-project/backend/workflow-service/interfaces"
	"fms-project/backend/workflow-service/models"

	"github.com/sirupsen/logrus"
)

type AddDependencyCommand struct {
	Dependency models.StepDependencyRelation
}

type AddDependencyHandler struct {
	GraphService interfaces.WorkflowCommandContext
	Logger       *logrus.Logger
}

func NewAddDependencyHandler(ctx interfaces.WorkflowCommandContext, logger *logrus.Logger) *AddDependencyHandler {
	return &AddDependencyHandler{GraphService: ctx, Logger: logger}
}

func (h *AddDependencyHandler) Handle(ctx context.Context, cmd AddDependencyCommand) error {
	err := h.GraphService.AddDependency(ctx, cmd.Dependency)
	if err != nil {
		return fmt.Errorf("failed to add dependency: %w", err)
	}

	// Refresh the dependent step's blocked flag after linking.
	updateCmd := UpdateBlockedStatusCommand{
		StepID: cmd.Dependency.ToStepID,
		Svc:    h.GraphService,
	}
	if err := updateCmd.Execute(ctx); err != nil {
		h.Logger.Warnf("Event ID: BLOCKED_STATUS_UPDATE_FAILED, Description: Dependency added, but failed to update blocked statuses: %v", err)
	}

	return nil
}
