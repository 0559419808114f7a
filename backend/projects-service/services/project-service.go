package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fms-project/backend/projects-service/logging"
	"fms-project/backend/projects-service/models"
	"fms-project/backend/projects-service/repositories"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrStepNotFound     = errors.New("step not found")
	ErrInvalidDate      = errors.New("planned date must not be in the past")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// WorkflowClient mirrors materialized steps into the dependency graph.
// Mirroring is best effort; the graph is a projection, not the store.
type WorkflowClient interface {
	EnsureStepNode(ctx context.Context, projectID, taskID, description string, stepNo int) error
	AddDependency(ctx context.Context, projectID, fromTaskID, toTaskID string) error
}

// ProjectView is a project together with its currently materialized steps.
type ProjectView struct {
	Project models.Project    `json:"project"`
	Steps   []models.StepTask `json:"steps"`
}

type CreateTemplateInput struct {
	Name       string                `json:"name"`
	Department string                `json:"department"`
	CreatedBy  string                `json:"createdBy"`
	Steps      []models.StepTemplate `json:"steps"`
}

type ProjectService struct {
	repo     repositories.ProjectRepository
	workflow WorkflowClient
	now      func() time.Time
}

func NewProjectService(repo repositories.ProjectRepository, workflow WorkflowClient) *ProjectService {
	return &ProjectService{repo: repo, workflow: workflow, now: time.Now}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateTemplate validates and stores a flow template under a "TPL-n" id.
// Steps are renumbered 1..n in the order given.
func (s *ProjectService) CreateTemplate(ctx context.Context, input CreateTemplateInput) (*models.FlowTemplate, error) {
	if input.Name == "" || len(input.Steps) == 0 {
		return nil, fmt.Errorf("%w: template name and at least one step are required", ErrInvalidArgument)
	}
	for i := range input.Steps {
		if len(input.Steps[i].AssignedTo) == 0 {
			return nil, fmt.Errorf("%w: step %d has no assignee", ErrInvalidArgument, i+1)
		}
		input.Steps[i].StepNo = i + 1
	}

	seq, err := s.repo.NextSequence(ctx, "TPL")
	if err != nil {
		return nil, err
	}

	template := &models.FlowTemplate{
		ID:         fmt.Sprintf("TPL-%d", seq),
		Name:       input.Name,
		Department: input.Department,
		CreatedBy:  input.CreatedBy,
		Steps:      input.Steps,
		CreatedOn:  s.now(),
	}
	if err := s.repo.InsertTemplate(ctx, template); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TEMPLATE_CREATED, Description: Template %s (%s) created with %d steps", template.ID, template.Name, len(template.Steps))
	return template, nil
}

func (s *ProjectService) GetTemplate(ctx context.Context, id string) (*models.FlowTemplate, error) {
	template, err := s.repo.GetTemplate(ctx, id)
	if err == repositories.ErrNotFound {
		return nil, ErrTemplateNotFound
	}
	return template, err
}

func (s *ProjectService) ListTemplates(ctx context.Context) ([]models.FlowTemplate, error) {
	return s.repo.ListTemplates(ctx)
}

// MaterializeProject instantiates a template: the project document plus the
// first step task. Remaining steps are created one at a time as their
// predecessors complete.
func (s *ProjectService) MaterializeProject(ctx context.Context, templateID, name, createdBy string) (*ProjectView, error) {
	template, err := s.repo.GetTemplate(ctx, templateID)
	if err == repositories.ErrNotFound {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	projectSeq, err := s.repo.NextSequence(ctx, "PRJ")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = fmt.Sprintf("%s #%d", template.Name, projectSeq)
	}

	project := &models.Project{
		ID:                   fmt.Sprintf("PRJ-%d", projectSeq),
		TemplateID:           template.ID,
		Name:                 name,
		TotalStepsInTemplate: len(template.Steps),
		CreatedBy:            createdBy,
		CreatedOn:            s.now(),
	}
	if err := s.repo.InsertProject(ctx, project); err != nil {
		return nil, err
	}

	// Step 1 is visible immediately, due offsetDays from today.
	first := template.Steps[0]
	step, err := s.createStepTask(ctx, project, template, first, true)
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: PROJECT_MATERIALIZED, Description: Project %s materialized from template %s", project.ID, template.ID)
	return &ProjectView{Project: *project, Steps: []models.StepTask{*step}}, nil
}

// MaterializeNextStep creates the given step of a project once its
// predecessor is done. The step starts hidden, with no planned date; it
// becomes visible through SetStepPlannedDate. Calling it again for an
// existing step is a no-op, so retried deliveries are harmless.
func (s *ProjectService) MaterializeNextStep(ctx context.Context, projectID string, stepNo int) (*models.StepTask, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err == repositories.ErrNotFound {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	if stepNo < 1 || stepNo > project.TotalStepsInTemplate {
		return nil, fmt.Errorf("%w: project %s has %d steps, requested step %d", ErrStepNotFound, projectID, project.TotalStepsInTemplate, stepNo)
	}

	if existing, err := s.repo.GetStepTask(ctx, projectID, stepNo); err == nil {
		return existing, nil
	} else if err != repositories.ErrNotFound {
		return nil, err
	}

	template, err := s.repo.GetTemplate(ctx, project.TemplateID)
	if err == repositories.ErrNotFound {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}

	step, err := s.createStepTask(ctx, project, template, template.Steps[stepNo-1], false)
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: STEP_MATERIALIZED, Description: Step %d of project %s materialized as %s", stepNo, projectID, step.ID)
	return step, nil
}

// SetStepPlannedDate gives a lazily materialized step its due date and makes
// it visible to its assignees. Past dates are rejected at day granularity.
func (s *ProjectService) SetStepPlannedDate(ctx context.Context, projectID string, stepNo int, plannedDate time.Time) (*models.StepTask, error) {
	step, err := s.repo.GetStepTask(ctx, projectID, stepNo)
	if err == repositories.ErrNotFound {
		return nil, ErrStepNotFound
	}
	if err != nil {
		return nil, err
	}

	if dateOnly(plannedDate).Before(dateOnly(s.now())) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, plannedDate.Format("2006-01-02"))
	}

	step.PlannedDueDate = plannedDate
	step.Visible = true
	if err := s.repo.UpdateStepTask(ctx, step); err != nil {
		if err == repositories.ErrNotFound {
			return nil, ErrStepNotFound
		}
		return nil, err
	}

	logging.Logger.Infof("Event ID: STEP_PLANNED, Description: Step %d of project %s planned for %s", stepNo, projectID, plannedDate.Format("2006-01-02"))
	return step, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*ProjectView, error) {
	project, err := s.repo.GetProject(ctx, id)
	if err == repositories.ErrNotFound {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	steps, err := s.repo.ListStepTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProjectView{Project: *project, Steps: steps}, nil
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *ProjectService) createStepTask(ctx context.Context, project *models.Project, template *models.FlowTemplate, stepTemplate models.StepTemplate, visible bool) (*models.StepTask, error) {
	stepSeq, err := s.repo.NextSequence(ctx, "STP")
	if err != nil {
		return nil, err
	}

	step := &models.StepTask{
		ID:                 fmt.Sprintf("STP-%d", stepSeq),
		ProjectID:          project.ID,
		StepNo:             stepTemplate.StepNo,
		TotalSteps:         project.TotalStepsInTemplate,
		AssignedTo:         stepTemplate.AssignedTo,
		AssignedBy:         project.CreatedBy,
		Description:        stepTemplate.Description,
		Method:             stepTemplate.Method,
		TutorialLink:       stepTemplate.TutorialLink,
		Department:         template.Department,
		Status:             "pending",
		TriggersTemplateID: stepTemplate.TriggersTemplateID,
		Visible:            visible,
		Score:              1.0,
		CreatedOn:          s.now(),
	}
	if visible {
		offset := stepTemplate.OffsetDays
		if offset < 1 {
			offset = 1
		}
		step.PlannedDueDate = dateOnly(s.now()).AddDate(0, 0, offset)
	}

	if err := s.repo.InsertStepTask(ctx, step); err != nil {
		return nil, err
	}

	s.mirrorStepIntoGraph(ctx, project.ID, step)
	return step, nil
}

func (s *ProjectService) mirrorStepIntoGraph(ctx context.Context, projectID string, step *models.StepTask) {
	if s.workflow == nil {
		return
	}
	if err := s.workflow.EnsureStepNode(ctx, projectID, step.ID, step.Description, step.StepNo); err != nil {
		logging.Logger.Warnf("Event ID: GRAPH_MIRROR_FAILED, Description: Could not mirror step %s into workflow graph: %v", step.ID, err)
		return
	}
	if step.StepNo > 1 {
		prev, err := s.repo.GetStepTask(ctx, projectID, step.StepNo-1)
		if err != nil {
			return
		}
		if err := s.workflow.AddDependency(ctx, projectID, step.ID, prev.ID); err != nil {
			logging.Logger.Warnf("Event ID: GRAPH_MIRROR_FAILED, Description: Could not add dependency edge for step %s: %v", step.ID, err)
		}
	}
}
