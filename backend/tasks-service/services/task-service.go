package services

import (
	"context"
	"fmt"
	"time"

	"fms-project/backend/tasks-service/logging"
	"fms-project/backend/tasks-service/models"
	"fms-project/backend/tasks-service/repositories"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// TaskCache is the read-through cache in front of task fetches. Writes
// invalidate by task id; there is no pattern matching involved.
type TaskCache interface {
	GetTask(ctx context.Context, id string) (*models.Task, bool)
	SetTask(ctx context.Context, task *models.Task)
	InvalidateTask(ctx context.Context, id string)
}

// ProjectsClient covers the calls the lifecycle engine makes into the
// projects service. Both calls are best effort: failures surface as warnings
// on an otherwise successful completion, never as the primary error.
type ProjectsClient interface {
	MaterializeProject(ctx context.Context, templateID, triggeredBy string) (string, error)
	MaterializeNextStep(ctx context.Context, projectID string, stepNo int) error
}

// CompletionResult is returned by CompleteTask. Status is "partial" while a
// multi-assignee task still waits on other assignees.
type CompletionResult struct {
	Status        string              `json:"status"`
	OnTimeStatus  models.OnTimeStatus `json:"onTimeStatus,omitempty"`
	DependentStep *models.StepRef     `json:"dependentStep,omitempty"`
	Warning       string              `json:"warning,omitempty"`
	Task          *models.Task        `json:"task"`
}

const (
	CompletionDone    = "done"
	CompletionPartial = "partial"
)

// CreateTaskInput carries the fields of an ad-hoc delegation.
type CreateTaskInput struct {
	AssignedTo         []string               `json:"assignedTo"`
	AssignedBy         string                 `json:"assignedBy"`
	Description        string                 `json:"description"`
	Method             string                 `json:"method"`
	TutorialLink       string                 `json:"tutorialLink"`
	Department         string                 `json:"department"`
	PlannedDueDate     time.Time              `json:"plannedDueDate"`
	Checklist          []models.ChecklistItem `json:"checklist"`
	TriggersTemplateID string                 `json:"triggersTemplateId"`
}

type TaskService struct {
	repo     repositories.TaskRepository
	outbox   repositories.OutboxRepository
	projects ProjectsClient
	cache    TaskCache
	now      func() time.Time
}

func NewTaskService(repo repositories.TaskRepository, outbox repositories.OutboxRepository, projects ProjectsClient, cache TaskCache) *TaskService {
	return &TaskService{
		repo:     repo,
		outbox:   outbox,
		projects: projects,
		cache:    cache,
		now:      time.Now,
	}
}

// dateOnly strips the time component so due-date comparisons work at day
// granularity regardless of the time of day a task was completed.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateTask registers an ad-hoc delegation with a fresh "TSK-n" id.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if len(input.AssignedTo) == 0 || input.AssignedBy == "" || input.Description == "" {
		return nil, fmt.Errorf("%w: assignedTo, assignedBy and description are required", ErrInvalidArgument)
	}

	seq, err := s.repo.NextSequence(ctx, "TSK")
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:                 fmt.Sprintf("TSK-%d", seq),
		AssignedTo:         input.AssignedTo,
		AssignedBy:         input.AssignedBy,
		Description:        input.Description,
		Method:             input.Method,
		TutorialLink:       input.TutorialLink,
		Department:         input.Department,
		PlannedDueDate:     input.PlannedDueDate,
		Checklist:          input.Checklist,
		TriggersTemplateID: input.TriggersTemplateID,
		Status:             models.StatusPending,
		Score:              1.0,
		Visible:            true,
		CreatedOn:          s.now(),
	}

	if err := s.repo.InsertTask(ctx, task); err != nil {
		return nil, err
	}

	for _, assignee := range task.AssignedTo {
		s.enqueueNotification(ctx, task.ID, assignee,
			fmt.Sprintf("You have been assigned task %s by %s.", task.ID, task.AssignedBy))
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s for %v", task.ID, task.AssignedBy, task.AssignedTo)
	return task, nil
}

// GetTask fetches a task, serving from the cache when possible.
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if s.cache != nil {
		if task, ok := s.cache.GetTask(ctx, id); ok {
			return task, nil
		}
	}
	task, err := s.repo.GetTask(ctx, id)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetTask(ctx, task)
	}
	return task, nil
}

// ListTasks returns tasks matching the filter, straight from the store.
func (s *TaskService) ListTasks(ctx context.Context, filter repositories.TaskFilter) ([]models.Task, error) {
	return s.repo.ListTasks(ctx, filter)
}

// MarkInProgress moves a pending task to "in progress" on first view. Any
// other current status is left untouched.
func (s *TaskService) MarkInProgress(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusPending {
		return task, nil
	}
	task.Status = models.StatusInProgress
	if err := s.saveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// CompleteTask enacts the completion transition described on the task board:
// validates state, records per-assignee completions, gates on the checklist,
// computes the on-time flag at day granularity, and kicks off follow-on
// effects (template trigger, next-step materialization).
func (s *TaskService) CompleteTask(ctx context.Context, taskID, actorID string) (*CompletionResult, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	if task.Status == models.StatusDone {
		return nil, fmt.Errorf("%w: task %s is already done", ErrInvalidState, taskID)
	}
	if task.Status == models.StatusHold {
		return nil, fmt.Errorf("%w: task %s is on hold", ErrInvalidState, taskID)
	}

	now := s.now()

	if task.IsMultiAssignee() {
		if !slices.Contains(task.AssignedTo, actorID) {
			return nil, fmt.Errorf("%w: %s is not assigned to task %s", ErrNotAssignee, actorID, taskID)
		}
		if _, done := task.CompletionsByUser[actorID]; done {
			return nil, fmt.Errorf("%w: %s already completed task %s", ErrAlreadyCompletedByActor, actorID, taskID)
		}
		if task.CompletionsByUser == nil {
			task.CompletionsByUser = make(map[string]time.Time)
		}

		// Not the last assignee yet: record the completion and stop. The
		// task keeps its current status and no on-time flag is computed.
		if len(task.CompletionsByUser)+1 < len(task.AssignedTo) {
			task.CompletionsByUser[actorID] = now
			if err := s.saveTask(ctx, task); err != nil {
				return nil, err
			}
			logging.Logger.Infof("Event ID: TASK_PARTIAL_COMPLETION, Description: Task %s completed by %s, waiting on remaining assignees", taskID, actorID)
			return &CompletionResult{Status: CompletionPartial, Task: task}, nil
		}

		// Final assignee: the checklist gate applies before the last
		// completion is recorded, so a blocked task never ends up with a
		// full completion map but a non-done status.
		if !task.ChecklistComplete() {
			return nil, fmt.Errorf("%w: task %s", ErrChecklistIncomplete, taskID)
		}
		task.CompletionsByUser[actorID] = now
	} else {
		if !task.ChecklistComplete() {
			return nil, fmt.Errorf("%w: task %s", ErrChecklistIncomplete, taskID)
		}
	}

	task.Status = models.StatusDone
	task.CompletedOn = &now
	if task.PlannedDueDate.IsZero() || !dateOnly(now).After(dateOnly(task.PlannedDueDate)) {
		task.OnTimeStatus = models.OnTime
	} else {
		task.OnTimeStatus = models.NotOnTime
	}

	result := &CompletionResult{Status: CompletionDone, OnTimeStatus: task.OnTimeStatus}

	// Next step of the same project becomes due for planning. The planned
	// date stays unset until the caller follows up with SetStepPlannedDate
	// on the projects service, so the descriptor is returned explicitly.
	if task.IsStep() && task.StepNo < task.TotalSteps {
		task.DependentStep = &models.StepRef{ProjectID: task.ProjectID, StepNo: task.StepNo + 1}
	}

	if err := s.saveTask(ctx, task); err != nil {
		return nil, err
	}
	result.Task = task

	if task.DependentStep != nil {
		result.DependentStep = task.DependentStep
		if err := s.projects.MaterializeNextStep(ctx, task.ProjectID, task.StepNo+1); err != nil {
			logging.Logger.Warnf("Event ID: STEP_MATERIALIZATION_FAILED, Description: Failed to materialize step %d of project %s: %v", task.StepNo+1, task.ProjectID, err)
			result.Warning = fmt.Sprintf("next step could not be materialized: %v", err)
		}
	}

	if task.TriggersTemplateID != "" {
		event := &models.OutboxEvent{
			ID:     uuid.New().String(),
			Kind:   models.OutboxProjectTrigger,
			TaskID: task.ID,
			Payload: map[string]string{
				"templateId":  task.TriggersTemplateID,
				"triggeredBy": actorID,
			},
		}
		if err := s.outbox.Enqueue(ctx, event); err != nil {
			logging.Logger.Warnf("Event ID: OUTBOX_ENQUEUE_FAILED, Description: Could not enqueue project trigger for task %s: %v", task.ID, err)
			result.Warning = fmt.Sprintf("project trigger could not be recorded: %v", err)
		}
	}

	s.enqueueNotification(ctx, task.ID, task.AssignedBy,
		fmt.Sprintf("Task %s was completed by %s (%s).", task.ID, actorID, task.OnTimeStatus))

	logging.Logger.Infof("Event ID: TASK_COMPLETED, Description: Task %s completed by %s, on-time status: %s", taskID, actorID, task.OnTimeStatus)
	return result, nil
}

// RequestRevision puts a task into revise status. A proposed new date is
// stored alongside the task but never overwrites the planned due date; that
// swap happens only through a later approved edit.
func (s *TaskService) RequestRevision(ctx context.Context, taskID, actorID string, newDate *time.Time, reason string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusDone {
		return nil, fmt.Errorf("%w: task %s is already done", ErrInvalidState, taskID)
	}

	task.Status = models.StatusRevise
	task.RevisionReason = reason
	task.RevisionCount++
	task.ScoreImpacted = true
	if task.Score > 0.25 {
		task.Score -= 0.25
	} else {
		task.Score = 0
	}
	if newDate != nil {
		proposed := *newDate
		task.ProposedDueDate = &proposed
	}

	if err := s.saveTask(ctx, task); err != nil {
		return nil, err
	}

	s.enqueueNotification(ctx, task.ID, task.AssignedBy,
		fmt.Sprintf("Revision requested on task %s by %s: %s", task.ID, actorID, reason))

	logging.Logger.Infof("Event ID: TASK_REVISION_REQUESTED, Description: Task %s moved to revise by %s", taskID, actorID)
	return task, nil
}

// Resume moves a task in revise back to "in progress". When acceptProposedDate
// is set, the date proposed with the revision becomes the planned due date;
// otherwise the proposal is discarded and the original date stands.
func (s *TaskService) Resume(ctx context.Context, taskID, actorID string, acceptProposedDate bool) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusRevise {
		return nil, fmt.Errorf("%w: task %s is not in revise", ErrInvalidState, taskID)
	}

	if acceptProposedDate && task.ProposedDueDate != nil {
		task.PlannedDueDate = *task.ProposedDueDate
	}
	task.ProposedDueDate = nil
	task.RevisionReason = ""
	task.Status = models.StatusInProgress

	if err := s.saveTask(ctx, task); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_RESUMED, Description: Task %s resumed from revise by %s", taskID, actorID)
	return task, nil
}

// ReleaseHold moves a held task back to pending so work can resume.
func (s *TaskService) ReleaseHold(ctx context.Context, taskID, actorID string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusHold {
		return nil, fmt.Errorf("%w: task %s is not on hold", ErrInvalidState, taskID)
	}

	task.Status = models.StatusPending
	if err := s.saveTask(ctx, task); err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_HOLD_RELEASED, Description: Task %s released from hold by %s", taskID, actorID)
	return task, nil
}

// UpdateChecklistItem flips a single checklist item. Done tasks are frozen.
func (s *TaskService) UpdateChecklistItem(ctx context.Context, taskID string, index int, completed bool) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusDone {
		return nil, fmt.Errorf("%w: task %s is already done", ErrInvalidState, taskID)
	}
	if index < 0 || index >= len(task.Checklist) {
		return nil, fmt.Errorf("%w: index %d, checklist length %d", ErrInvalidChecklistItem, index, len(task.Checklist))
	}

	task.Checklist[index].Completed = completed
	if err := s.saveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// AddAttachment appends an attachment. Attachments are informational and do
// not gate any transition, so they are accepted in every non-done status.
func (s *TaskService) AddAttachment(ctx context.Context, taskID, name, url string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err == repositories.ErrNotFound {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	if name == "" || url == "" {
		return nil, fmt.Errorf("%w: attachment name and url are required", ErrInvalidArgument)
	}

	task.Attachments = append(task.Attachments, models.Attachment{
		Name:       name,
		URL:        url,
		UploadedOn: s.now(),
	})
	if err := s.saveTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) saveTask(ctx context.Context, task *models.Task) error {
	err := s.repo.UpdateTask(ctx, task)
	if err == repositories.ErrNotFound {
		return ErrTaskNotFound
	}
	if err == repositories.ErrVersionConflict {
		return fmt.Errorf("%w: task %s", ErrConflict, task.ID)
	}
	if err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.InvalidateTask(ctx, task.ID)
	}
	return nil
}

func (s *TaskService) enqueueNotification(ctx context.Context, taskID, userID, message string) {
	event := &models.OutboxEvent{
		ID:     uuid.New().String(),
		Kind:   models.OutboxNotification,
		TaskID: taskID,
		Payload: map[string]string{
			"userId":  userID,
			"message": message,
		},
	}
	if err := s.outbox.Enqueue(ctx, event); err != nil {
		logging.Logger.Warnf("Event ID: OUTBOX_ENQUEUE_FAILED, Description: Could not enqueue notification for task %s: %v", taskID, err)
	}
}
