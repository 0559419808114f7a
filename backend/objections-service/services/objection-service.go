package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fms-project/backend/objections-service/logging"
	"fms-project/backend/objections-service/models"
	"fms-project/backend/objections-service/repositories"
)

// Review decisions. "approve" must be narrowed through DetailedAction into
// one of terminate, replace or hold.
const (
	DecisionReject    = "reject"
	DecisionApprove   = "approve"
	DecisionTerminate = "terminate"
	DecisionReplace   = "replace"
	DecisionHold      = "hold"
)

type RaiseObjectionInput struct {
	TaskID      string   `json:"taskId"`
	RaisedBy    string   `json:"raisedBy"`
	Reason      string   `json:"reason"`
	TaggedUsers []string `json:"taggedUsers,omitempty"`
}

type ReviewObjectionInput struct {
	ReviewerID     string     `json:"reviewerId"`
	Decision       string     `json:"decision"`
	Reason         string     `json:"reason"`
	DetailedAction string     `json:"detailedAction,omitempty"`
	NewAssignee    []string   `json:"newAssignee,omitempty"`
	NewDueDate     *time.Time `json:"newDueDate,omitempty"`
}

type ReviewResult struct {
	Objection *models.Objection `json:"objection"`
	NewTaskID string            `json:"newTaskId,omitempty"`
}

type ObjectionService struct {
	repo          repositories.ObjectionRepository
	tasks         repositories.TaskStore
	notifications NotificationsClient
	now           func() time.Time
}

func NewObjectionService(repo repositories.ObjectionRepository, tasks repositories.TaskStore, notifications NotificationsClient) *ObjectionService {
	return &ObjectionService{
		repo:          repo,
		tasks:         tasks,
		notifications: notifications,
		now:           time.Now,
	}
}

// RaiseObjection opens a dispute on a task that is not yet done and routes it
// to its reviewer: the step 1 assignee of the same project for step tasks,
// the task's creator otherwise. Routing to yourself is allowed.
func (s *ObjectionService) RaiseObjection(ctx context.Context, input RaiseObjectionInput) (*models.Objection, error) {
	if input.RaisedBy == "" || strings.TrimSpace(input.Reason) == "" {
		return nil, fmt.Errorf("%w: raisedBy and reason are required", ErrInvalidArgument)
	}

	task, err := s.tasks.GetTask(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status == models.TaskDone {
		return nil, fmt.Errorf("%w: task %s is already done", ErrInvalidState, task.ID)
	}

	routeTo, err := s.routeFor(ctx, task)
	if err != nil {
		return nil, err
	}

	seq, err := s.repo.NextSequence(ctx, "OBJ")
	if err != nil {
		return nil, err
	}

	objection := &models.Objection{
		ID:          fmt.Sprintf("OBJ-%d", seq),
		TaskID:      task.ID,
		ProjectID:   task.ProjectID,
		Reason:      input.Reason,
		RaisedBy:    input.RaisedBy,
		RaisedOn:    s.now(),
		RouteTo:     routeTo,
		TaggedUsers: input.TaggedUsers,
		Status:      models.ObjectionPending,
	}
	if err := s.repo.InsertObjection(ctx, objection); err != nil {
		return nil, err
	}

	s.notify(ctx, routeTo, fmt.Sprintf("An objection %s was raised on task %s and routed to you for review.", objection.ID, task.ID))

	logging.Logger.Infof("Event ID: OBJECTION_RAISED, Description: Objection %s raised by %s on task %s, routed to %s", objection.ID, input.RaisedBy, task.ID, routeTo)
	return objection, nil
}

// routeFor computes the reviewer for an objection against the given task.
func (s *ObjectionService) routeFor(ctx context.Context, task *models.Task) (string, error) {
	if task.IsStep() {
		first, err := s.tasks.GetProjectStep(ctx, task.ProjectID, 1)
		if err == nil && len(first.AssignedTo) > 0 {
			return first.AssignedTo[0], nil
		}
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return "", err
		}
		// Step 1 is gone or has no assignee; fall through to the creator.
	}
	if task.AssignedBy == "" {
		return "", fmt.Errorf("%w: task %s has no reviewer to route to", ErrInvalidArgument, task.ID)
	}
	return task.AssignedBy, nil
}

// ReviewObjection resolves a pending objection. Only the routed reviewer may
// act, every decision needs a reason, and an approval must name the detailed
// action to take on the task.
func (s *ObjectionService) ReviewObjection(ctx context.Context, objectionID string, input ReviewObjectionInput) (*ReviewResult, error) {
	objection, err := s.repo.GetObjection(ctx, objectionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrObjectionNotFound
		}
		return nil, err
	}

	if input.ReviewerID != objection.RouteTo {
		return nil, fmt.Errorf("%w: objection %s is routed to %s", ErrForbidden, objection.ID, objection.RouteTo)
	}
	if objection.Status != models.ObjectionPending {
		return nil, fmt.Errorf("%w: objection %s is already %s", ErrInvalidState, objection.ID, objection.Status)
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, fmt.Errorf("%w: a review reason is required", ErrInvalidArgument)
	}

	action, err := resolveAction(input)
	if err != nil {
		return nil, err
	}

	result := &ReviewResult{Objection: objection}

	switch action {
	case DecisionReject:
		objection.Status = models.ObjectionRejected
	case DecisionTerminate:
		if err := s.terminateTask(ctx, objection.TaskID, models.ActionTerminated); err != nil {
			return nil, err
		}
		objection.Status = models.ObjectionApprovedTerminate
	case DecisionReplace:
		newTaskID, err := s.replaceTask(ctx, objection.TaskID, input)
		if err != nil {
			return nil, err
		}
		objection.Status = models.ObjectionApprovedReplace
		objection.NewTaskID = newTaskID
		result.NewTaskID = newTaskID
	case DecisionHold:
		if err := s.holdTask(ctx, objection.TaskID); err != nil {
			return nil, err
		}
		objection.Status = models.ObjectionHold
	}

	reviewedOn := s.now()
	objection.ReviewedBy = input.ReviewerID
	objection.ReviewedOn = &reviewedOn
	objection.ActionTaken = action
	objection.ReviewReason = input.Reason

	if err := s.repo.UpdateObjection(ctx, objection); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.notify(ctx, objection.RaisedBy, fmt.Sprintf("Your objection %s on task %s was reviewed: %s.", objection.ID, objection.TaskID, objection.Status))
	for _, tagged := range objection.TaggedUsers {
		s.notify(ctx, tagged, fmt.Sprintf("Objection %s on task %s was reviewed: %s.", objection.ID, objection.TaskID, objection.Status))
	}

	logging.Logger.Infof("Event ID: OBJECTION_REVIEWED, Description: Objection %s reviewed by %s with action %s", objection.ID, input.ReviewerID, action)
	return result, nil
}

// resolveAction maps the decision (plus detailed action for approvals) onto
// one of reject, terminate, replace or hold.
func resolveAction(input ReviewObjectionInput) (string, error) {
	switch input.Decision {
	case DecisionReject, DecisionTerminate, DecisionReplace, DecisionHold:
		return input.Decision, nil
	case DecisionApprove:
		switch input.DetailedAction {
		case DecisionTerminate, DecisionReplace, DecisionHold:
			return input.DetailedAction, nil
		case "":
			return "", ErrMissingDetailedAction
		default:
			return "", fmt.Errorf("%w: unknown detailed action %q", ErrInvalidArgument, input.DetailedAction)
		}
	default:
		return "", fmt.Errorf("%w: unknown decision %q", ErrInvalidArgument, input.Decision)
	}
}

// terminateTask closes the task without completion credit: it becomes done
// with an action marker but no completion timestamp or on-time status.
func (s *ObjectionService) terminateTask(ctx context.Context, taskID, actionTaken string) error {
	task, err := s.loadOpenTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.Status = models.TaskDone
	task.ActionTaken = actionTaken
	return s.saveTask(ctx, task)
}

// replaceTask terminates the old task and creates a fresh one carrying the
// same work description, with assignees and due date overridable.
func (s *ObjectionService) replaceTask(ctx context.Context, taskID string, input ReviewObjectionInput) (string, error) {
	task, err := s.loadOpenTask(ctx, taskID)
	if err != nil {
		return "", err
	}

	assignedTo := task.AssignedTo
	if len(input.NewAssignee) > 0 {
		assignedTo = input.NewAssignee
	}
	dueDate := task.PlannedDueDate
	if input.NewDueDate != nil {
		dueDate = *input.NewDueDate
	}

	seq, err := s.tasks.NextSequence(ctx, "TSK")
	if err != nil {
		return "", err
	}
	replacement := &models.Task{
		ID:             fmt.Sprintf("TSK-%d", seq),
		AssignedTo:     assignedTo,
		AssignedBy:     task.AssignedBy,
		Description:    task.Description,
		Method:         task.Method,
		TutorialLink:   task.TutorialLink,
		Department:     task.Department,
		PlannedDueDate: dueDate,
		Status:         models.TaskPending,
		Score:          1.0,
		Visible:        true,
		CreatedOn:      s.now(),
	}

	task.Status = models.TaskDone
	task.ActionTaken = models.ActionReplaced
	if err := s.saveTask(ctx, task); err != nil {
		return "", err
	}
	if err := s.tasks.InsertTask(ctx, replacement); err != nil {
		return "", err
	}
	return replacement.ID, nil
}

func (s *ObjectionService) holdTask(ctx context.Context, taskID string) error {
	task, err := s.loadOpenTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.Status = models.TaskHold
	return s.saveTask(ctx, task)
}

// loadOpenTask fetches the task and rejects task mutations once it is done;
// the task may have completed while the objection sat pending.
func (s *ObjectionService) loadOpenTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if task.Status == models.TaskDone {
		return nil, fmt.Errorf("%w: task %s completed while the objection was pending", ErrInvalidState, task.ID)
	}
	return task, nil
}

func (s *ObjectionService) saveTask(ctx context.Context, task *models.Task) error {
	err := s.tasks.UpdateTask(ctx, task)
	if errors.Is(err, repositories.ErrVersionConflict) {
		return ErrConflict
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func (s *ObjectionService) notify(ctx context.Context, userID, message string) {
	if s.notifications == nil || userID == "" {
		return
	}
	if err := s.notifications.Notify(ctx, userID, message); err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_FAILED, Description: Could not notify user %s: %v", userID, err)
	}
}

// GetObjection returns the objection if the user is among its participants.
func (s *ObjectionService) GetObjection(ctx context.Context, objectionID, userID string) (*models.Objection, error) {
	objection, err := s.repo.GetObjection(ctx, objectionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrObjectionNotFound
		}
		return nil, err
	}
	if !objection.VisibleTo(userID) {
		return nil, fmt.Errorf("%w: objection %s is not visible to %s", ErrForbidden, objection.ID, userID)
	}
	return objection, nil
}

// ListObjectionsForUser returns the objections the user raised, reviews or
// is tagged on.
func (s *ObjectionService) ListObjectionsForUser(ctx context.Context, userID string) ([]models.Objection, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}
	return s.repo.ListVisibleTo(ctx, userID)
}

// ListOpenObjectionsForProject returns the pending objections of a project,
// used by the board composer.
func (s *ObjectionService) ListOpenObjectionsForProject(ctx context.Context, projectID string) ([]models.Objection, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidArgument)
	}
	return s.repo.ListOpenByProject(ctx, projectID)
}
