package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fms-project/backend/tasks-service/models"
	"fms-project/backend/tasks-service/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskRepo struct {
	tasks     map[string]models.Task
	seqs      map[string]int64
	updateErr error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]models.Task), seqs: make(map[string]int64)}
}

func (r *fakeTaskRepo) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := task
	return &copied, nil
}

func (r *fakeTaskRepo) InsertTask(ctx context.Context, task *models.Task) error {
	r.tasks[task.ID] = *task
	return nil
}

func (r *fakeTaskRepo) UpdateTask(ctx context.Context, task *models.Task) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.tasks[task.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.Version != task.Version {
		return repositories.ErrVersionConflict
	}
	task.Version++
	r.tasks[task.ID] = *task
	return nil
}

func (r *fakeTaskRepo) ListTasks(ctx context.Context, filter repositories.TaskFilter) ([]models.Task, error) {
	var tasks []models.Task
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *fakeTaskRepo) NextSequence(ctx context.Context, prefix string) (int64, error) {
	r.seqs[prefix]++
	return r.seqs[prefix], nil
}

type fakeOutbox struct {
	events     []models.OutboxEvent
	enqueueErr error
}

func (o *fakeOutbox) Enqueue(ctx context.Context, event *models.OutboxEvent) error {
	if o.enqueueErr != nil {
		return o.enqueueErr
	}
	o.events = append(o.events, *event)
	return nil
}

func (o *fakeOutbox) FetchPending(ctx context.Context, limit int64) ([]models.OutboxEvent, error) {
	return o.events, nil
}

func (o *fakeOutbox) MarkDispatched(ctx context.Context, id string) error { return nil }

func (o *fakeOutbox) MarkFailed(ctx context.Context, id string, attempts int, lastError string, terminal bool) error {
	return nil
}

func (o *fakeOutbox) eventsOfKind(kind models.OutboxKind) []models.OutboxEvent {
	var matched []models.OutboxEvent
	for _, event := range o.events {
		if event.Kind == kind {
			matched = append(matched, event)
		}
	}
	return matched
}

type fakeProjectsClient struct {
	nextStepCalls []models.StepRef
	nextStepErr   error
}

func (p *fakeProjectsClient) MaterializeProject(ctx context.Context, templateID, triggeredBy string) (string, error) {
	return "PRJ-1", nil
}

func (p *fakeProjectsClient) MaterializeNextStep(ctx context.Context, projectID string, stepNo int) error {
	p.nextStepCalls = append(p.nextStepCalls, models.StepRef{ProjectID: projectID, StepNo: stepNo})
	return p.nextStepErr
}

type testEnv struct {
	service  *TaskService
	repo     *fakeTaskRepo
	outbox   *fakeOutbox
	projects *fakeProjectsClient
}

func setupService(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	repo := newFakeTaskRepo()
	outbox := &fakeOutbox{}
	projects := &fakeProjectsClient{}
	service := NewTaskService(repo, outbox, projects, nil)
	service.now = func() time.Time { return now }
	return &testEnv{service: service, repo: repo, outbox: outbox, projects: projects}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCompleteSingleAssigneeOnTime(t *testing.T) {
	// Completion on 2024-01-09 against a 2024-01-10 due date is on time.
	env := setupService(t, time.Date(2024, 1, 9, 16, 30, 0, 0, time.UTC))
	env.repo.tasks["T1"] = models.Task{
		ID:             "T1",
		AssignedTo:     []string{"alice"},
		AssignedBy:     "boss",
		Status:         models.StatusInProgress,
		PlannedDueDate: date(2024, 1, 10),
	}

	result, err := env.service.CompleteTask(context.Background(), "T1", "alice")
	require.NoError(t, err)

	assert.Equal(t, CompletionDone, result.Status)
	assert.Equal(t, models.OnTime, result.OnTimeStatus)
	assert.Empty(t, result.Warning)

	stored := env.repo.tasks["T1"]
	assert.Equal(t, models.StatusDone, stored.Status)
	require.NotNil(t, stored.CompletedOn)
}

func TestCompleteOnDueDateLateInDayIsStillOnTime(t *testing.T) {
	// Time of day must not affect the comparison.
	env := setupService(t, time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC))
	env.repo.tasks["T1"] = models.Task{
		ID:             "T1",
		AssignedTo:     []string{"alice"},
		Status:         models.StatusPending,
		PlannedDueDate: date(2024, 1, 10),
	}

	result, err := env.service.CompleteTask(context.Background(), "T1", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.OnTime, result.OnTimeStatus)
}

func TestCompleteAfterDueDateIsNotOnTime(t *testing.T) {
	env := setupService(t, time.Date(2024, 1, 11, 0, 1, 0, 0, time.UTC))
	env.repo.tasks["T1"] = models.Task{
		ID:             "T1",
		AssignedTo:     []string{"alice"},
		Status:         models.StatusPending,
		PlannedDueDate: date(2024, 1, 10),
	}

	result, err := env.service.CompleteTask(context.Background(), "T1", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.NotOnTime, result.OnTimeStatus)
}

func TestCompleteFailsForMissingTask(t *testing.T) {
	env := setupService(t, time.Now())

	_, err := env.service.CompleteTask(context.Background(), "missing", "alice")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCompleteFailsWhenAlreadyDoneOrOnHold(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["done"] = models.Task{ID: "done", AssignedTo: []string{"alice"}, Status: models.StatusDone}
	env.repo.tasks["held"] = models.Task{ID: "held", AssignedTo: []string{"alice"}, Status: models.StatusHold}

	_, err := env.service.CompleteTask(context.Background(), "done", "alice")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = env.service.CompleteTask(context.Background(), "held", "alice")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteBlockedByChecklistUntilAllChecked(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T2"] = models.Task{
		ID:         "T2",
		AssignedTo: []string{"bob"},
		Status:     models.StatusPending,
		Checklist:  []models.ChecklistItem{{Text: "Sign form", Completed: false}},
	}

	_, err := env.service.CompleteTask(context.Background(), "T2", "bob")
	assert.ErrorIs(t, err, ErrChecklistIncomplete)

	_, err = env.service.UpdateChecklistItem(context.Background(), "T2", 0, true)
	require.NoError(t, err)

	result, err := env.service.CompleteTask(context.Background(), "T2", "bob")
	require.NoError(t, err)
	assert.Equal(t, CompletionDone, result.Status)
}

func TestMultiAssigneeCompletion(t *testing.T) {
	env := setupService(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	env.repo.tasks["T3"] = models.Task{
		ID:             "T3",
		AssignedTo:     []string{"alice", "bob", "carol"},
		Status:         models.StatusInProgress,
		PlannedDueDate: date(2024, 3, 5),
	}
	ctx := context.Background()

	// First two completions are partial; the task stays in progress and no
	// on-time flag is computed.
	result, err := env.service.CompleteTask(ctx, "T3", "alice")
	require.NoError(t, err)
	assert.Equal(t, CompletionPartial, result.Status)
	assert.Empty(t, result.OnTimeStatus)
	assert.Equal(t, models.StatusInProgress, env.repo.tasks["T3"].Status)

	// A repeat completion by the same actor is rejected.
	_, err = env.service.CompleteTask(ctx, "T3", "alice")
	assert.ErrorIs(t, err, ErrAlreadyCompletedByActor)

	// Outsiders cannot contribute a completion.
	_, err = env.service.CompleteTask(ctx, "T3", "mallory")
	assert.ErrorIs(t, err, ErrNotAssignee)

	_, err = env.service.CompleteTask(ctx, "T3", "bob")
	require.NoError(t, err)

	// The last assignee flips the task to done.
	result, err = env.service.CompleteTask(ctx, "T3", "carol")
	require.NoError(t, err)
	assert.Equal(t, CompletionDone, result.Status)
	assert.Equal(t, models.OnTime, result.OnTimeStatus)

	stored := env.repo.tasks["T3"]
	assert.Equal(t, models.StatusDone, stored.Status)
	assert.Len(t, stored.CompletionsByUser, 3)
}

func TestMultiAssigneeFinalCompletionGatedByChecklist(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T4"] = models.Task{
		ID:         "T4",
		AssignedTo: []string{"alice", "bob"},
		Status:     models.StatusInProgress,
		Checklist:  []models.ChecklistItem{{Text: "Upload scan", Completed: false}},
	}
	ctx := context.Background()

	_, err := env.service.CompleteTask(ctx, "T4", "alice")
	require.NoError(t, err)

	// The final completion is blocked, and bob's completion is not recorded,
	// so the task cannot end up fully-completed but not done.
	_, err = env.service.CompleteTask(ctx, "T4", "bob")
	assert.ErrorIs(t, err, ErrChecklistIncomplete)

	stored := env.repo.tasks["T4"]
	assert.Len(t, stored.CompletionsByUser, 1)
	assert.Equal(t, models.StatusInProgress, stored.Status)
}

func TestCompleteStepReturnsDependentStepDescriptor(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["STP-7"] = models.Task{
		ID:         "STP-7",
		ProjectID:  "PRJ-2",
		StepNo:     2,
		TotalSteps: 4,
		AssignedTo: []string{"alice"},
		Status:     models.StatusInProgress,
	}

	result, err := env.service.CompleteTask(context.Background(), "STP-7", "alice")
	require.NoError(t, err)

	require.NotNil(t, result.DependentStep)
	assert.Equal(t, "PRJ-2", result.DependentStep.ProjectID)
	assert.Equal(t, 3, result.DependentStep.StepNo)
	assert.Equal(t, []models.StepRef{{ProjectID: "PRJ-2", StepNo: 3}}, env.projects.nextStepCalls)
	assert.Empty(t, result.Warning)
}

func TestCompleteLastStepHasNoDependentStep(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["STP-9"] = models.Task{
		ID:         "STP-9",
		ProjectID:  "PRJ-2",
		StepNo:     4,
		TotalSteps: 4,
		AssignedTo: []string{"alice"},
		Status:     models.StatusInProgress,
	}

	result, err := env.service.CompleteTask(context.Background(), "STP-9", "alice")
	require.NoError(t, err)
	assert.Nil(t, result.DependentStep)
	assert.Empty(t, env.projects.nextStepCalls)
}

func TestStepMaterializationFailureIsAWarningNotAnError(t *testing.T) {
	env := setupService(t, time.Now())
	env.projects.nextStepErr = errors.New("projects service unavailable")
	env.repo.tasks["STP-1"] = models.Task{
		ID:         "STP-1",
		ProjectID:  "PRJ-3",
		StepNo:     1,
		TotalSteps: 2,
		AssignedTo: []string{"alice"},
		Status:     models.StatusPending,
	}

	result, err := env.service.CompleteTask(context.Background(), "STP-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, CompletionDone, result.Status)
	assert.NotEmpty(t, result.Warning)
	assert.Equal(t, models.StatusDone, env.repo.tasks["STP-1"].Status)
}

func TestCompleteEnqueuesProjectTrigger(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T5"] = models.Task{
		ID:                 "T5",
		AssignedTo:         []string{"alice"},
		AssignedBy:         "boss",
		Status:             models.StatusPending,
		TriggersTemplateID: "TPL-9",
	}

	result, err := env.service.CompleteTask(context.Background(), "T5", "alice")
	require.NoError(t, err)
	assert.Empty(t, result.Warning)

	triggers := env.outbox.eventsOfKind(models.OutboxProjectTrigger)
	require.Len(t, triggers, 1)
	assert.Equal(t, "TPL-9", triggers[0].Payload["templateId"])
	assert.Equal(t, "alice", triggers[0].Payload["triggeredBy"])
}

func TestTriggerEnqueueFailureDoesNotRollBackCompletion(t *testing.T) {
	env := setupService(t, time.Now())
	env.outbox.enqueueErr = errors.New("outbox unavailable")
	env.repo.tasks["T6"] = models.Task{
		ID:                 "T6",
		AssignedTo:         []string{"alice"},
		Status:             models.StatusPending,
		TriggersTemplateID: "TPL-1",
	}

	result, err := env.service.CompleteTask(context.Background(), "T6", "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warning)
	assert.Equal(t, models.StatusDone, env.repo.tasks["T6"].Status)
}

func TestCompleteSurfacesVersionConflict(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T7"] = models.Task{ID: "T7", AssignedTo: []string{"alice"}, Status: models.StatusPending}
	env.repo.updateErr = repositories.ErrVersionConflict

	_, err := env.service.CompleteTask(context.Background(), "T7", "alice")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRequestRevision(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T8"] = models.Task{
		ID:             "T8",
		AssignedTo:     []string{"alice"},
		AssignedBy:     "boss",
		Status:         models.StatusInProgress,
		PlannedDueDate: date(2024, 5, 1),
		Score:          1.0,
	}

	proposed := date(2024, 5, 10)
	task, err := env.service.RequestRevision(context.Background(), "T8", "alice", &proposed, "missing inputs")
	require.NoError(t, err)

	assert.Equal(t, models.StatusRevise, task.Status)
	assert.Equal(t, "missing inputs", task.RevisionReason)
	assert.Equal(t, 1, task.RevisionCount)
	assert.True(t, task.ScoreImpacted)
	assert.InDelta(t, 0.75, task.Score, 0.0001)

	// The proposed date is stored separately; the planned date is untouched.
	assert.Equal(t, date(2024, 5, 1), task.PlannedDueDate)
	require.NotNil(t, task.ProposedDueDate)
	assert.Equal(t, proposed, *task.ProposedDueDate)
}

func TestRequestRevisionFailsOnDoneTask(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T9"] = models.Task{ID: "T9", AssignedTo: []string{"alice"}, Status: models.StatusDone}

	_, err := env.service.RequestRevision(context.Background(), "T9", "alice", nil, "late")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestResumeAcceptsProposedDate(t *testing.T) {
	env := setupService(t, time.Now())
	proposed := date(2024, 5, 10)
	env.repo.tasks["T8"] = models.Task{
		ID:              "T8",
		AssignedTo:      []string{"alice"},
		Status:          models.StatusRevise,
		PlannedDueDate:  date(2024, 5, 1),
		ProposedDueDate: &proposed,
		RevisionReason:  "missing inputs",
	}

	task, err := env.service.Resume(context.Background(), "T8", "boss", true)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, task.Status)
	assert.Equal(t, proposed, task.PlannedDueDate)
	assert.Nil(t, task.ProposedDueDate)
	assert.Empty(t, task.RevisionReason)
}

func TestResumeDiscardsProposedDateWhenNotAccepted(t *testing.T) {
	env := setupService(t, time.Now())
	proposed := date(2024, 5, 10)
	env.repo.tasks["T8"] = models.Task{
		ID:              "T8",
		AssignedTo:      []string{"alice"},
		Status:          models.StatusRevise,
		PlannedDueDate:  date(2024, 5, 1),
		ProposedDueDate: &proposed,
	}

	task, err := env.service.Resume(context.Background(), "T8", "boss", false)
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, task.Status)
	assert.Equal(t, date(2024, 5, 1), task.PlannedDueDate)
	assert.Nil(t, task.ProposedDueDate)
}

func TestResumeOnlyAppliesToReviseTasks(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T8"] = models.Task{ID: "T8", AssignedTo: []string{"alice"}, Status: models.StatusInProgress}

	_, err := env.service.Resume(context.Background(), "T8", "boss", false)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReleaseHold(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T10"] = models.Task{ID: "T10", AssignedTo: []string{"alice"}, Status: models.StatusHold}

	task, err := env.service.ReleaseHold(context.Background(), "T10", "boss")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, task.Status)

	_, err = env.service.ReleaseHold(context.Background(), "T10", "boss")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMarkInProgress(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T11"] = models.Task{ID: "T11", AssignedTo: []string{"alice"}, Status: models.StatusPending}

	task, err := env.service.MarkInProgress(context.Background(), "T11")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)

	// Second view is a no-op.
	task, err = env.service.MarkInProgress(context.Background(), "T11")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, task.Status)
}

func TestUpdateChecklistItemValidation(t *testing.T) {
	env := setupService(t, time.Now())
	env.repo.tasks["T12"] = models.Task{
		ID:         "T12",
		AssignedTo: []string{"alice"},
		Status:     models.StatusPending,
		Checklist:  []models.ChecklistItem{{Text: "Sign"}},
	}
	env.repo.tasks["T13"] = models.Task{ID: "T13", AssignedTo: []string{"alice"}, Status: models.StatusDone}

	_, err := env.service.UpdateChecklistItem(context.Background(), "T12", 5, true)
	assert.ErrorIs(t, err, ErrInvalidChecklistItem)

	_, err = env.service.UpdateChecklistItem(context.Background(), "T13", 0, true)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAddAttachment(t *testing.T) {
	env := setupService(t, time.Date(2024, 2, 2, 12, 0, 0, 0, time.UTC))
	env.repo.tasks["T14"] = models.Task{ID: "T14", AssignedTo: []string{"alice"}, Status: models.StatusPending}

	task, err := env.service.AddAttachment(context.Background(), "T14", "scan.pdf", "https://files.example/scan.pdf")
	require.NoError(t, err)
	require.Len(t, task.Attachments, 1)
	assert.Equal(t, "scan.pdf", task.Attachments[0].Name)

	_, err = env.service.AddAttachment(context.Background(), "T14", "", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateTaskAssignsSequentialIDs(t *testing.T) {
	env := setupService(t, time.Now())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		task, err := env.service.CreateTask(ctx, CreateTaskInput{
			AssignedTo:  []string{"alice"},
			AssignedBy:  "boss",
			Description: fmt.Sprintf("task %d", i),
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("TSK-%d", i), task.ID)
		assert.Equal(t, models.StatusPending, task.Status)
		assert.Equal(t, 1.0, task.Score)
	}

	_, err := env.service.CreateTask(ctx, CreateTaskInput{AssignedBy: "boss"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateTaskNotifiesEveryAssignee(t *testing.T) {
	env := setupService(t, time.Now())

	_, err := env.service.CreateTask(context.Background(), CreateTaskInput{
		AssignedTo:  []string{"alice", "bob"},
		AssignedBy:  "boss",
		Description: "prepare audit",
	})
	require.NoError(t, err)

	notifications := env.outbox.eventsOfKind(models.OutboxNotification)
	require.Len(t, notifications, 2)
	assert.Equal(t, "alice", notifications[0].Payload["userId"])
	assert.Equal(t, "bob", notifications[1].Payload["userId"])
}
