package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fms-project/backend/projects-service/models"
	"fms-project/backend/projects-service/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjectRepo struct {
	templates map[string]models.FlowTemplate
	projects  map[string]models.Project
	steps     map[string]models.StepTask // keyed by "<projectID>/<stepNo>"
	seqs      map[string]int64
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		templates: make(map[string]models.FlowTemplate),
		projects:  make(map[string]models.Project),
		steps:     make(map[string]models.StepTask),
		seqs:      make(map[string]int64),
	}
}

func stepKey(projectID string, stepNo int) string {
	return fmt.Sprintf("%s/%d", projectID, stepNo)
}

func (r *fakeProjectRepo) GetTemplate(ctx context.Context, id string) (*models.FlowTemplate, error) {
	template, ok := r.templates[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &template, nil
}

func (r *fakeProjectRepo) InsertTemplate(ctx context.Context, template *models.FlowTemplate) error {
	r.templates[template.ID] = *template
	return nil
}

func (r *fakeProjectRepo) ListTemplates(ctx context.Context) ([]models.FlowTemplate, error) {
	var templates []models.FlowTemplate
	for _, template := range r.templates {
		templates = append(templates, template)
	}
	return templates, nil
}

func (r *fakeProjectRepo) GetProject(ctx context.Context, id string) (*models.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &project, nil
}

func (r *fakeProjectRepo) InsertProject(ctx context.Context, project *models.Project) error {
	r.projects[project.ID] = *project
	return nil
}

func (r *fakeProjectRepo) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	for _, project := range r.projects {
		projects = append(projects, project)
	}
	return projects, nil
}

func (r *fakeProjectRepo) GetStepTask(ctx context.Context, projectID string, stepNo int) (*models.StepTask, error) {
	step, ok := r.steps[stepKey(projectID, stepNo)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &step, nil
}

func (r *fakeProjectRepo) InsertStepTask(ctx context.Context, step *models.StepTask) error {
	r.steps[stepKey(step.ProjectID, step.StepNo)] = *step
	return nil
}

func (r *fakeProjectRepo) UpdateStepTask(ctx context.Context, step *models.StepTask) error {
	key := stepKey(step.ProjectID, step.StepNo)
	if _, ok := r.steps[key]; !ok {
		return repositories.ErrNotFound
	}
	step.Version++
	r.steps[key] = *step
	return nil
}

func (r *fakeProjectRepo) ListStepTasks(ctx context.Context, projectID string) ([]models.StepTask, error) {
	var steps []models.StepTask
	for _, step := range r.steps {
		if step.ProjectID == projectID {
			steps = append(steps, step)
		}
	}
	return steps, nil
}

func (r *fakeProjectRepo) NextSequence(ctx context.Context, prefix string) (int64, error) {
	r.seqs[prefix]++
	return r.seqs[prefix], nil
}

func setupProjectService(t *testing.T, now time.Time) (*ProjectService, *fakeProjectRepo) {
	t.Helper()
	repo := newFakeProjectRepo()
	service := NewProjectService(repo, nil)
	service.now = func() time.Time { return now }
	return service, repo
}

func seedTemplate(repo *fakeProjectRepo) {
	repo.templates["TPL-1"] = models.FlowTemplate{
		ID:         "TPL-1",
		Name:       "Vendor onboarding",
		Department: "procurement",
		Steps: []models.StepTemplate{
			{StepNo: 1, Description: "Collect documents", AssignedTo: []string{"alice"}, OffsetDays: 2},
			{StepNo: 2, Description: "Verify documents", AssignedTo: []string{"bob", "carol"}},
			{StepNo: 3, Description: "Approve vendor", AssignedTo: []string{"dave"}},
		},
	}
}

func TestCreateTemplateNumbersSteps(t *testing.T) {
	service, _ := setupProjectService(t, time.Now())

	template, err := service.CreateTemplate(context.Background(), CreateTemplateInput{
		Name:      "Invoice flow",
		CreatedBy: "boss",
		Steps: []models.StepTemplate{
			{Description: "Enter invoice", AssignedTo: []string{"alice"}},
			{Description: "Approve invoice", AssignedTo: []string{"bob"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "TPL-1", template.ID)
	assert.Equal(t, 1, template.Steps[0].StepNo)
	assert.Equal(t, 2, template.Steps[1].StepNo)
}

func TestCreateTemplateValidation(t *testing.T) {
	service, _ := setupProjectService(t, time.Now())

	_, err := service.CreateTemplate(context.Background(), CreateTemplateInput{Name: "empty"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = service.CreateTemplate(context.Background(), CreateTemplateInput{
		Name:  "no assignee",
		Steps: []models.StepTemplate{{Description: "orphan step"}},
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMaterializeProjectCreatesOnlyFirstStep(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	service, repo := setupProjectService(t, now)
	seedTemplate(repo)

	view, err := service.MaterializeProject(context.Background(), "TPL-1", "Acme onboarding", "boss")
	require.NoError(t, err)

	assert.Equal(t, "PRJ-1", view.Project.ID)
	assert.Equal(t, 3, view.Project.TotalStepsInTemplate)
	require.Len(t, view.Steps, 1)

	first := view.Steps[0]
	assert.Equal(t, 1, first.StepNo)
	assert.True(t, first.Visible)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), first.PlannedDueDate)

	// Steps 2 and 3 are not materialized yet.
	stored, _ := repo.ListStepTasks(context.Background(), "PRJ-1")
	assert.Len(t, stored, 1)
}

func TestMaterializeProjectUnknownTemplate(t *testing.T) {
	service, _ := setupProjectService(t, time.Now())

	_, err := service.MaterializeProject(context.Background(), "TPL-404", "", "boss")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestMaterializeNextStepIsLazyAndHidden(t *testing.T) {
	service, repo := setupProjectService(t, time.Now())
	seedTemplate(repo)
	ctx := context.Background()

	_, err := service.MaterializeProject(ctx, "TPL-1", "", "boss")
	require.NoError(t, err)

	step, err := service.MaterializeNextStep(ctx, "PRJ-1", 2)
	require.NoError(t, err)

	assert.False(t, step.Visible)
	assert.True(t, step.PlannedDueDate.IsZero())
	assert.Equal(t, []string{"bob", "carol"}, step.AssignedTo)

	// Re-materializing the same step is a no-op returning the existing task.
	again, err := service.MaterializeNextStep(ctx, "PRJ-1", 2)
	require.NoError(t, err)
	assert.Equal(t, step.ID, again.ID)

	_, err = service.MaterializeNextStep(ctx, "PRJ-1", 9)
	assert.ErrorIs(t, err, ErrStepNotFound)
}

func TestSetStepPlannedDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	service, repo := setupProjectService(t, now)
	seedTemplate(repo)
	ctx := context.Background()

	_, err := service.MaterializeProject(ctx, "TPL-1", "", "boss")
	require.NoError(t, err)
	_, err = service.MaterializeNextStep(ctx, "PRJ-1", 2)
	require.NoError(t, err)

	// A past date is rejected.
	_, err = service.SetStepPlannedDate(ctx, "PRJ-1", 2, time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInvalidDate)

	// Today is acceptable: the comparison is day-granular.
	step, err := service.SetStepPlannedDate(ctx, "PRJ-1", 2, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, step.Visible)
	assert.False(t, step.PlannedDueDate.IsZero())

	_, err = service.SetStepPlannedDate(ctx, "PRJ-1", 3, now.AddDate(0, 0, 5))
	assert.ErrorIs(t, err, ErrStepNotFound)
}
