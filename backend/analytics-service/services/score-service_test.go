package services

import (
	"context"
	"testing"
	"time"

	"fms-project/backend/analytics-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTaskReader struct {
	tasks []models.Task
	calls int
}

func (r *fakeTaskReader) ListByAssigneeAndDueWindow(ctx context.Context, userID string, start, end time.Time) ([]models.Task, error) {
	r.calls++
	var matching []models.Task
	for _, task := range r.tasks {
		assigned := false
		for _, assignee := range task.AssignedTo {
			if assignee == userID {
				assigned = true
				break
			}
		}
		if !assigned {
			continue
		}
		if task.PlannedDueDate.Before(start) || task.PlannedDueDate.After(end) {
			continue
		}
		matching = append(matching, task)
	}
	return matching, nil
}

func due(day int) time.Time {
	return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC)
}

func seedReader() *fakeTaskReader {
	return &fakeTaskReader{tasks: []models.Task{
		{ID: "TSK-1", AssignedTo: []string{"alice"}, PlannedDueDate: due(3), Status: models.TaskDone, OnTimeStatus: models.OnTime, Score: 1.0},
		{ID: "TSK-2", AssignedTo: []string{"alice"}, PlannedDueDate: due(5), Status: models.TaskDone, OnTimeStatus: models.NotOnTime, Score: 1.0},
		{ID: "TSK-3", AssignedTo: []string{"alice"}, PlannedDueDate: due(10), Status: "pending", Score: 1.0},
		{ID: "TSK-4", AssignedTo: []string{"alice"}, PlannedDueDate: due(12), Status: models.TaskDone, OnTimeStatus: models.OnTime, RevisionCount: 2, ScoreImpacted: true, Score: 0.5},
		// Outside the window or another user's work.
		{ID: "TSK-5", AssignedTo: []string{"alice"}, PlannedDueDate: due(25), Status: models.TaskDone, OnTimeStatus: models.OnTime, Score: 1.0},
		{ID: "TSK-6", AssignedTo: []string{"bob"}, PlannedDueDate: due(5), Status: models.TaskDone, OnTimeStatus: models.OnTime, Score: 1.0},
	}}
}

func TestComputeScoreAggregatesWindow(t *testing.T) {
	service := NewScoreService(seedReader())

	report, err := service.ComputeScore(context.Background(), "alice", "2024-06-01", "2024-06-15")
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalTasks)
	assert.Equal(t, 3, report.CompletedTasks)
	assert.Equal(t, 1, report.DueNotCompleted)
	assert.Equal(t, 2, report.CompletedOnTime)
	assert.Equal(t, 1, report.CompletedNotOnTime)
	assert.Equal(t, 2, report.RevisionsTaken)
	assert.Equal(t, 2, report.ScoresImpacted)
	assert.Equal(t, 3.5, report.TotalScoreSum)
	// 3.5 / 4 * 100
	assert.Equal(t, 87.5, report.FinalScore)
}

func TestComputeScoreWindowBoundsAreInclusive(t *testing.T) {
	service := NewScoreService(seedReader())

	report, err := service.ComputeScore(context.Background(), "alice", "2024-06-03", "2024-06-05")
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalTasks)
}

func TestComputeScoreEmptyWindowIsPerfect(t *testing.T) {
	service := NewScoreService(seedReader())

	report, err := service.ComputeScore(context.Background(), "alice", "2024-01-01", "2024-01-31")
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalTasks)
	assert.Equal(t, 0, report.DueNotCompleted)
	assert.Equal(t, 100.00, report.FinalScore)
}

func TestComputeScoreIsPureAndIdempotent(t *testing.T) {
	reader := seedReader()
	service := NewScoreService(reader)
	ctx := context.Background()

	first, err := service.ComputeScore(ctx, "alice", "2024-06-01", "2024-06-15")
	require.NoError(t, err)
	second, err := service.ComputeScore(ctx, "alice", "2024-06-01", "2024-06-15")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, reader.calls)
}

func TestComputeScoreValidation(t *testing.T) {
	service := NewScoreService(seedReader())
	ctx := context.Background()

	_, err := service.ComputeScore(ctx, "", "2024-06-01", "2024-06-15")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = service.ComputeScore(ctx, "alice", "June 1st", "2024-06-15")
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = service.ComputeScore(ctx, "alice", "2024-06-01", "15-06-2024")
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	// Reversed bounds are rejected.
	_, err = service.ComputeScore(ctx, "alice", "2024-06-15", "2024-06-01")
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestComputeScoreRoundsToTwoDecimals(t *testing.T) {
	reader := &fakeTaskReader{tasks: []models.Task{
		{ID: "TSK-1", AssignedTo: []string{"alice"}, PlannedDueDate: due(3), Status: models.TaskDone, OnTimeStatus: models.OnTime, Score: 1.0},
		{ID: "TSK-2", AssignedTo: []string{"alice"}, PlannedDueDate: due(4), Status: "pending", Score: 0.75},
		{ID: "TSK-3", AssignedTo: []string{"alice"}, PlannedDueDate: due(5), Status: "pending", Score: 0.25},
	}}
	service := NewScoreService(reader)

	report, err := service.ComputeScore(context.Background(), "alice", "2024-06-01", "2024-06-15")
	require.NoError(t, err)

	// 2.0 / 3 * 100 = 66.666... rounds to 66.67.
	assert.Equal(t, 66.67, report.FinalScore)
}
