package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fms-project/backend/analytics-service/logging"
	"fms-project/backend/analytics-service/models"
	"fms-project/backend/analytics-service/repositories"
)

var (
	ErrInvalidDateRange = errors.New("invalid date range, expected YYYY-MM-DD with start before end")
	ErrInvalidArgument  = errors.New("invalid argument")
)

const dateLayout = "2006-01-02"

type ScoreService struct {
	tasks repositories.TaskReader
}

func NewScoreService(tasks repositories.TaskReader) *ScoreService {
	return &ScoreService{tasks: tasks}
}

// ComputeScore aggregates a user's performance over the tasks whose planned
// due date falls inside [startDate, endDate]. It is a pure read: calling it
// never changes any stored score.
func (s *ScoreService) ComputeScore(ctx context.Context, userID, startDate, endDate string) (*models.ScoreReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidArgument)
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDateRange, startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDateRange, endDate)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, startDate, endDate)
	}

	// Push the end bound to the last instant of its day so stored due dates
	// with a time component still land inside the window.
	endOfDay := end.Add(24*time.Hour - time.Nanosecond)

	tasks, err := s.tasks.ListByAssigneeAndDueWindow(ctx, userID, start, endOfDay)
	if err != nil {
		return nil, err
	}

	report := &models.ScoreReport{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
	}

	for _, task := range tasks {
		report.TotalTasks++
		report.TotalScoreSum += task.Score
		report.RevisionsTaken += task.RevisionCount
		if task.ScoreImpacted {
			report.ScoresImpacted += task.RevisionCount
		}

		if task.Status != models.TaskDone {
			continue
		}
		report.CompletedTasks++
		switch task.OnTimeStatus {
		case models.OnTime:
			report.CompletedOnTime++
		case models.NotOnTime:
			report.CompletedNotOnTime++
		}
	}

	report.DueNotCompleted = report.TotalTasks - report.CompletedTasks

	if report.TotalTasks == 0 {
		// No tasks due in the window means nothing was missed.
		report.FinalScore = 100.00
	} else {
		report.FinalScore = round2(report.TotalScoreSum / float64(report.TotalTasks) * 100)
	}
	report.TotalScoreSum = round2(report.TotalScoreSum)

	logging.Logger.Infof("Event ID: SCORE_COMPUTED, Description: Score for user %s over %s..%s: %.2f (%d tasks)", userID, startDate, endDate, report.FinalScore, report.TotalTasks)
	return report, nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
