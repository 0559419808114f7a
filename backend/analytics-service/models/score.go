package models

import "time"

// Task is the analytics view of the shared task document: the read-only
// subset the score aggregator needs.
type Task struct {
	ID             string     `json:"id" bson:"_id"`
	AssignedTo     []string   `json:"assignedTo" bson:"assignedTo"`
	PlannedDueDate time.Time  `json:"plannedDueDate,omitempty" bson:"plannedDueDate,omitempty"`
	Status         string     `json:"status" bson:"status"`
	CompletedOn    *time.Time `json:"completedOn,omitempty" bson:"completedOn,omitempty"`
	OnTimeStatus   string     `json:"onTimeStatus,omitempty" bson:"onTimeStatus,omitempty"`
	RevisionCount  int        `json:"revisionCount,omitempty" bson:"revisionCount,omitempty"`
	ScoreImpacted  bool       `json:"scoreImpacted,omitempty" bson:"scoreImpacted,omitempty"`
	Score          float64    `json:"score" bson:"score"`
}

// Status and on-time values shared with the tasks service.
const (
	TaskDone  = "done"
	OnTime    = "on time"
	NotOnTime = "not on time"
)

// ScoreReport is the aggregate computed for one user over a due-date window.
type ScoreReport struct {
	UserID             string  `json:"userId"`
	StartDate          string  `json:"startDate"`
	EndDate            string  `json:"endDate"`
	TotalTasks         int     `json:"totalTasks"`
	CompletedTasks     int     `json:"completedTasks"`
	DueNotCompleted    int     `json:"dueNotCompleted"`
	CompletedOnTime    int     `json:"completedOnTime"`
	CompletedNotOnTime int     `json:"completedNotOnTime"`
	RevisionsTaken     int     `json:"revisionsTaken"`
	ScoresImpacted     int     `json:"scoresImpacted"`
	TotalScoreSum      float64 `json:"totalScoreSum"`
	FinalScore         float64 `json:"finalScore"`
}
