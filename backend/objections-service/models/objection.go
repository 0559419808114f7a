package models

import "time"

type ObjectionStatus string

const (
	ObjectionPending           ObjectionStatus = "pending"
	ObjectionRejected          ObjectionStatus = "rejected"
	ObjectionHold              ObjectionStatus = "hold"
	ObjectionApprovedTerminate ObjectionStatus = "approved-terminate"
	ObjectionApprovedReplace   ObjectionStatus = "approved-replace"
)

// Objection is a dispute raised against a not-yet-done task. RouteTo is the
// single reviewer computed at creation time; RaisedBy and TaggedUsers only
// ever read. Objections are never deleted: every disposition is a status.
type Objection struct {
	ID          string          `json:"id" bson:"_id"`
	TaskID      string          `json:"taskId" bson:"taskId"`
	ProjectID   string          `json:"projectId,omitempty" bson:"projectId,omitempty"`
	Reason      string          `json:"reason" bson:"reason"`
	RaisedBy    string          `json:"raisedBy" bson:"raisedBy"`
	RaisedOn    time.Time       `json:"raisedOn" bson:"raisedOn"`
	RouteTo     string          `json:"routeTo" bson:"routeTo"`
	TaggedUsers []string        `json:"taggedUsers,omitempty" bson:"taggedUsers,omitempty"`
	Status      ObjectionStatus `json:"status" bson:"status"`

	ReviewedBy   string     `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedOn   *time.Time `json:"reviewedOn,omitempty" bson:"reviewedOn,omitempty"`
	ActionTaken  string     `json:"actionTaken,omitempty" bson:"actionTaken,omitempty"`
	ReviewReason string     `json:"reviewReason,omitempty" bson:"reviewReason,omitempty"`
	NewTaskID    string     `json:"newTaskId,omitempty" bson:"newTaskId,omitempty"`

	Version int64 `json:"version" bson:"version"`
}

// VisibleTo reports whether a user may read this objection.
func (o *Objection) VisibleTo(userID string) bool {
	if o.RaisedBy == userID || o.RouteTo == userID {
		return true
	}
	for _, tagged := range o.TaggedUsers {
		if tagged == userID {
			return true
		}
	}
	return false
}
