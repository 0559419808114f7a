package models

import "time"

// Project is one running instance of a flow template. Steps materialize
// lazily: TotalStepsInTemplate can exceed the number of step tasks that
// currently exist, because a step is only created once its predecessor is
// done.
type Project struct {
	ID                   string    `json:"id" bson:"_id"`
	TemplateID           string    `json:"templateId" bson:"templateId"`
	Name                 string    `json:"name" bson:"name"`
	TotalStepsInTemplate int       `json:"totalStepsInTemplate" bson:"totalStepsInTemplate"`
	CreatedBy            string    `json:"createdBy" bson:"createdBy"`
	CreatedOn            time.Time `json:"createdOn" bson:"createdOn"`
}
