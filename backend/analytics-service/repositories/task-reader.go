package repositories

import (
	"context"
	"time"

	"fms-project/backend/analytics-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskReader is the analytics service's read-only window on the shared
// tasks collection.
type TaskReader interface {
	ListByAssigneeAndDueWindow(ctx context.Context, userID string, start, end time.Time) ([]models.Task, error)
}

type MongoTaskReader struct {
	tasks *mongo.Collection
}

func NewMongoTaskReader(tasks *mongo.Collection) *MongoTaskReader {
	return &MongoTaskReader{tasks: tasks}
}

// ListByAssigneeAndDueWindow returns the user's tasks whose planned due date
// falls inside [start, end], both bounds inclusive.
func (r *MongoTaskReader) ListByAssigneeAndDueWindow(ctx context.Context, userID string, start, end time.Time) ([]models.Task, error) {
	filter := bson.M{
		"assignedTo": userID,
		"plannedDueDate": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	cursor, err := r.tasks.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
