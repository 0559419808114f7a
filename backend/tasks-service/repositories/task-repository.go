package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fms-project/backend/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no document matches the given id.
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict is returned when an update loses an optimistic
	// concurrency race: the stored version no longer matches.
	ErrVersionConflict = errors.New("version conflict")
)

// TaskFilter narrows ListTasks. Zero values mean "no constraint".
type TaskFilter struct {
	Assignee string
	From     time.Time
	To       time.Time
}

type TaskRepository interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	InsertTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	NextSequence(ctx context.Context, prefix string) (int64, error)
}

// MongoTaskRepository stores tasks in a single collection, with a separate
// counters collection providing the monotonic per-prefix id sequences.
type MongoTaskRepository struct {
	tasksCollection    *mongo.Collection
	countersCollection *mongo.Collection
}

func NewMongoTaskRepository(tasksCollection, countersCollection *mongo.Collection) *MongoTaskRepository {
	return &MongoTaskRepository{
		tasksCollection:    tasksCollection,
		countersCollection: countersCollection,
	}
}

func (r *MongoTaskRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.tasksCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task %s: %v", id, err)
	}
	normalizeStoredStatus(&task)
	return &task, nil
}

// normalizeStoredStatus maps legacy status variants found in the shared
// collection ("Done", "completed", "Revision", ...) onto the closed enum.
// Unknown strings are left as stored.
func normalizeStoredStatus(task *models.Task) {
	if status, ok := models.NormalizeStatus(string(task.Status)); ok {
		task.Status = status
	}
}

func (r *MongoTaskRepository) InsertTask(ctx context.Context, task *models.Task) error {
	if _, err := r.tasksCollection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to insert task %s: %v", task.ID, err)
	}
	return nil
}

// UpdateTask replaces the stored document only if its version still matches
// the version the caller read. On success the in-memory version is bumped.
func (r *MongoTaskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	readVersion := task.Version
	task.Version = readVersion + 1

	result, err := r.tasksCollection.ReplaceOne(ctx, bson.M{"_id": task.ID, "version": readVersion}, task)
	if err != nil {
		task.Version = readVersion
		return fmt.Errorf("failed to update task %s: %v", task.ID, err)
	}
	if result.MatchedCount == 0 {
		task.Version = readVersion
		count, countErr := r.tasksCollection.CountDocuments(ctx, bson.M{"_id": task.ID})
		if countErr == nil && count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// listQuery builds the Mongo filter for ListTasks. Step tasks the projects
// service has not revealed yet carry visible:false and are excluded; the $ne
// form keeps documents written before the flag existed in the results.
func listQuery(filter TaskFilter) bson.M {
	query := bson.M{"visible": bson.M{"$ne": false}}
	if filter.Assignee != "" {
		query["assignedTo"] = filter.Assignee
	}
	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		dateRange["$lte"] = filter.To
	}
	if len(dateRange) > 0 {
		query["plannedDueDate"] = dateRange
	}
	return query
}

func (r *MongoTaskRepository) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	cursor, err := r.tasksCollection.Find(ctx, listQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	for i := range tasks {
		normalizeStoredStatus(&tasks[i])
	}
	return tasks, nil
}

// NextSequence atomically increments and returns the counter for a prefix.
func (r *MongoTaskRepository) NextSequence(ctx context.Context, prefix string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.countersCollection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": prefix},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence for prefix %s: %v", prefix, err)
	}
	return counter.Seq, nil
}
