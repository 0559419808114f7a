package repositories

import (
	"context"
	"errors"

	"fms-project/backend/objections-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskStore is the objection router's view of the shared tasks collection.
// It reads tasks to compute routing and writes the terminate/replace/hold
// outcomes back.
type TaskStore interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetProjectStep(ctx context.Context, projectID string, stepNo int) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	InsertTask(ctx context.Context, task *models.Task) error
	NextSequence(ctx context.Context, prefix string) (int64, error)
}

type MongoTaskStore struct {
	tasks    *mongo.Collection
	counters *mongo.Collection
}

func NewMongoTaskStore(tasks, counters *mongo.Collection) *MongoTaskStore {
	return &MongoTaskStore{tasks: tasks, counters: counters}
}

func (s *MongoTaskStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *MongoTaskStore) GetProjectStep(ctx context.Context, projectID string, stepNo int) (*models.Task, error) {
	var task models.Task
	err := s.tasks.FindOne(ctx, bson.M{"projectId": projectID, "stepNo": stepNo}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (s *MongoTaskStore) UpdateTask(ctx context.Context, task *models.Task) error {
	filter := bson.M{"_id": task.ID, "version": task.Version}
	task.Version++
	result, err := s.tasks.ReplaceOne(ctx, filter, task)
	if err != nil {
		task.Version--
		return err
	}
	if result.MatchedCount == 0 {
		task.Version--
		count, err := s.tasks.CountDocuments(ctx, bson.M{"_id": task.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *MongoTaskStore) InsertTask(ctx context.Context, task *models.Task) error {
	_, err := s.tasks.InsertOne(ctx, task)
	return err
}

func (s *MongoTaskStore) NextSequence(ctx context.Context, prefix string) (int64, error) {
	repo := MongoObjectionRepository{counters: s.counters}
	return repo.NextSequence(ctx, prefix)
}
