package repositories

import (
	"context"
	"fmt"
	"time"

	"fms-project/backend/tasks-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, event *models.OutboxEvent) error
	FetchPending(ctx context.Context, limit int64) ([]models.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string, terminal bool) error
}

type MongoOutboxRepository struct {
	outboxCollection *mongo.Collection
}

func NewMongoOutboxRepository(outboxCollection *mongo.Collection) *MongoOutboxRepository {
	return &MongoOutboxRepository{outboxCollection: outboxCollection}
}

func (r *MongoOutboxRepository) Enqueue(ctx context.Context, event *models.OutboxEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	event.Status = models.OutboxPending
	if _, err := r.outboxCollection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %v", err)
	}
	return nil
}

func (r *MongoOutboxRepository) FetchPending(ctx context.Context, limit int64) ([]models.OutboxEvent, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": 1}).SetLimit(limit)
	cursor, err := r.outboxCollection.Find(ctx, bson.M{"status": models.OutboxPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox events: %v", err)
	}
	defer cursor.Close(ctx)

	var events []models.OutboxEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode outbox events: %v", err)
	}
	return events, nil
}

func (r *MongoOutboxRepository) MarkDispatched(ctx context.Context, id string) error {
	_, err := r.outboxCollection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": models.OutboxDispatched}})
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s dispatched: %v", id, err)
	}
	return nil
}

func (r *MongoOutboxRepository) MarkFailed(ctx context.Context, id string, attempts int, lastError string, terminal bool) error {
	status := models.OutboxPending
	if terminal {
		status = models.OutboxFailed
	}
	_, err := r.outboxCollection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "attempts": attempts, "lastError": lastError}})
	if err != nil {
		return fmt.Errorf("failed to record outbox failure for %s: %v", id, err)
	}
	return nil
}
