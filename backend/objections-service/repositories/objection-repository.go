package repositories

import (
	"context"
	"errors"
	"fmt"

	"fms-project/backend/objections-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document version conflict")
)

type ObjectionRepository interface {
	GetObjection(ctx context.Context, id string) (*models.Objection, error)
	InsertObjection(ctx context.Context, objection *models.Objection) error
	UpdateObjection(ctx context.Context, objection *models.Objection) error
	ListVisibleTo(ctx context.Context, userID string) ([]models.Objection, error)
	ListByTask(ctx context.Context, taskID string) ([]models.Objection, error)
	ListOpenByProject(ctx context.Context, projectID string) ([]models.Objection, error)
	NextSequence(ctx context.Context, prefix string) (int64, error)
}

type MongoObjectionRepository struct {
	objections *mongo.Collection
	counters   *mongo.Collection
}

func NewMongoObjectionRepository(objections, counters *mongo.Collection) *MongoObjectionRepository {
	return &MongoObjectionRepository{objections: objections, counters: counters}
}

func (r *MongoObjectionRepository) GetObjection(ctx context.Context, id string) (*models.Objection, error) {
	var objection models.Objection
	err := r.objections.FindOne(ctx, bson.M{"_id": id}).Decode(&objection)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &objection, nil
}

func (r *MongoObjectionRepository) InsertObjection(ctx context.Context, objection *models.Objection) error {
	_, err := r.objections.InsertOne(ctx, objection)
	return err
}

// UpdateObjection replaces the document only when the stored version matches,
// then bumps the version on the in-memory copy.
func (r *MongoObjectionRepository) UpdateObjection(ctx context.Context, objection *models.Objection) error {
	filter := bson.M{"_id": objection.ID, "version": objection.Version}
	objection.Version++
	result, err := r.objections.ReplaceOne(ctx, filter, objection)
	if err != nil {
		objection.Version--
		return err
	}
	if result.MatchedCount == 0 {
		objection.Version--
		count, err := r.objections.CountDocuments(ctx, bson.M{"_id": objection.ID})
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

func (r *MongoObjectionRepository) ListVisibleTo(ctx context.Context, userID string) ([]models.Objection, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"raisedBy": userID},
		bson.M{"routeTo": userID},
		bson.M{"taggedUsers": userID},
	}}
	cursor, err := r.objections.Find(ctx, filter, options.Find().SetSort(bson.M{"raisedOn": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var objections []models.Objection
	if err := cursor.All(ctx, &objections); err != nil {
		return nil, err
	}
	return objections, nil
}

func (r *MongoObjectionRepository) ListByTask(ctx context.Context, taskID string) ([]models.Objection, error) {
	cursor, err := r.objections.Find(ctx, bson.M{"taskId": taskID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var objections []models.Objection
	if err := cursor.All(ctx, &objections); err != nil {
		return nil, err
	}
	return objections, nil
}

func (r *MongoObjectionRepository) ListOpenByProject(ctx context.Context, projectID string) ([]models.Objection, error) {
	filter := bson.M{"projectId": projectID, "status": models.ObjectionPending}
	cursor, err := r.objections.Find(ctx, filter, options.Find().SetSort(bson.M{"raisedOn": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var objections []models.Objection
	if err := cursor.All(ctx, &objections); err != nil {
		return nil, err
	}
	return objections, nil
}

func (r *MongoObjectionRepository) NextSequence(ctx context.Context, prefix string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": prefix},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", prefix, err)
	}
	return counter.Seq, nil
}
