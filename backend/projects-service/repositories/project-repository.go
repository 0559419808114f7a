package repositories

import (
	"context"
	"errors"
	"fmt"

	"fms-project/backend/projects-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("document not found")

type ProjectRepository interface {
	GetTemplate(ctx context.Context, id string) (*models.FlowTemplate, error)
	InsertTemplate(ctx context.Context, template *models.FlowTemplate) error
	ListTemplates(ctx context.Context) ([]models.FlowTemplate, error)

	GetProject(ctx context.Context, id string) (*models.Project, error)
	InsertProject(ctx context.Context, project *models.Project) error
	ListProjects(ctx context.Context) ([]models.Project, error)

	GetStepTask(ctx context.Context, projectID string, stepNo int) (*models.StepTask, error)
	InsertStepTask(ctx context.Context, step *models.StepTask) error
	UpdateStepTask(ctx context.Context, step *models.StepTask) error
	ListStepTasks(ctx context.Context, projectID string) ([]models.StepTask, error)

	NextSequence(ctx context.Context, prefix string) (int64, error)
}

// MongoProjectRepository spans the templates, projects and shared tasks
// collections. Step tasks live in the same collection the tasks service
// reads, which is how lazily materialized steps show up on the board.
type MongoProjectRepository struct {
	templatesCollection *mongo.Collection
	projectsCollection  *mongo.Collection
	tasksCollection     *mongo.Collection
	countersCollection  *mongo.Collection
}

func NewMongoProjectRepository(templates, projects, tasks, counters *mongo.Collection) *MongoProjectRepository {
	return &MongoProjectRepository{
		templatesCollection: templates,
		projectsCollection:  projects,
		tasksCollection:     tasks,
		countersCollection:  counters,
	}
}

func (r *MongoProjectRepository) GetTemplate(ctx context.Context, id string) (*models.FlowTemplate, error) {
	var template models.FlowTemplate
	err := r.templatesCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template %s: %v", id, err)
	}
	return &template, nil
}

func (r *MongoProjectRepository) InsertTemplate(ctx context.Context, template *models.FlowTemplate) error {
	if _, err := r.templatesCollection.InsertOne(ctx, template); err != nil {
		return fmt.Errorf("failed to insert template %s: %v", template.ID, err)
	}
	return nil
}

func (r *MongoProjectRepository) ListTemplates(ctx context.Context) ([]models.FlowTemplate, error) {
	cursor, err := r.templatesCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %v", err)
	}
	defer cursor.Close(ctx)

	var templates []models.FlowTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %v", err)
	}
	return templates, nil
}

func (r *MongoProjectRepository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := r.projectsCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project %s: %v", id, err)
	}
	return &project, nil
}

func (r *MongoProjectRepository) InsertProject(ctx context.Context, project *models.Project) error {
	if _, err := r.projectsCollection.InsertOne(ctx, project); err != nil {
		return fmt.Errorf("failed to insert project %s: %v", project.ID, err)
	}
	return nil
}

func (r *MongoProjectRepository) ListProjects(ctx context.Context) ([]models.Project, error) {
	cursor, err := r.projectsCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %v", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %v", err)
	}
	return projects, nil
}

func (r *MongoProjectRepository) GetStepTask(ctx context.Context, projectID string, stepNo int) (*models.StepTask, error) {
	var step models.StepTask
	err := r.tasksCollection.FindOne(ctx, bson.M{"projectId": projectID, "stepNo": stepNo}).Decode(&step)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch step %d of project %s: %v", stepNo, projectID, err)
	}
	return &step, nil
}

func (r *MongoProjectRepository) InsertStepTask(ctx context.Context, step *models.StepTask) error {
	if _, err := r.tasksCollection.InsertOne(ctx, step); err != nil {
		return fmt.Errorf("failed to insert step task %s: %v", step.ID, err)
	}
	return nil
}

func (r *MongoProjectRepository) UpdateStepTask(ctx context.Context, step *models.StepTask) error {
	readVersion := step.Version
	step.Version = readVersion + 1

	result, err := r.tasksCollection.ReplaceOne(ctx, bson.M{"_id": step.ID, "version": readVersion}, step)
	if err != nil {
		step.Version = readVersion
		return fmt.Errorf("failed to update step task %s: %v", step.ID, err)
	}
	if result.MatchedCount == 0 {
		step.Version = readVersion
		return ErrNotFound
	}
	return nil
}

func (r *MongoProjectRepository) ListStepTasks(ctx context.Context, projectID string) ([]models.StepTask, error) {
	opts := options.Find().SetSort(bson.M{"stepNo": 1})
	cursor, err := r.tasksCollection.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps of project %s: %v", projectID, err)
	}
	defer cursor.Close(ctx)

	var steps []models.StepTask
	if err := cursor.All(ctx, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps of project %s: %v", projectID, err)
	}
	return steps, nil
}

func (r *MongoProjectRepository) NextSequence(ctx context.Context, prefix string) (int64, error) {
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
