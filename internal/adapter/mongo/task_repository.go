package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

// taskDocument keeps the field names of the existing "tasks" collection,
// including "user" for the owner.
type taskDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	User          string             `bson:"user"`
	Title         string             `bson:"title"`
	Description   *string            `bson:"description,omitempty"`
	Priority      string             `bson:"priority"`
	DueDate       *time.Time         `bson:"dueDate,omitempty"`
	Category      string             `bson:"category,omitempty"`
	Repetition    string             `bson:"repetition"`
	EstimatedTime *int               `bson:"estimatedTime,omitempty"`
	IsCompleted   bool               `bson:"isCompleted"`
	TimeSpent     int                `bson:"timeSpent"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type TaskRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ ports.TaskRepository = (*TaskRepository)(nil)
var _ ports.HealthChecker = (*TaskRepository)(nil)

func NewTaskRepository(client *mongo.Client, database, collection string) *TaskRepository {
	return &TaskRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the owner index used by every query.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}
	return nil
}

func (r *TaskRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *TaskRepository) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	cursor, err := r.collection.Find(
		ctx,
		bson.M{"user": owner},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var documents []taskDocument
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(documents))
	for _, document := range documents {
		tasks = append(tasks, mapDocumentToDomainTask(document))
	}
	return tasks, nil
}

func (r *TaskRepository) GetTask(ctx context.Context, owner, id string) (domain.Task, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	var document taskDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID, "user": owner}).Decode(&document)
	if err != nil {
		return domain.Task{}, mapMongoError("get task "+id, err)
	}
	return mapDocumentToDomainTask(document), nil
}

func (r *TaskRepository) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	document := mapDomainTaskToDocument(task)
	document.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, document); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return mapDocumentToDomainTask(document), nil
}

func (r *TaskRepository) UpdateTask(
	ctx context.Context,
	owner, id string,
	input domain.UpdateTaskInput,
	updatedAt time.Time,
) (domain.Task, error) {
	set, unset := buildUpdate(input)
	set["updatedAt"] = updatedAt.UTC()

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.findOneAndUpdate(ctx, owner, id, update)
}

func (r *TaskRepository) UpdateTimeSpent(
	ctx context.Context,
	owner, id string,
	minutes int,
	updatedAt time.Time,
) (domain.Task, error) {
	return r.findOneAndUpdate(ctx, owner, id, bson.M{
		"$set": bson.M{"timeSpent": minutes, "updatedAt": updatedAt.UTC()},
	})
}

func (r *TaskRepository) DeleteTask(ctx context.Context, owner, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTaskNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "user": owner})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) findOneAndUpdate(ctx context.Context, owner, id string, update bson.M) (domain.Task, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	var document taskDocument
	err = r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "user": owner},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&document)
	if err != nil {
		return domain.Task{}, mapMongoError("update task "+id, err)
	}
	return mapDocumentToDomainTask(document), nil
}

func buildUpdate(input domain.UpdateTaskInput) (bson.M, bson.M) {
	set := bson.M{}
	unset := bson.M{}

	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.DescriptionSet {
		if input.Description == nil {
			unset["description"] = ""
		} else {
			set["description"] = *input.Description
		}
	}
	if input.Priority != nil {
		set["priority"] = string(*input.Priority)
	}
	if input.DueDateSet {
		if input.DueDate == nil {
			unset["dueDate"] = ""
		} else {
			set["dueDate"] = input.DueDate.UTC()
		}
	}
	if input.Category != nil {
		set["category"] = *input.Category
	}
	if input.Repetition != nil {
		set["repetition"] = string(*input.Repetition)
	}
	if input.EstimatedTimeSet {
		if input.EstimatedTime == nil {
			unset["estimatedTime"] = ""
		} else {
			set["estimatedTime"] = *input.EstimatedTime
		}
	}
	if input.IsCompleted != nil {
		set["isCompleted"] = *input.IsCompleted
	}
	if input.TimeSpent != nil {
		set["timeSpent"] = *input.TimeSpent
	}
	return set, unset
}

func mapMongoError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrTaskNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mapDomainTaskToDocument(task domain.Task) taskDocument {
	document := taskDocument{
		User:          task.Owner,
		Title:         task.Title,
		Description:   task.Description,
		Priority:      string(task.Priority),
		Category:      task.Category,
		Repetition:    string(task.Repetition),
		EstimatedTime: task.EstimatedTime,
		IsCompleted:   task.IsCompleted,
		TimeSpent:     task.TimeSpent,
		CreatedAt:     task.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt:     task.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
	if task.DueDate != nil {
		// BSON dates carry millisecond precision.
		value := task.DueDate.UTC().Truncate(time.Millisecond)
		document.DueDate = &value
	}
	return document
}

func mapDocumentToDomainTask(document taskDocument) domain.Task {
	task := domain.Task{
		ID:            document.ID.Hex(),
		Owner:         document.User,
		Title:         document.Title,
		Description:   document.Description,
		Priority:      domain.PriorityMedium,
		Category:      document.Category,
		Repetition:    domain.RepetitionOneTime,
		EstimatedTime: document.EstimatedTime,
		IsCompleted:   document.IsCompleted,
		TimeSpent:     document.TimeSpent,
		CreatedAt:     document.CreatedAt.UTC(),
		UpdatedAt:     document.UpdatedAt.UTC(),
	}

	// Older documents may carry "None"/"Daily"/"Weekly" or a missing priority.
	if priority, ok := domain.ParsePriority(document.Priority); ok {
		task.Priority = priority
	}
	if repetition, ok := domain.ParseRepetition(document.Repetition); ok {
		task.Repetition = repetition
	}
	if document.DueDate != nil {
		value := document.DueDate.UTC()
		task.DueDate = &value
	}
	if task.TimeSpent < 0 {
		task.TimeSpent = 0
	}
	return task
}
