//go:build integration
// +build integration

package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	drivermongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/AmimerNabil/achieveai/internal/adapter/mongo"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
)

type TaskRepositorySuite struct {
	suite.Suite

	client *drivermongo.Client
	repo   *mongo.TaskRepository
	db     string
}

func TestTaskRepositorySuite(t *testing.T) {
	suite.Run(t, new(TaskRepositorySuite))
}

func (s *TaskRepositorySuite) SetupSuite() {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://127.0.0.1:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, uri)
	if err != nil {
		s.T().Skipf("skipping integration suite: could not connect to mongo: %v", err)
	}
	s.client = client
	s.db = "achieveai_test"
}

func (s *TaskRepositorySuite) TearDownSuite() {
	if s.client == nil {
		return
	}
	ctx := context.Background()
	s.Require().NoError(s.client.Database(s.db).Drop(ctx))
	s.Require().NoError(s.client.Disconnect(ctx))
}

func (s *TaskRepositorySuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.client.Database(s.db).Collection("tasks").Drop(ctx))
	s.repo = mongo.NewTaskRepository(s.client, s.db, "tasks")
	s.Require().NoError(s.repo.EnsureIndexes(ctx))
}

func (s *TaskRepositorySuite) newTask(owner, title string) domain.Task {
	now := time.Now().UTC()
	return domain.Task{
		Owner:      owner,
		Title:      title,
		Priority:   domain.PriorityMedium,
		Repetition: domain.RepetitionOneTime,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *TaskRepositorySuite) TestCreateGetList() {
	ctx := context.Background()

	created, err := s.repo.CreateTask(ctx, s.newTask("alice", "Write report"))
	s.Require().NoError(err)
	_, err = s.repo.CreateTask(ctx, s.newTask("bob", "Other"))
	s.Require().NoError(err)

	got, err := s.repo.GetTask(ctx, "alice", created.ID)
	s.Require().NoError(err)
	s.Require().Equal(created, got)

	tasks, err := s.repo.ListTasks(ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)

	_, err = s.repo.GetTask(ctx, "bob", created.ID)
	s.Require().ErrorIs(err, domain.ErrTaskNotFound)
}

func (s *TaskRepositorySuite) TestUpdateUnsetsNullableFields() {
	ctx := context.Background()

	task := s.newTask("alice", "Read")
	description := "chapter 3"
	task.Description = &description
	created, err := s.repo.CreateTask(ctx, task)
	s.Require().NoError(err)

	done := true
	updated, err := s.repo.UpdateTask(ctx, "alice", created.ID, domain.UpdateTaskInput{
		IsCompleted:    &done,
		DescriptionSet: true,
	}, time.Now())
	s.Require().NoError(err)
	s.Require().True(updated.IsCompleted)
	s.Require().Nil(updated.Description)

	raw := bson.M{}
	s.Require().NoError(s.client.Database(s.db).Collection("tasks").FindOne(ctx, bson.M{"title": "Read"}).Decode(&raw))
	s.Require().NotContains(raw, "description")
	s.Require().Equal("alice", raw["user"])
}

func (s *TaskRepositorySuite) TestUpdateTimeSpentAndDelete() {
	ctx := context.Background()

	created, err := s.repo.CreateTask(ctx, s.newTask("alice", "Focus"))
	s.Require().NoError(err)

	updated, err := s.repo.UpdateTimeSpent(ctx, "alice", created.ID, 25, time.Now())
	s.Require().NoError(err)
	s.Require().Equal(25, updated.TimeSpent)

	s.Require().ErrorIs(s.repo.DeleteTask(ctx, "bob", created.ID), domain.ErrTaskNotFound)
	s.Require().NoError(s.repo.DeleteTask(ctx, "alice", created.ID))
	s.Require().ErrorIs(s.repo.DeleteTask(ctx, "alice", created.ID), domain.ErrTaskNotFound)
}

func (s *TaskRepositorySuite) TestPing() {
	s.Require().NoError(s.repo.Ping(context.Background()))
}
