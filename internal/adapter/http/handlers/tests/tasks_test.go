package tests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AmimerNabil/achieveai/internal/adapter/http/dto"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/handlers"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/middleware"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/pkg/apierrors"
	"github.com/AmimerNabil/achieveai/pkg/translator"
)

const (
	testToken = "token-alice"
	testOwner = "alice"
)

type taskServiceMock struct {
	mock.Mock
}

func (m *taskServiceMock) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	args := m.Called(ctx, owner)

	var tasks []domain.Task
	if value := args.Get(0); value != nil {
		tasks = value.([]domain.Task)
	}
	return tasks, args.Error(1)
}

func (m *taskServiceMock) GetTask(ctx context.Context, owner, id string) (domain.Task, error) {
	args := m.Called(ctx, owner, id)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) CreateTask(ctx context.Context, owner string, input domain.CreateTaskInput) (domain.Task, error) {
	args := m.Called(ctx, owner, input)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) UpdateTask(ctx context.Context, owner, id string, input domain.UpdateTaskInput) (domain.Task, error) {
	args := m.Called(ctx, owner, id, input)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) UpdateTimeSpent(ctx context.Context, owner, id string, minutes int) (domain.Task, error) {
	args := m.Called(ctx, owner, id, minutes)
	return args.Get(0).(domain.Task), args.Error(1)
}

func (m *taskServiceMock) DeleteTask(ctx context.Context, owner, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

type verifierFunc func(ctx context.Context, token string) (domain.Identity, error)

func (f verifierFunc) Verify(ctx context.Context, token string) (domain.Identity, error) {
	return f(ctx, token)
}

func newRouter(service *taskServiceMock) *gin.Engine {
	verifier := verifierFunc(func(_ context.Context, token string) (domain.Identity, error) {
		if token != testToken {
			return domain.Identity{}, domain.ErrUnauthorized
		}
		return domain.Identity{Subject: testOwner}, nil
	})

	handler := handlers.NewTaskHandler(service)
	router := gin.New()
	group := router.Group("/tasks", middleware.LanguageMiddleware(), middleware.AuthMiddleware(verifier))
	group.GET("", handler.ListTasks)
	group.POST("", handler.CreateTask)
	group.GET("/:id", handler.GetTask)
	group.PUT("/:id", handler.UpdateTask)
	group.PUT("/:id/time", handler.UpdateTaskTime)
	group.DELETE("/:id", handler.DeleteTask)
	return router
}

func doRequest(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Accept-Language", translator.LanguageEn)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierrors.JsonErr {
	t.Helper()

	var got apierrors.JsonErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func sampleTask() domain.Task {
	description := "quarterly numbers"
	dueDate := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	estimate := 90
	return domain.Task{
		ID:            "65f1c0ffee0000000000abcd",
		Owner:         testOwner,
		Title:         "Write report",
		Description:   &description,
		Priority:      domain.PriorityHigh,
		DueDate:       &dueDate,
		Category:      "work",
		Repetition:    domain.RepetitionWeekly,
		EstimatedTime: &estimate,
		TimeSpent:     15,
		CreatedAt:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2024, 3, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestTaskHandler_ListTasks_Success(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("ListTasks", mock.Anything, testOwner).Return([]domain.Task{sampleTask()}, nil).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodGet, "/tasks", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var got []dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "65f1c0ffee0000000000abcd", got[0].ID)
	require.Equal(t, testOwner, got[0].Owner)
	require.Equal(t, "Write report", got[0].Title)
	require.Equal(t, "quarterly numbers", *got[0].Description)
	require.Equal(t, "high", got[0].Priority)
	require.Equal(t, "2024-03-20T00:00:00Z", *got[0].DueDate)
	require.Equal(t, "work", got[0].Category)
	require.Equal(t, "weekly", got[0].Repetition)
	require.Equal(t, 90, *got[0].EstimatedTime)
	require.Equal(t, 15, got[0].TimeSpent)
	require.Equal(t, "2024-03-01T09:00:00Z", got[0].CreatedAt)
	require.Equal(t, "2024-03-02T10:30:00Z", got[0].UpdatedAt)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_ListTasks_Empty(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("ListTasks", mock.Anything, testOwner).Return(nil, nil).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodGet, "/tasks", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_ListTasks_Error(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("ListTasks", mock.Anything, testOwner).Return(nil, errors.New("db is down")).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodGet, "/tasks", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	got := decodeError(t, rec)
	require.Equal(t, http.StatusInternalServerError, got.ErrDetails.Code)
	require.Equal(t, "failed to list tasks", got.ErrDetails.Message)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_RejectsMissingToken(t *testing.T) {
	serviceMock := new(taskServiceMock)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	rec := httptest.NewRecorder()
	newRouter(serviceMock).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", decodeError(t, rec).ErrDetails.Message)
	serviceMock.AssertNotCalled(t, "ListTasks", mock.Anything, mock.Anything)
}

func TestTaskHandler_GetTask_NotFound(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("GetTask", mock.Anything, testOwner, "missing").
		Return(domain.Task{}, domain.ErrTaskNotFound).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodGet, "/tasks/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	got := decodeError(t, rec)
	require.Equal(t, http.StatusNotFound, got.ErrDetails.Code)
	require.Equal(t, "Task not found", got.ErrDetails.Message)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_GetTask_NotFoundFrench(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("GetTask", mock.Anything, testOwner, "missing").
		Return(domain.Task{}, domain.ErrTaskNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/tasks/missing", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	rec := httptest.NewRecorder()
	newRouter(serviceMock).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Tâche introuvable", decodeError(t, rec).ErrDetails.Message)
}

func TestTaskHandler_CreateTask_Success(t *testing.T) {
	created := sampleTask()
	serviceMock := new(taskServiceMock)
	serviceMock.On("CreateTask", mock.Anything, testOwner, mock.MatchedBy(func(input domain.CreateTaskInput) bool {
		return input.Title == "Write report" &&
			input.Priority == domain.PriorityHigh &&
			input.Repetition == domain.RepetitionWeekly &&
			input.Category == "work" &&
			input.DueDate != nil && input.DueDate.Equal(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	})).Return(created, nil).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodPost, "/tasks", `{
		"title":"Write report",
		"priority":"high",
		"repetition":"Weekly",
		"category":"work",
		"dueDate":"2024-03-20"
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, testOwner, got.Owner)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_CreateTask_IgnoresOwnerInBody(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("CreateTask", mock.Anything, testOwner, mock.Anything).Return(sampleTask(), nil).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodPost, "/tasks", `{"title":"A","owner":"mallory"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_CreateTask_InvalidPayload(t *testing.T) {
	cases := map[string]string{
		"malformed json":   `{"title":`,
		"not an object":    `["title"]`,
		"missing title":    `{"priority":"low"}`,
		"unknown priority": `{"title":"A","priority":"urgent"}`,
		"negative time":    `{"title":"A","timeSpent":-5}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			serviceMock := new(taskServiceMock)

			rec := doRequest(newRouter(serviceMock), http.MethodPost, "/tasks", body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			got := decodeError(t, rec)
			require.Equal(t, http.StatusBadRequest, got.ErrDetails.Code)
			require.Equal(t, "Invalid task payload", got.ErrDetails.Message)
			serviceMock.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTaskHandler_CreateTask_ServiceValidationError(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("CreateTask", mock.Anything, testOwner, mock.Anything).
		Return(domain.Task{}, &domain.ValidationError{Field: "title", Reason: "too long"}).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodPost, "/tasks", `{"title":"A"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_UpdateTask_Partial(t *testing.T) {
	updated := sampleTask()
	updated.IsCompleted = true

	serviceMock := new(taskServiceMock)
	serviceMock.On("UpdateTask", mock.Anything, testOwner, updated.ID, mock.MatchedBy(func(input domain.UpdateTaskInput) bool {
		return input.IsCompleted != nil && *input.IsCompleted &&
			input.Title == nil &&
			!input.DescriptionSet &&
			!input.DueDateSet
	})).Return(updated, nil).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodPut, "/tasks/"+updated.ID, `{"isCompleted":true}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.IsCompleted)
	require.Equal(t, "Write report", got.Title)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_UpdateTask_EmptyBody(t *testing.T) {
	serviceMock := new(taskServiceMock)

	rec := doRequest(newRouter(serviceMock), http.MethodPut, "/tasks/abc", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	serviceMock.AssertNotCalled(t, "UpdateTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskHandler_UpdateTask_NotFound(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("UpdateTask", mock.Anything, testOwner, "other-owners-task", mock.Anything).
		Return(domain.Task{}, domain.ErrTaskNotFound).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodPut, "/tasks/other-owners-task", `{"title":"B"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_UpdateTaskTime(t *testing.T) {
	updated := sampleTask()
	updated.TimeSpent = 42

	serviceMock := new(taskServiceMock)
	serviceMock.On("UpdateTimeSpent", mock.Anything, testOwner, updated.ID, 42).Return(updated, nil).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodPut, "/tasks/"+updated.ID+"/time", `{"timeSpent":42}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.TaskItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 42, got.TimeSpent)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_UpdateTaskTime_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing":  `{}`,
		"null":     `{"timeSpent":null}`,
		"negative": `{"timeSpent":-1}`,
		"string":   `{"timeSpent":"ten"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			serviceMock := new(taskServiceMock)

			rec := doRequest(newRouter(serviceMock), http.MethodPut, "/tasks/abc/time", body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			serviceMock.AssertNotCalled(t, "UpdateTimeSpent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	serviceMock := new(taskServiceMock)
	serviceMock.On("DeleteTask", mock.Anything, testOwner, "abc").Return(nil).Once()

	rec := doRequest(newRouter(serviceMock), http.MethodDelete, "/tasks/abc", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var got dto.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Task deleted", got.Message)
	serviceMock.AssertExpectations(t)
}

func TestTaskHandler_DeleteTask_Errors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "not found", err: domain.ErrTaskNotFound, code: http.StatusNotFound, message: "Task not found"},
		{name: "storage", err: errors.New("connection reset"), code: http.StatusInternalServerError, message: "failed to delete task"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			serviceMock := new(taskServiceMock)
			serviceMock.On("DeleteTask", mock.Anything, testOwner, "abc").Return(tc.err).Once()

			rec := doRequest(newRouter(serviceMock), http.MethodDelete, "/tasks/abc", "")

			require.Equal(t, tc.code, rec.Code)
			require.Equal(t, tc.message, decodeError(t, rec).ErrDetails.Message)
			serviceMock.AssertExpectations(t)
		})
	}
}
