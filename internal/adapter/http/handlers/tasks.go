package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/AmimerNabil/achieveai/internal/adapter/http/dto"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/mapper"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/middleware"
	"github.com/AmimerNabil/achieveai/internal/adapter/http/validation"
	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
	"github.com/AmimerNabil/achieveai/pkg/apierrors"
)

const maxTaskBodyBytes = 1 << 20

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(c.Request.Context(), owner)
	if err != nil {
		h.fail(c, err, apierrors.MsgFailListTask, "failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItems(tasks))
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), owner, taskID(c))
	if err != nil {
		h.fail(c, err, apierrors.MsgFailGetTask, "failed to get task")
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItem(task))
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	raw, err := bindTaskPayload(c, &req)
	if err != nil {
		invalidPayload(c)
		return
	}

	input, err := validation.BuildCreateTaskInput(req, raw)
	if err != nil {
		invalidPayload(c)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), owner, input)
	if err != nil {
		h.fail(c, err, apierrors.MsgFailCreateTask, "failed to create task")
		return
	}

	c.JSON(http.StatusCreated, mapper.ToTaskItem(task))
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	raw, err := bindTaskPayload(c, &req)
	if err != nil {
		invalidPayload(c)
		return
	}

	input, err := validation.BuildUpdateTaskInput(req, raw)
	if err != nil {
		invalidPayload(c)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), owner, taskID(c), input)
	if err != nil {
		h.fail(c, err, apierrors.MsgFailUpdateTask, "failed to update task")
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItem(task))
}

func (h *TaskHandler) UpdateTaskTime(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	var req dto.UpdateTimeRequest
	if _, err := bindTaskPayload(c, &req); err != nil {
		invalidPayload(c)
		return
	}

	task, err := h.taskService.UpdateTimeSpent(c.Request.Context(), owner, taskID(c), *req.TimeSpent)
	if err != nil {
		h.fail(c, err, apierrors.MsgFailUpdateTime, "failed to update time spent")
		return
	}

	c.JSON(http.StatusOK, mapper.ToTaskItem(task))
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	owner, ok := requireOwner(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), owner, taskID(c)); err != nil {
		h.fail(c, err, apierrors.MsgFailDeleteTask, "failed to delete task")
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: apierrors.GetTransErrorMsg(apierrors.MsgTaskDeleted, middleware.GetLang(c)),
	})
}

// fail maps service errors onto the API error taxonomy. Storage errors are
// logged and answered with a generic translated message.
func (h *TaskHandler) fail(c *gin.Context, err error, failKey string, logMessage string) {
	lang := middleware.GetLang(c)

	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		c.JSON(
			http.StatusNotFound,
			apierrors.CreateError(http.StatusNotFound, apierrors.MsgTaskNotFound, lang),
		)
	case errors.Is(err, domain.ErrInvalidTask):
		invalidPayload(c)
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(
			http.StatusUnauthorized,
			apierrors.CreateError(http.StatusUnauthorized, apierrors.MsgUnauthorized, lang),
		)
	default:
		zap.L().Error(logMessage,
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("task_id", c.Param("id")),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(
			http.StatusInternalServerError,
			apierrors.CreateError(http.StatusInternalServerError, failKey, lang),
		)
	}
}

func requireOwner(c *gin.Context) (string, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(
			http.StatusUnauthorized,
			apierrors.CreateError(http.StatusUnauthorized, apierrors.MsgUnauthorized, middleware.GetLang(c)),
		)
		return "", false
	}
	return identity.Subject, true
}

func taskID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func invalidPayload(c *gin.Context) {
	c.JSON(
		http.StatusBadRequest,
		apierrors.CreateError(http.StatusBadRequest, apierrors.MsgInvalidTaskPayload, middleware.GetLang(c)),
	)
}

// bindTaskPayload decodes the body into req and also returns the raw object so
// callers can tell an absent field from an explicit null.
func bindTaskPayload(c *gin.Context, req any) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTaskBodyBytes))
	if err != nil {
		return nil, err
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, req); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	return raw, nil
}
