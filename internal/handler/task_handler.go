package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/models"
	"github.com/novaticstar/hoosgottime/internal/service"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
	"github.com/novaticstar/hoosgottime/pkg/response"
)

type taskManager interface {
	Create(ctx context.Context, userID string, req dto.CreateTaskRequest) (*models.Task, error)
	List(ctx context.Context, userID string, query dto.TaskQuery) ([]models.Task, error)
}

type taskCompleter interface {
	Complete(ctx context.Context, userID, taskID string, req dto.CompleteTaskRequest) (*dto.CompleteTaskResponse, error)
}

// TaskHandler exposes task endpoints.
type TaskHandler struct {
	tasks      taskManager
	completion taskCompleter
}

// NewTaskHandler constructs the handler.
func NewTaskHandler(tasks *service.TaskService, completion *service.CompletionService) *TaskHandler {
	return &TaskHandler{tasks: tasks, completion: completion}
}

// Create godoc
// @Summary Add a task to the backlog
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}
	task, err := h.tasks.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param status query string false "Filter by status"
// @Param courseId query string false "Filter by course"
// @Param atRisk query bool false "Filter by at-risk flag"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var query dto.TaskQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task query"))
		return
	}
	tasks, err := h.tasks.List(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks)
}

// Complete godoc
// @Summary Log a working session, optionally completing the task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.CompleteTaskRequest true "Session payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid completion payload"))
		return
	}
	resp, err := h.completion.Complete(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
