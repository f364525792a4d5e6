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

type courseManager interface {
	Create(ctx context.Context, userID string, req dto.CreateCourseRequest) (*models.Course, error)
	List(ctx context.Context, userID string) ([]models.Course, error)
}

// CourseHandler exposes course endpoints.
type CourseHandler struct {
	service courseManager
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// Create godoc
// @Summary Register a course with its weekly meetings
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	courses, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses)
}
