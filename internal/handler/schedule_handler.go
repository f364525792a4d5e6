package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/service"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
	"github.com/novaticstar/hoosgottime/pkg/response"
)

type schedulePlanner interface {
	Run(ctx context.Context, userID string, req dto.RunScheduleRequest) (*dto.ScheduleResponse, error)
	Get(ctx context.Context, userID string, query dto.ScheduleQuery) (*dto.ScheduleResponse, error)
	Export(ctx context.Context, userID, format string, query dto.ScheduleQuery) ([]byte, string, error)
}

// ScheduleHandler exposes planning and schedule read endpoints.
type ScheduleHandler struct {
	service schedulePlanner
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Run godoc
// @Summary Rebuild the schedule for the coming days
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body dto.RunScheduleRequest false "Horizon override"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule/run [post]
func (h *ScheduleHandler) Run(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.RunScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule request"))
		return
	}
	resp, err := h.service.Run(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Get godoc
// @Summary Fetch the planned schedule for a window
// @Tags Schedule
// @Produce json
// @Param from query string false "Window start (YYYY-MM-DD, defaults to today)"
// @Param days query int false "Window length in days"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return
	}
	resp, err := h.service.Get(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Export godoc
// @Summary Export the schedule window as CSV or PDF
// @Tags Schedule
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "Export format (csv or pdf)"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param days query int false "Window length in days"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule query"))
		return
	}
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.service.Export(c.Request.Context(), claims.UserID, format, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("schedule-%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
