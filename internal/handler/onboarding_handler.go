package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/novaticstar/hoosgottime/internal/dto"
	"github.com/novaticstar/hoosgottime/internal/service"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
	"github.com/novaticstar/hoosgottime/pkg/response"
)

type onboarder interface {
	Save(ctx context.Context, userID string, req dto.OnboardingRequest) (*dto.SettingsResponse, error)
	Get(ctx context.Context, userID string) (*dto.SettingsResponse, error)
}

// OnboardingHandler exposes the settings endpoints.
type OnboardingHandler struct {
	service onboarder
}

// NewOnboardingHandler constructs the handler.
func NewOnboardingHandler(svc *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{service: svc}
}

// Save godoc
// @Summary Save scheduling settings and meal windows
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param payload body dto.OnboardingRequest true "Onboarding payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /onboarding [put]
func (h *OnboardingHandler) Save(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid onboarding payload"))
		return
	}
	resp, err := h.service.Save(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Get godoc
// @Summary Fetch scheduling settings
// @Tags Onboarding
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /onboarding [get]
func (h *OnboardingHandler) Get(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	resp, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}
