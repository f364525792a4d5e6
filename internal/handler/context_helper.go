package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/novaticstar/hoosgottime/internal/middleware"
	"github.com/novaticstar/hoosgottime/internal/models"
	appErrors "github.com/novaticstar/hoosgottime/pkg/errors"
	"github.com/novaticstar/hoosgottime/pkg/response"
)

// currentUser returns the claims the JWT middleware stored on the request.
// When they are missing or malformed the 401 is written here, so handlers
// only need the ok check before touching user-scoped data.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}
