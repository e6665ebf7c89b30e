package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sistem-rt/portal-api/internal/middleware"
	"github.com/sistem-rt/portal-api/internal/models"
)

// claimsFromContext returns the authenticated resident's claims, or nil when
// the JWT middleware did not run on the route.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
