package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Oludefiyinfoluwa06/smarti-website/internal/middleware"
	"github.com/Oludefiyinfoluwa06/smarti-website/internal/models"
)

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

func sessionFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextSessionKey)
	if !exists {
		return ""
	}
	sessionID, _ := value.(string)
	return sessionID
}
