package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/channelpass/internal/server/http/middleware"
)

// RequestID extracts the request identifier assigned by middleware.
func RequestID(c *gin.Context) string {
	val, ok := c.Get(middleware.RequestIDContextKey)
	if !ok {
		return ""
	}
	id, _ := val.(string)
	return id
}

// CurrentAuditor extracts the authenticated audit user from context.
func CurrentAuditor(c *gin.Context) string {
	val, ok := c.Get(middleware.AuditorContextKey)
	if !ok {
		return ""
	}
	user, _ := val.(string)
	return user
}
