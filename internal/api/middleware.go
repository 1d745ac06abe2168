package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/plantlog/plantlog-server/internal/models"
	"github.com/plantlog/plantlog-server/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token
const SessionCookieName = "plantlog_session"

// sessionToken pulls the session evidence off the request: the
// Authorization header wins, then the session cookie.
func sessionToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie
}

// AuthMiddleware returns a Gin middleware for authentication. Every plant
// and event route goes through it; there is no anonymous read path. A
// request that cannot be resolved to a live session is rejected before
// any handler runs.
func AuthMiddleware(svc service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Authentication required",
			})
			c.Abort()
			return
		}

		user, err := svc.ResolveSession(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: "Invalid or expired session",
			})
			c.Abort()
			return
		}

		// Set resolved identity in the context
		c.Set("userId", user.ID)
		c.Set("userEmail", user.Email)
		c.Next()
	}
}
