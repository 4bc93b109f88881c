package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/middleware"
)

// sessionFrom fetches the bootstrapped session or answers 401.
func sessionFrom(c *gin.Context) (*core.Session, bool) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication error: session not found in context"})
		return nil, false
	}
	return sess, true
}
