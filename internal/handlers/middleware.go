package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// sessionMiddleware gates the API on an active operator session. The console
// itself holds the backend bearer token; the browser UI only needs to be
// logged in against this process.
func (h *Handler) sessionMiddleware(c *gin.Context) {
	user, active := h.services.Auth.Current()
	if !active {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "not logged in",
		})
		return
	}
	c.Set("user", user)
	c.Next()
}
