package handlers

import (
	"net/http"
	"time"

	"incubator_console/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Command audit trail
// @Description  Optional from/to (RFC3339) and type filters.
// @Tags         logs
// @Produce      json
// @Success      200  {array}   models.CommandEvent
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	var f service.LogFilter

	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from': " + err.Error()})
			return
		}
		f.From = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to': " + err.Error()})
			return
		}
		f.To = t
	}
	f.Type = c.Query("type")

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}
