package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"printbridge/internal/queue"
)

type QueueHandler struct {
	model *queue.Model
}

func NewQueueHandler(model *queue.Model) *QueueHandler {
	return &QueueHandler{model: model}
}

func (h *QueueHandler) GetQueue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"succeeded": h.model.Succeeded(),
		"failed":    h.model.Failed(),
		"size":      h.model.Size(),
		"empty":     h.model.IsEmpty(),
	})
}

// GetSucceeded returns the succeeded collection, optionally restricted to a
// comma-separated list of indices.
func (h *QueueHandler) GetSucceeded(c *gin.Context) {
	raw := c.Query("indices")
	if raw == "" {
		c.JSON(http.StatusOK, gin.H{"jobs": h.model.Succeeded()})
		return
	}

	parts := strings.Split(raw, ",")
	indices := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index: " + p})
			return
		}
		indices = append(indices, i)
	}

	c.JSON(http.StatusOK, gin.H{"jobs": h.model.SucceededAt(indices)})
}

func (h *QueueHandler) ClearSucceeded(c *gin.Context) {
	h.model.ClearSucceeded()
	c.JSON(http.StatusOK, gin.H{"message": "queue cleared"})
}

func (h *QueueHandler) ClearFailed(c *gin.Context) {
	h.model.ClearFailed()
	c.JSON(http.StatusOK, gin.H{"message": "failed jobs cleared"})
}

func (h *QueueHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/queue", h.GetQueue)
	r.GET("/queue/succeeded", h.GetSucceeded)
	r.DELETE("/queue/succeeded", h.ClearSucceeded)
	r.DELETE("/queue/failed", h.ClearFailed)
}
