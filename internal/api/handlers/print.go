package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"printbridge/internal/bridge"
	"printbridge/internal/queue"
)

// PrintRequest mirrors the payload browsers post: one entry per document.
type PrintRequest struct {
	FileURL   string `json:"fileUrl" binding:"required"`
	FileName  string `json:"fileName"`
	Landscape bool   `json:"landscape"`
}

type PrintHandler struct {
	service *bridge.Service
	log     *zap.Logger
}

func NewPrintHandler(service *bridge.Service, log *zap.Logger) *PrintHandler {
	return &PrintHandler{service: service, log: log}
}

// SubmitBatch accepts a batch of print requests and acknowledges it as soon
// as it is scheduled; printing proceeds asynchronously.
func (h *PrintHandler) SubmitBatch(c *gin.Context) {
	var reqs []PrintRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":   false,
			"error":     "Invalid print data",
			"timestamp": time.Now().UnixMilli(),
		})
		return
	}

	jobs := make([]queue.Job, 0, len(reqs))
	for _, req := range reqs {
		jobs = append(jobs, queue.Job{
			ID:          uuid.NewString(),
			SourceURL:   strings.TrimSpace(req.FileURL),
			DisplayName: req.FileName,
			Landscape:   req.Landscape,
			SubmittedAt: time.Now(),
		})
	}

	if err := h.service.SubmitBatch(jobs, false); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bridge.ErrEmptyBatch) || errors.Is(err, bridge.ErrBlankSource) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{
			"success":   false,
			"error":     err.Error(),
			"timestamp": time.Now().UnixMilli(),
		})
		return
	}

	h.log.Info("print batch accepted", zap.Int("jobs", len(jobs)))

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "print batch accepted",
		"accepted":  len(jobs),
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *PrintHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/print", h.SubmitBatch)
}
