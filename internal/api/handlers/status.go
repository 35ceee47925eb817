package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"printbridge/internal/bridge"
	"printbridge/internal/status"
)

type StatusHandler struct {
	status  *status.Service
	service *bridge.Service
	printer PrinterLister
}

// PrinterLister enumerates printers for display only.
type PrinterLister interface {
	AvailablePrinters() ([]string, error)
}

func NewStatusHandler(st *status.Service, service *bridge.Service, printer PrinterLister) *StatusHandler {
	return &StatusHandler{status: st, service: service, printer: printer}
}

func (h *StatusHandler) Health(c *gin.Context) {
	state, _ := h.status.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   "printbridge",
		"state":     state.String(),
		"office":    h.service.OfficeAvailable(),
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *StatusHandler) GetStatus(c *gin.Context) {
	state, message := h.status.Current()
	c.JSON(http.StatusOK, gin.H{
		"state":   state.String(),
		"message": message,
	})
}

func (h *StatusHandler) GetPrinters(c *gin.Context) {
	names, err := h.printer.AvailablePrinters()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed to list printers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"printers": names})
}

func (h *StatusHandler) RegisterRoutes(r *gin.Engine, api *gin.RouterGroup) {
	r.GET("/health", h.Health)
	api.GET("/status", h.GetStatus)
	api.GET("/printers", h.GetPrinters)
}
