// Package api exposes the HTTP ingress and management surface.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printbridge/internal/api/handlers"
	"printbridge/internal/api/middleware"
	"printbridge/internal/bridge"
	"printbridge/internal/config"
	"printbridge/internal/queue"
	"printbridge/internal/status"
)

// Server owns the HTTP listener and drives the service status state machine
// through its lifecycle: STARTING on construction, RUNNING on a successful
// bind, ERROR on bind failure, STOPPED on shutdown.
type Server struct {
	cfg     *config.ServerConfig
	status  *status.Service
	log     *zap.Logger
	httpSrv *http.Server
}

type Deps struct {
	Bridge  *bridge.Service
	Queue   *queue.Model
	Status  *status.Service
	Printer handlers.PrinterLister
	Auth    *middleware.AuthMiddleware
	Log     *zap.Logger
}

func NewServer(cfg *config.ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	printHandler := handlers.NewPrintHandler(deps.Bridge, deps.Log)
	queueHandler := handlers.NewQueueHandler(deps.Queue)
	statusHandler := handlers.NewStatusHandler(deps.Status, deps.Bridge, deps.Printer)

	printHandler.RegisterRoutes(router)

	router.POST("/api/auth/login", deps.Auth.LoginHandler)
	router.POST("/api/auth/logout", deps.Auth.LogoutHandler)

	apiGroup := router.Group("/api", deps.Auth.RequireAuth())
	queueHandler.RegisterRoutes(apiGroup)
	statusHandler.RegisterRoutes(router, apiGroup)

	return &Server{
		cfg:    cfg,
		status: deps.Status,
		log:    deps.Log,
		httpSrv: &http.Server{
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start binds the listener and begins serving in the background. The status
// service observes the outcome of the bind.
func (s *Server) Start() error {
	s.status.Set(status.Starting, "")

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.status.Set(status.Error, fmt.Sprintf("failed to bind %s: %v", addr, err))
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.status.Set(status.Running, fmt.Sprintf("listening on %s", addr))
	s.log.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.status.Set(status.Error, err.Error())
			s.log.Error("http server failed", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown drains in-flight requests and marks the service stopped.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	s.status.Set(status.Stopped, "")
	return err
}
