package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"printbridge/internal/api"
	"printbridge/internal/api/middleware"
	"printbridge/internal/bridge"
	"printbridge/internal/config"
	"printbridge/internal/convert"
	"printbridge/internal/fetch"
	"printbridge/internal/logger"
	"printbridge/internal/printer"
	"printbridge/internal/queue"
	"printbridge/internal/status"
	"printbridge/internal/webhook"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "printbridge.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&cfg.Logging)
	defer log.Sync()

	log.Info("starting printbridge", zap.Int("port", cfg.Server.Port))

	statusSvc := status.NewService()
	queueModel := queue.NewModel()

	sender := webhook.NewSender(&cfg.Webhooks, log.Named("webhook"))
	sender.Start()
	defer sender.Stop()

	cancelStatusHook := statusSvc.Subscribe(func(state status.State, message string) {
		sender.SendStatusChanged(state.String(), message)
	})
	defer cancelStatusHook()

	fetcher := fetch.NewClient(&cfg.Fetch)

	engine := convert.NewOfficeEngine(&cfg.Office, log.Named("office"))
	if err := engine.Start(); err != nil {
		log.Error("failed to start office engine", zap.Error(err))
	}
	defer engine.Stop()

	images := convert.NewImageConverter(fetcher, log.Named("image"))
	office := convert.NewOfficeConverter(fetcher, engine, log.Named("office"))
	printEngine := printer.NewEngine(&cfg.Printer, nil, log.Named("printer"))

	service := bridge.NewService(queueModel, fetcher, images, office, printEngine, sender, log.Named("bridge"))
	service.LogSupportedFormats()

	server := api.NewServer(&cfg.Server, api.Deps{
		Bridge:  service,
		Queue:   queueModel,
		Status:  statusSvc,
		Printer: printEngine,
		Auth:    middleware.NewAuthMiddleware(&cfg.Auth),
		Log:     log.Named("http"),
	})

	if err := server.Start(); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}

	log.Info("printbridge stopped")
}
