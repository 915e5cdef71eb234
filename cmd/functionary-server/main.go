package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	httpadapter "github.com/catattack05/functionary/internal/adapter/http"
	"github.com/catattack05/functionary/internal/adapter/rabbitmq"
	"github.com/catattack05/functionary/internal/adapter/repository"
	"github.com/catattack05/functionary/internal/config"
	"github.com/catattack05/functionary/internal/service"
	"github.com/catattack05/functionary/internal/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	cfg := config.Load()

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.ServiceName + "-server",
		Endpoint:    cfg.OTLPEndpoint,
		LogLevel:    cfg.LogLevel,
	})
	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	// 数据库
	db, err := repository.OpenDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open db", "error", err)
		os.Exit(1)
	}

	// 构建队列
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		slog.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		slog.Error("failed to open rabbitmq channel", "error", err)
		os.Exit(1)
	}
	defer ch.Close()
	publisher, err := rabbitmq.NewPublisher(ch, cfg.BuilderQueue)
	if err != nil {
		slog.Error("failed to declare builder queue", "queue", cfg.BuilderQueue, "error", err)
		os.Exit(1)
	}

	// 服务层
	publishSvc := service.NewPublishService(repository.NewTransactor(db), publisher)
	querySvc := service.NewBuildQueryService(repository.NewRepositories(db))

	// HTTP 路由
	handler := httpadapter.NewRouter(
		httpadapter.NewPublishHandler(publishSvc),
		httpadapter.NewBuildHandler(querySvc),
		httpadapter.NewPackageHandler(querySvc),
		httpadapter.RouterConfig{
			APIToken:       cfg.APIToken,
			MaxPackageSize: cfg.MaxPackageSize,
		},
	)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: handler,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}
}
