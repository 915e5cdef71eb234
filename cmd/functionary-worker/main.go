package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/catattack05/functionary/internal/adapter/buildfile"
	"github.com/catattack05/functionary/internal/adapter/docker"
	"github.com/catattack05/functionary/internal/adapter/rabbitmq"
	"github.com/catattack05/functionary/internal/adapter/redislock"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.ServiceName + "-worker",
		Endpoint:    cfg.OTLPEndpoint,
		LogLevel:    cfg.LogLevel,
	})
	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "error", err)
		}
	}()

	if err := run(ctx, cfg); err != nil {
		slog.Error("worker stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// 数据库
	db, err := repository.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	// Docker 守护进程
	engine, dockerClient, err := docker.NewEngine(docker.Config{
		Registry:         cfg.Registry,
		RegistryUsername: cfg.RegistryUsername,
		RegistryPassword: cfg.RegistryPassword,
		BuildArgs:        cfg.BuildArgs,
	})
	if err != nil {
		return err
	}
	defer dockerClient.Close()

	renderer, err := buildfile.NewRenderer()
	if err != nil {
		return err
	}

	// 构建锁
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	orchestrator := service.NewBuildOrchestrator(
		repository.NewRepositories(db),
		repository.NewTransactor(db),
		engine,
		renderer,
		service.OrchestratorConfig{
			Registry:    cfg.Registry,
			WorkdirBase: cfg.BuilderWorkdirBase,
		},
	)
	worker := service.NewBuildWorker(orchestrator, redislock.New(rdb, cfg.BuildLockTTL))
	pool := service.NewWorkerPool(cfg.WorkerConcurrency, worker.Handle)

	// 构建队列
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return err
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	slog.Info("worker starting", "queue", cfg.BuilderQueue, "concurrency", pool.Size(), "languages", renderer.Languages())
	err = rabbitmq.NewConsumer(ch, cfg.BuilderQueue).Start(ctx, pool)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
