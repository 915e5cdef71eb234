package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "BUILDER_QUEUE", "WORKER_CONCURRENCY", "BUILD_LOCK_TTL", "BUILD_ARGS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want %q", cfg.HTTPPort, "8080")
	}
	if cfg.BuilderQueue != "builder" {
		t.Errorf("BuilderQueue = %q, want %q", cfg.BuilderQueue, "builder")
	}
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	if cfg.BuildLockTTL != time.Hour {
		t.Errorf("BuildLockTTL = %v, want 1h", cfg.BuildLockTTL)
	}
	if cfg.BuildArgs != nil {
		t.Errorf("BuildArgs = %v, want nil", cfg.BuildArgs)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("REGISTRY", "registry.example.com:5000")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("BUILD_LOCK_TTL", "90m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("BUILD_ARGS", "PIP_INDEX=a,HTTP_PROXY=b")

	cfg := Load()
	if cfg.Registry != "registry.example.com:5000" {
		t.Errorf("Registry = %q", cfg.Registry)
	}
	if cfg.WorkerConcurrency != 8 {
		t.Errorf("WorkerConcurrency = %d, want 8", cfg.WorkerConcurrency)
	}
	if cfg.BuildLockTTL != 90*time.Minute {
		t.Errorf("BuildLockTTL = %v, want 90m", cfg.BuildLockTTL)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("RedisDB = %d, want 3", cfg.RedisDB)
	}
	if len(cfg.BuildArgs) != 2 || cfg.BuildArgs[0] != "PIP_INDEX=a" || cfg.BuildArgs[1] != "HTTP_PROXY=b" {
		t.Errorf("BuildArgs = %v", cfg.BuildArgs)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "many")
	t.Setenv("BUILD_LOCK_TTL", "forever")
	cfg := Load()
	if cfg.WorkerConcurrency != 4 {
		t.Errorf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	if cfg.BuildLockTTL != time.Hour {
		t.Errorf("BuildLockTTL = %v, want 1h", cfg.BuildLockTTL)
	}
}
