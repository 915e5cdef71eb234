package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/catattack05/functionary/internal/port"
)

// ErrBuildLocked 表示同一 build 已经有 worker 在执行。
var ErrBuildLocked = errors.New("build is already being processed")

// BuildRunner 执行一次构建，*BuildOrchestrator 实现了它。
type BuildRunner interface {
	Run(ctx context.Context, buildID string) error
}

// BuildWorker 在执行构建前获取分布式锁，并合并本进程内对同一 build 的重复投递。
type BuildWorker struct {
	runner BuildRunner
	locker port.BuildLocker
	group  singleflight.Group
}

func NewBuildWorker(runner BuildRunner, locker port.BuildLocker) *BuildWorker {
	return &BuildWorker{runner: runner, locker: locker}
}

// Handle 满足 port.BuildHandler。
func (w *BuildWorker) Handle(ctx context.Context, buildID string) error {
	_, err, shared := w.group.Do(buildID, func() (any, error) {
		return nil, w.run(ctx, buildID)
	})
	if shared {
		slog.Info("duplicate build delivery joined in-flight run", "build_id", buildID)
	}
	return err
}

func (w *BuildWorker) run(ctx context.Context, buildID string) error {
	if w.locker == nil {
		return w.runner.Run(ctx, buildID)
	}
	unlock, ok, err := w.locker.TryLock(ctx, buildID)
	if err != nil {
		return err
	}
	if !ok {
		slog.Warn("build is locked by another worker, dropping delivery", "build_id", buildID)
		return ErrBuildLocked
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("failed to release build lock", "build_id", buildID, "error", err)
		}
	}()
	return w.runner.Run(ctx, buildID)
}

// Task 是一条待处理的构建投递。Done 在处理结束后调用一次，用于确认消息。
type Task struct {
	BuildID string
	Done    func(err error)
}

// WorkerPool 以固定并发度执行构建任务。
type WorkerPool struct {
	size    int
	handler port.BuildHandler
}

func NewWorkerPool(size int, handler port.BuildHandler) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{size: size, handler: handler}
}

func (p *WorkerPool) Size() int { return p.size }

// Run 持续消费 tasks，直到 tasks 关闭或 ctx 取消，然后等待在途任务结束。
// 在途构建不随 ctx 取消而中断。
func (p *WorkerPool) Run(ctx context.Context, tasks <-chan Task) error {
	var g errgroup.Group
	g.SetLimit(p.size)
	runCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case t, ok := <-tasks:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				err := p.handler(runCtx, t.BuildID)
				if err != nil {
					slog.Error("build task failed", "build_id", t.BuildID, "error", err)
				}
				if t.Done != nil {
					t.Done(err)
				}
				return nil
			})
		}
	}
}
