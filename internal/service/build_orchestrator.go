package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/catattack05/functionary/internal/archive"
	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
	"github.com/catattack05/functionary/internal/schema"
)

const instrumentationName = "github.com/catattack05/functionary/internal/service"

type OrchestratorConfig struct {
	Registry    string
	WorkdirBase string
}

// BuildOrchestrator 执行单个构建：CREATED → IN_PROGRESS → COMPLETE | ERROR。
// 构建与推送失败都会落库为 ERROR 状态和对应日志，不作为错误向上返回。
type BuildOrchestrator struct {
	repos    port.Repositories
	tx       port.Transactor
	engine   port.ContainerEngine
	renderer port.BuildFileRenderer
	cfg      OrchestratorConfig

	tracer trace.Tracer
	builds metric.Int64Counter
	now    func() time.Time
}

func NewBuildOrchestrator(
	repos port.Repositories,
	tx port.Transactor,
	engine port.ContainerEngine,
	renderer port.BuildFileRenderer,
	cfg OrchestratorConfig,
) *BuildOrchestrator {
	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"functionary.builds",
		metric.WithDescription("Builds that reached a terminal status"),
	)
	if err != nil {
		slog.Warn("failed to create build counter", "error", err)
	}
	return &BuildOrchestrator{
		repos:    repos,
		tx:       tx,
		engine:   engine,
		renderer: renderer,
		cfg:      cfg,
		tracer:   otel.Tracer(instrumentationName),
		builds:   counter,
		now:      time.Now,
	}
}

// target 是一次构建准备提交的包与函数，成功提交前只存在于内存。
type target struct {
	pkg       *domain.Package
	isNew     bool
	functions []*domain.Function
	imageName string
}

// outcome 是构建与推送的结果。failed 为 true 时 log 是失败原因。
type outcome struct {
	failed bool
	log    string
}

// Run 执行 buildID 对应的构建。只接受 CREATED 状态的构建，不支持重试与续跑。
// 返回错误仅表示无法加载或无法落库的基础设施故障。
func (o *BuildOrchestrator) Run(ctx context.Context, buildID string) error {
	ctx, span := o.tracer.Start(ctx, "build.run", trace.WithAttributes(attribute.String("build.id", buildID)))
	defer span.End()
	log := slog.With("build_id", buildID)

	build, err := o.repos.Builds.FindByID(ctx, buildID)
	if err != nil {
		return o.spanError(span, fmt.Errorf("load build: %w", err))
	}
	res, err := o.repos.Resources.FindByBuildID(ctx, buildID)
	if err != nil {
		return o.spanError(span, fmt.Errorf("load build resource: %w", err))
	}
	if err := build.TransitionTo(domain.BuildStatusInProgress, o.now()); err != nil {
		return o.spanError(span, err)
	}
	if err := o.repos.Builds.Update(ctx, build); err != nil {
		return o.spanError(span, fmt.Errorf("mark build in progress: %w", err))
	}
	log.Info("build started", "package", res.PackageDefinition.Name, "environment", build.EnvironmentID)

	workdir := filepath.Join(o.cfg.WorkdirBase, build.ID)
	var image port.ImageHandle
	defer o.cleanup(context.WithoutCancel(ctx), log, workdir, &image)

	tgt, err := o.resolve(ctx, build, res.PackageDefinition)
	if err != nil {
		return o.finish(ctx, span, log, build, nil, outcome{failed: true, log: err.Error()})
	}

	var out outcome
	image, out = o.buildAndPush(ctx, workdir, res, tgt)
	return o.finish(ctx, span, log, build, tgt, out)
}

// resolve 查找或构造目标包，并为每个函数生成 schema。任何校验失败都发生在构建之前。
func (o *BuildOrchestrator) resolve(ctx context.Context, build *domain.Build, def *domain.PackageDefinition) (*target, error) {
	ctx, span := o.tracer.Start(ctx, "build.resolve")
	defer span.End()

	imageName, err := domain.ImageName(build.EnvironmentID, def)
	if err != nil {
		return nil, err
	}

	now := o.now()
	tgt := &target{imageName: imageName}
	pkg, err := o.repos.Packages.FindByEnvironmentAndName(ctx, build.EnvironmentID, def.Name)
	switch {
	case err == nil:
		tgt.pkg = pkg
	case errors.Is(err, domain.ErrNotFound):
		tgt.isNew = true
		tgt.pkg = &domain.Package{
			ID:            uuid.New().String(),
			EnvironmentID: build.EnvironmentID,
			CreatedAt:     now,
		}
	default:
		return nil, fmt.Errorf("find package: %w", err)
	}
	tgt.pkg.ApplyDefinition(def)
	tgt.pkg.UpdatedAt = now

	for _, fd := range def.Functions {
		var fn *domain.Function
		if !tgt.isNew {
			fn, err = o.repos.Functions.FindByPackageAndName(ctx, tgt.pkg.ID, fd.Name)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("find function %s: %w", fd.Name, err)
			}
		}
		if fn == nil {
			fn = &domain.Function{ID: uuid.New().String(), PackageID: tgt.pkg.ID, CreatedAt: now}
		}
		fn.ApplyDefinition(fd)
		fn.UpdatedAt = now

		s, err := schema.Generate(fd)
		if err != nil {
			return nil, err
		}
		if fn.Schema, err = s.JSON(); err != nil {
			return nil, err
		}
		tgt.functions = append(tgt.functions, fn)
	}
	return tgt, nil
}

func (o *BuildOrchestrator) buildAndPush(ctx context.Context, workdir string, res *domain.BuildResource, tgt *target) (port.ImageHandle, outcome) {
	if err := o.materialize(ctx, workdir, res); err != nil {
		return port.ImageHandle{}, outcome{failed: true, log: err.Error()}
	}

	ref := domain.FullImageRef(o.cfg.Registry, tgt.imageName)
	buildCtx, span := o.tracer.Start(ctx, "build.image", trace.WithAttributes(attribute.String("image", ref)))
	image, buildLog, err := o.engine.Build(buildCtx, workdir, ref)
	span.End()
	if err != nil {
		var failure *domain.BuildFailure
		if errors.As(err, &failure) {
			return image, outcome{failed: true, log: failure.Log}
		}
		return image, outcome{failed: true, log: err.Error()}
	}

	pushCtx, span := o.tracer.Start(ctx, "build.push", trace.WithAttributes(attribute.String("image", ref)))
	pushLog, err := o.engine.Push(pushCtx, ref)
	span.End()
	if err != nil {
		return image, outcome{failed: true, log: err.Error()}
	}
	return image, outcome{log: combineLogs(buildLog, pushLog)}
}

// materialize 准备工作目录：解压归档并渲染 Dockerfile。
func (o *BuildOrchestrator) materialize(ctx context.Context, workdir string, res *domain.BuildResource) error {
	_, span := o.tracer.Start(ctx, "build.materialize")
	defer span.End()

	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	if err := archive.Extract(res.PackageContents, workdir); err != nil {
		return err
	}
	dockerfile, err := o.renderer.Render(domain.BuildFileName(res.PackageDefinition.Language), port.BuildFileData{
		Registry: o.cfg.Registry,
		Package:  res.PackageDefinition,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(workdir, "Dockerfile"), dockerfile, 0o644); err != nil {
		return fmt.Errorf("write Dockerfile: %w", err)
	}
	return nil
}

// finish 在一个事务内写入终态。成功提交失败时退回失败提交，保证构建最终有日志。
func (o *BuildOrchestrator) finish(ctx context.Context, span trace.Span, log *slog.Logger, build *domain.Build, tgt *target, out outcome) error {
	ctx, commitSpan := o.tracer.Start(ctx, "build.commit")
	defer commitSpan.End()

	if !out.failed {
		err := o.commitSuccess(ctx, build, tgt, out.log)
		if err == nil {
			o.record(ctx, domain.BuildStatusComplete)
			log.Info("build complete", "image", tgt.imageName)
			return nil
		}
		log.Error("failed to commit successful build", "error", err)
		out = outcome{failed: true, log: fmt.Sprintf("%s\nCOMMIT FAILED:\n%v", out.log, err)}
	}

	if err := o.commitFailure(ctx, build, out.log); err != nil {
		log.Error("failed to record build failure", "error", err)
		return o.spanError(span, fmt.Errorf("record build failure: %w", err))
	}
	o.record(ctx, domain.BuildStatusError)
	span.SetStatus(codes.Error, "build failed")
	log.Warn("build failed")
	return nil
}

func (o *BuildOrchestrator) commitSuccess(ctx context.Context, build *domain.Build, tgt *target, combined string) error {
	b := *build
	return o.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		pkg, err := o.savePackage(ctx, repos, tgt)
		if err != nil {
			return err
		}
		for _, fn := range tgt.functions {
			fn.PackageID = pkg.ID
			if err := repos.Functions.Save(ctx, fn); err != nil {
				return fmt.Errorf("save function %s: %w", fn.Name, err)
			}
		}

		b.PackageID = pkg.ID
		if err := b.TransitionTo(domain.BuildStatusComplete, o.now()); err != nil {
			return err
		}
		if err := repos.Builds.Update(ctx, &b); err != nil {
			return fmt.Errorf("update build: %w", err)
		}
		return repos.Logs.Create(ctx, &domain.BuildLog{BuildID: b.ID, Log: combined, CreatedAt: o.now()})
	})
}

// savePackage 写入包并设置 ImageName。新包插入遇到 (environment, name) 冲突时，
// 读取并发构建已创建的包，把函数重新挂到它上面后再更新一次。
func (o *BuildOrchestrator) savePackage(ctx context.Context, repos port.Repositories, tgt *target) (*domain.Package, error) {
	pkg := *tgt.pkg
	pkg.ImageName = tgt.imageName
	if !tgt.isNew {
		return &pkg, repos.Packages.Update(ctx, &pkg)
	}

	err := repos.Packages.Create(ctx, &pkg)
	if err == nil {
		return &pkg, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return nil, fmt.Errorf("create package: %w", err)
	}

	winner, err := repos.Packages.FindByEnvironmentAndName(ctx, pkg.EnvironmentID, pkg.Name)
	if err != nil {
		return nil, fmt.Errorf("reload package after conflict: %w", err)
	}
	winner.Name, winner.Version, winner.Language = pkg.Name, pkg.Version, pkg.Language
	winner.DisplayName, winner.Summary, winner.Description = pkg.DisplayName, pkg.Summary, pkg.Description
	winner.ImageName = pkg.ImageName
	winner.UpdatedAt = pkg.UpdatedAt
	for _, fn := range tgt.functions {
		existing, err := repos.Functions.FindByPackageAndName(ctx, winner.ID, fn.Name)
		switch {
		case err == nil:
			fn.ID = existing.ID
			fn.CreatedAt = existing.CreatedAt
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("find function %s: %w", fn.Name, err)
		}
	}
	if err := repos.Packages.Update(ctx, winner); err != nil {
		return nil, fmt.Errorf("update package: %w", err)
	}
	return winner, nil
}

func (o *BuildOrchestrator) commitFailure(ctx context.Context, build *domain.Build, message string) error {
	b := *build
	return o.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		if err := b.TransitionTo(domain.BuildStatusError, o.now()); err != nil {
			return err
		}
		if err := repos.Builds.Update(ctx, &b); err != nil {
			return fmt.Errorf("update build: %w", err)
		}
		return repos.Logs.Create(ctx, &domain.BuildLog{BuildID: b.ID, Log: message, CreatedAt: o.now()})
	})
}

// cleanup 删除本地镜像和工作目录，失败只记录日志。
func (o *BuildOrchestrator) cleanup(ctx context.Context, log *slog.Logger, workdir string, image *port.ImageHandle) {
	log.Debug("cleaning up build remnants", "workdir", workdir)
	if !image.IsZero() {
		if err := o.engine.RemoveImage(ctx, *image); err != nil {
			log.Warn("failed to remove image", "image", image.Tag, "error", err)
		}
	}
	if err := os.RemoveAll(workdir); err != nil {
		log.Warn("failed to remove workdir", "workdir", workdir, "error", err)
	}
}

func (o *BuildOrchestrator) record(ctx context.Context, status domain.BuildStatus) {
	if o.builds == nil {
		return
	}
	o.builds.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
}

func (o *BuildOrchestrator) spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func combineLogs(buildLog, pushLog string) string {
	return "BUILD RESULTS:\n" + buildLog + "\nPUSH RESULTS:\n" + pushLog
}
