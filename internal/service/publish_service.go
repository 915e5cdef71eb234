package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/catattack05/functionary/internal/archive"
	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
	"github.com/catattack05/functionary/internal/schema"
)

// PublishService 接收包归档，校验后创建 Build 并投递构建任务。
type PublishService struct {
	tx        port.Transactor
	publisher port.TaskPublisher
	now       func() time.Time
}

func NewPublishService(tx port.Transactor, publisher port.TaskPublisher) *PublishService {
	return &PublishService{
		tx:        tx,
		publisher: publisher,
		now:       time.Now,
	}
}

type PublishRequest struct {
	Creator       string
	EnvironmentID string
	Contents      []byte
}

// Publish 在创建任何记录之前完成归档与 schema 校验，失败同步返回。
// 任务投递发生在事务提交之后；投递失败时 Build 保持 CREATED 并返回错误。
func (s *PublishService) Publish(ctx context.Context, req PublishRequest) (*domain.Build, error) {
	if req.EnvironmentID == "" {
		return nil, fmt.Errorf("%w: environment is required", domain.ErrInvalidInput)
	}
	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("%w: package contents are empty", domain.ErrInvalidPackage)
	}

	m, err := archive.ReadManifest(req.Contents)
	if err != nil {
		return nil, err
	}
	def := m.Package
	if err := schema.ValidatePackage(def); err != nil {
		return nil, err
	}
	if _, err := domain.ImageName(req.EnvironmentID, def); err != nil {
		return nil, err
	}

	now := s.now()
	build := &domain.Build{
		ID:            uuid.New().String(),
		Creator:       req.Creator,
		EnvironmentID: req.EnvironmentID,
		Status:        domain.BuildStatusCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repositories) error {
		pkg, err := repos.Packages.FindByEnvironmentAndName(ctx, req.EnvironmentID, def.Name)
		switch {
		case err == nil:
			build.PackageID = pkg.ID
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if err := repos.Builds.Save(ctx, build); err != nil {
			return err
		}
		return repos.Resources.Save(ctx, &domain.BuildResource{
			BuildID:                  build.ID,
			PackageContents:          req.Contents,
			PackageDefinition:        def,
			PackageDefinitionVersion: m.Version,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create build: %w", err)
	}

	if err := s.publisher.PublishBuild(ctx, build.ID); err != nil {
		slog.Error("failed to enqueue build", "build_id", build.ID, "error", err)
		return build, fmt.Errorf("enqueue build %s: %w", build.ID, err)
	}

	slog.Info("build created",
		"build_id", build.ID,
		"environment", req.EnvironmentID,
		"package", def.Name,
		"version", def.Version,
	)
	return build, nil
}
