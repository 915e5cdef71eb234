package service

import (
	"context"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

// BuildQueryService 提供构建记录的只读查询。
type BuildQueryService struct {
	builds    port.BuildRepository
	logs      port.BuildLogRepository
	packages  port.PackageRepository
	functions port.FunctionRepository
}

func NewBuildQueryService(repos port.Repositories) *BuildQueryService {
	return &BuildQueryService{
		builds:    repos.Builds,
		logs:      repos.Logs,
		packages:  repos.Packages,
		functions: repos.Functions,
	}
}

func (s *BuildQueryService) GetBuild(ctx context.Context, id string) (*domain.Build, error) {
	return s.builds.FindByID(ctx, id)
}

func (s *BuildQueryService) ListBuilds(ctx context.Context, environmentID string) ([]*domain.Build, error) {
	return s.builds.FindByEnvironment(ctx, environmentID)
}

// GetBuildLog 在构建未结束时返回空日志，构建不存在时返回 ErrBuildNotFound。
func (s *BuildQueryService) GetBuildLog(ctx context.Context, id string) (*domain.BuildLog, error) {
	build, err := s.builds.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !build.Status.IsTerminal() {
		return &domain.BuildLog{BuildID: build.ID}, nil
	}
	return s.logs.FindByBuildID(ctx, id)
}

// GetPackage 返回包及其函数。
func (s *BuildQueryService) GetPackage(ctx context.Context, environmentID, name string) (*domain.Package, []*domain.Function, error) {
	pkg, err := s.packages.FindByEnvironmentAndName(ctx, environmentID, name)
	if err != nil {
		return nil, nil, err
	}
	fns, err := s.functions.FindByPackage(ctx, pkg.ID)
	if err != nil {
		return nil, nil, err
	}
	return pkg, fns, nil
}
