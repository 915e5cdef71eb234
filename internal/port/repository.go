package port

import (
	"context"

	"github.com/catattack05/functionary/internal/domain"
)

type BuildRepository interface {
	Save(ctx context.Context, build *domain.Build) error
	FindByID(ctx context.Context, id string) (*domain.Build, error)
	FindByEnvironment(ctx context.Context, environmentID string) ([]*domain.Build, error)
	Update(ctx context.Context, build *domain.Build) error
}

type BuildResourceRepository interface {
	Save(ctx context.Context, res *domain.BuildResource) error
	FindByBuildID(ctx context.Context, buildID string) (*domain.BuildResource, error)
}

// BuildLogRepository 只追加；同一个 build 第二次写入返回 ErrAlreadyExists。
type BuildLogRepository interface {
	Create(ctx context.Context, log *domain.BuildLog) error
	FindByBuildID(ctx context.Context, buildID string) (*domain.BuildLog, error)
}

type PackageRepository interface {
	// Create 插入新包；(environment, name) 已存在时返回 ErrAlreadyExists，且不破坏所在事务。
	Create(ctx context.Context, pkg *domain.Package) error
	FindByID(ctx context.Context, id string) (*domain.Package, error)
	FindByEnvironmentAndName(ctx context.Context, environmentID, name string) (*domain.Package, error)
	Update(ctx context.Context, pkg *domain.Package) error
}

type FunctionRepository interface {
	FindByPackage(ctx context.Context, packageID string) ([]*domain.Function, error)
	FindByPackageAndName(ctx context.Context, packageID, name string) (*domain.Function, error)
	// Save 按 ID 插入或更新。
	Save(ctx context.Context, fn *domain.Function) error
}

// Repositories 是一组绑定到同一个数据库会话的仓储。
type Repositories struct {
	Builds    BuildRepository
	Resources BuildResourceRepository
	Logs      BuildLogRepository
	Packages  PackageRepository
	Functions FunctionRepository
}

// Transactor 在一个事务内执行 fn，fn 返回错误时整体回滚。
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
