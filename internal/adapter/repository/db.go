package repository

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/catattack05/functionary/internal/port"
)

func OpenDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&PackageModel{},
		&FunctionModel{},
		&BuildModel{},
		&BuildResourceModel{},
		&BuildLogModel{},
	); err != nil {
		return nil, err
	}

	return db, nil
}

// NewRepositories 返回绑定到 db 的一组仓储；db 可以是事务句柄。
func NewRepositories(db *gorm.DB) port.Repositories {
	return port.Repositories{
		Builds:    NewBuildRepo(db),
		Resources: NewBuildResourceRepo(db),
		Logs:      NewBuildLogRepo(db),
		Packages:  NewPackageRepo(db),
		Functions: NewFunctionRepo(db),
	}
}

var _ port.Transactor = (*Transactor)(nil)

type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}
