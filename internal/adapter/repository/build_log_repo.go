package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

var _ port.BuildLogRepository = (*BuildLogRepo)(nil)

type BuildLogRepo struct {
	db *gorm.DB
}

func NewBuildLogRepo(db *gorm.DB) *BuildLogRepo {
	return &BuildLogRepo{db: db}
}

func (r *BuildLogRepo) Create(ctx context.Context, log *domain.BuildLog) error {
	m := &BuildLogModel{BuildID: log.BuildID, Log: log.Log, CreatedAt: log.CreatedAt}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("build log for %s: %w", log.BuildID, domain.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (r *BuildLogRepo) FindByBuildID(ctx context.Context, buildID string) (*domain.BuildLog, error) {
	var m BuildLogModel
	result := r.db.WithContext(ctx).First(&m, "build_id = ?", buildID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBuildLogNotFound
		}
		return nil, result.Error
	}
	return &domain.BuildLog{BuildID: m.BuildID, Log: m.Log, CreatedAt: m.CreatedAt}, nil
}
