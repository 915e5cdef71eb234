package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

var _ port.BuildRepository = (*BuildRepo)(nil)

type BuildRepo struct {
	db *gorm.DB
}

func NewBuildRepo(db *gorm.DB) *BuildRepo {
	return &BuildRepo{db: db}
}

func (r *BuildRepo) Save(ctx context.Context, build *domain.Build) error {
	m := buildToModel(build)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *BuildRepo) FindByID(ctx context.Context, id string) (*domain.Build, error) {
	var m BuildModel
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBuildNotFound
		}
		return nil, result.Error
	}
	return modelToBuild(&m), nil
}

func (r *BuildRepo) FindByEnvironment(ctx context.Context, environmentID string) ([]*domain.Build, error) {
	var models []BuildModel
	q := r.db.WithContext(ctx).Order("created_at desc")
	if environmentID != "" {
		q = q.Where("environment_id = ?", environmentID)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	builds := make([]*domain.Build, 0, len(models))
	for i := range models {
		builds = append(builds, modelToBuild(&models[i]))
	}
	return builds, nil
}

func (r *BuildRepo) Update(ctx context.Context, build *domain.Build) error {
	m := buildToModel(build)
	return r.db.WithContext(ctx).Save(m).Error
}

func buildToModel(b *domain.Build) *BuildModel {
	return &BuildModel{
		ID:            b.ID,
		Creator:       b.Creator,
		EnvironmentID: b.EnvironmentID,
		PackageID:     nullableString(b.PackageID),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func modelToBuild(m *BuildModel) *domain.Build {
	return &domain.Build{
		ID:            m.ID,
		Creator:       m.Creator,
		EnvironmentID: m.EnvironmentID,
		PackageID:     stringValue(m.PackageID),
		Status:        domain.BuildStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
