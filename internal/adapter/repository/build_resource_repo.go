package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

var _ port.BuildResourceRepository = (*BuildResourceRepo)(nil)

var errBuildResourceNotFound = fmt.Errorf("build resource %w", domain.ErrNotFound)

type BuildResourceRepo struct {
	db *gorm.DB
}

func NewBuildResourceRepo(db *gorm.DB) *BuildResourceRepo {
	return &BuildResourceRepo{db: db}
}

func (r *BuildResourceRepo) Save(ctx context.Context, res *domain.BuildResource) error {
	def, err := json.Marshal(res.PackageDefinition)
	if err != nil {
		return fmt.Errorf("encode package definition: %w", err)
	}
	m := &BuildResourceModel{
		BuildID:                  res.BuildID,
		PackageContents:          res.PackageContents,
		PackageDefinition:        datatypes.JSON(def),
		PackageDefinitionVersion: res.PackageDefinitionVersion,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *BuildResourceRepo) FindByBuildID(ctx context.Context, buildID string) (*domain.BuildResource, error) {
	var m BuildResourceModel
	result := r.db.WithContext(ctx).First(&m, "build_id = ?", buildID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errBuildResourceNotFound
		}
		return nil, result.Error
	}
	var def domain.PackageDefinition
	if err := json.Unmarshal(m.PackageDefinition, &def); err != nil {
		return nil, fmt.Errorf("decode package definition of build %s: %w", buildID, err)
	}
	return &domain.BuildResource{
		BuildID:                  m.BuildID,
		PackageContents:          m.PackageContents,
		PackageDefinition:        &def,
		PackageDefinitionVersion: m.PackageDefinitionVersion,
	}, nil
}
