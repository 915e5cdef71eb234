package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

var _ port.PackageRepository = (*PackageRepo)(nil)

type PackageRepo struct {
	db *gorm.DB
}

func NewPackageRepo(db *gorm.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

// Create 使用 ON CONFLICT DO NOTHING，冲突不会让所在事务进入 aborted 状态。
func (r *PackageRepo) Create(ctx context.Context, pkg *domain.Package) error {
	m := packageToModel(pkg)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "environment_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(m)
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return fmt.Errorf("package %s: %w", pkg.Name, domain.ErrAlreadyExists)
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("package %s: %w", pkg.Name, domain.ErrAlreadyExists)
	}
	return nil
}

func (r *PackageRepo) FindByID(ctx context.Context, id string) (*domain.Package, error) {
	var m PackageModel
	result := r.db.WithContext(ctx).First(&m, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, result.Error
	}
	return modelToPackage(&m), nil
}

func (r *PackageRepo) FindByEnvironmentAndName(ctx context.Context, environmentID, name string) (*domain.Package, error) {
	var m PackageModel
	result := r.db.WithContext(ctx).First(&m, "environment_id = ? AND name = ?", environmentID, name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPackageNotFound
		}
		return nil, result.Error
	}
	return modelToPackage(&m), nil
}

func (r *PackageRepo) Update(ctx context.Context, pkg *domain.Package) error {
	m := packageToModel(pkg)
	result := r.db.WithContext(ctx).Model(&PackageModel{ID: pkg.ID}).Select("*").Omit("id", "created_at").Updates(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPackageNotFound
	}
	return nil
}

func packageToModel(p *domain.Package) *PackageModel {
	return &PackageModel{
		ID:            p.ID,
		EnvironmentID: p.EnvironmentID,
		Name:          p.Name,
		Version:       p.Version,
		Language:      p.Language,
		DisplayName:   p.DisplayName,
		Summary:       p.Summary,
		Description:   p.Description,
		ImageName:     p.ImageName,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func modelToPackage(m *PackageModel) *domain.Package {
	return &domain.Package{
		ID:            m.ID,
		EnvironmentID: m.EnvironmentID,
		Name:          m.Name,
		Version:       m.Version,
		Language:      m.Language,
		DisplayName:   m.DisplayName,
		Summary:       m.Summary,
		Description:   m.Description,
		ImageName:     m.ImageName,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
