package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

var _ port.FunctionRepository = (*FunctionRepo)(nil)

type FunctionRepo struct {
	db *gorm.DB
}

func NewFunctionRepo(db *gorm.DB) *FunctionRepo {
	return &FunctionRepo{db: db}
}

func (r *FunctionRepo) FindByPackage(ctx context.Context, packageID string) ([]*domain.Function, error) {
	var models []FunctionModel
	if err := r.db.WithContext(ctx).Where("package_id = ?", packageID).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	fns := make([]*domain.Function, 0, len(models))
	for i := range models {
		fns = append(fns, modelToFunction(&models[i]))
	}
	return fns, nil
}

func (r *FunctionRepo) FindByPackageAndName(ctx context.Context, packageID, name string) (*domain.Function, error) {
	var m FunctionModel
	result := r.db.WithContext(ctx).First(&m, "package_id = ? AND name = ?", packageID, name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFunctionNotFound
		}
		return nil, result.Error
	}
	return modelToFunction(&m), nil
}

func (r *FunctionRepo) Save(ctx context.Context, fn *domain.Function) error {
	m := functionToModel(fn)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func functionToModel(f *domain.Function) *FunctionModel {
	return &FunctionModel{
		ID:           f.ID,
		PackageID:    f.PackageID,
		Name:         f.Name,
		DisplayName:  f.DisplayName,
		Summary:      f.Summary,
		Description:  f.Description,
		ReturnType:   f.ReturnType,
		OutputFormat: f.OutputFormat,
		Schema:       datatypes.JSON(f.Schema),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func modelToFunction(m *FunctionModel) *domain.Function {
	return &domain.Function{
		ID:           m.ID,
		PackageID:    m.PackageID,
		Name:         m.Name,
		DisplayName:  m.DisplayName,
		Summary:      m.Summary,
		Description:  m.Description,
		ReturnType:   m.ReturnType,
		OutputFormat: m.OutputFormat,
		Schema:       []byte(m.Schema),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
