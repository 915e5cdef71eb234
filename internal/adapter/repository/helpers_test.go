package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/catattack05/functionary/internal/domain"
)

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pg other error", &pgconn.PgError{Code: "23503"}, false},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, true},
		{"sqlite message", errors.New("UNIQUE constraint failed: packages.name"), true},
		{"postgres message", errors.New(`ERROR: duplicate key value violates unique constraint "idx_package_env_name"`), true},
		{"unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueConstraintError(tt.err); got != tt.want {
				t.Errorf("isUniqueConstraintError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBuildModelConversion_NullablePackageID(t *testing.T) {
	m := buildToModel(&domain.Build{ID: "b1", EnvironmentID: "env1", Status: domain.BuildStatusCreated})
	if m.PackageID != nil {
		t.Errorf("PackageID = %v, want nil", *m.PackageID)
	}
	back := modelToBuild(m)
	if back.PackageID != "" {
		t.Errorf("PackageID = %q, want empty", back.PackageID)
	}
}
