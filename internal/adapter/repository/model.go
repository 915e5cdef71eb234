package repository

import (
	"time"

	"gorm.io/datatypes"
)

// PackageModel 是 Package 的数据库持久化模型，(environment_id, name) 唯一。
type PackageModel struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	EnvironmentID string `gorm:"not null;uniqueIndex:idx_package_env_name"`
	Name          string `gorm:"not null;uniqueIndex:idx_package_env_name"`
	Version       string
	Language      string
	DisplayName   string
	Summary       string
	Description   string `gorm:"type:text"`
	ImageName     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (PackageModel) TableName() string { return "packages" }

// FunctionModel 是 Function 的数据库持久化模型，(package_id, name) 唯一。
type FunctionModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	PackageID    string `gorm:"type:uuid;not null;uniqueIndex:idx_function_package_name"`
	Name         string `gorm:"not null;uniqueIndex:idx_function_package_name"`
	DisplayName  string
	Summary      string
	Description  string `gorm:"type:text"`
	ReturnType   string
	OutputFormat string
	Schema       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (FunctionModel) TableName() string { return "functions" }

// BuildModel 是 Build 的数据库持久化模型。PackageID 在首次构建成功前为 NULL。
type BuildModel struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	Creator       string
	EnvironmentID string  `gorm:"not null;index"`
	PackageID     *string `gorm:"type:uuid;index"`
	Status        string  `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (BuildModel) TableName() string { return "builds" }

// BuildResourceModel 与 Build 一对一，写入后不再修改。
type BuildResourceModel struct {
	BuildID                  string         `gorm:"type:uuid;primaryKey"`
	PackageContents          []byte         `gorm:"type:bytea;not null"`
	PackageDefinition        datatypes.JSON `gorm:"type:jsonb;not null"`
	PackageDefinitionVersion string
}

func (BuildResourceModel) TableName() string { return "build_resources" }

// BuildLogModel 以 build_id 为主键，保证每个构建只有一条日志。
type BuildLogModel struct {
	BuildID   string `gorm:"type:uuid;primaryKey"`
	Log       string `gorm:"type:text"`
	CreatedAt time.Time
}

func (BuildLogModel) TableName() string { return "build_logs" }
