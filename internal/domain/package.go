package domain

import (
	"encoding/json"
	"time"
)

// Package 在 (EnvironmentID, Name) 上唯一，ImageName 仅在构建成功后写入。
type Package struct {
	ID            string    `json:"id"`
	EnvironmentID string    `json:"environment_id"`
	Name          string    `json:"name"`
	Version       string    `json:"version"`
	Language      string    `json:"language"`
	DisplayName   string    `json:"display_name,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	Description   string    `json:"description,omitempty"`
	ImageName     string    `json:"image_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ApplyDefinition 用新的包定义覆盖元数据，不动 ID 和 ImageName。
func (p *Package) ApplyDefinition(def *PackageDefinition) {
	p.Name = def.Name
	p.Version = def.Version
	p.Language = def.Language
	p.DisplayName = def.DisplayName
	p.Summary = def.Summary
	p.Description = def.Description
}

// Function 是持久化的函数，Schema 为 SchemaGenerator 生成的 JSON。
type Function struct {
	ID           string          `json:"id"`
	PackageID    string          `json:"package_id"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"display_name,omitempty"`
	Summary      string          `json:"summary,omitempty"`
	Description  string          `json:"description,omitempty"`
	ReturnType   string          `json:"return_type,omitempty"`
	OutputFormat string          `json:"output_format,omitempty"`
	Schema       json.RawMessage `json:"schema"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (f *Function) ApplyDefinition(def FunctionDefinition) {
	f.Name = def.Name
	f.DisplayName = def.DisplayName
	f.Summary = def.Summary
	f.Description = def.Description
	f.ReturnType = def.ReturnType
	f.OutputFormat = def.OutputFormat
}
