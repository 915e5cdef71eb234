package domain

import (
	"encoding/json"
	"fmt"
)

// ParamType 是参数类型的封闭枚举。空值表示类型未知，需要人工补全后才能构建。
type ParamType string

const (
	ParamTypeUnset    ParamType = ""
	ParamTypeString   ParamType = "string"
	ParamTypeInteger  ParamType = "integer"
	ParamTypeFloat    ParamType = "float"
	ParamTypeBoolean  ParamType = "boolean"
	ParamTypeDate     ParamType = "date"
	ParamTypeDateTime ParamType = "datetime"
	ParamTypeJSON     ParamType = "json"
	ParamTypeText     ParamType = "text"
)

var knownParamTypes = map[ParamType]bool{
	ParamTypeString:   true,
	ParamTypeInteger:  true,
	ParamTypeFloat:    true,
	ParamTypeBoolean:  true,
	ParamTypeDate:     true,
	ParamTypeDateTime: true,
	ParamTypeJSON:     true,
	ParamTypeText:     true,
}

func (t ParamType) IsKnown() bool {
	return knownParamTypes[t]
}

// DefaultValue 包装参数默认值。指针为 nil 表示没有 default 键；
// Value 为 nil 表示显式的 null 默认值，两者语义不同。
type DefaultValue struct {
	Value any
}

func NewDefault(v any) *DefaultValue {
	return &DefaultValue{Value: v}
}

func (d *DefaultValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Value)
}

type ParameterDefinition struct {
	Name        string        `json:"name" yaml:"name"`
	Type        ParamType     `json:"type,omitempty" yaml:"type,omitempty"`
	Required    bool          `json:"required" yaml:"required"`
	Default     *DefaultValue `json:"default,omitempty" yaml:"-"`
	DisplayName string        `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// HasDefault 判断 default 键是否存在（即使值为 null）。
func (p ParameterDefinition) HasDefault() bool {
	return p.Default != nil
}

// UnmarshalJSON 区分 "default" 键缺失与 "default": null。
func (p *ParameterDefinition) UnmarshalJSON(data []byte) error {
	type alias ParameterDefinition
	var raw struct {
		alias
		Default json.RawMessage `json:"default"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParameterDefinition(raw.alias)
	p.Default = nil
	if len(raw.Default) > 0 {
		var v any
		if err := json.Unmarshal(raw.Default, &v); err != nil {
			return fmt.Errorf("parameter %s default: %w", p.Name, err)
		}
		p.Default = NewDefault(v)
	}
	return nil
}

type FunctionDefinition struct {
	Name         string                `json:"name" yaml:"name"`
	DisplayName  string                `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Summary      string                `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description  string                `json:"description,omitempty" yaml:"description,omitempty"`
	ReturnType   string                `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	OutputFormat string                `json:"output_format,omitempty" yaml:"output_format,omitempty"`
	Parameters   []ParameterDefinition `json:"parameters" yaml:"parameters"`
}

// PackageDefinition 是 package.yaml 解析后的结构，构建期间只读。
type PackageDefinition struct {
	Name        string               `json:"name" yaml:"name"`
	Version     string               `json:"version" yaml:"version"`
	Language    string               `json:"language" yaml:"language"`
	DisplayName string               `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Summary     string               `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Functions   []FunctionDefinition `json:"functions" yaml:"functions"`
}

func (d *PackageDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: package name is required", ErrInvalidPackage)
	}
	if d.Language == "" {
		return fmt.Errorf("%w: package language is required", ErrInvalidPackage)
	}
	seen := make(map[string]bool, len(d.Functions))
	for _, fn := range d.Functions {
		if fn.Name == "" {
			return fmt.Errorf("%w: function name is required", ErrInvalidPackage)
		}
		if seen[fn.Name] {
			return fmt.Errorf("%w: duplicate function %q", ErrInvalidPackage, fn.Name)
		}
		seen[fn.Name] = true
	}
	return nil
}
