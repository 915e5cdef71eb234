package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/catattack05/functionary/internal/domain"
)

type wrapperOut struct {
	Version string     `yaml:"version"`
	Package packageOut `yaml:"package"`
}

type packageOut struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version,omitempty"`
	Language    string        `yaml:"language"`
	DisplayName string        `yaml:"display_name,omitempty"`
	Summary     string        `yaml:"summary,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Functions   []functionOut `yaml:"functions"`
}

type functionOut struct {
	Name         string         `yaml:"name"`
	DisplayName  string         `yaml:"display_name,omitempty"`
	Summary      string         `yaml:"summary,omitempty"`
	Description  string         `yaml:"description,omitempty"`
	ReturnType   string         `yaml:"return_type,omitempty"`
	OutputFormat string         `yaml:"output_format,omitempty"`
	Parameters   []parameterOut `yaml:"parameters"`
}

type parameterOut struct {
	Name        string           `yaml:"name"`
	Type        domain.ParamType `yaml:"type,omitempty"`
	Required    bool             `yaml:"required"`
	Default     *yaml.Node       `yaml:"default,omitempty"`
	DisplayName string           `yaml:"display_name,omitempty"`
	Description string           `yaml:"description,omitempty"`
}

// Marshal 按读入时的形式写回清单；New 创建的清单使用包装形式。
func Marshal(m *Manifest) ([]byte, error) {
	pkg, err := toPackageOut(m.Package)
	if err != nil {
		return nil, err
	}
	var v any = pkg
	if m.wrapped {
		v = wrapperOut{Version: m.Version, Package: pkg}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %s: %w", FileName, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", FileName, err)
	}
	return buf.Bytes(), nil
}

func toPackageOut(def *domain.PackageDefinition) (packageOut, error) {
	out := packageOut{
		Name:        def.Name,
		Version:     def.Version,
		Language:    def.Language,
		DisplayName: def.DisplayName,
		Summary:     def.Summary,
		Description: def.Description,
		Functions:   make([]functionOut, 0, len(def.Functions)),
	}
	for _, fn := range def.Functions {
		fo := functionOut{
			Name:         fn.Name,
			DisplayName:  fn.DisplayName,
			Summary:      fn.Summary,
			Description:  fn.Description,
			ReturnType:   fn.ReturnType,
			OutputFormat: fn.OutputFormat,
			Parameters:   make([]parameterOut, 0, len(fn.Parameters)),
		}
		for _, p := range fn.Parameters {
			po := parameterOut{
				Name:        p.Name,
				Type:        p.Type,
				Required:    p.Required,
				DisplayName: p.DisplayName,
				Description: p.Description,
			}
			if p.HasDefault() {
				var n yaml.Node
				if err := n.Encode(p.Default.Value); err != nil {
					return packageOut{}, fmt.Errorf("encode default of parameter %s in function %s: %w", p.Name, fn.Name, err)
				}
				po.Default = &n
			}
			fo.Parameters = append(fo.Parameters, po)
		}
		out.Functions = append(out.Functions, fo)
	}
	return out, nil
}

// MergeFunctions 用源码解析结果替换清单中的函数列表。
// 已存在的同名函数和参数保留人工填写的展示信息；解析不出类型或默认值时沿用清单中的值。
func MergeFunctions(m *Manifest, parsed []domain.FunctionDefinition) {
	existing := make(map[string]domain.FunctionDefinition, len(m.Package.Functions))
	for _, fn := range m.Package.Functions {
		existing[fn.Name] = fn
	}

	merged := make([]domain.FunctionDefinition, 0, len(parsed))
	for _, fn := range parsed {
		old, ok := existing[fn.Name]
		if !ok {
			merged = append(merged, fn)
			continue
		}
		fn.DisplayName = firstNonEmpty(fn.DisplayName, old.DisplayName)
		fn.Summary = firstNonEmpty(fn.Summary, old.Summary)
		fn.Description = firstNonEmpty(fn.Description, old.Description)
		fn.ReturnType = firstNonEmpty(fn.ReturnType, old.ReturnType)
		fn.OutputFormat = firstNonEmpty(fn.OutputFormat, old.OutputFormat)

		oldParams := make(map[string]domain.ParameterDefinition, len(old.Parameters))
		for _, p := range old.Parameters {
			oldParams[p.Name] = p
		}
		params := make([]domain.ParameterDefinition, len(fn.Parameters))
		for i, p := range fn.Parameters {
			if op, ok := oldParams[p.Name]; ok {
				if p.Type == domain.ParamTypeUnset {
					p.Type = op.Type
				}
				if !p.HasDefault() && !p.Required && op.HasDefault() {
					p.Default = op.Default
				}
				p.DisplayName = firstNonEmpty(p.DisplayName, op.DisplayName)
				p.Description = firstNonEmpty(p.Description, op.Description)
			}
			params[i] = p
		}
		fn.Parameters = params
		merged = append(merged, fn)
	}
	m.Package.Functions = merged
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
