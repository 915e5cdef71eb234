// Package manifest 读写 package.yaml。
//
// 同时接受两种形式：扁平形式（顶层即包定义）和带版本的包装形式
// {version: 1.0, package: {...}}。参数的 default 键是否存在与其值是否为 null
// 是两回事，因此这里直接在 yaml.Node 上解码 default。
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/catattack05/functionary/internal/domain"
)

const (
	FileName       = "package.yaml"
	CurrentVersion = "1.0"
)

// Manifest 是解析后的 package.yaml。Version 是清单格式版本，不是包版本。
type Manifest struct {
	Version string
	Package *domain.PackageDefinition

	wrapped bool
}

// New 创建包装形式的空清单。
func New(name, language string) *Manifest {
	return &Manifest{
		Version: CurrentVersion,
		Package: &domain.PackageDefinition{
			Name:      name,
			Version:   CurrentVersion,
			Language:  language,
			Functions: []domain.FunctionDefinition{},
		},
		wrapped: true,
	}
}

type packageDoc struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version"`
	Language    string        `yaml:"language"`
	DisplayName string        `yaml:"display_name"`
	Summary     string        `yaml:"summary"`
	Description string        `yaml:"description"`
	Functions   []functionDoc `yaml:"functions"`
}

type functionDoc struct {
	Name         string         `yaml:"name"`
	DisplayName  string         `yaml:"display_name"`
	Summary      string         `yaml:"summary"`
	Description  string         `yaml:"description"`
	ReturnType   string         `yaml:"return_type"`
	OutputFormat string         `yaml:"output_format"`
	Parameters   []parameterDoc `yaml:"parameters"`
}

type parameterDoc struct {
	Name        string           `yaml:"name"`
	Type        domain.ParamType `yaml:"type"`
	Default     yaml.Node        `yaml:"default"`
	DisplayName string           `yaml:"display_name"`
	Description string           `yaml:"description"`
}

// Parse 解析 package.yaml。任何格式问题都返回 ErrInvalidPackage。
// Required 由 default 键是否存在推导，文件中的 required 字段不参与。
func Parse(data []byte) (*Manifest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidPackage, FileName, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidPackage, FileName)
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s must be a mapping", domain.ErrInvalidPackage, FileName)
	}

	m := &Manifest{Version: CurrentVersion}
	body := doc
	if pkg := lookup(doc, "package"); pkg != nil {
		if pkg.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: package must be a mapping", domain.ErrInvalidPackage)
		}
		body = pkg
		m.wrapped = true
		if v := lookup(doc, "version"); v != nil {
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: version must be a scalar", domain.ErrInvalidPackage)
			}
			m.Version = v.Value
		}
	}

	var pd packageDoc
	if err := body.Decode(&pd); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidPackage, FileName, err)
	}
	def, err := pd.definition()
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	m.Package = def
	return m, nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func (pd packageDoc) definition() (*domain.PackageDefinition, error) {
	def := &domain.PackageDefinition{
		Name:        pd.Name,
		Version:     pd.Version,
		Language:    pd.Language,
		DisplayName: pd.DisplayName,
		Summary:     pd.Summary,
		Description: pd.Description,
		Functions:   make([]domain.FunctionDefinition, 0, len(pd.Functions)),
	}
	for _, fd := range pd.Functions {
		fn := domain.FunctionDefinition{
			Name:         fd.Name,
			DisplayName:  fd.DisplayName,
			Summary:      fd.Summary,
			Description:  fd.Description,
			ReturnType:   fd.ReturnType,
			OutputFormat: fd.OutputFormat,
			Parameters:   make([]domain.ParameterDefinition, 0, len(fd.Parameters)),
		}
		for _, p := range fd.Parameters {
			param := domain.ParameterDefinition{
				Name:        p.Name,
				Type:        p.Type,
				DisplayName: p.DisplayName,
				Description: p.Description,
			}
			if p.Default.Kind != 0 {
				v, err := defaultValue(&p.Default)
				if err != nil {
					return nil, fmt.Errorf("%w: default of parameter %s in function %s: %v",
						domain.ErrInvalidPackage, p.Name, fd.Name, err)
				}
				param.Default = domain.NewDefault(v)
			}
			param.Required = !param.HasDefault()
			fn.Parameters = append(fn.Parameters, param)
		}
		def.Functions = append(def.Functions, fn)
	}
	return def, nil
}

// defaultValue 解码参数默认值。未加引号的日期与时间保留原文，
// 与源码中推断出的 date/datetime 默认值使用同一种字符串形式。
func defaultValue(node *yaml.Node) (any, error) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!timestamp" {
		return node.Value, nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
