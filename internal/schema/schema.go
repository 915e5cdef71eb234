// Package schema 由函数定义生成参数 JSON Schema。
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/catattack05/functionary/internal/domain"
)

// typeSpec 是某个参数类型对应的 schema 校验标签。
type typeSpec struct {
	Type   string
	Format string
}

// typeTable 是 ParamType 到 schema 标签的静态映射，未列出的类型一律视为 SchemaError。
var typeTable = map[domain.ParamType]typeSpec{
	domain.ParamTypeString:   {Type: "string"},
	domain.ParamTypeInteger:  {Type: "integer"},
	domain.ParamTypeFloat:    {Type: "number"},
	domain.ParamTypeBoolean:  {Type: "boolean"},
	domain.ParamTypeDate:     {Type: "string", Format: "date"},
	domain.ParamTypeDateTime: {Type: "string", Format: "date-time"},
	domain.ParamTypeText:     {Type: "string", Format: "text"},
	domain.ParamTypeJSON:     {Type: "object", Format: "json"},
}

type Property struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Type        string              `json:"type"`
	Format      string              `json:"format,omitempty"`
	Default     *domain.DefaultValue `json:"default,omitempty"`
}

// Schema 的 Properties 保持参数声明顺序，序列化时按 Order 输出。
type Schema struct {
	Title      string
	Type       string
	Properties map[string]Property
	Order      []string
	Required   []string
}

// Generate 为函数生成参数 schema。没有 default 键的参数进入 required；
// default 键存在（即使为 null）则为可选。
func Generate(fn domain.FunctionDefinition) (*Schema, error) {
	s := &Schema{
		Title:      fn.Name,
		Type:       "object",
		Properties: make(map[string]Property, len(fn.Parameters)),
		Order:      make([]string, 0, len(fn.Parameters)),
		Required:   []string{},
	}
	for _, p := range fn.Parameters {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: function %s has a parameter without a name", domain.ErrSchema, fn.Name)
		}
		if _, dup := s.Properties[p.Name]; dup {
			return nil, fmt.Errorf("%w: function %s declares parameter %s more than once", domain.ErrSchema, fn.Name, p.Name)
		}
		spec, ok := typeTable[p.Type]
		if !ok {
			if p.Type == domain.ParamTypeUnset {
				return nil, fmt.Errorf("%w: parameter %s of function %s has no type", domain.ErrSchema, p.Name, fn.Name)
			}
			return nil, fmt.Errorf("%w: parameter %s of function %s has unknown type %q", domain.ErrSchema, p.Name, fn.Name, p.Type)
		}
		title := p.DisplayName
		if title == "" {
			title = p.Name
		}
		s.Properties[p.Name] = Property{
			Title:       title,
			Description: p.Description,
			Type:        spec.Type,
			Format:      spec.Format,
			Default:     p.Default,
		}
		s.Order = append(s.Order, p.Name)
		if !p.HasDefault() {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s, nil
}

// Validate 只做校验，不保留结果。
func Validate(fn domain.FunctionDefinition) error {
	_, err := Generate(fn)
	return err
}

// ValidatePackage 校验包内全部函数，返回第一个错误。
func ValidatePackage(def *domain.PackageDefinition) error {
	for _, fn := range def.Functions {
		if err := Validate(fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// MarshalJSON 输出 {title, type, properties, required}，properties 按声明顺序。
func (s *Schema) MarshalJSON() ([]byte, error) {
	props := []byte{'{'}
	for i, name := range s.Order {
		if i > 0 {
			props = append(props, ',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.Properties[name])
		if err != nil {
			return nil, err
		}
		props = append(props, key...)
		props = append(props, ':')
		props = append(props, val...)
	}
	props = append(props, '}')

	return json.Marshal(struct {
		Title      string          `json:"title"`
		Type       string          `json:"type"`
		Properties json.RawMessage `json:"properties"`
		Required   []string        `json:"required"`
	}{s.Title, s.Type, props, s.Required})
}

// JSON 返回用于持久化的 schema 文本。
func (s *Schema) JSON() (json.RawMessage, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: encode schema %s: %v", domain.ErrSchema, s.Title, err)
	}
	return b, nil
}
