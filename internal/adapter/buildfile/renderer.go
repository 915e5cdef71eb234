package buildfile

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/moby/buildkit/frontend/dockerfile/parser"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

//go:embed templates/*.Dockerfile
var templateFS embed.FS

var _ port.BuildFileRenderer = (*Renderer)(nil)

// Renderer 用内置模板按语言渲染 Dockerfile。
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFS, "templates/*.Dockerfile")
}

func newRenderer(fsys fs.FS, pattern string) (*Renderer, error) {
	tmpl, err := template.New("").Option("missingkey=error").ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse build file templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Languages 返回有模板的语言。
func (r *Renderer) Languages() []string {
	var langs []string
	for _, t := range r.templates.Templates() {
		if lang, ok := strings.CutSuffix(t.Name(), ".Dockerfile"); ok {
			langs = append(langs, lang)
		}
	}
	return langs
}

func (r *Renderer) Render(name string, data port.BuildFileData) ([]byte, error) {
	tmpl := r.templates.Lookup(name)
	if tmpl == nil {
		return nil, fmt.Errorf("%w: no build file template %s", domain.ErrUnsupportedLanguage, name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	if err := validateDockerfile(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// validateDockerfile 要求渲染结果能被解析，且第一条指令是 FROM（允许前置 ARG）。
func validateDockerfile(content []byte) error {
	result, err := parser.Parse(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("invalid Dockerfile: %w", err)
	}
	for _, child := range result.AST.Children {
		switch strings.ToLower(child.Value) {
		case "arg":
			continue
		case "from":
			if child.Next == nil || child.Next.Value == "" {
				return errors.New("invalid Dockerfile: FROM without image")
			}
			return nil
		default:
			return fmt.Errorf("invalid Dockerfile: first instruction is %s, want FROM", strings.ToUpper(child.Value))
		}
	}
	return errors.New("invalid Dockerfile: no instructions")
}
