// Package parser 从函数源码文件推导包清单中的函数定义。
// 具体语言的实现通过 Register 注册，按语言标签选择。
package parser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/catattack05/functionary/internal/domain"
)

// Warning 是非致命的解析提示，调用方需要据此手工补全 package.yaml。
type Warning struct {
	Function  string
	Parameter string
	Message   string
}

func (w Warning) String() string {
	return w.Message
}

// Parser 是单个语言的签名解析器。
type Parser interface {
	// SourceFile 返回包目录中函数源码文件的文件名。
	SourceFile() string
	// Parse 解析源码文本，只返回顶层函数定义。
	Parse(source []byte) ([]domain.FunctionDefinition, []Warning, error)
}

var (
	mu      sync.RWMutex
	parsers = map[string]Parser{}
)

// Register 注册语言解析器，重复注册会 panic。
func Register(language string, p Parser) {
	mu.Lock()
	defer mu.Unlock()
	key := strings.ToLower(language)
	if _, dup := parsers[key]; dup {
		panic("parser: Register called twice for language " + language)
	}
	parsers[key] = p
}

// Lookup 按语言标签查找解析器。
func Lookup(language string) (Parser, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := parsers[strings.ToLower(language)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, language)
	}
	return p, nil
}

// Languages 返回已注册的语言，按字母序。
func Languages() []string {
	mu.RLock()
	defer mu.RUnlock()
	langs := make([]string, 0, len(parsers))
	for l := range parsers {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

func Parse(language string, source []byte) ([]domain.FunctionDefinition, []Warning, error) {
	p, err := Lookup(language)
	if err != nil {
		return nil, nil, err
	}
	return p.Parse(source)
}

// ParseDir 读取包目录下的函数源码文件并解析。
func ParseDir(language, dir string) ([]domain.FunctionDefinition, []Warning, error) {
	p, err := Lookup(language)
	if err != nil {
		return nil, nil, err
	}
	name := p.SourceFile()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, nil, fmt.Errorf("could not find %s: %w", name, domain.ErrNotFound)
		case errors.Is(err, fs.ErrPermission):
			return nil, nil, fmt.Errorf("did not have permission to access %s: %w", name, domain.ErrPermissionDenied)
		}
		return nil, nil, fmt.Errorf("read %s: %w", name, err)
	}
	return p.Parse(data)
}
