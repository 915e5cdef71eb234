package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidInput        = errors.New("invalid input")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidPackage      = errors.New("invalid package")
	ErrParse               = errors.New("parse error")
	ErrSchema              = errors.New("schema error")
	ErrBuild               = errors.New("build error")
	ErrRegistry            = errors.New("registry error")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrUnsupportedLanguage = errors.New("unsupported language")

	ErrBuildNotFound    = fmt.Errorf("build %w", ErrNotFound)
	ErrBuildLogNotFound = fmt.Errorf("build log %w", ErrNotFound)
	ErrPackageNotFound  = fmt.Errorf("package %w", ErrNotFound)
	ErrFunctionNotFound = fmt.Errorf("function %w", ErrNotFound)
)

// BuildFailure 表示容器构建失败，Log 为构建过程的完整输出，会原样写入 BuildLog。
type BuildFailure struct {
	Log string
	Err error
}

func (e *BuildFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrBuild, e.Err)
	}
	return ErrBuild.Error()
}

func (e *BuildFailure) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrBuild, e.Err}
	}
	return []error{ErrBuild}
}
