package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// imageComponentInvalid 匹配镜像仓库路径分量中不允许出现的字符。
var imageComponentInvalid = regexp.MustCompile(`[^a-z0-9._-]+`)

// imageTagRegex 是 registry 允许的 tag 语法。
var imageTagRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,127}$`)

// ImageName 根据环境与包定义推导镜像名：<environment>/<package>:<version>。
// 不带 registry 前缀，完整地址由调用方拼接。
func ImageName(environmentID string, def *PackageDefinition) (string, error) {
	env := sanitizeImageComponent(environmentID)
	name := sanitizeImageComponent(def.Name)
	if env == "" || name == "" {
		return "", fmt.Errorf("%w: cannot derive image name from environment %q and package %q", ErrInvalidPackage, environmentID, def.Name)
	}
	tag := def.Version
	if tag == "" {
		tag = "latest"
	}
	if !imageTagRegex.MatchString(tag) {
		return "", fmt.Errorf("%w: version %q is not a valid image tag", ErrInvalidPackage, def.Version)
	}
	return env + "/" + name + ":" + tag, nil
}

// FullImageRef 拼接 registry 地址。
func FullImageRef(registry, imageName string) string {
	registry = strings.TrimSuffix(registry, "/")
	if registry == "" {
		return imageName
	}
	return registry + "/" + imageName
}

func sanitizeImageComponent(s string) string {
	s = imageComponentInvalid.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "._-")
}

// BuildFileName 返回语言对应的构建文件模板名。
func BuildFileName(language string) string {
	return strings.ToLower(language) + ".Dockerfile"
}
