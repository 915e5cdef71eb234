package port

import (
	"context"

	"github.com/catattack05/functionary/internal/domain"
)

// ImageHandle 标识一次构建产出的本地镜像，用于清理。
type ImageHandle struct {
	ID  string
	Tag string
}

func (h ImageHandle) IsZero() bool { return h.ID == "" && h.Tag == "" }

// ContainerEngine 负责镜像的构建、推送与删除。
type ContainerEngine interface {
	// Build 以 dir 为上下文构建镜像并打上 tag。构建失败返回 *domain.BuildFailure，
	// 其中带有构建输出；与守护进程通信失败返回 ErrRegistry。
	Build(ctx context.Context, dir, tag string) (ImageHandle, string, error)
	// Push 推送 tag 到镜像仓库，失败返回 ErrRegistry。
	Push(ctx context.Context, tag string) (string, error)
	RemoveImage(ctx context.Context, image ImageHandle) error
}

// BuildFileData 是构建文件模板的参数。
type BuildFileData struct {
	Registry string
	Package  *domain.PackageDefinition
}

// BuildFileRenderer 按模板名渲染构建文件（Dockerfile）。
type BuildFileRenderer interface {
	Render(name string, data BuildFileData) ([]byte, error)
}
