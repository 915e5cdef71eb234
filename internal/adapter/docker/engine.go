package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	build "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"

	"github.com/catattack05/functionary/internal/archive"
	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

// apiClient 是 Engine 用到的 Docker Engine API 子集，*client.Client 满足该接口。
type apiClient interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
}

type Config struct {
	Registry         string
	RegistryUsername string
	RegistryPassword string
	// BuildArgs 形如 KEY=VALUE，传给每次镜像构建。
	BuildArgs []string
}

var _ port.ContainerEngine = (*Engine)(nil)

type Engine struct {
	cli       apiClient
	auth      string
	buildArgs map[string]*string
}

// NewEngine 通过 DOCKER_HOST 等环境变量连接 Docker 守护进程。
func NewEngine(cfg Config) (*Engine, *client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, nil, fmt.Errorf("create docker client: %w", err)
	}
	e, err := newEngine(cli, cfg)
	if err != nil {
		_ = cli.Close()
		return nil, nil, err
	}
	return e, cli, nil
}

func newEngine(cli apiClient, cfg Config) (*Engine, error) {
	auth, err := registry.EncodeAuthConfig(registry.AuthConfig{
		Username:      cfg.RegistryUsername,
		Password:      cfg.RegistryPassword,
		ServerAddress: cfg.Registry,
	})
	if err != nil {
		return nil, fmt.Errorf("encode registry auth: %w", err)
	}
	args, err := parseBuildArgs(cfg.BuildArgs)
	if err != nil {
		return nil, err
	}
	return &Engine{cli: cli, auth: auth, buildArgs: args}, nil
}

func parseBuildArgs(raw []string) (map[string]*string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	args := make(map[string]*string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: build arg %q must be KEY=VALUE", domain.ErrInvalidInput, kv)
		}
		args[k] = &v
	}
	return args, nil
}

// Build 以 dir 为上下文构建镜像。每次都拉取基础镜像并删除中间容器。
func (e *Engine) Build(ctx context.Context, dir, tag string) (port.ImageHandle, string, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(archive.Pack(dir, pw))
	}()
	defer pr.Close()

	resp, err := e.cli.ImageBuild(ctx, pr, build.ImageBuildOptions{
		Tags:        []string{tag},
		Dockerfile:  "Dockerfile",
		PullParent:  true,
		Remove:      true,
		ForceRemove: true,
		BuildArgs:   e.buildArgs,
	})
	if err != nil {
		return port.ImageHandle{}, "", fmt.Errorf("%w: build %s: %v", domain.ErrRegistry, tag, err)
	}
	defer resp.Body.Close()

	result, err := readBuildStream(resp.Body)
	if err != nil {
		return port.ImageHandle{}, "", &domain.BuildFailure{Log: result.log, Err: err}
	}
	slog.Debug("image built", "tag", tag, "image_id", result.imageID)
	return port.ImageHandle{ID: result.imageID, Tag: tag}, result.log, nil
}

func (e *Engine) Push(ctx context.Context, tag string) (string, error) {
	body, err := e.cli.ImagePush(ctx, tag, image.PushOptions{RegistryAuth: e.auth})
	if err != nil {
		return "", fmt.Errorf("%w: push %s: %v", domain.ErrRegistry, tag, err)
	}
	defer body.Close()

	log, err := readPushStream(body)
	if err != nil {
		return log, fmt.Errorf("%w: push %s: %v", domain.ErrRegistry, tag, err)
	}
	return log, nil
}

// RemoveImage 删除本地镜像，镜像已不存在时视为成功。
func (e *Engine) RemoveImage(ctx context.Context, h port.ImageHandle) error {
	ref := h.ID
	if ref == "" {
		ref = h.Tag
	}
	if ref == "" {
		return nil
	}
	_, err := e.cli.ImageRemove(ctx, ref, image.RemoveOptions{Force: true, PruneChildren: true})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("remove image %s: %w", ref, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf interface{ NotFound() }
	return errors.As(err, &nf) || client.IsErrNotFound(err)
}

// auxID 是构建流中 aux 消息携带的镜像 ID。
type auxID struct {
	ID string `json:"ID"`
}

func unmarshalAux(raw *json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var aux auxID
	if err := json.Unmarshal(*raw, &aux); err != nil {
		return ""
	}
	return aux.ID
}
