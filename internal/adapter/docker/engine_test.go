package docker

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	build "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

type notFoundErr struct{}

func (notFoundErr) Error() string { return "No such image" }
func (notFoundErr) NotFound()     {}

type stubClient struct {
	buildStream string
	buildErr    error
	pushStream  string
	pushErr     error
	removeErr   error

	buildOpts  build.ImageBuildOptions
	contextTar []string
	pushAuth   string
	removed    []string
}

func (c *stubClient) ImageBuild(_ context.Context, r io.Reader, opts build.ImageBuildOptions) (build.ImageBuildResponse, error) {
	c.buildOpts = opts
	if c.buildErr != nil {
		return build.ImageBuildResponse{}, c.buildErr
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		return build.ImageBuildResponse{}, err
	}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return build.ImageBuildResponse{}, err
		}
		c.contextTar = append(c.contextTar, hdr.Name)
	}
	return build.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(c.buildStream))}, nil
}

func (c *stubClient) ImagePush(_ context.Context, _ string, opts image.PushOptions) (io.ReadCloser, error) {
	c.pushAuth = opts.RegistryAuth
	if c.pushErr != nil {
		return nil, c.pushErr
	}
	return io.NopCloser(strings.NewReader(c.pushStream)), nil
}

func (c *stubClient) ImageRemove(_ context.Context, id string, _ image.RemoveOptions) ([]image.DeleteResponse, error) {
	c.removed = append(c.removed, id)
	return nil, c.removeErr
}

const successfulBuild = `{"stream":"Step 1/2 : FROM registry.local/functionary/python-runner:latest\n"}
{"status":"Pulling from functionary/python-runner","id":"latest"}
{"status":"Downloading","progressDetail":{"current":10,"total":100},"id":"aaa"}
{"status":"Download complete","progressDetail":{},"id":"aaa"}
{"stream":"Step 2/2 : COPY . .\n"}
{"aux":{"ID":"sha256:abc123"}}
{"stream":"Successfully built abc123\n"}
`

func newTestEngine(t *testing.T, cli *stubClient, cfg Config) *Engine {
	t.Helper()
	e, err := newEngine(cli, cfg)
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	return e
}

func buildDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "functions.py"), []byte("def f():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBuild_Success(t *testing.T) {
	cli := &stubClient{buildStream: successfulBuild}
	e := newTestEngine(t, cli, Config{BuildArgs: []string{"PIP_INDEX_URL=https://pypi.local/simple"}})

	handle, log, err := e.Build(context.Background(), buildDir(t), "registry.local/env1/greetings:1.0")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if handle.ID != "sha256:abc123" || handle.Tag != "registry.local/env1/greetings:1.0" {
		t.Errorf("handle = %+v", handle)
	}
	want := "Step 1/2 : FROM registry.local/functionary/python-runner:latest\n" +
		"latest: Pulling from functionary/python-runner\n" +
		"aaa: Download complete\n" +
		"Step 2/2 : COPY . .\n" +
		"Successfully built abc123\n"
	if log != want {
		t.Errorf("log = %q, want %q", log, want)
	}
	if !cli.buildOpts.PullParent || !cli.buildOpts.ForceRemove {
		t.Errorf("options = %+v, want PullParent and ForceRemove", cli.buildOpts)
	}
	if v := cli.buildOpts.BuildArgs["PIP_INDEX_URL"]; v == nil || *v != "https://pypi.local/simple" {
		t.Errorf("BuildArgs = %v", cli.buildOpts.BuildArgs)
	}
	if strings.Join(cli.contextTar, ",") != "Dockerfile,functions.py" {
		t.Errorf("build context = %v", cli.contextTar)
	}
}

func TestBuild_StreamErrorIsBuildFailure(t *testing.T) {
	cli := &stubClient{buildStream: `{"stream":"Step 1/2 : RUN pip install nope\n"}
{"errorDetail":{"message":"returned a non-zero code: 1"},"error":"returned a non-zero code: 1"}
`}
	e := newTestEngine(t, cli, Config{})

	handle, _, err := e.Build(context.Background(), buildDir(t), "reg/env/p:1")
	var failure *domain.BuildFailure
	if !errors.As(err, &failure) {
		t.Fatalf("err = %v, want *domain.BuildFailure", err)
	}
	if !errors.Is(err, domain.ErrBuild) {
		t.Errorf("err should wrap ErrBuild")
	}
	want := "Step 1/2 : RUN pip install nope\nERROR: returned a non-zero code: 1\n"
	if failure.Log != want {
		t.Errorf("Log = %q, want %q", failure.Log, want)
	}
	if !handle.IsZero() {
		t.Errorf("handle = %+v, want zero", handle)
	}
}

func TestBuild_DaemonErrorIsRegistryError(t *testing.T) {
	e := newTestEngine(t, &stubClient{buildErr: errors.New("Cannot connect to the Docker daemon")}, Config{})
	_, _, err := e.Build(context.Background(), buildDir(t), "reg/env/p:1")
	if !errors.Is(err, domain.ErrRegistry) {
		t.Errorf("err = %v, want ErrRegistry", err)
	}
}

func TestPush(t *testing.T) {
	tests := []struct {
		name    string
		stream  string
		pushErr error
		wantLog string
		wantErr error
	}{
		{
			name: "pushed",
			stream: `{"status":"The push refers to repository [reg/env/p]"}
{"status":"Preparing","progressDetail":{},"id":"abc"}
{"status":"Pushing","progressDetail":{"current":512,"total":1024},"progress":"[====>   ]","id":"abc"}
{"status":"Pushed","progressDetail":{},"id":"abc"}
{"status":"1: digest: sha256:def size: 528"}
{"progressDetail":{},"aux":{"Tag":"1","Digest":"sha256:def","Size":528}}
`,
			wantLog: "The push refers to repository [reg/env/p]\nabc: Preparing\nabc: Pushed\n1: digest: sha256:def size: 528\n",
		},
		{
			name:    "denied in stream",
			stream:  `{"errorDetail":{"message":"denied: access forbidden"},"error":"denied: access forbidden"}` + "\n",
			wantLog: "ERROR: denied: access forbidden\n",
			wantErr: domain.ErrRegistry,
		},
		{
			name:    "request failed",
			pushErr: errors.New("connection refused"),
			wantErr: domain.ErrRegistry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := &stubClient{pushStream: tt.stream, pushErr: tt.pushErr}
			e := newTestEngine(t, cli, Config{Registry: "reg", RegistryUsername: "u", RegistryPassword: "p"})

			log, err := e.Push(context.Background(), "reg/env/p:1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if log != tt.wantLog {
				t.Errorf("log = %q, want %q", log, tt.wantLog)
			}
			if cli.pushAuth == "" {
				t.Error("RegistryAuth should always be sent")
			}
		})
	}
}

func TestRemoveImage(t *testing.T) {
	tests := []struct {
		name        string
		handle      port.ImageHandle
		removeErr   error
		wantRemoved []string
		wantErr     bool
	}{
		{"by id", port.ImageHandle{ID: "sha256:abc", Tag: "reg/p:1"}, nil, []string{"sha256:abc"}, false},
		{"by tag", port.ImageHandle{Tag: "reg/p:1"}, nil, []string{"reg/p:1"}, false},
		{"zero handle", port.ImageHandle{}, nil, nil, false},
		{"already gone", port.ImageHandle{ID: "sha256:abc"}, notFoundErr{}, []string{"sha256:abc"}, false},
		{"conflict", port.ImageHandle{ID: "sha256:abc"}, errors.New("image is being used"), []string{"sha256:abc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := &stubClient{removeErr: tt.removeErr}
			e := newTestEngine(t, cli, Config{})
			err := e.RemoveImage(context.Background(), tt.handle)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(cli.removed, ",") != strings.Join(tt.wantRemoved, ",") {
				t.Errorf("removed = %v, want %v", cli.removed, tt.wantRemoved)
			}
		})
	}
}

func TestParseBuildArgs(t *testing.T) {
	if _, err := parseBuildArgs([]string{"NOEQUALS"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	args, err := parseBuildArgs([]string{"A=1", "B="})
	if err != nil {
		t.Fatalf("parseBuildArgs: %v", err)
	}
	if *args["A"] != "1" || *args["B"] != "" {
		t.Errorf("args = %v", args)
	}
}
