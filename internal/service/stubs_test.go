package service

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/catattack05/functionary/internal/archive"
	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/port"
)

// --- in-memory store: 事务内出错时整体回滚 ---

type memStore struct {
	mu        sync.Mutex
	builds    map[string]domain.Build
	resources map[string]domain.BuildResource
	logs      map[string]domain.BuildLog
	packages  map[string]domain.Package
	functions map[string]domain.Function

	// onPackageCreate 在 Create 检查唯一约束之前调用，用于模拟并发插入。
	onPackageCreate func(s *memStore)
	// onFunctionSave 返回非 nil 时 Functions.Save 失败。
	onFunctionSave func(f *domain.Function) error
}

func newMemStore() *memStore {
	return &memStore{
		builds:    map[string]domain.Build{},
		resources: map[string]domain.BuildResource{},
		logs:      map[string]domain.BuildLog{},
		packages:  map[string]domain.Package{},
		functions: map[string]domain.Function{},
	}
}

func (s *memStore) repos() port.Repositories {
	return port.Repositories{
		Builds:    memBuilds{s},
		Resources: memResources{s},
		Logs:      memLogs{s},
		Packages:  memPackages{s},
		Functions: memFunctions{s},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos port.Repositories) error) error {
	s.mu.Lock()
	snapshot := []any{maps.Clone(s.builds), maps.Clone(s.resources), maps.Clone(s.logs), maps.Clone(s.packages), maps.Clone(s.functions)}
	s.mu.Unlock()

	if err := fn(ctx, s.repos()); err != nil {
		s.mu.Lock()
		s.builds = snapshot[0].(map[string]domain.Build)
		s.resources = snapshot[1].(map[string]domain.BuildResource)
		s.logs = snapshot[2].(map[string]domain.BuildLog)
		s.packages = snapshot[3].(map[string]domain.Package)
		s.functions = snapshot[4].(map[string]domain.Function)
		s.mu.Unlock()
		return err
	}
	return nil
}

type memBuilds struct{ s *memStore }

func (r memBuilds) Save(_ context.Context, b *domain.Build) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.builds[b.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.builds[b.ID] = *b
	return nil
}

func (r memBuilds) FindByID(_ context.Context, id string) (*domain.Build, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.builds[id]
	if !ok {
		return nil, domain.ErrBuildNotFound
	}
	return &b, nil
}

func (r memBuilds) FindByEnvironment(_ context.Context, env string) ([]*domain.Build, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Build
	for _, b := range r.s.builds {
		if b.EnvironmentID == env {
			b := b
			out = append(out, &b)
		}
	}
	return out, nil
}

func (r memBuilds) Update(_ context.Context, b *domain.Build) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.builds[b.ID] = *b
	return nil
}

type memResources struct{ s *memStore }

func (r memResources) Save(_ context.Context, res *domain.BuildResource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resources[res.BuildID] = *res
	return nil
}

func (r memResources) FindByBuildID(_ context.Context, id string) (*domain.BuildResource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.resources[id]
	if !ok {
		return nil, fmt.Errorf("build resource %w", domain.ErrNotFound)
	}
	return &res, nil
}

type memLogs struct{ s *memStore }

func (r memLogs) Create(_ context.Context, l *domain.BuildLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.logs[l.BuildID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.logs[l.BuildID] = *l
	return nil
}

func (r memLogs) FindByBuildID(_ context.Context, id string) (*domain.BuildLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.logs[id]
	if !ok {
		return nil, domain.ErrBuildLogNotFound
	}
	return &l, nil
}

type memPackages struct{ s *memStore }

func (r memPackages) Create(_ context.Context, p *domain.Package) error {
	if r.s.onPackageCreate != nil {
		hook := r.s.onPackageCreate
		r.s.onPackageCreate = nil
		hook(r.s)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.packages {
		if existing.EnvironmentID == p.EnvironmentID && existing.Name == p.Name {
			return domain.ErrAlreadyExists
		}
	}
	r.s.packages[p.ID] = *p
	return nil
}

func (r memPackages) FindByID(_ context.Context, id string) (*domain.Package, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.packages[id]
	if !ok {
		return nil, domain.ErrPackageNotFound
	}
	return &p, nil
}

func (r memPackages) FindByEnvironmentAndName(_ context.Context, env, name string) (*domain.Package, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.packages {
		if p.EnvironmentID == env && p.Name == name {
			return &p, nil
		}
	}
	return nil, domain.ErrPackageNotFound
}

func (r memPackages) Update(_ context.Context, p *domain.Package) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.packages[p.ID]; !ok {
		return domain.ErrPackageNotFound
	}
	r.s.packages[p.ID] = *p
	return nil
}

type memFunctions struct{ s *memStore }

func (r memFunctions) FindByPackage(_ context.Context, pkgID string) ([]*domain.Function, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Function
	for _, f := range r.s.functions {
		if f.PackageID == pkgID {
			f := f
			out = append(out, &f)
		}
	}
	return out, nil
}

func (r memFunctions) FindByPackageAndName(_ context.Context, pkgID, name string) (*domain.Function, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.functions {
		if f.PackageID == pkgID && f.Name == name {
			return &f, nil
		}
	}
	return nil, domain.ErrFunctionNotFound
}

func (r memFunctions) Save(_ context.Context, f *domain.Function) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.onFunctionSave != nil {
		if err := r.s.onFunctionSave(f); err != nil {
			return err
		}
	}
	r.s.functions[f.ID] = *f
	return nil
}

// --- stub container engine ---

type stubEngine struct {
	buildErr  error
	pushErr   error
	removeErr error

	builtTags   []string
	pushedTags  []string
	removed     []port.ImageHandle
	dockerfiles []string
}

func (e *stubEngine) Build(_ context.Context, dir, tag string) (port.ImageHandle, string, error) {
	e.builtTags = append(e.builtTags, tag)
	if data, err := os.ReadFile(filepath.Join(dir, "Dockerfile")); err == nil {
		e.dockerfiles = append(e.dockerfiles, string(data))
	}
	if e.buildErr != nil {
		return port.ImageHandle{}, "", e.buildErr
	}
	return port.ImageHandle{ID: "sha256:abc", Tag: tag}, "Step 1/2 : FROM base\nSuccessfully built abc\n", nil
}

func (e *stubEngine) Push(_ context.Context, tag string) (string, error) {
	e.pushedTags = append(e.pushedTags, tag)
	if e.pushErr != nil {
		return "", e.pushErr
	}
	return "abc: Pushed\n", nil
}

func (e *stubEngine) RemoveImage(_ context.Context, h port.ImageHandle) error {
	e.removed = append(e.removed, h)
	return e.removeErr
}

type stubRenderer struct{}

func (stubRenderer) Render(name string, data port.BuildFileData) ([]byte, error) {
	if name != "python.Dockerfile" {
		return nil, fmt.Errorf("template %s: %w", name, domain.ErrUnsupportedLanguage)
	}
	return []byte("FROM " + data.Registry + "/python-base\nCOPY . /app\n"), nil
}

// --- stub task publisher ---

type stubPublisher struct {
	err       error
	published []string
}

func (p *stubPublisher) PublishBuild(_ context.Context, id string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

// --- fixtures ---

const greetManifest = `version: 1.0
package:
  name: greetings
  version: "1.2"
  language: python
  functions:
    - name: greet
      parameters:
        - name: who
          type: string
        - name: loud
          type: boolean
          default: "False"
    - name: farewell
      parameters: []
`

// packageContents 把 files 写入临时目录并打包。
func packageContents(t *testing.T, files map[string]string) []byte {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := archive.Pack(dir, &buf); err != nil {
		t.Fatalf("pack: %v", err)
	}
	return buf.Bytes()
}

func greetPackage(t *testing.T) []byte {
	return packageContents(t, map[string]string{
		"package.yaml": greetManifest,
		"functions.py": "def greet(who: str, loud: bool = False):\n    pass\n\ndef farewell():\n    pass\n",
	})
}
