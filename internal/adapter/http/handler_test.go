package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/service"
)

type stubPublisher struct {
	got   service.PublishRequest
	build *domain.Build
	err   error
}

func (s *stubPublisher) Publish(_ context.Context, req service.PublishRequest) (*domain.Build, error) {
	s.got = req
	return s.build, s.err
}

type stubQuerier struct {
	builds    map[string]*domain.Build
	logs      map[string]*domain.BuildLog
	listEnv   string
	pkg       *domain.Package
	functions []*domain.Function
}

func (s *stubQuerier) GetBuild(_ context.Context, id string) (*domain.Build, error) {
	b, ok := s.builds[id]
	if !ok {
		return nil, domain.ErrBuildNotFound
	}
	return b, nil
}

func (s *stubQuerier) ListBuilds(_ context.Context, env string) ([]*domain.Build, error) {
	s.listEnv = env
	var out []*domain.Build
	for _, b := range s.builds {
		out = append(out, b)
	}
	return out, nil
}

func (s *stubQuerier) GetBuildLog(_ context.Context, id string) (*domain.BuildLog, error) {
	if _, ok := s.builds[id]; !ok {
		return nil, domain.ErrBuildNotFound
	}
	if l, ok := s.logs[id]; ok {
		return l, nil
	}
	return &domain.BuildLog{BuildID: id}, nil
}

func (s *stubQuerier) GetPackage(_ context.Context, env, name string) (*domain.Package, []*domain.Function, error) {
	if s.pkg == nil || s.pkg.EnvironmentID != env || s.pkg.Name != name {
		return nil, nil, domain.ErrPackageNotFound
	}
	return s.pkg, s.functions, nil
}

func newTestRouter(pub *stubPublisher, q *stubQuerier) http.Handler {
	return NewRouter(NewPublishHandler(pub), NewBuildHandler(q), NewPackageHandler(q), RouterConfig{
		APIToken:       "secret",
		MaxPackageSize: 1 << 20,
	})
}

func multipartBody(t *testing.T, field string, contents []byte, creator string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if creator != "" {
		if err := mw.WriteField("creator", creator); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile(field, "package.tar.gz")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(contents); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func doRequest(h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestPublish(t *testing.T) {
	build := &domain.Build{ID: "b1", EnvironmentID: "env1", Status: domain.BuildStatusCreated, CreatedAt: time.Now()}

	tests := []struct {
		name       string
		field      string
		pubErr     error
		pubBuild   *domain.Build
		wantStatus int
		wantCalled bool
	}{
		{"created", packageField, nil, build, http.StatusCreated, true},
		{"missing file field", "other", nil, nil, http.StatusBadRequest, false},
		{"invalid package", packageField, fmt.Errorf("%w: package.yaml not found", domain.ErrInvalidPackage), nil, http.StatusBadRequest, true},
		{"schema error", packageField, fmt.Errorf("%w: unknown type", domain.ErrSchema), nil, http.StatusBadRequest, true},
		{"enqueue failure", packageField, errors.New("broker down"), build, http.StatusServiceUnavailable, true},
		{"storage failure", packageField, errors.New("db down"), nil, http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &stubPublisher{build: tt.pubBuild, err: tt.pubErr}
			h := newTestRouter(pub, &stubQuerier{})

			body, ctype := multipartBody(t, tt.field, []byte("archive"), "alice")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/environments/env1/publish", body)
			req.Header.Set("Content-Type", ctype)
			rec, _ := doRequest(h, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if called := pub.got.EnvironmentID != ""; called != tt.wantCalled {
				t.Fatalf("publisher called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantCalled {
				if pub.got.EnvironmentID != "env1" || pub.got.Creator != "alice" || string(pub.got.Contents) != "archive" {
					t.Errorf("request = %+v", pub.got)
				}
			}
		})
	}
}

func TestPublish_RequiresAPIKey(t *testing.T) {
	h := newTestRouter(&stubPublisher{}, &stubQuerier{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/environments/env1/publish", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestBuildEndpoints(t *testing.T) {
	q := &stubQuerier{
		builds: map[string]*domain.Build{
			"b1": {ID: "b1", EnvironmentID: "env1", Status: domain.BuildStatusComplete},
			"b2": {ID: "b2", EnvironmentID: "env1", Status: domain.BuildStatusInProgress},
		},
		logs: map[string]*domain.BuildLog{"b1": {BuildID: "b1", Log: "BUILD RESULTS:\nok"}},
	}
	h := newTestRouter(&stubPublisher{}, q)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"get build", "/api/v1/builds/b1", http.StatusOK, `"status":"COMPLETE"`},
		{"missing build", "/api/v1/builds/nope", http.StatusNotFound, `"error":"build not found"`},
		{"terminal log", "/api/v1/builds/b1/log", http.StatusOK, `"log":"BUILD RESULTS:\nok"`},
		{"pending log is empty", "/api/v1/builds/b2/log", http.StatusOK, `"log":""`},
		{"missing log", "/api/v1/builds/nope/log", http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !bytes.Contains(rec.Body.Bytes(), []byte(tt.wantBody)) {
				t.Errorf("body = %s, want substring %s", rec.Body.String(), tt.wantBody)
			}
		})
	}

	t.Run("list passes environment filter", func(t *testing.T) {
		rec, env := doRequest(h, httptest.NewRequest(http.MethodGet, "/api/v1/builds?environment=env1", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if q.listEnv != "env1" {
			t.Errorf("environment = %q, want %q", q.listEnv, "env1")
		}
		if list, ok := env.Data.([]any); !ok || len(list) != 2 {
			t.Errorf("data = %v, want 2 builds", env.Data)
		}
	})
}

func TestPackageEndpoint(t *testing.T) {
	q := &stubQuerier{
		pkg: &domain.Package{ID: "p1", EnvironmentID: "env1", Name: "greetings", ImageName: "env1/greetings:1.0"},
		functions: []*domain.Function{
			{ID: "f1", PackageID: "p1", Name: "greet", Schema: json.RawMessage(`{"title":"greet"}`)},
		},
	}
	h := newTestRouter(&stubPublisher{}, q)

	rec, env := doRequest(h, httptest.NewRequest(http.MethodGet, "/api/v1/environments/env1/packages/greetings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	data, _ := env.Data.(map[string]any)
	if data["image_name"] != "env1/greetings:1.0" {
		t.Errorf("image_name = %v", data["image_name"])
	}
	fns, _ := data["functions"].([]any)
	if len(fns) != 1 {
		t.Fatalf("functions = %v", data["functions"])
	}
	if schema := fns[0].(map[string]any)["schema"].(map[string]any); schema["title"] != "greet" {
		t.Errorf("schema = %v", schema)
	}

	rec, _ = doRequest(h, httptest.NewRequest(http.MethodGet, "/api/v1/environments/env2/packages/greetings", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("other environment status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrBuildNotFound, http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{fmt.Errorf("%w: bad", domain.ErrParse), http.StatusBadRequest},
		{domain.ErrPermissionDenied, http.StatusForbidden},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := errorStatus(tt.err); got != tt.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(&stubPublisher{}, &stubQuerier{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
