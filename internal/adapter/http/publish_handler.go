package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/catattack05/functionary/internal/domain"
	"github.com/catattack05/functionary/internal/service"
)

// packageField 是上传包所用的 multipart 字段名。
const packageField = "package_contents"

// multipart 解析时驻留内存的上限，超出部分落到临时文件。
const multipartMemory = 8 << 20

type Publisher interface {
	Publish(ctx context.Context, req service.PublishRequest) (*domain.Build, error)
}

type PublishHandler struct {
	svc Publisher
}

func NewPublishHandler(svc Publisher) *PublishHandler {
	return &PublishHandler{svc: svc}
}

func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	env := chi.URLParam(r, "env")
	contents, err := readPackage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	build, err := h.svc.Publish(r.Context(), service.PublishRequest{
		Creator:       creatorOf(r),
		EnvironmentID: env,
		Contents:      contents,
	})
	if err != nil {
		if build != nil {
			// 构建已落库但投递失败，返回 id 方便排查
			slog.Error("build enqueue failed", "build_id", build.ID, "error", err)
			writeEnvelope(w, http.StatusServiceUnavailable, envelope{Data: build, Error: "build created but could not be queued"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, build)
}

func readPackage(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: expected multipart form: %v", domain.ErrInvalidInput, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile(packageField)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, packageField)
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", packageField, err)
	}
	return contents, nil
}

// creatorOf 优先取表单中的 creator，其次取 X-Creator 请求头。
func creatorOf(r *http.Request) string {
	if c := r.FormValue("creator"); c != "" {
		return c
	}
	return r.Header.Get("X-Creator")
}
