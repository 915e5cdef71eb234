package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/catattack05/functionary/internal/domain"
)

type BuildQuerier interface {
	GetBuild(ctx context.Context, id string) (*domain.Build, error)
	ListBuilds(ctx context.Context, environmentID string) ([]*domain.Build, error)
	GetBuildLog(ctx context.Context, id string) (*domain.BuildLog, error)
}

type BuildHandler struct {
	svc BuildQuerier
}

func NewBuildHandler(svc BuildQuerier) *BuildHandler {
	return &BuildHandler{svc: svc}
}

func (h *BuildHandler) List(w http.ResponseWriter, r *http.Request) {
	builds, err := h.svc.ListBuilds(r.Context(), r.URL.Query().Get("environment"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, builds)
}

func (h *BuildHandler) Get(w http.ResponseWriter, r *http.Request) {
	build, err := h.svc.GetBuild(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, build)
}

func (h *BuildHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	log, err := h.svc.GetBuildLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"log": log.Log})
}
