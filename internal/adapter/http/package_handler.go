package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/catattack05/functionary/internal/domain"
)

type PackageQuerier interface {
	GetPackage(ctx context.Context, environmentID, name string) (*domain.Package, []*domain.Function, error)
}

type PackageHandler struct {
	svc PackageQuerier
}

func NewPackageHandler(svc PackageQuerier) *PackageHandler {
	return &PackageHandler{svc: svc}
}

type packageResponse struct {
	*domain.Package
	Functions []*domain.Function `json:"functions"`
}

func (h *PackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	pkg, fns, err := h.svc.GetPackage(r.Context(), chi.URLParam(r, "env"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, packageResponse{Package: pkg, Functions: fns})
}
